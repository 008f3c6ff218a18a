package schema

// Provider limit table for strict structured output. Hard limits reject
// the schema; soft thresholds only produce advisory warnings.
const (
	maxAnyOfBranches   = 10  // per anyOf block
	maxTotalAnyOf      = 40  // soft: explicit branches + implicit optional-field branches
	maxDefs            = 20  // $defs / definitions entries
	maxDepth           = 8   // nesting depth of the value tree
	maxObjectProps     = 64  // properties per object node
	maxEnumValues      = 250 // values per enum
	manyOptionalFields = 12  // soft: each optional field costs an implicit anyOf-with-null branch
)

// supportedFormats is the provider's string-format whitelist.
var supportedFormats = map[string]bool{
	"date-time": true,
	"date":      true,
	"time":      true,
	"duration":  true,
	"email":     true,
	"hostname":  true,
	"ipv4":      true,
	"ipv6":      true,
	"uuid":      true,
}

// unsupportedKeywords hard-reject: the provider cannot express them.
var unsupportedKeywords = []string{
	"if",
	"then",
	"else",
	"not",
	"oneOf",
	"dependentSchemas",
	"dependentRequired",
	"dependencies",
	"unevaluatedProperties",
	"unevaluatedItems",
	"$dynamicRef",
	"$dynamicAnchor",
}

// ignoredKeywords are silently dropped by the provider; their presence
// is a warning, not an error, and AutoFix strips them.
var ignoredKeywords = []string{
	"minLength",
	"maxLength",
	"minimum",
	"maximum",
	"exclusiveMinimum",
	"exclusiveMaximum",
	"multipleOf",
	"uniqueItems",
	"maxItems",
	"minProperties",
	"maxProperties",
	"contains",
	"minContains",
	"maxContains",
	"default",
	"deprecated",
	"readOnly",
	"writeOnly",
}

// unsupportedRegex lists regex constructs the provider's pattern engine
// rejects even when Go compiles them.
var unsupportedRegex = []string{
	`(?=`,  // lookahead
	`(?!`,  // negative lookahead
	`(?<=`, // lookbehind
	`(?<!`, // negative lookbehind
	`\b`,   // word boundary
	`\1`, `\2`, `\3`, `\4`, `\5`, `\6`, `\7`, `\8`, `\9`, // backreferences
}

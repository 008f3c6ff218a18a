// Package preset resolves named prompt and schema presets: built-ins
// compiled into the binary plus user YAML files loaded from a directory.
// A referenced preset that cannot be found degrades to empty text with a
// log line; resolution never fails hard.
package preset

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"cardforge/internal/pipeline"
)

// PromptPreset is a named reusable instruction text.
type PromptPreset struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Text string `yaml:"text" json:"text"`
}

// SchemaPreset is a named reusable structured-output schema description.
type SchemaPreset struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Schema string `yaml:"schema" json:"schema"`
}

type presetFile struct {
	Prompts []PromptPreset `yaml:"prompts"`
	Schemas []SchemaPreset `yaml:"schemas"`
}

// Store looks presets up by id. File presets shadow built-ins with the
// same id. Lookups go through an LRU so repeated prompt builds do not
// re-read the directory.
type Store struct {
	dir string

	prompts *lru.Cache[string, PromptPreset]
	schemas *lru.Cache[string, SchemaPreset]
}

func NewStore(dir string) *Store {
	prompts, _ := lru.New[string, PromptPreset](256)
	schemas, _ := lru.New[string, SchemaPreset](256)
	return &Store{dir: strings.TrimSpace(dir), prompts: prompts, schemas: schemas}
}

// Prompt resolves a prompt preset by id.
func (s *Store) Prompt(id string) (PromptPreset, bool) {
	if p, ok := s.prompts.Get(id); ok {
		return p, true
	}
	if p, ok := s.filePrompt(id); ok {
		s.prompts.Add(id, p)
		return p, true
	}
	if p, ok := builtinPrompts[id]; ok {
		return p, true
	}
	return PromptPreset{}, false
}

// Schema resolves a schema preset by id.
func (s *Store) Schema(id string) (SchemaPreset, bool) {
	if p, ok := s.schemas.Get(id); ok {
		return p, true
	}
	if p, ok := s.fileSchema(id); ok {
		s.schemas.Add(id, p)
		return p, true
	}
	if p, ok := builtinSchemas[id]; ok {
		return p, true
	}
	return SchemaPreset{}, false
}

// ListPrompts returns every known prompt preset, built-ins last, sorted
// by id within each group.
func (s *Store) ListPrompts() []PromptPreset {
	seen := map[string]bool{}
	var out []PromptPreset
	for _, f := range s.loadFiles() {
		for _, p := range f.Prompts {
			if p.ID == "" || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	ids := make([]string, 0, len(builtinPrompts))
	for id := range builtinPrompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !seen[id] {
			out = append(out, builtinPrompts[id])
		}
	}
	return out
}

// ResolvePrompt returns the stage's effective instruction text: preset
// content when a preset id is set (empty with a log line if the preset
// is missing), custom text otherwise.
func (s *Store) ResolvePrompt(cfg pipeline.StageConfig) string {
	if cfg.PresetID != "" {
		p, ok := s.Prompt(cfg.PresetID)
		if !ok {
			log.Printf("preset: prompt preset %q not found", cfg.PresetID)
			return ""
		}
		return p.Text
	}
	return cfg.CustomPrompt
}

// ResolveSchema returns the stage's effective schema text, "" when
// structured output is off or the referenced preset is missing.
func (s *Store) ResolveSchema(cfg pipeline.StageConfig) string {
	if !cfg.Structured {
		return ""
	}
	if cfg.SchemaPresetID != "" {
		p, ok := s.Schema(cfg.SchemaPresetID)
		if !ok {
			log.Printf("preset: schema preset %q not found", cfg.SchemaPresetID)
			return ""
		}
		return p.Schema
	}
	return cfg.CustomSchema
}

// Resolver adapts the store to the pipeline's PromptResolver shape for a
// given state.
func (s *Store) Resolver(st pipeline.State) pipeline.PromptResolver {
	return func(stage pipeline.Stage) string {
		return s.ResolvePrompt(st.Configs[stage])
	}
}

func (s *Store) filePrompt(id string) (PromptPreset, bool) {
	for _, f := range s.loadFiles() {
		for _, p := range f.Prompts {
			if p.ID == id {
				return p, true
			}
		}
	}
	return PromptPreset{}, false
}

func (s *Store) fileSchema(id string) (SchemaPreset, bool) {
	for _, f := range s.loadFiles() {
		for _, p := range f.Schemas {
			if p.ID == id {
				return p, true
			}
		}
	}
	return SchemaPreset{}, false
}

// loadFiles reads every *.yaml preset file under dir, sorted by name.
// Unreadable or malformed files are skipped with a log line.
func (s *Store) loadFiles() []presetFile {
	if s.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []presetFile
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var f presetFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			log.Printf("preset: skipping %s: %v", name, err)
			continue
		}
		out = append(out, f)
	}
	return out
}

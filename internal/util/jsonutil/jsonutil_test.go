package jsonutil

import (
	"strings"
	"testing"
)

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"note": "a < b && c > d"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), `<`) {
		t.Fatalf("html escaping applied: %s", out)
	}
	if strings.HasSuffix(string(out), "\n") {
		t.Fatalf("trailing newline survived")
	}
}

func TestUnmarshalFlexDirect(t *testing.T) {
	var v map[string]any
	if err := UnmarshalFlex([]byte(`{"name":"Captain"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v["name"] != "Captain" {
		t.Fatalf("name: %v", v["name"])
	}
}

func TestUnmarshalFlexStringWrapped(t *testing.T) {
	// A JSON object arriving string-encoded (one extra level).
	var v map[string]any
	if err := UnmarshalFlex([]byte(`"{\"name\":\"Captain\"}"`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v["name"] != "Captain" {
		t.Fatalf("name: %v", v["name"])
	}
}

func TestUnmarshalFlexRejectsGarbage(t *testing.T) {
	var v any
	if err := UnmarshalFlex([]byte("not json at all"), &v); err == nil {
		t.Fatalf("garbage accepted")
	}
}

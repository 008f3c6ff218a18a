package card

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseBareCard(t *testing.T) {
	c, err := Parse([]byte(`{"name":"Captain","description":"A sea captain."}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Name != "Captain" || c.Description != "A sea captain." {
		t.Fatalf("card: %+v", c)
	}
}

func TestParseEnvelope(t *testing.T) {
	c, err := Parse([]byte(`{"spec":"chara_card_v2","data":{"name":"Captain","scenario":"At sea."}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Name != "Captain" || c.Scenario != "At sea." {
		t.Fatalf("card: %+v", c)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte(`{broken`)); err == nil {
		t.Fatalf("malformed JSON parsed")
	}
	if _, err := Parse([]byte(`{"description":"no name"}`)); err == nil {
		t.Fatalf("card without a name parsed")
	}
}

func TestFileProviderStableOrder(t *testing.T) {
	dir := t.TempDir()
	write := func(name, card string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(card), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("b.json", `{"name":"Beta"}`)
	write("a.json", `{"name":"Alpha"}`)
	write("broken.json", `{nope`)
	write("notes.txt", `not a card`)

	p, err := NewFileProvider(dir)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	cards := p.List()
	if len(cards) != 2 || cards[0].Name != "Alpha" || cards[1].Name != "Beta" {
		t.Fatalf("cards: %+v", cards)
	}

	if _, ok := p.Get(2); ok {
		t.Fatalf("out-of-range index resolved")
	}
	if c, ok := p.Get(1); !ok || c.Name != "Beta" {
		t.Fatalf("get(1): ok=%v", ok)
	}

	write("c.json", `{"name":"Gamma"}`)
	if err := p.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := len(p.List()); got != 3 {
		t.Fatalf("after reload: %d cards", got)
	}
}

package card

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Provider exposes an addressable list of cards. The pipeline only ever
// reads by index; edits come in through Reload.
type Provider interface {
	List() []*CharacterCard
	Get(index int) (*CharacterCard, bool)
}

// FileProvider loads *.json card files from a directory, sorted by file
// name so indices are stable across processes.
type FileProvider struct {
	dir string

	mu    sync.RWMutex
	cards []*CharacterCard
}

func NewFileProvider(dir string) (*FileProvider, error) {
	p := &FileProvider{dir: strings.TrimSpace(dir)}
	if p.dir == "" {
		return nil, fmt.Errorf("card: provider dir is required")
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the directory. Unreadable or malformed files are
// skipped; an empty directory is not an error.
func (p *FileProvider) Reload() error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("card: read dir %s: %w", p.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	cards := make([]*CharacterCard, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(p.dir, name))
		if err != nil {
			continue
		}
		c, err := Parse(data)
		if err != nil {
			continue
		}
		cards = append(cards, c)
	}

	p.mu.Lock()
	p.cards = cards
	p.mu.Unlock()
	return nil
}

func (p *FileProvider) List() []*CharacterCard {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*CharacterCard, len(p.cards))
	copy(out, p.cards)
	return out
}

func (p *FileProvider) Get(index int) (*CharacterCard, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if index < 0 || index >= len(p.cards) {
		return nil, false
	}
	return p.cards[index], true
}

// Parse accepts either a bare card object or the common {spec, data}
// envelope and returns the card.
func Parse(data []byte) (*CharacterCard, error) {
	var wrapped struct {
		Spec string         `json:"spec"`
		Data *CharacterCard `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Data != nil && wrapped.Data.Name != "" {
		return wrapped.Data, nil
	}
	var c CharacterCard
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("card: parse: %w", err)
	}
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("card: parse: missing name")
	}
	return &c, nil
}

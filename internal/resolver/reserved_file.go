package resolver

import (
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileReservedPolicy is a YAML-backed ReservedItemsPolicy: a flat list
// of item names bundles/gifts must never be smart-sold out of. It is
// safe to call Reload concurrently with IsReserved, since the
// reserved-items file's fsnotify watcher and the resolver's Resolve
// call run on different goroutines.
type FileReservedPolicy struct {
	mu    sync.RWMutex
	names map[string]bool
}

type reservedFile struct {
	Reserved []string `yaml:"reserved"`
}

// NewFileReservedPolicy loads path (a YAML document with a top-level
// `reserved: [...]` list) into a policy. A missing file yields an
// empty (reserve-nothing) policy rather than an error, since the
// reserved-items list is optional configuration.
func NewFileReservedPolicy(path string) (*FileReservedPolicy, error) {
	p := &FileReservedPolicy{names: map[string]bool{}}
	if err := p.Reload(path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return p, nil
}

// Reload re-reads path and atomically swaps the reserved-name set.
func (p *FileReservedPolicy) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc reservedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	names := make(map[string]bool, len(doc.Reserved))
	for _, n := range doc.Reserved {
		names[strings.ToLower(strings.TrimSpace(n))] = true
	}
	p.mu.Lock()
	p.names = names
	p.mu.Unlock()
	return nil
}

// IsReserved implements ReservedItemsPolicy.
func (p *FileReservedPolicy) IsReserved(itemName string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.names[strings.ToLower(strings.TrimSpace(itemName))]
}

// Package alarm maps device alarm codes to alerts through a read-only catalog.
package alarm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Entry describes one alarm code.
type Entry struct {
	Code        int      `yaml:"-" toml:"-" bson:"code"`
	Description string   `yaml:"description" toml:"description" bson:"description"`
	Actions     []string `yaml:"actions" toml:"actions" bson:"actions"`
}

func (e Entry) clone() Entry {
	e.Actions = append([]string(nil), e.Actions...)
	return e
}

// Catalog is an immutable alarm code index. Build it once and share it.
type Catalog struct {
	entries map[int]Entry
}

// NewCatalog copies entries into a new catalog. Duplicate codes are rejected.
func NewCatalog(entries []Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[int]Entry, len(entries))}
	for _, e := range entries {
		if _, exists := c.entries[e.Code]; exists {
			return nil, fmt.Errorf("alarm code %d defined twice", e.Code)
		}
		if e.Description == "" {
			return nil, fmt.Errorf("alarm code %d has no description", e.Code)
		}
		c.entries[e.Code] = e.clone()
	}
	return c, nil
}

// Lookup returns a copy of the entry for code.
func (c *Catalog) Lookup(code int) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[code]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Codes returns the known codes in ascending order.
func (c *Catalog) Codes() []int {
	if c == nil {
		return nil
	}
	codes := make([]int, 0, len(c.entries))
	for code := range c.entries {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// LoadFile reads a catalog from a YAML (.yaml, .yml) or TOML (.toml) file.
// Both formats map the alarm code to its description and actions.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alarm catalog: %w", err)
	}

	var entries []Entry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		entries, err = parseYAML(data)
	case ".toml":
		entries, err = parseTOML(data)
	default:
		return nil, fmt.Errorf("alarm catalog %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse alarm catalog %s: %w", path, err)
	}
	return NewCatalog(entries)
}

func parseYAML(data []byte) ([]Entry, error) {
	var raw map[int]Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for code, e := range raw {
		e.Code = code
		entries = append(entries, e)
	}
	return entries, nil
}

// parseTOML accepts decimal or 0x-prefixed codes as table names.
func parseTOML(data []byte) ([]Entry, error) {
	var raw map[string]Entry
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for key, e := range raw {
		code, err := strconv.ParseInt(key, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid alarm code %q", key)
		}
		e.Code = int(code)
		entries = append(entries, e)
	}
	return entries, nil
}

package category

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCategory always exists and is used when nothing else matches.
const DefaultCategory = "default"

//go:embed categories.yaml
var defaultTableYAML []byte

// Category is a topical bucket with keyword stems and candidate clips.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Clips    []string `yaml:"clips" json:"clips"`
}

// Table is an immutable, ordered set of categories. Build a new Table to
// change it; never mutate one that has been handed out.
type Table struct {
	categories []Category
	index      map[string]int
}

type tableFile struct {
	Categories []Category `yaml:"categories"`
}

// NewTable validates and copies categories. Declaration order is kept and
// a "default" category is appended when missing.
func NewTable(categories []Category) (*Table, error) {
	t := &Table{index: make(map[string]int, len(categories)+1)}
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate category: %s", name)
		}
		keywords := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = lower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		t.index[name] = len(t.categories)
		t.categories = append(t.categories, Category{
			Name:     name,
			Keywords: keywords,
			Clips:    append([]string(nil), c.Clips...),
		})
	}
	if _, ok := t.index[DefaultCategory]; !ok {
		t.index[DefaultCategory] = len(t.categories)
		t.categories = append(t.categories, Category{Name: DefaultCategory})
	}
	return t, nil
}

// ParseTable decodes a YAML category table.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse category table: %w", err)
	}
	return NewTable(f.Categories)
}

// LoadTable reads a YAML table from disk, or the built-in table when path
// is empty.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category table: %w", err)
	}
	return ParseTable(data)
}

// DefaultTable is the built-in table.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTableYAML)
}

// Categories returns a copy in declaration order.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{
			Name:     c.Name,
			Keywords: append([]string(nil), c.Keywords...),
			Clips:    append([]string(nil), c.Clips...),
		}
	}
	return out
}

// Names returns category names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}

// Clips returns the candidate clip references of a category.
func (t *Table) Clips(name string) []string {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return append([]string(nil), t.categories[i].Clips...)
}

// Has reports whether the category exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

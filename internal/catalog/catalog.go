// Package catalog holds the static list of models the server advertises.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultYAML []byte

const defaultOwner = "system"

type Model struct {
	ID         string `yaml:"id" json:"id"`
	Capability string `yaml:"capability" json:"capability"`
	OwnedBy    string `yaml:"owned_by,omitempty" json:"owned_by"`
}

type file struct {
	Models []Model `yaml:"models"`
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	models []Model
	byID   map[string]int
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded models.yaml: %v", err))
	}
	return c
}

// Load reads a catalog from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if len(f.Models) == 0 {
		return nil, errors.New("catalog: no models defined")
	}
	c := &Catalog{byID: make(map[string]int, len(f.Models))}
	for _, m := range f.Models {
		if m.ID == "" {
			return nil, errors.New("catalog: model without id")
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate model %q", m.ID)
		}
		if m.OwnedBy == "" {
			m.OwnedBy = defaultOwner
		}
		c.byID[m.ID] = len(c.models)
		c.models = append(c.models, m)
	}
	return c, nil
}

// List returns the models in declaration order.
func (c *Catalog) List() []Model {
	return append([]Model(nil), c.models...)
}

func (c *Catalog) Len() int { return len(c.models) }

func (c *Catalog) Lookup(id string) (Model, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Model{}, false
	}
	return c.models[i], true
}

// Capability describes id in one phrase. Unknown models get a generic line.
func (c *Catalog) Capability(id string) string {
	if m, ok := c.Lookup(id); ok && m.Capability != "" {
		return m.Capability
	}
	return id + " advanced AI capabilities"
}

package inventory

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed default_items.yaml
var defaultItemsYAML []byte

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// ParseCatalog reads an item list in YAML form:
//
//	items:
//	  - id: "1"
//	    name: Potion
//	    description: Restores 50 HP
//	    image: potion.png
func ParseCatalog(r io.Reader) ([]Item, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("failed to parse item catalog: %w", err)
	}
	for i, item := range file.Items {
		if err := item.validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	if file.Items == nil {
		file.Items = []Item{}
	}
	return file.Items, nil
}

// DefaultItems returns the built-in item list.
func DefaultItems() []Item {
	items, err := ParseCatalog(bytes.NewReader(defaultItemsYAML))
	if err != nil {
		panic(fmt.Sprintf("inventory: embedded default catalog is invalid: %v", err))
	}
	return items
}

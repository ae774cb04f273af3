// Package catalog reads a TOML file mapping cry names to their
// cartridge location and default synthesis parameters.
package catalog

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Entry names one cry's location and default synthesis parameters.
type Entry struct {
	Bank   int   `toml:"bank"`
	Addr   int   `toml:"addr"`
	Pitch  int8  `toml:"pitch"`
	Length uint8 `toml:"length"`
}

// Catalog maps a cry name (e.g. "pidgey") to its Entry.
type Catalog struct {
	Cry map[string]Entry `toml:"cry"`
}

// Load reads a TOML catalog file of the form:
//
//	[cry.pidgey]
//	bank = 0x05
//	addr = 0x4182
//	pitch = 0
//	length = 0
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	var cat Catalog
	if _, err := toml.Decode(string(data), &cat); err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", path, err)
	}
	return &cat, nil
}

// Lookup finds an entry by name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	e, ok := c.Cry[name]
	return e, ok
}

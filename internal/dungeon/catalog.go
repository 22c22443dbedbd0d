package dungeon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var ErrDuplicateDungeon = errors.New("duplicate dungeon id")

// Template is the on-disk form of a dungeon.
type Template struct {
	ID   string   `yaml:"id" toml:"id"`
	Name string   `yaml:"name" toml:"name"`
	Rows []string `yaml:"rows" toml:"rows"`
}

type templateFile struct {
	Dungeons []Template `yaml:"dungeons" toml:"dungeons"`
}

// Catalog holds the known dungeon layouts.
type Catalog struct {
	maps         map[string]Map
	names        map[string]string
	allowDefault bool
}

// NewCatalog builds a catalog from maps. With allowDefault set, lookups for
// unknown ids fall back to the built-in layout.
func NewCatalog(allowDefault bool, maps ...Map) (*Catalog, error) {
	c := &Catalog{
		maps:         make(map[string]Map, len(maps)),
		names:        make(map[string]string, len(maps)),
		allowDefault: allowDefault,
	}
	for _, m := range maps {
		if err := c.add(m, ""); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadCatalog reads every .yaml, .yml and .toml file in dir. An empty dir
// yields a catalog with no templates.
func LoadCatalog(dir string, allowDefault bool) (*Catalog, error) {
	c, _ := NewCatalog(allowDefault)
	if dir == "" {
		return c, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dungeon dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".toml":
		default:
			continue
		}

		templates, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, tmpl := range templates {
			m, err := FromRows(tmpl.ID, tmpl.Rows)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if err := c.add(m, tmpl.Name); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	return c, nil
}

// LoadFile parses one template file, choosing the decoder by extension.
func LoadFile(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dungeon file %s: %w", path, err)
	}

	var file templateFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse dungeon file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse dungeon file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported dungeon file %s", path)
	}

	return file.Dungeons, nil
}

func (c *Catalog) add(m Map, name string) error {
	if _, exists := c.maps[m.DungeonID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDungeon, m.DungeonID)
	}
	c.maps[m.DungeonID] = m.Clone()
	if name != "" {
		c.names[m.DungeonID] = name
	}
	return nil
}

// Lookup returns a private copy of the layout for dungeonID.
func (c *Catalog) Lookup(dungeonID string) (Map, bool) {
	if m, ok := c.maps[dungeonID]; ok {
		return m.Clone(), true
	}
	if c.allowDefault && dungeonID != "" {
		return Default(dungeonID), true
	}
	return Map{}, false
}

// Name returns the display name of a template, falling back to its id.
func (c *Catalog) Name(dungeonID string) string {
	if name, ok := c.names[dungeonID]; ok {
		return name
	}
	return dungeonID
}

func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.maps))
	for id := range c.maps {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

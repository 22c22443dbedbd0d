package dungeon

import (
	"fmt"
	"strings"
)

const (
	Wall  = "#"
	Floor = " "
)

// Map is the tile layout of one dungeon. Sessions own a private copy.
type Map struct {
	DungeonID string
	Tiles     [][]string
}

// FromRows builds a Map from one string per row, one tile per rune.
func FromRows(dungeonID string, rows []string) (Map, error) {
	if dungeonID == "" {
		return Map{}, fmt.Errorf("dungeon without id")
	}
	if len(rows) == 0 {
		return Map{}, fmt.Errorf("dungeon %q has no rows", dungeonID)
	}

	width := len([]rune(rows[0]))
	tiles := make([][]string, len(rows))
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != width {
			return Map{}, fmt.Errorf("dungeon %q: row %d has width %d, want %d", dungeonID, y, len(runes), width)
		}
		tiles[y] = make([]string, len(runes))
		for x, r := range runes {
			tiles[y][x] = string(r)
		}
	}

	return Map{DungeonID: dungeonID, Tiles: tiles}, nil
}

// Clone returns a deep copy of m.
func (m Map) Clone() Map {
	tiles := make([][]string, len(m.Tiles))
	for y, row := range m.Tiles {
		tiles[y] = append([]string(nil), row...)
	}
	return Map{DungeonID: m.DungeonID, Tiles: tiles}
}

func (m Map) Width() int {
	if len(m.Tiles) == 0 {
		return 0
	}
	return len(m.Tiles[0])
}

func (m Map) Height() int {
	return len(m.Tiles)
}

// Rows renders the map back into one string per row.
func (m Map) Rows() []string {
	rows := make([]string, len(m.Tiles))
	for y, row := range m.Tiles {
		rows[y] = strings.Join(row, "")
	}
	return rows
}

var defaultRows = []string{
	"#################",
	"#      #   #    #",
	"#      #   #    #",
	"#      #        #",
	"#      #   #    #",
	"#      #   #    #",
	"## ########### ##",
	"#   #      #    #",
	"#               #",
	"#   #      #    #",
	"#################",
}

// Default returns the built-in test layout labelled with dungeonID.
func Default(dungeonID string) Map {
	tiles := make([][]string, len(defaultRows))
	for y, row := range defaultRows {
		for _, r := range row {
			tiles[y] = append(tiles[y], string(r))
		}
	}
	return Map{DungeonID: dungeonID, Tiles: tiles}
}

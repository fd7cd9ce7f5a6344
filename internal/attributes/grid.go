// Package attributes defines the ten-cell attribute grid of a character
// sheet together with the labels and help text shown for each cell.
package attributes

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Size is the number of attributes on a sheet.
const Size = 10

// ErrIndexOutOfRange is returned for attribute indexes outside [0, Size).
var ErrIndexOutOfRange = errors.New("attribute index out of range")

// Grid holds the free-text value of every attribute, positionally bound to
// the labels. Any string is a valid cell value, including the empty string.
type Grid [Size]string

// NewGrid returns a grid of empty cells.
func NewGrid() Grid {
	return Grid{}
}

// CheckIndex reports whether index addresses a cell.
func CheckIndex(index int) error {
	if index < 0 || index >= Size {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return nil
}

// With returns a copy of g with the cell at index replaced.
func (g Grid) With(index int, value string) (Grid, error) {
	if err := CheckIndex(index); err != nil {
		return g, err
	}
	g[index] = value
	return g, nil
}

// Slice returns the cells as a slice.
func (g Grid) Slice() []string {
	return append([]string(nil), g[:]...)
}

// MarshalJSON encodes the grid as an array of exactly Size strings.
func (g Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g[:])
}

// UnmarshalJSON decodes an array of exactly Size strings. Any other shape is
// rejected so a truncated or foreign snapshot is never half-applied.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var cells []string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("decode attribute grid: %w", err)
	}
	if len(cells) != Size {
		return fmt.Errorf("decode attribute grid: want %d cells, got %d", Size, len(cells))
	}
	copy(g[:], cells)
	return nil
}

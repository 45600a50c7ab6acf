package persistence

import (
	"fmt"

	"github.com/talgya/mini-planet/internal/world"
)

// Packed cell layout, two bytes per cell:
//
//	byte 0: bit 7 land, bits 0-6 subtype
//	byte 1: one bit per flag, in flagBits order
const bytesPerCell = 2

var flagBits = [...]func(*world.Flags) *bool{
	func(f *world.Flags) *bool { return &f.City },
	func(f *world.Flags) *bool { return &f.Cultivated },
	func(f *world.Flags) *bool { return &f.Bryophyte },
	func(f *world.Flags) *bool { return &f.Polluted },
	func(f *world.Flags) *bool { return &f.SeaCity },
	func(f *world.Flags) *bool { return &f.SeaCultivated },
	func(f *world.Flags) *bool { return &f.SeaPolluted },
	func(f *world.Flags) *bool { return &f.Center },
}

// EncodeCells packs cells for storage. Colors are not stored; they are
// recomputed from the run's palette on load.
func EncodeCells(cells []world.TerrainCell) []byte {
	out := make([]byte, len(cells)*bytesPerCell)
	for i, c := range cells {
		b := byte(c.Terrain.Subtype) & 0x7f
		if c.Terrain.Type == world.TypeLand {
			b |= 0x80
		}
		var flags byte
		for bit, get := range flagBits {
			if *get(&c.Flags) {
				flags |= 1 << bit
			}
		}
		out[i*bytesPerCell] = b
		out[i*bytesPerCell+1] = flags
	}
	return out
}

// DecodeCells unpacks want cells from data.
func DecodeCells(data []byte, want int) ([]world.TerrainCell, error) {
	if len(data) != want*bytesPerCell {
		return nil, fmt.Errorf("packed grid has %d bytes, want %d", len(data), want*bytesPerCell)
	}
	cells := make([]world.TerrainCell, want)
	for i := range cells {
		b, flags := data[i*bytesPerCell], data[i*bytesPerCell+1]
		c := &cells[i]
		c.Terrain.Subtype = world.Subtype(b & 0x7f)
		if b&0x80 != 0 {
			c.Terrain.Type = world.TypeLand
		} else {
			c.Terrain.Type = world.TypeSea
		}
		for bit, get := range flagBits {
			*get(&c.Flags) = flags&(1<<bit) != 0
		}
	}
	return cells, nil
}

package world

import "github.com/talgya/mini-planet/internal/grid"

// centerColor highlights center cells when MarkCenters is set.
const centerColor = "#ff2020"

// Layers are the per-stage masks folded into the final grid.
type Layers struct {
	Land     []bool
	Zones    []Subtype // Classifier output
	Lake     []bool
	Highland []bool
	Alpine   []bool
	Tundra   []bool
	Ice      []bool
	Civ      CivMasks
	Centers  []Center
}

// reliefSubtypes overlays lakes, highlands and alpine cores on the zonal
// classification, then tundra when given.
func reliefSubtypes(zones []Subtype, lake, highland, alpine, tundra []bool) []Subtype {
	out := append([]Subtype(nil), zones...)
	for i := range out {
		if out[i].IsSea() {
			continue
		}
		switch {
		case lake[i]:
			out[i] = SubLake
		case alpine[i]:
			out[i] = SubAlpine
		case highland[i]:
			out[i] = SubHighland
		case tundra != nil && tundra[i]:
			out[i] = SubTundra
		}
	}
	return out
}

// Assemble folds every layer into one TerrainCell per grid cell and colors
// each by its resolved category.
func Assemble(topo grid.Topology, l Layers, palette Palette, markCenters bool) []TerrainCell {
	n := topo.Size()
	for name, m := range map[string][]bool{
		"land": l.Land, "lake": l.Lake, "highland": l.Highland,
		"alpine": l.Alpine, "tundra": l.Tundra, "ice": l.Ice,
	} {
		mustSize(name+" mask", len(m), n)
	}
	mustSize("zones", len(l.Zones), n)

	base := reliefSubtypes(l.Zones, l.Lake, l.Highland, l.Alpine, l.Tundra)
	cells := make([]TerrainCell, n)
	for i := range cells {
		c := &cells[i]
		sub := base[i]
		if l.Land[i] {
			c.Terrain.Type = TypeLand
			if l.Ice[i] {
				sub = SubGlacier
			}
		} else {
			c.Terrain.Type = TypeSea
			if l.Ice[i] {
				sub = SubSeaIce
			}
		}
		c.Terrain.Subtype = sub

		c.Flags = Flags{
			City:          l.Civ.Has(FeatureCity, i),
			Cultivated:    l.Civ.Has(FeatureCultivated, i),
			Bryophyte:     l.Civ.Has(FeatureBryophyte, i),
			Polluted:      l.Civ.Has(FeaturePolluted, i),
			SeaCity:       l.Civ.Has(FeatureSeaCity, i),
			SeaCultivated: l.Civ.Has(FeatureSeaCultivated, i),
			SeaPolluted:   l.Civ.Has(FeatureSeaPolluted, i),
		}
	}

	if markCenters {
		for _, ctr := range l.Centers {
			if i := topo.WrapIndex(int(ctr.X), int(ctr.Y)); i >= 0 {
				cells[i].Flags.Center = true
			}
		}
	}

	palette.Paint(cells)
	return cells
}

// Paint sets the color of every cell from its resolved category.
func (p Palette) Paint(cells []TerrainCell) {
	for i := range cells {
		if cells[i].Flags.Center {
			cells[i].ColorHex = centerColor
			continue
		}
		cells[i].ColorHex = p.Color(CategoryOf(cells[i]))
	}
}

// Package climate couples the generated terrain to a small energy-balance
// model: area fractions feed the model, and the model's temperature and
// green index feed the next run's configuration.
package climate

import "github.com/talgya/mini-planet/internal/world"

// AreaFractions are shares of the grid, each in [0,1]. Land and Ocean sum
// to 1; the rest overlap them. Green, Desert and Urban count land only.
type AreaFractions struct {
	Land     float64 `json:"land"`
	Ocean    float64 `json:"ocean"`
	Green    float64 `json:"green"`
	Desert   float64 `json:"desert"`
	Glacier  float64 `json:"glacier"` // Land ice and sea ice
	SeaIce   float64 `json:"sea_ice"`
	Urban    float64 `json:"urban"`
	Polluted float64 `json:"polluted"`
}

var oceanCategories = map[world.Category]bool{
	world.CatDeep:          true,
	world.CatShallow:       true,
	world.CatSeaIce:        true,
	world.CatSeaCity:       true,
	world.CatSeaCultivated: true,
	world.CatSeaPolluted:   true,
}

// Fractions converts final category counts into area fractions.
func Fractions(counts world.GridTypeCounts) AreaFractions {
	var f AreaFractions
	if counts.Total == 0 {
		return f
	}
	total := float64(counts.Total)
	for cat, n := range counts.ByCategory {
		share := float64(n) / total
		if oceanCategories[cat] {
			f.Ocean += share
		}
		switch cat {
		case world.CatLowland, world.CatBryophyte, world.CatCultivated:
			f.Green += share
		case world.CatDesert:
			f.Desert += share
		case world.CatGlacier:
			f.Glacier += share
		case world.CatSeaIce:
			f.Glacier += share
			f.SeaIce += share
		case world.CatCity:
			f.Urban += share
		case world.CatPolluted, world.CatSeaPolluted:
			f.Polluted += share
		}
	}
	f.Land = 1 - f.Ocean
	return f
}

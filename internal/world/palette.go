package world

import (
	"fmt"

	"github.com/talgya/mini-planet/internal/seed"
)

// rgb is an 8-bit color.
type rgb struct{ R, G, B uint8 }

func (c rgb) add(dr, dg, db int) rgb {
	ch := func(v uint8, d int) uint8 { return uint8(clamp(int(v)+d, 0, 255)) }
	return rgb{ch(c.R, dr), ch(c.G, dg), ch(c.B, db)}
}

func (c rgb) hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

var basePalette = [numCategories]rgb{
	CatSeaPolluted:   {92, 84, 60},
	CatSeaCity:       {178, 190, 204},
	CatSeaCultivated: {64, 140, 150},
	CatPolluted:      {110, 96, 74},
	CatCity:          {200, 196, 188},
	CatBryophyte:     {120, 150, 88},
	CatCultivated:    {196, 186, 92},
	CatDeep:          {24, 56, 120},
	CatShallow:       {52, 112, 172},
	CatSeaIce:        {214, 230, 240},
	CatLowland:       {72, 140, 64},
	CatDesert:        {214, 190, 128},
	CatHighland:      {132, 118, 84},
	CatAlpine:        {170, 164, 156},
	CatLake:          {70, 130, 190},
	CatGlacier:       {240, 246, 250},
	CatTundra:        {150, 160, 130},
}

// Palette maps every category to a display color.
type Palette struct {
	Era     Era                   `json:"era"`
	Variant int                   `json:"variant"`
	Colors  [numCategories]string `json:"colors"`
}

// eraShift tints the base palette per era; each era has two variants.
type eraShift struct {
	sea, land, green, built [3]int
}

var eraShifts = map[Era][2]eraShift{
	EraPrimordial: {
		{sea: [3]int{-6, 10, -10}, land: [3]int{-18, -20, -24}, green: [3]int{-20, -10, -10}},
		{sea: [3]int{0, 16, -4}, land: [3]int{-10, -16, -20}, green: [3]int{-14, 0, -16}},
	},
	EraAncient: {
		{},
		{land: [3]int{8, 6, 2}, green: [3]int{6, 12, 4}},
	},
	EraIndustrial: {
		{sea: [3]int{4, -4, -10}, built: [3]int{-20, -22, -24}},
		{sea: [3]int{8, 0, -14}, green: [3]int{-8, -12, -6}, built: [3]int{-28, -28, -26}},
	},
	EraModern: {
		{built: [3]int{16, 18, 24}},
		{sea: [3]int{-4, 4, 10}, built: [3]int{24, 24, 30}, green: [3]int{-4, 6, 0}},
	},
}

// categoryGroup buckets categories for era tinting.
func categoryGroup(c Category) int {
	switch c {
	case CatDeep, CatShallow, CatSeaCultivated, CatLake:
		return 0
	case CatLowland, CatBryophyte, CatCultivated, CatTundra:
		return 2
	case CatCity, CatSeaCity, CatPolluted, CatSeaPolluted:
		return 3
	case CatSeaIce, CatGlacier:
		return -1
	default:
		return 1
	}
}

// BuildPalette returns the palette for era and variant (0 or 1).
func BuildPalette(era Era, variant int) Palette {
	shifts, ok := eraShifts[era]
	if !ok {
		shifts = eraShifts[EraAncient]
	}
	variant = clamp(variant, 0, 1)
	sh := shifts[variant]
	p := Palette{Era: era, Variant: variant}
	for c := Category(0); c < numCategories; c++ {
		col := basePalette[c]
		var d [3]int
		switch categoryGroup(c) {
		case 0:
			d = sh.sea
		case 1:
			d = sh.land
		case 2:
			d = sh.green
		case 3:
			d = sh.built
		}
		p.Colors[c] = col.add(d[0], d[1], d[2]).hex()
	}
	return p
}

// ChoosePalette picks the era palette variant from the "palette" stream.
func ChoosePalette(era Era, streams *seed.Factory) Palette {
	return BuildPalette(era, streams.Must("palette").IntN(2))
}

// Color returns the hex color of category c.
func (p Palette) Color(c Category) string {
	if c >= numCategories {
		return "#000000"
	}
	return p.Colors[c]
}

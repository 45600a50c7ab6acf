package world

import "fmt"

// Category is the resolved display/statistics class of a cell.
type Category uint8

const (
	CatSeaPolluted Category = iota
	CatSeaCity
	CatSeaCultivated
	CatPolluted
	CatCity
	CatBryophyte
	CatCultivated
	CatDeep
	CatShallow
	CatSeaIce
	CatLowland
	CatDesert
	CatHighland
	CatAlpine
	CatLake
	CatGlacier
	CatTundra
	numCategories
)

var categoryNames = [numCategories]string{
	"sea_polluted", "sea_city", "sea_cultivated", "polluted", "city", "bryophyte", "cultivated",
	"deep", "shallow", "sea_ice", "lowland", "desert", "highland", "alpine", "lake", "glacier", "tundra",
}

func (c Category) String() string {
	if c < numCategories {
		return categoryNames[c]
	}
	return "unknown"
}

// MarshalText lets categories key JSON objects by name.
func (c Category) MarshalText() ([]byte, error) {
	if c >= numCategories {
		return nil, fmt.Errorf("unknown category %d", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses a category name.
func (c *Category) UnmarshalText(b []byte) error {
	cat, ok := ParseCategory(string(b))
	if !ok {
		return fmt.Errorf("unknown category %q", b)
	}
	*c = cat
	return nil
}

// ParseCategory looks a category up by name.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}

// Categories returns every category in priority order.
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// flagPriority is the overlay resolution order, highest first. A cell's
// category is the first rule whose flag is set, otherwise its base terrain.
var flagPriority = [...]struct {
	cat Category
	set func(Flags) bool
}{
	{CatSeaPolluted, func(f Flags) bool { return f.SeaPolluted }},
	{CatSeaCity, func(f Flags) bool { return f.SeaCity }},
	{CatSeaCultivated, func(f Flags) bool { return f.SeaCultivated }},
	{CatPolluted, func(f Flags) bool { return f.Polluted }},
	{CatCity, func(f Flags) bool { return f.City }},
	{CatBryophyte, func(f Flags) bool { return f.Bryophyte }},
	{CatCultivated, func(f Flags) bool { return f.Cultivated }},
}

var subtypeCategory = map[Subtype]Category{
	SubDeep:     CatDeep,
	SubShallow:  CatShallow,
	SubSeaIce:   CatSeaIce,
	SubLowland:  CatLowland,
	SubDesert:   CatDesert,
	SubHighland: CatHighland,
	SubAlpine:   CatAlpine,
	SubLake:     CatLake,
	SubGlacier:  CatGlacier,
	SubTundra:   CatTundra,
}

// CategoryOf resolves the category of a cell by the fixed priority order.
func CategoryOf(c TerrainCell) Category {
	for _, rule := range flagPriority {
		if rule.set(c.Flags) {
			return rule.cat
		}
	}
	return subtypeCategory[c.Terrain.Subtype]
}

// GridTypeCounts are the per-category cell counts of a grid.
type GridTypeCounts struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category"`
}

// CountTypes tallies cells by resolved category.
func CountTypes(cells []TerrainCell) GridTypeCounts {
	counts := GridTypeCounts{
		Total:      len(cells),
		ByCategory: make(map[Category]int, numCategories),
	}
	for _, c := range cells {
		counts.ByCategory[CategoryOf(c)]++
	}
	return counts
}

// PreGlacierStats measure the grid before the ice overlay.
type PreGlacierStats struct {
	Land      int     `json:"land"`
	Sea       int     `json:"sea"`
	Lowland   int     `json:"lowland"`
	Desert    int     `json:"desert"`
	LandRatio float64 `json:"land_ratio"`
}

// preGlacierStats counts land, sea and the green/arid split of base terrain.
func preGlacierStats(land []bool, sub []Subtype) PreGlacierStats {
	var st PreGlacierStats
	for i, l := range land {
		if !l {
			st.Sea++
			continue
		}
		st.Land++
		switch sub[i] {
		case SubLowland:
			st.Lowland++
		case SubDesert:
			st.Desert++
		}
	}
	if total := st.Land + st.Sea; total > 0 {
		st.LandRatio = float64(st.Land) / float64(total)
	}
	return st
}

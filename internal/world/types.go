// Package world synthesizes the planet terrain grid.
// A run places continental centers, refines a land/sea mask, classifies
// climate zones, grows features (lakes, highlands, glaciers, settlements,
// pollution) and folds everything into one TerrainCell per grid cell.
// Every stochastic step draws from a labelled seed stream so a seeded run
// is reproducible bit for bit.
package world

// TerrainType is the coarse sea/land split of a cell.
type TerrainType uint8

const (
	TypeSea TerrainType = iota
	TypeLand
)

func (t TerrainType) String() string {
	if t == TypeLand {
		return "land"
	}
	return "sea"
}

// Subtype refines TerrainType.
type Subtype uint8

const (
	SubDeep     Subtype = iota // Open ocean
	SubShallow                 // Continental shelf
	SubSeaIce                  // Frozen sea near the poles
	SubLowland                 // Temperate, vegetated land
	SubDesert                  // Arid interior land
	SubHighland                // Hills and plateaus
	SubAlpine                  // Highland cores
	SubLake                    // Inland water
	SubGlacier                 // Land ice
	SubTundra                  // Cold steppe below the ice line
)

var subtypeNames = [...]string{
	SubDeep:     "deep",
	SubShallow:  "shallow",
	SubSeaIce:   "sea_ice",
	SubLowland:  "lowland",
	SubDesert:   "desert",
	SubHighland: "highland",
	SubAlpine:   "alpine",
	SubLake:     "lake",
	SubGlacier:  "glacier",
	SubTundra:   "tundra",
}

func (s Subtype) String() string {
	if int(s) < len(subtypeNames) {
		return subtypeNames[s]
	}
	return "unknown"
}

// IsSea reports whether the subtype belongs to sea cells.
func (s Subtype) IsSea() bool {
	return s == SubDeep || s == SubShallow || s == SubSeaIce
}

// Terrain pairs the type and subtype of a cell.
type Terrain struct {
	Type    TerrainType `json:"type"`
	Subtype Subtype     `json:"subtype"`
}

// Flags are the overlay features of a cell. Several may be set at once;
// CategoryOf resolves which one is shown.
type Flags struct {
	City          bool `json:"city,omitempty"`
	Cultivated    bool `json:"cultivated,omitempty"`
	Bryophyte     bool `json:"bryophyte,omitempty"`
	Polluted      bool `json:"polluted,omitempty"`
	SeaCity       bool `json:"sea_city,omitempty"`
	SeaCultivated bool `json:"sea_cultivated,omitempty"`
	SeaPolluted   bool `json:"sea_polluted,omitempty"`
	Center        bool `json:"center,omitempty"`
}

// TerrainCell is one cell of the finished grid. Its identity is its linear index.
type TerrainCell struct {
	Terrain  Terrain `json:"terrain"`
	Flags    Flags   `json:"flags"`
	ColorHex string  `json:"color"`
}

// Era selects which civilization features may appear and the palette family.
type Era string

const (
	EraPrimordial Era = "primordial" // Bryophytes only
	EraAncient    Era = "ancient"    // Cities and cultivation
	EraIndustrial Era = "industrial" // Adds pollution and sea settlements
	EraModern     Era = "modern"
)

// Valid reports whether e is a known era.
func (e Era) Valid() bool {
	switch e {
	case EraPrimordial, EraAncient, EraIndustrial, EraModern:
		return true
	}
	return false
}

// allows reports whether features of kind k can grow in era e.
func (e Era) allows(k FeatureKind) bool {
	switch k {
	case FeatureBryophyte:
		return true
	case FeatureCity, FeatureCultivated:
		return e != EraPrimordial
	default:
		return e == EraIndustrial || e == EraModern
	}
}

// HarmonicTerm is one sine term of a center's shape profile.
type HarmonicTerm struct {
	Frequency float64 `json:"frequency"`
	Phase     float64 `json:"phase"`
	Amplitude float64 `json:"amplitude"`
}

// Center is one continental seed point.
type Center struct {
	X                   float64        `json:"x"`
	Y                   float64        `json:"y"`
	InfluenceMultiplier float64        `json:"influence_multiplier"`
	DecayVariation      float64        `json:"decay_variation"`
	DirectionAngle      float64        `json:"direction_angle"`
	ShapeHarmonics      []HarmonicTerm `json:"shape_harmonics"`
}

// CenterParameter is the exported, display-facing view of a Center.
type CenterParameter = Center

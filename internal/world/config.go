package world

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// GenConfig holds the parameters of one generation run. It is treated as an
// immutable value: the generator copies it and never writes back.
type GenConfig struct {
	Width  int    // Grid columns (wraps horizontally)
	Height int    // Grid rows, pole to pole
	Seed   string // Empty = non-reproducible ambient entropy
	Era    Era

	SeaLandRatio      float64 // Target land fraction of the grid (0–1)
	CentersY          int     // Continental centers requested, clamped to [1,10]
	MinCenterDistance float64 // Minimum spacing between centers, in cells
	NoiseAmplitude    float64 // Strength of the distance warp (0 = circular continents)
	NoiseDecay        float64 // Exponential falloff rate of center influence
	CenterBias        float64 // Weight of the Gaussian bump at each center

	ShallowThreshold float64 // Distance-to-land (cells) below which sea is shallow
	ZoneNoise        float64 // Amplitude of the per-cell noise added to zone thresholds

	LakesPerCenter   float64 // Mean lake count per continental center
	LakeSizeMax      int     // Extra cells a lake may reach beyond the minimum of 2
	HighlandsPerLand float64 // Highland clusters per center, scaled by land ratio
	HighlandSize     float64 // Mean highland cluster size
	AlpineDepth      float64 // Cells inside a highland before it turns alpine

	CityProb          float64
	CultivatedProb    float64
	BryophyteProb     float64
	PollutedProb      float64
	SeaCityProb       float64
	SeaCultivatedProb float64
	SeaPollutedProb   float64
	FeatureDensity    float64 // Land cells per expected cluster at probability 1

	TundraRows         int     // Tundra band width beyond the glacier edge
	GlacierExtraRows   int     // Added to the temperature-derived glacier rows
	AverageTemperature float64 // Global mean temperature (°C) from the climate model
	GreenIndex         float64 // Vegetation index (0–1)

	DriftRate   float64 // Cells each center moves per drift run
	MarkCenters bool    // Flag center cells for debug display
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:              96,
		Height:             48,
		Seed:               "crossroads",
		Era:                EraAncient,
		SeaLandRatio:       0.3,
		CentersY:           4,
		MinCenterDistance:  14,
		NoiseAmplitude:     0.35,
		NoiseDecay:         2.2,
		CenterBias:         0.15,
		ShallowThreshold:   2.5,
		ZoneNoise:          1.5,
		LakesPerCenter:     1.5,
		LakeSizeMax:        6,
		HighlandsPerLand:   6,
		HighlandSize:       14,
		AlpineDepth:        2,
		CityProb:           0.3,
		CultivatedProb:     0.5,
		BryophyteProb:      0.15,
		PollutedProb:       0.15,
		SeaCityProb:        0.05,
		SeaCultivatedProb:  0.1,
		SeaPollutedProb:    0.05,
		FeatureDensity:     120,
		TundraRows:         3,
		GlacierExtraRows:   0,
		AverageTemperature: 14,
		GreenIndex:         0.5,
		DriftRate:          0.75,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 20
	cfg.Height = 20
	cfg.Seed = "abc"
	cfg.CentersY = 1
	cfg.MinCenterDistance = 6
	return cfg
}

// Validate rejects configurations the pipeline cannot run.
func (c GenConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid grid size %dx%d", c.Width, c.Height)
	}
	if c.SeaLandRatio <= 0 || c.SeaLandRatio >= 1 {
		return fmt.Errorf("sea/land ratio %v outside (0,1)", c.SeaLandRatio)
	}
	if c.Era != "" && !c.Era.Valid() {
		return fmt.Errorf("unknown era %q", c.Era)
	}
	return nil
}

// centerCount clamps CentersY to [1,10].
func (c GenConfig) centerCount() int {
	return clamp(c.CentersY, 1, 10)
}

// era returns the configured era, defaulting to ancient.
func (c GenConfig) era() Era {
	if c.Era == "" {
		return EraAncient
	}
	return c.Era
}

// Fingerprint identifies the structural part of the configuration plus the
// seed. Runs sharing a fingerprint share continents, lakes and highlands and
// may reuse the high-frequency cache.
func (c GenConfig) Fingerprint() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%s|%s|%g|%d|%g|%g|%g|%g|%g|%d|%g|%g|%g",
		c.Width, c.Height, c.Seed, c.era(),
		c.SeaLandRatio, c.centerCount(), c.MinCenterDistance,
		c.NoiseAmplitude, c.NoiseDecay, c.CenterBias,
		c.LakesPerCenter, c.LakeSizeMax,
		c.HighlandsPerLand, c.HighlandSize, c.AlpineDepth,
	)
	return strconv.FormatUint(h.Sum64(), 16)
}

// overrideTargets maps override keys to the fields they set.
func (c *GenConfig) overrideTargets() map[string]any {
	return map[string]any{
		"w":                   &c.Width,
		"h":                   &c.Height,
		"seed":                &c.Seed,
		"era":                 &c.Era,
		"sea_land_ratio":      &c.SeaLandRatio,
		"centers":             &c.CentersY,
		"min_center_distance": &c.MinCenterDistance,
		"noise_amplitude":     &c.NoiseAmplitude,
		"noise_decay":         &c.NoiseDecay,
		"center_bias":         &c.CenterBias,
		"shallow_threshold":   &c.ShallowThreshold,
		"zone_noise":          &c.ZoneNoise,
		"lakes_per_center":    &c.LakesPerCenter,
		"lake_size_max":       &c.LakeSizeMax,
		"highlands_per_land":  &c.HighlandsPerLand,
		"highland_size":       &c.HighlandSize,
		"alpine_depth":        &c.AlpineDepth,
		"city":                &c.CityProb,
		"cultivated":          &c.CultivatedProb,
		"bryophyte":           &c.BryophyteProb,
		"polluted":            &c.PollutedProb,
		"sea_city":            &c.SeaCityProb,
		"sea_cultivated":      &c.SeaCultivatedProb,
		"sea_polluted":        &c.SeaPollutedProb,
		"feature_density":     &c.FeatureDensity,
		"tundra_rows":         &c.TundraRows,
		"glacier_extra_rows":  &c.GlacierExtraRows,
		"temperature":         &c.AverageTemperature,
		"green_index":         &c.GreenIndex,
		"drift_rate":          &c.DriftRate,
		"mark_centers":        &c.MarkCenters,
	}
}

// OverrideKeys lists the keys accepted by ApplyOverrides.
func OverrideKeys() []string {
	var c GenConfig
	keys := make([]string, 0, 32)
	for k := range c.overrideTargets() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyOverrides sets fields from flag-style key/value pairs.
// Probability keys also accept "level:N" (see LevelProbability).
func (c *GenConfig) ApplyOverrides(kv map[string]string) error {
	targets := c.overrideTargets()
	for key, raw := range kv {
		target, ok := targets[key]
		if !ok {
			return fmt.Errorf("unknown config key %q", key)
		}
		raw = strings.TrimSpace(raw)
		switch p := target.(type) {
		case *int:
			v, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("config %s: %w", key, err)
			}
			*p = v
		case *float64:
			if lvl, ok := strings.CutPrefix(raw, "level:"); ok {
				n, err := strconv.Atoi(lvl)
				if err != nil {
					return fmt.Errorf("config %s: %w", key, err)
				}
				*p = LevelProbability(n)
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("config %s: %w", key, err)
			}
			*p = v
		case *bool:
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("config %s: %w", key, err)
			}
			*p = v
		case *string:
			*p = raw
		case *Era:
			*p = Era(raw)
		}
	}
	return nil
}

// levelProbabilities maps UI levels to probabilities. Level 0 resets the feature.
var levelProbabilities = [...]float64{0, 0.05, 0.15, 0.3, 0.5, 0.8}

// LevelProbability converts a discrete level to a probability. Levels are
// clamped to the table; level 0 always means "off".
func LevelProbability(level int) float64 {
	return levelProbabilities[clamp(level, 0, len(levelProbabilities)-1)]
}

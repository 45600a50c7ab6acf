package climate

import (
	"math"

	"github.com/talgya/mini-planet/internal/world"
)

// Surface albedos.
const (
	albedoOcean     = 0.06
	albedoGreen     = 0.15
	albedoBare      = 0.25
	albedoDesert    = 0.35
	albedoIce       = 0.7
	albedoUrban     = 0.18
	referenceAlbedo = 0.12 // Albedo at which the baseline temperature holds
)

// Model is a zero-dimensional energy balance. Each Step relaxes the
// temperature toward the equilibrium implied by the surface albedo.
type Model struct {
	Baseline         float64 // °C at the reference albedo
	Sensitivity      float64 // °C per unit of albedo below the reference
	Relaxation       float64 // Share of the gap to equilibrium closed per step
	PollutionForcing float64 // °C per unit of polluted area
}

// DefaultModel returns a model tuned so a temperate world stays temperate.
func DefaultModel() Model {
	return Model{
		Baseline:         14,
		Sensitivity:      60,
		Relaxation:       0.5,
		PollutionForcing: 25,
	}
}

// State is the climate carried between runs.
type State struct {
	Temperature float64 `json:"temperature"`
	GreenIndex  float64 `json:"green_index"`
}

// Albedo returns the area-weighted albedo of f.
func Albedo(f AreaFractions) float64 {
	landIce := f.Glacier - f.SeaIce
	bare := math.Max(f.Land-f.Green-f.Desert-landIce-f.Urban, 0)
	return math.Max(f.Ocean-f.SeaIce, 0)*albedoOcean +
		f.Green*albedoGreen +
		bare*albedoBare +
		f.Desert*albedoDesert +
		f.Glacier*albedoIce +
		f.Urban*albedoUrban
}

// Equilibrium returns the temperature the surface f settles at.
func (m Model) Equilibrium(f AreaFractions) float64 {
	return m.Baseline + m.Sensitivity*(referenceAlbedo-Albedo(f)) + m.PollutionForcing*f.Polluted
}

// Step advances the climate one run given the surface of the last grid.
func (m Model) Step(prev State, f AreaFractions) State {
	eq := m.Equilibrium(f)
	next := State{Temperature: prev.Temperature + m.Relaxation*(eq-prev.Temperature)}

	// Vegetation tracks how much land is green and how close the climate is
	// to its optimum.
	share := 0.0
	if f.Land > 0 {
		share = f.Green / f.Land
	}
	suit := math.Exp(-math.Pow((next.Temperature-22)/18, 2))
	next.GreenIndex = math.Min(math.Max(0.5*share+0.5*suit, 0), 1)
	return next
}

// Apply returns cfg with the climate state written into it.
func (s State) Apply(cfg world.GenConfig) world.GenConfig {
	cfg.AverageTemperature = s.Temperature
	cfg.GreenIndex = s.GreenIndex
	return cfg
}

// StateOf reads the climate state out of cfg.
func StateOf(cfg world.GenConfig) State {
	return State{Temperature: cfg.AverageTemperature, GreenIndex: cfg.GreenIndex}
}

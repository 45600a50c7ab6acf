// Planet ties the generator, the climate model and storage together and
// runs them each turn.
package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-planet/internal/climate"
	"github.com/talgya/mini-planet/internal/persistence"
	"github.com/talgya/mini-planet/internal/world"
)

const maxEvents = 200

// Event is a notable change on the planet.
type Event struct {
	Turn        uint64 `json:"turn"`
	Description string `json:"description"`
	Category    string `json:"category"` // "run", "climate", "drift"
}

// Planet holds the current configuration and last result and serializes
// runs against them.
type Planet struct {
	Gen     *world.Generator
	Climate climate.Model
	Weather *climate.WeatherClient // Optional real-world baseline
	DB      *persistence.DB        // Optional; runs are saved when set

	mu     sync.RWMutex
	runMu  sync.Mutex
	config world.GenConfig
	last   *world.Result
	events []Event
	turn   uint64
}

// NewPlanet creates a planet that will generate from cfg.
func NewPlanet(gen *world.Generator, cfg world.GenConfig, model climate.Model) *Planet {
	return &Planet{Gen: gen, Climate: model, config: cfg}
}

// Current returns the last result (nil before the first run) and the
// configuration it was generated from.
func (p *Planet) Current() (*world.Result, world.GenConfig) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.config
}

// Events returns the most recent events, oldest first.
func (p *Planet) Events() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Event(nil), p.events...)
}

// Run applies overrides to the current configuration and executes one run
// in mode. The configuration is only kept when the run succeeds.
func (p *Planet) Run(mode world.RunMode, overrides map[string]string) (*world.Result, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	_, cfg := p.Current()
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return nil, err
	}
	return p.run(mode, cfg, "run")
}

// run executes and records one run. Callers hold runMu.
func (p *Planet) run(mode world.RunMode, cfg world.GenConfig, category string) (*world.Result, error) {
	res, err := p.Gen.Run(cfg, mode)
	if err != nil {
		return nil, fmt.Errorf("%s run: %w", mode, err)
	}

	p.mu.Lock()
	p.config = cfg
	p.last = res
	p.addEvent(category, describe(res))
	p.mu.Unlock()

	if p.DB != nil {
		if err := p.DB.SaveRun(res, cfg); err != nil {
			slog.Error("run save failed", "run", res.Run.ID, "error", err)
		}
	}
	return res, nil
}

func describe(res *world.Result) string {
	s := fmt.Sprintf("%s run over %s cells, %s land, %d glacier rows",
		res.Executed, humanize.Comma(int64(len(res.Cells))),
		humanize.Comma(int64(res.PreGlacier.Land)), res.TopGlacierRows)
	if res.Drift != nil {
		s += fmt.Sprintf(", drift epoch %d moved %.2f cells", res.Drift.Epoch, res.Drift.MeanDisplacement)
	}
	return s
}

// addEvent appends an event, keeping the most recent maxEvents. Callers hold mu.
func (p *Planet) addEvent(category, desc string) {
	p.events = append(p.events, Event{Turn: p.turn, Description: desc, Category: category})
	if len(p.events) > maxEvents {
		p.events = p.events[len(p.events)-maxEvents:]
	}
}

// ClimateTurn steps the climate model from the last grid and re-runs the
// climate stages with the new temperature and green index.
func (p *Planet) ClimateTurn(turn uint64) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	last, cfg := p.Current()
	p.mu.Lock()
	p.turn = turn
	p.mu.Unlock()

	if last == nil {
		if _, err := p.run(world.ModeGenerate, cfg, "run"); err != nil {
			slog.Error("initial generation failed", "turn", turn, "error", err)
		}
		return
	}

	model := p.Climate
	model.Baseline = p.Weather.Baseline(model.Baseline)
	state := model.Step(climate.StateOf(cfg), climate.Fractions(last.Counts()))
	slog.Debug("climate step",
		"turn", turn,
		"temperature", fmt.Sprintf("%.2f", state.Temperature),
		"green_index", fmt.Sprintf("%.3f", state.GreenIndex),
	)

	if _, err := p.run(world.ModeRevise, state.Apply(cfg), "climate"); err != nil {
		slog.Error("climate turn failed", "turn", turn, "error", err)
		return
	}
	p.saveClimate(state)
}

// DriftTurn moves the continents one epoch.
func (p *Planet) DriftTurn(turn uint64) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	_, cfg := p.Current()
	p.mu.Lock()
	p.turn = turn
	p.mu.Unlock()

	if _, err := p.run(world.ModeDrift, cfg, "drift"); err != nil {
		slog.Error("drift turn failed", "turn", turn, "error", err)
	}
}

// saveClimate records the climate state so a restart resumes from it.
func (p *Planet) saveClimate(state climate.State) {
	if p.DB == nil {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := p.DB.SaveMeta("climate", string(data)); err != nil {
		slog.Warn("climate save failed", "error", err)
	}
}

// RestoreClimate loads a saved climate state into the configuration.
// Returns false when none is stored.
func (p *Planet) RestoreClimate() bool {
	if p.DB == nil {
		return false
	}
	raw, err := p.DB.GetMeta("climate")
	if err != nil {
		return false
	}
	var state climate.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		slog.Warn("stored climate unreadable", "error", err)
		return false
	}
	p.mu.Lock()
	p.config = state.Apply(p.config)
	p.mu.Unlock()
	return true
}

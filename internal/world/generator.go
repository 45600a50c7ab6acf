package world

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/mini-planet/internal/entropy"
	"github.com/talgya/mini-planet/internal/grid"
	"github.com/talgya/mini-planet/internal/noise"
	"github.com/talgya/mini-planet/internal/seed"
)

// RunMode selects how much of the pipeline a run re-executes.
type RunMode string

const (
	ModeGenerate RunMode = "generate" // Full rebuild, cache replaced
	ModeUpdate   RunMode = "update"   // Climate stages and civilization over cached structure
	ModeRevise   RunMode = "revise"   // Climate stages only, civilization reused
	ModeDrift    RunMode = "drift"    // Centers moved one epoch, then full rebuild
)

// ParseRunMode parses a run-mode token.
func ParseRunMode(s string) (RunMode, error) {
	switch m := RunMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeGenerate, ModeUpdate, ModeRevise, ModeDrift:
		return m, nil
	}
	return "", fmt.Errorf("unknown run mode %q", s)
}

// RunContext correlates one run with the caller's events.
type RunContext struct {
	ID   uuid.UUID `json:"id"`
	Mode RunMode   `json:"mode"`
}

// NewRunContext returns a context with a fresh run id.
func NewRunContext(mode RunMode) RunContext {
	return RunContext{ID: uuid.New(), Mode: mode}
}

// Feature scales of the per-cell noise tables, in cells.
const (
	zoneNoiseScale   = 6.0
	iceNoiseScale    = 4.0
	alpineNoiseScale = 3.0
)

// Result is the output of one run.
type Result struct {
	Run         RunContext `json:"run"`
	Executed    RunMode    `json:"executed"`
	Fingerprint string     `json:"fingerprint"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`

	Cells          []TerrainCell     `json:"cells"`
	Centers        []CenterParameter `json:"centers"`
	PreGlacier     PreGlacierStats   `json:"pre_glacier"`
	TopGlacierRows int               `json:"top_glacier_rows"`
	Drift          *DriftMetrics     `json:"drift,omitempty"`
	Clusters       []Cluster         `json:"-"`
	Refine         RefineStats       `json:"refine"`
	Palette        Palette           `json:"palette"`

	// Reproducible is false when the run drew on ambient entropy.
	Reproducible bool          `json:"reproducible"`
	CacheHit     bool          `json:"cache_hit"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Counts tallies the final grid by category.
func (r *Result) Counts() GridTypeCounts {
	return CountTypes(r.Cells)
}

// Generator runs the pipeline and owns the state carried between runs: the
// high-frequency cache, the glacier smoothers and the drift epoch. Runs are
// serialized; a caller arriving mid-run waits for it to finish.
type Generator struct {
	mu      sync.Mutex
	logger  *slog.Logger
	entropy *entropy.Client

	cache    *HighFrequencyCache
	landEMA  rowSmoother
	waterEMA rowSmoother
	epoch    int
}

// NewGenerator creates a generator. ent may be nil, in which case unseeded
// runs draw on crypto/rand.
func NewGenerator(logger *slog.Logger, ent *entropy.Client) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger, entropy: ent}
}

// Epoch returns the current drift epoch.
func (g *Generator) Epoch() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch
}

// Run executes one run in mode with a fresh run context.
func (g *Generator) Run(cfg GenConfig, mode RunMode) (*Result, error) {
	return g.RunWithContext(cfg, NewRunContext(mode))
}

// RunWithContext executes one run. UPDATE and REVISE reuse the cache when
// cfg's fingerprint matches it and silently fall back to GENERATE otherwise.
func (g *Generator) RunWithContext(cfg GenConfig, rc RunContext) (*Result, error) {
	if _, err := ParseRunMode(string(rc.Mode)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s run: %w", rc.Mode, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	topo := grid.New(cfg.Width, cfg.Height)
	var ambient *rand.Rand
	if cfg.Seed == "" {
		ambient = entropy.NewRand(g.entropy)
	}
	streams := seed.NewFactory(cfg.Seed, ambient)
	fp := cfg.Fingerprint()

	exec := rc.Mode
	if (exec == ModeUpdate || exec == ModeRevise) && !g.cache.matches(fp) {
		g.logger.Info("no cached structure for fingerprint, regenerating",
			"run", rc.ID, "mode", exec, "fingerprint", fp)
		exec = ModeGenerate
	}

	res := &Result{
		Run:          rc,
		Executed:     exec,
		Fingerprint:  fp,
		Width:        cfg.Width,
		Height:       cfg.Height,
		Reproducible: streams.Reproducible(),
	}

	switch exec {
	case ModeGenerate:
		g.epoch = 0
		g.cache = g.buildStructure(topo, cfg, fp, PlaceCenters(topo, cfg, streams), streams)
	case ModeDrift:
		var base []Center
		var before []bool
		if g.cache.matches(fp) {
			base, before = g.cache.Centers, g.cache.Land
		} else {
			g.epoch = 0
			base = PlaceCenters(topo, cfg, streams)
		}
		g.epoch++
		centers, m := driftCenters(topo, base, cfg.DriftRate, g.epoch, streams)
		g.cache = g.buildStructure(topo, cfg, fp, centers, streams)
		m.LandChanged, m.LandRatioBefore, m.LandRatioAfter = landDelta(before, g.cache.Land)
		res.Drift = &m
	default:
		res.CacheHit = true
	}

	g.climateStages(topo, cfg, exec, streams, res)

	res.Elapsed = time.Since(start)
	g.logger.Info("planet generated",
		"run", rc.ID,
		"mode", rc.Mode,
		"executed", exec,
		"cells", humanize.Comma(int64(topo.Size())),
		"land", humanize.Comma(int64(res.PreGlacier.Land)),
		"centers", len(res.Centers),
		"glacier_rows", res.TopGlacierRows,
		"cache_hit", res.CacheHit,
		"reproducible", res.Reproducible,
		"elapsed", res.Elapsed.Round(time.Microsecond),
	)
	return res, nil
}

// buildStructure runs every stage whose output depends only on the
// fingerprinted part of the configuration and returns it as a new cache.
func (g *Generator) buildStructure(topo grid.Topology, cfg GenConfig, fp string, centers []Center, streams *seed.Factory) *HighFrequencyCache {
	n := topo.Size()
	c := &HighFrequencyCache{Fingerprint: fp, Topo: topo, Centers: centers}

	c.Scores = ScoreCells(topo, centers, cfg, streams)
	c.Land, c.Refine = RefineLandMask(topo, c.Scores.Score, cfg.SeaLandRatio, streams)
	g.logger.Debug("land mask refined",
		"threshold", c.Refine.Threshold,
		"dilation_passes", c.Refine.DilationPasses,
		"pruned", c.Refine.Pruned,
		"jittered", c.Refine.Jittered,
	)

	engine := grid.NewDijkstra(topo)
	land := c.Land
	c.DistToSea = engine.Compute(collect(n, func(i int) bool { return !land[i] }), grid.OctileCost)
	c.DistToLand = engine.Compute(collect(n, func(i int) bool { return land[i] }), grid.OctileCost)

	relief := ReliefInput{
		Topo:      topo,
		Land:      land,
		Owner:     c.Scores.Owner,
		DistToSea: c.DistToSea,
		Centers:   len(centers),
		LandRatio: cfg.SeaLandRatio,
	}
	var lakes, highlands []Cluster
	c.Lake, lakes = GrowLakes(relief, cfg, streams)
	c.Highland, highlands = GrowHighlands(relief, c.Lake, cfg, streams)
	c.Clusters = append(lakes, highlands...)

	table := func(label string, scale float64) []float64 {
		return noise.OctaveTable(topo.W, topo.H, streams.Must(label).Rand().Int64(), scale, 3, 0.5)
	}
	c.ZoneNoise = table("zone-noise", zoneNoiseScale)
	c.IceNoise = table("ice-noise", iceNoiseScale)
	c.Alpine = ExtractAlpine(topo, c.Highland, cfg.AlpineDepth, table("alpine-noise", alpineNoiseScale), engine)
	c.Palette = ChoosePalette(cfg.era(), streams)
	return c
}

// climateStages runs zonal classification, the ice overlays and (unless
// exec is REVISE) civilization over the cached structure, then assembles
// the grid into res.
func (g *Generator) climateStages(topo grid.Topology, cfg GenConfig, exec RunMode, streams *seed.Factory, res *Result) {
	c := g.cache
	zones := ClassifyZones(ZoneInput{
		Topo:             topo,
		Land:             c.Land,
		DistToSea:        c.DistToSea,
		DistToLand:       c.DistToLand,
		Noise:            c.ZoneNoise,
		NoiseScale:       cfg.ZoneNoise,
		BandThresholds:   BandThresholds(cfg.AverageTemperature, cfg.GreenIndex),
		ShallowThreshold: cfg.ShallowThreshold,
	})
	base := reliefSubtypes(zones, c.Lake, c.Highland, c.Alpine, nil)
	res.PreGlacier = preGlacierStats(c.Land, base)

	// Full rebuilds snap the smoothers; incremental runs ease toward the target.
	snap := exec == ModeGenerate || exec == ModeDrift
	target := GlacierRows(cfg.AverageTemperature, topo.H) + float64(cfg.GlacierExtraRows)
	ice := IceInput{
		Topo:      topo,
		Land:      c.Land,
		Subtypes:  base,
		Noise:     c.IceNoise,
		LandRows:  g.landEMA.next(target, snap),
		WaterRows: g.waterEMA.next(target*seaIceFactor, snap),
	}
	iceMask := ApplyGlaciers(ice)
	tundra := ApplyTundra(ice, iceMask, cfg.TundraRows)
	res.TopGlacierRows = int(math.Round(math.Max(ice.LandRows, 0)))

	var civ CivMasks
	if exec == ModeRevise {
		civ = c.Civ.withoutIce(iceMask)
	} else {
		civ = GrowCivilization(CivInput{
			Topo:     topo,
			Land:     c.Land,
			Subtypes: reliefSubtypes(zones, c.Lake, c.Highland, c.Alpine, tundra),
			Ice:      iceMask,
			Era:      cfg.era(),
		}, cfg, streams)
		c.Civ = civ
	}

	res.Cells = Assemble(topo, Layers{
		Land:     c.Land,
		Zones:    zones,
		Lake:     c.Lake,
		Highland: c.Highland,
		Alpine:   c.Alpine,
		Tundra:   tundra,
		Ice:      iceMask,
		Civ:      civ,
		Centers:  c.Centers,
	}, c.Palette, cfg.MarkCenters)
	res.Centers = append([]CenterParameter(nil), c.Centers...)
	res.Clusters = append(append([]Cluster(nil), c.Clusters...), civ.Clusters...)
	res.Refine = c.Refine
	res.Palette = c.Palette
}

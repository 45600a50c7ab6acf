package world

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"testing"

	"github.com/talgya/mini-planet/internal/grid"
	"github.com/talgya/mini-planet/internal/seed"
)

func TestPlaceCentersRespectsSpacing(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.CentersY = 6
	topo := grid.New(cfg.Width, cfg.Height)
	centers := PlaceCenters(topo, cfg, seed.NewFactory(cfg.Seed, nil))
	if len(centers) == 0 || len(centers) > 6 {
		t.Fatalf("placed %d centers", len(centers))
	}
	for i := range centers {
		for j := i + 1; j < len(centers); j++ {
			a, b := centers[i], centers[j]
			if d := topo.Distance(a.X, a.Y, b.X, b.Y); d < cfg.MinCenterDistance {
				t.Fatalf("centers %d and %d only %.2f apart", i, j, d)
			}
		}
	}
}

func TestPlaceCentersClampsCount(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.MinCenterDistance = 1
	topo := grid.New(cfg.Width, cfg.Height)
	for _, tc := range []struct{ asked, want int }{{0, 1}, {-3, 1}, {25, 10}} {
		cfg.CentersY = tc.asked
		got := PlaceCenters(topo, cfg, seed.NewFactory(cfg.Seed, nil))
		if len(got) != tc.want {
			t.Errorf("CentersY=%d placed %d, want %d", tc.asked, len(got), tc.want)
		}
	}
}

func TestRefineLandMaskIsDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	topo := grid.New(cfg.Width, cfg.Height)
	build := func() []bool {
		streams := seed.NewFactory(cfg.Seed, nil)
		field := ScoreCells(topo, PlaceCenters(topo, cfg, streams), cfg, streams)
		mask, _ := RefineLandMask(topo, field.Score, cfg.SeaLandRatio, streams)
		return mask
	}
	if !slices.Equal(build(), build()) {
		t.Fatal("land mask differs between identical runs")
	}
}

func TestDilateFillsEnclosedSea(t *testing.T) {
	topo := grid.New(5, 5)
	mask := make([]bool, topo.Size())
	scores := make([]float64, topo.Size())
	for i := range mask {
		mask[i] = true
		scores[i] = 1
	}
	hole := topo.Index(2, 2)
	mask[hole] = false
	scores[hole] = 0
	if passes := Dilate(topo, mask, scores, 0.5); passes != 1 {
		t.Fatalf("passes = %d, want 1", passes)
	}
	if !mask[hole] {
		t.Fatal("single enclosed sea cell was not filled")
	}
}

func TestClassifyZonesMonotoneInThreshold(t *testing.T) {
	topo := grid.New(16, 10)
	n := topo.Size()
	land := make([]bool, n)
	distSea := make([]float64, n)
	distLand := make([]float64, n)
	zero := make([]float64, n)
	for i := range land {
		x, _ := topo.Coord(i)
		land[i] = x < 12
		distSea[i] = float64(12 - x)
		distLand[i] = float64(x - 11)
	}

	lowland := func(scale float64) int {
		var th [LatitudeBands]float64
		for b := range th {
			th[b] = bandBase[b] * scale
		}
		sub := ClassifyZones(ZoneInput{
			Topo: topo, Land: land, DistToSea: distSea, DistToLand: distLand,
			Noise: zero, BandThresholds: th, ShallowThreshold: 2,
		})
		count := 0
		for i, s := range sub {
			if land[i] != !s.IsSea() {
				t.Fatalf("cell %d: land=%v classified %s", i, land[i], s)
			}
			if s == SubLowland {
				count++
			}
		}
		return count
	}

	prev := -1
	for _, scale := range []float64{0.2, 0.5, 1, 1.5, 3} {
		got := lowland(scale)
		if got < prev {
			t.Fatalf("raising thresholds to x%.1f shrank lowland from %d to %d", scale, prev, got)
		}
		prev = got
	}
}

func TestBandThresholdsFollowClimate(t *testing.T) {
	cold := BandThresholds(-10, 0.5)
	hot := BandThresholds(35, 0.5)
	dry := BandThresholds(14, 0)
	wet := BandThresholds(14, 1)
	for b := 0; b < LatitudeBands; b++ {
		if hot[b] > cold[b] {
			t.Errorf("band %d: hot threshold %.2f above cold %.2f", b, hot[b], cold[b])
		}
		if dry[b] > wet[b] {
			t.Errorf("band %d: dry threshold %.2f above wet %.2f", b, dry[b], wet[b])
		}
	}
	if LatitudeBand(0, 48) != 0 || LatitudeBand(47, 48) != LatitudeBands-1 {
		t.Fatal("latitude bands do not span the grid")
	}
}

func TestGrowClusterBound(t *testing.T) {
	topo := grid.New(12, 12)
	s := seed.Derive("abc", "test-cluster")
	for _, target := range []int{1, 3, 10, 200} {
		cells := growCluster(topo, topo.Index(6, 6), growParams{
			Target:   target,
			Moore:    true,
			Eligible: func(int) bool { return true },
			Accept:   constAccept(1),
		}, s)
		want := min(target, topo.Size())
		if len(cells) != want {
			t.Errorf("target %d: grew %d cells, want %d", target, len(cells), want)
		}
	}
	if got := growCluster(topo, 0, growParams{Target: 5, Eligible: func(int) bool { return false }}, s); got != nil {
		t.Fatalf("ineligible start grew %v", got)
	}
}

func TestGlacierRowsInterpolation(t *testing.T) {
	for _, a := range glacierAnchors {
		if got, want := GlacierRows(a.Temp, 100), a.Fraction*50; math.Abs(got-want) > 1e-9 {
			t.Errorf("GlacierRows(%v) = %v, want %v", a.Temp, got, want)
		}
	}
	prev := GlacierRows(-40, 100)
	for temp := -39.0; temp <= 50; temp++ {
		got := GlacierRows(temp, 100)
		if got > prev {
			t.Fatalf("rows rose from %.2f to %.2f at %v°C", prev, got, temp)
		}
		prev = got
	}
}

func TestRowSmootherConverges(t *testing.T) {
	var r rowSmoother
	if got := r.next(10, false); got != 10 {
		t.Fatalf("first value = %v, want 10", got)
	}
	v := 0.0
	for i := 0; i < 60; i++ {
		v = r.next(0, false)
	}
	if v > 0.01 {
		t.Fatalf("smoother did not converge: %v", v)
	}
	if got := r.next(5, true); got != 5 {
		t.Fatalf("snap = %v, want 5", got)
	}
}

func TestCategoryPriority(t *testing.T) {
	cell := func(sub Subtype, f Flags) TerrainCell {
		return TerrainCell{Terrain: Terrain{Subtype: sub}, Flags: f}
	}
	cases := []struct {
		cell TerrainCell
		want Category
	}{
		{cell(SubShallow, Flags{SeaPolluted: true, SeaCity: true}), CatSeaPolluted},
		{cell(SubShallow, Flags{SeaCity: true, SeaCultivated: true}), CatSeaCity},
		{cell(SubLowland, Flags{Polluted: true, City: true}), CatPolluted},
		{cell(SubLowland, Flags{City: true, Cultivated: true, Bryophyte: true}), CatCity},
		{cell(SubLowland, Flags{Bryophyte: true, Cultivated: true}), CatBryophyte},
		{cell(SubDesert, Flags{Cultivated: true}), CatCultivated},
		{cell(SubGlacier, Flags{}), CatGlacier},
		{cell(SubDeep, Flags{Center: true}), CatDeep},
	}
	for _, tc := range cases {
		if got := CategoryOf(tc.cell); got != tc.want {
			t.Errorf("CategoryOf(%+v) = %s, want %s", tc.cell, got, tc.want)
		}
	}
}

func TestCategoryText(t *testing.T) {
	for _, c := range Categories() {
		b, err := c.MarshalText()
		if err != nil {
			t.Fatalf("%d: %v", c, err)
		}
		var back Category
		if err := back.UnmarshalText(b); err != nil || back != c {
			t.Fatalf("%s did not round-trip: %v", b, err)
		}
	}
	if _, ok := ParseCategory("volcano"); ok {
		t.Fatal("unknown category parsed")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultGenConfig()
	err := cfg.ApplyOverrides(map[string]string{
		"city":         "level:3",
		"w":            "64",
		"temperature":  "-5.5",
		"mark_centers": "true",
		"era":          "modern",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CityProb != 0.3 || cfg.Width != 64 || cfg.AverageTemperature != -5.5 || !cfg.MarkCenters || cfg.Era != EraModern {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if err := cfg.ApplyOverrides(map[string]string{"volcanoes": "1"}); err == nil {
		t.Fatal("unknown key accepted")
	}
	if err := cfg.ApplyOverrides(map[string]string{"h": "tall"}); err == nil {
		t.Fatal("bad int accepted")
	}
	if !slices.Contains(OverrideKeys(), "sea_land_ratio") {
		t.Fatal("OverrideKeys misses sea_land_ratio")
	}
}

func TestLevelProbability(t *testing.T) {
	if LevelProbability(0) != 0 || LevelProbability(-1) != 0 {
		t.Fatal("level 0 must switch a feature off")
	}
	if LevelProbability(99) != LevelProbability(5) {
		t.Fatal("levels above the table must clamp")
	}
}

func TestFingerprintIgnoresClimate(t *testing.T) {
	a := DefaultGenConfig()
	b := a
	b.AverageTemperature = -3
	b.GreenIndex = 0.9
	b.CityProb = 0.7
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("climate knobs changed the fingerprint")
	}
	b.SeaLandRatio = 0.4
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("land ratio did not change the fingerprint")
	}
}

func TestPaletteColors(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	for _, era := range []Era{EraPrimordial, EraAncient, EraIndustrial, EraModern} {
		for v := 0; v < 2; v++ {
			p := BuildPalette(era, v)
			for _, c := range Categories() {
				if !hex.MatchString(p.Color(c)) {
					t.Fatalf("%s/%d: %s color %q", era, v, c, p.Color(c))
				}
			}
		}
	}
	if BuildPalette(EraAncient, 0).Color(CatLowland) != basePalette[CatLowland].hex() {
		t.Fatal("ancient base variant should be the untinted palette")
	}
}

func TestMustSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("mismatched sizes did not panic")
		}
	}()
	Assemble(grid.New(4, 4), Layers{Land: make([]bool, 3)}, BuildPalette(EraAncient, 0), false)
}

func TestWithoutIce(t *testing.T) {
	var m CivMasks
	m.ByKind[FeatureCity] = []bool{true, true, false}
	out := m.withoutIce([]bool{false, true, true})
	if !slices.Equal(out.ByKind[FeatureCity], []bool{true, false, false}) {
		t.Fatalf("got %v", out.ByKind[FeatureCity])
	}
	if !m.ByKind[FeatureCity][1] {
		t.Fatal("withoutIce mutated the cached mask")
	}
}

func TestExtractAlpineKeepsHighlandCores(t *testing.T) {
	topo := grid.New(9, 9)
	n := topo.Size()
	highland := make([]bool, n)
	for i := range highland {
		x, y := topo.Coord(i)
		highland[i] = x >= 1 && x <= 7 && y >= 1 && y <= 7
	}
	flat := make([]float64, n)
	engine := grid.NewDijkstra(topo)

	for _, tc := range []struct {
		depth  float64
		lo, hi int
	}{{2, 2, 6}, {3, 3, 5}} {
		alpine := ExtractAlpine(topo, highland, tc.depth, flat, engine)
		for i, a := range alpine {
			x, y := topo.Coord(i)
			want := x >= tc.lo && x <= tc.hi && y >= tc.lo && y <= tc.hi
			if a != want {
				t.Fatalf("depth %.0f: cell (%d,%d) alpine=%v, want %v", tc.depth, x, y, a, want)
			}
			if a && !highland[i] {
				t.Fatalf("depth %.0f: alpine cell (%d,%d) outside highland", tc.depth, x, y)
			}
		}
	}
	if alpine := ExtractAlpine(topo, highland, 0, flat, engine); slices.Contains(alpine, true) {
		t.Fatal("zero depth produced alpine cells")
	}
}

func TestApplyTundraBandBeyondIce(t *testing.T) {
	topo := grid.New(6, 12)
	n := topo.Size()
	in := IceInput{
		Topo:      topo,
		Land:      make([]bool, n),
		Subtypes:  make([]Subtype, n),
		Noise:     make([]float64, n),
		LandRows:  2,
		WaterRows: 0,
	}
	lake := topo.Index(0, 3)
	for i := range in.Land {
		x, _ := topo.Coord(i)
		in.Land[i] = x < 5
		switch {
		case i == lake:
			in.Subtypes[i] = SubLake
		case in.Land[i]:
			in.Subtypes[i] = SubLowland
		default:
			in.Subtypes[i] = SubDeep
		}
	}

	ice := ApplyGlaciers(in)
	tundra := ApplyTundra(in, ice, 2)
	for i := 0; i < n; i++ {
		x, y := topo.Coord(i)
		pole := topo.DistanceFromPole(y)
		if wantIce := in.Land[i] && pole < 2; ice[i] != wantIce {
			t.Fatalf("cell (%d,%d) ice=%v, want %v", x, y, ice[i], wantIce)
		}
		wantTundra := in.Land[i] && i != lake && pole >= 2 && pole < 4
		if tundra[i] != wantTundra {
			t.Fatalf("cell (%d,%d) tundra=%v, want %v", x, y, tundra[i], wantTundra)
		}
	}
	if slices.Contains(ApplyTundra(in, ice, 0), true) {
		t.Fatal("zero tundra rows produced tundra")
	}
}

func TestJitterCoastOnlyFlipsBandCoastCells(t *testing.T) {
	topo := grid.New(8, 4)
	n := topo.Size()
	mask := make([]bool, n)
	scores := make([]float64, n)
	for i := range mask {
		x, _ := topo.Coord(i)
		mask[i] = x < 4
		scores[i] = 0.5
		if x == 3 {
			scores[i] = 0.9 // coastal but outside the band
		}
	}
	// Columns 0 and 7 meet across the seam; column 4 borders column 3.
	mayFlip := map[int]bool{0: true, 4: true, 7: true}

	total := 0
	for k := 0; k < 20; k++ {
		streams := seed.NewFactory(fmt.Sprintf("coast-%d", k), nil)
		got := slices.Clone(mask)
		flipped := JitterCoast(topo, got, scores, 0.5, streams)

		changed := 0
		for i := range got {
			if got[i] == mask[i] {
				continue
			}
			changed++
			if x, _ := topo.Coord(i); !mayFlip[x] {
				t.Fatalf("seed %d flipped cell in column %d", k, x)
			}
		}
		if changed != flipped {
			t.Fatalf("seed %d reported %d flips, changed %d cells", k, flipped, changed)
		}

		again := slices.Clone(mask)
		JitterCoast(topo, again, scores, 0.5, seed.NewFactory(fmt.Sprintf("coast-%d", k), nil))
		if !slices.Equal(got, again) {
			t.Fatalf("seed %d jitter not reproducible", k)
		}
		total += flipped
	}
	if total == 0 {
		t.Fatal("no coast cell flipped across 20 seeds")
	}
}

func TestPruneIslandsOnlyTakesIsolatedCells(t *testing.T) {
	topo := grid.New(10, 10)
	n := topo.Size()
	mask := make([]bool, n)
	var islands []int
	for _, y := range []int{1, 4} {
		for _, x := range []int{1, 4, 7} {
			i := topo.Index(x, y)
			mask[i] = true
			islands = append(islands, i)
		}
	}
	pair := []int{topo.Index(3, 7), topo.Index(4, 7)}
	for _, i := range pair {
		mask[i] = true
	}

	total := 0
	for k := 0; k < 10; k++ {
		name := fmt.Sprintf("islands-%d", k)
		got := slices.Clone(mask)
		pruned := PruneIslands(topo, got, seed.NewFactory(name, nil))
		for _, i := range pair {
			if !got[i] {
				t.Fatalf("seed %d pruned a cell with a land neighbor", k)
			}
		}
		removed := 0
		for _, i := range islands {
			if !got[i] {
				removed++
			}
		}
		if removed != pruned {
			t.Fatalf("seed %d reported %d pruned, removed %d", k, pruned, removed)
		}

		again := slices.Clone(mask)
		PruneIslands(topo, again, seed.NewFactory(name, nil))
		if !slices.Equal(got, again) {
			t.Fatalf("seed %d pruned different islands on a rerun", k)
		}
		total += pruned
	}
	if total == 0 {
		t.Fatal("no island pruned across 10 seeds")
	}
}

func TestGrowCivilizationSkipsSingleCellIslands(t *testing.T) {
	topo := grid.New(12, 12)
	n := topo.Size()
	in := CivInput{
		Topo:     topo,
		Land:     make([]bool, n),
		Subtypes: make([]Subtype, n),
		Ice:      make([]bool, n),
		Era:      EraModern,
	}
	island := topo.Index(9, 5)
	for i := range in.Land {
		x, y := topo.Coord(i)
		in.Land[i] = i == island || (x >= 1 && x <= 6 && y >= 2 && y <= 9)
		in.Subtypes[i] = SubShallow
		if in.Land[i] {
			in.Subtypes[i] = SubLowland
		}
	}
	cfg := DefaultGenConfig()
	cfg.FeatureDensity = 2
	cfg.CityProb = 1
	cfg.CultivatedProb = 0.05
	cfg.BryophyteProb = 0.05

	for k := 0; k < 10; k++ {
		masks := GrowCivilization(in, cfg, seed.NewFactory(fmt.Sprintf("civ-%d", k), nil))
		for _, kind := range []FeatureKind{FeatureBryophyte, FeatureCultivated, FeatureCity, FeaturePolluted} {
			if masks.Has(kind, island) {
				t.Fatalf("seed %d: %s on a single-cell island", k, kind)
			}
		}
		if !slices.Contains(masks.ByKind[FeatureCity], true) {
			t.Fatalf("seed %d grew no city on the continent", k)
		}
	}
}

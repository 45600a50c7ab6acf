package persistence

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"

	"github.com/talgya/mini-planet/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "planet.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func generate(t *testing.T, g *world.Generator, cfg world.GenConfig, mode world.RunMode) *world.Result {
	t.Helper()
	res, err := g.Run(cfg, mode)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestSaveAndLoadRun(t *testing.T) {
	db := openTestDB(t)
	g := world.NewGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	cfg := world.SmallTestConfig()
	cfg.Era = world.EraIndustrial
	cfg.MarkCenters = true
	res := generate(t, g, cfg, world.ModeGenerate)

	if err := db.SaveRun(res, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := db.LoadRun(res.Run.ID.String())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !slices.Equal(got.Cells, res.Cells) {
		t.Fatal("loaded cells differ from the generated grid")
	}
	if got.Config.Seed != cfg.Seed || got.Config.Era != cfg.Era {
		t.Fatalf("config round trip: %+v", got.Config)
	}
	if len(got.Centers) != len(res.Centers) || got.Centers[0].X != res.Centers[0].X {
		t.Fatal("centers did not round-trip")
	}
	rec := got.Record
	if rec.Width != 20 || rec.Height != 20 || rec.Executed != "generate" || !rec.Reproducible || rec.CacheHit {
		t.Fatalf("record %+v", rec)
	}
	if rec.Land != res.PreGlacier.Land || rec.TopGlacierRows != res.TopGlacierRows {
		t.Fatalf("stats mismatch: %+v", rec)
	}

	latest, err := db.LatestRun()
	if err != nil || latest.Record.ID != rec.ID {
		t.Fatalf("latest run = %v, %v", latest, err)
	}
}

func TestLoadMissingRun(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LoadRun("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := db.LatestRun(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("latest on empty db: %v", err)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	g := world.NewGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	cfg := world.SmallTestConfig()

	var ids []string
	for _, mode := range []world.RunMode{world.ModeGenerate, world.ModeRevise, world.ModeDrift} {
		res := generate(t, g, cfg, mode)
		if err := db.SaveRun(res, cfg); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, res.Run.ID.String())
	}

	runs, err := db.RecentRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("recent runs %+v, want %v then %v", runs, ids[2], ids[1])
	}
	if !runs[1].CacheHit || runs[0].DriftEpoch != 1 {
		t.Fatalf("revise cache hit %v, drift epoch %d", runs[1].CacheHit, runs[0].DriftEpoch)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("climate", `{"temperature":12}`); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("climate", `{"temperature":9}`); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMeta("climate")
	if err != nil || v != `{"temperature":9}` {
		t.Fatalf("GetMeta = %q, %v", v, err)
	}
}

func TestCellPacking(t *testing.T) {
	cells := []world.TerrainCell{
		{Terrain: world.Terrain{Type: world.TypeSea, Subtype: world.SubSeaIce}, Flags: world.Flags{SeaPolluted: true}},
		{Terrain: world.Terrain{Type: world.TypeLand, Subtype: world.SubTundra}, Flags: world.Flags{City: true, Center: true}},
		{Terrain: world.Terrain{Type: world.TypeLand, Subtype: world.SubLake}},
	}
	data := EncodeCells(cells)
	if len(data) != len(cells)*bytesPerCell {
		t.Fatalf("packed %d bytes", len(data))
	}
	got, err := DecodeCells(data, len(cells))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, cells) {
		t.Fatalf("got %+v", got)
	}
	if _, err := DecodeCells(data, 4); err == nil {
		t.Fatal("short blob accepted")
	}
}

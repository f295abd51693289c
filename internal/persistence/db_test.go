package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/labormarket/internal/engine"
	"github.com/talgya/labormarket/internal/jobs"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBeginRun(t *testing.T) {
	db := openTestDB(t)
	assert.Empty(t, db.RunID())

	run, err := db.BeginRun(42, []byte("seed: 42\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, run.ID, db.RunID())

	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run, runs[0])
}

func TestEvents_ScopedToRun(t *testing.T) {
	db := openTestDB(t)

	_, err := db.BeginRun(1, nil)
	require.NoError(t, err)
	require.NoError(t, db.SaveEvents([]engine.Event{
		{Tick: 1, Description: "a", Category: "hire"},
		{Tick: 2, Description: "b", Category: "death"},
	}))

	_, err = db.BeginRun(2, nil)
	require.NoError(t, err)
	require.NoError(t, db.SaveEvents([]engine.Event{{Tick: 9, Description: "c", Category: "birth"}}))
	require.NoError(t, db.SaveEvents(nil))

	events, err := db.RecentEvents(10)
	require.NoError(t, err)
	assert.Equal(t, []engine.Event{{Tick: 9, Description: "c", Category: "birth"}}, events)
}

func TestRecentEvents_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	_, err := db.BeginRun(1, nil)
	require.NoError(t, err)
	require.NoError(t, db.SaveEvents([]engine.Event{
		{Tick: 1, Description: "first", Category: "hire"},
		{Tick: 2, Description: "second", Category: "hire"},
		{Tick: 3, Description: "third", Category: "hire"},
	}))

	events, err := db.RecentEvents(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "third", events[0].Description)
	assert.Equal(t, "second", events[1].Description)
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	_, err := db.BeginRun(1, nil)
	require.NoError(t, err)

	_, err = db.GetMeta("last_tick")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, db.SaveMeta("last_tick", "10"))
	require.NoError(t, db.SaveMeta("last_tick", "20"))
	v, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "20", v)
}

func TestFlush(t *testing.T) {
	db := openTestDB(t)
	_, err := db.BeginRun(1, nil)
	require.NoError(t, err)

	p := engine.DefaultParams()
	p.BirthsPerYear = 0
	p.AverageLifespanYears = 0
	p.InitialPopulation = 30
	sim := engine.NewSimulation(p)
	sim.EnableJournal()
	sim.AddJob(jobs.NewBuilder("mill").AddRole(5, 5).Named("hand").Build())

	for tick := uint64(0); tick < 3; tick++ {
		sim.Step(tick, float64(tick))
		require.NoError(t, db.Flush(sim))
	}

	history, err := db.StatsHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, uint64(0), history[0].Tick)
	assert.Equal(t, uint64(2), history[2].Tick)
	assert.Equal(t, 30, history[2].Population)
	assert.Equal(t, 5, history[2].Seats)
	assert.Equal(t, 5, history[2].Hires)

	events, err := db.RecentEvents(100)
	require.NoError(t, err)
	assert.Len(t, events, 5)
	assert.Empty(t, sim.TakeEvents())

	last, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "2", last)

	// A limit keeps the newest rows, still oldest first.
	history, err = db.StatsHistory(2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, uint64(1), history[0].Tick)
}

func TestFlush_KeepsEventsOnFailure(t *testing.T) {
	db := openTestDB(t)
	_, err := db.BeginRun(1, nil)
	require.NoError(t, err)

	p := engine.DefaultParams()
	p.BirthsPerYear = 0
	p.AverageLifespanYears = 0
	p.InitialPopulation = 10
	sim := engine.NewSimulation(p)
	sim.EnableJournal()
	sim.AddJob(jobs.NewBuilder("mill").AddRole(3, 3).Build())
	sim.Step(0, 0)

	require.NoError(t, db.Close())
	require.Error(t, db.Flush(sim))

	events := sim.TakeEvents()
	assert.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, "hire", e.Category)
	}
}

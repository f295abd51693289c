// Simulation ties the demographic producers and the labor market together and
// runs them each tick.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/labormarket/internal/agents"
	"github.com/talgya/labormarket/internal/board"
	"github.com/talgya/labormarket/internal/entropy"
	"github.com/talgya/labormarket/internal/hiring"
	"github.com/talgya/labormarket/internal/jobs"
	"github.com/talgya/labormarket/internal/records"
)

// Params configures a Simulation.
type Params struct {
	Seed int64

	// ExpiryTTL is how long, in elapsed seconds, an advert stays up before it
	// is retracted and reconsidered.
	ExpiryTTL float64

	// MaxHiresPerRolePerTick caps hires committed to one role in one tick.
	MaxHiresPerRolePerTick int

	// TimeScale is game-seconds per elapsed second. Demographics run on game
	// time; the vacancy board runs on elapsed time.
	TimeScale float64

	BirthsPerYear        float64
	BirthFluctuation     float64 // amplitude of the smooth birth-rate swing, 0 = off
	AverageLifespanYears float64
	InitialPopulation    int

	// RateWindowYears is the window of the birth and death rolling means.
	RateWindowYears float64
}

// DefaultParams returns a town of 1000 births a year, 65-year lifespans and
// one game-day per elapsed second.
func DefaultParams() Params {
	return Params{
		Seed:                   1,
		ExpiryTTL:              60,
		MaxHiresPerRolePerTick: 8,
		TimeScale:              86400,
		BirthsPerYear:          1000,
		AverageLifespanYears:   65,
		RateWindowYears:        1,
	}
}

// Event is a notable occurrence in the simulation.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "birth", "death", "hire"
}

const maxRecentEvents = 1000

// Simulation holds the complete state and runs the stages of a tick in a
// fixed order. All mutation happens inside Step under the write lock.
type Simulation struct {
	mu sync.RWMutex

	Params Params

	Population *agents.Population
	Jobs       *jobs.Registry
	Board      *board.Board
	Notices    *board.Notices
	Inbox      *hiring.Inbox
	Resolver   *hiring.Resolver
	Records    *records.Records

	Spawner   *agents.Spawner
	Mortality *agents.Mortality

	Events    []Event // Recent events, capped at maxRecentEvents
	journal   []Event // Events not yet taken by TakeEvents; nil unless journaling
	journalOn bool
	LastTick  uint64
	Now       float64 // Elapsed seconds at the last step
	started   bool

	// OnVacancyChanged is called for every notice drained by reconciliation.
	OnVacancyChanged func(board.Notice)
}

// NewSimulation creates a Simulation and spawns the initial population.
func NewSimulation(p Params) *Simulation {
	src := entropy.NewSource(p.Seed)

	perSecond := 0.0
	if p.BirthsPerYear > 0 {
		perSecond = p.BirthsPerYear / agents.SecondsPerYear * p.TimeScale
	}

	s := &Simulation{
		Params:     p,
		Population: agents.NewPopulation(),
		Jobs:       jobs.NewRegistry(),
		Board:      board.New(),
		Notices:    &board.Notices{},
		Inbox:      &hiring.Inbox{},
		Resolver:   &hiring.Resolver{MaxHiresPerRolePerTick: p.MaxHiresPerRolePerTick},
		Records:    records.New(p.RateWindowYears * agents.SecondsPerYear),
		Spawner: agents.NewSpawner(src, agents.SpawnConfig{
			BirthsPerSecond:      perSecond,
			FluctuationAmplitude: p.BirthFluctuation,
		}),
		Mortality: agents.NewMortality(src, p.AverageLifespanYears),
	}

	for _, a := range s.Spawner.SpawnPopulation(p.InitialPopulation, 0) {
		s.Population.Add(a)
	}
	s.Records.Observe(s.Population.Len(), s.Population.CountTagged(agents.TagUnemployed), 0)
	return s
}

// AddAgent registers an agent created outside the spawner.
func (s *Simulation) AddAgent(a *agents.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Population.Add(a)
}

// AddJob registers a job and queues a notice so its vacant roles are
// advertised on the next tick.
func (s *Simulation) AddJob(j *jobs.Job) jobs.JobID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.Jobs.Add(j)
	s.Notices.Push(id)
	return id
}

// RemoveJob deletes a job and its adverts. Members become unemployed again.
func (s *Simulation) RemoveJob(id jobs.JobID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.Jobs.Get(id)
	if !ok {
		return false
	}
	for _, role := range j.Roles {
		for _, m := range role.Members {
			if a, ok := s.Population.Get(m); ok {
				a.Tag(agents.TagUnemployed)
			}
		}
	}
	s.Jobs.Remove(id)
	s.Board.RemoveJob(id)
	return true
}

// StepReport summarizes what one tick did.
type StepReport struct {
	Tick         uint64
	Now          float64
	Births       int
	Deaths       int
	Expired      int
	Posted       int
	Retracted    int
	Applications int
	Hires        int
}

// Step runs one tick at elapsed time now: aging, mortality, births, advert
// expiry, reconciliation, application intake, hiring, then statistics.
func (s *Simulation) Step(tick uint64, now float64) StepReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := 0.0
	if s.started {
		dt = max(now-s.Now, 0)
	}
	s.started = true
	s.LastTick = tick
	s.Now = now

	gameDt := dt * s.Params.TimeScale
	gameNow := now * s.Params.TimeScale

	rep := StepReport{Tick: tick, Now: now}

	// Demographics.
	s.ageAgents(gameDt)
	rep.Deaths = s.processDeaths(tick, gameDt, gameNow)
	rep.Births = s.processBirths(tick, dt, gameNow)

	// Labor market.
	s.runMarket(&rep)

	s.Records.Observe(s.Population.Len(), s.Population.CountTagged(agents.TagUnemployed), gameNow)

	if len(s.Events) > maxRecentEvents {
		s.Events = s.Events[len(s.Events)-maxRecentEvents:]
	}
	return rep
}

func (s *Simulation) addEvent(tick uint64, category, desc string) {
	e := Event{Tick: tick, Description: desc, Category: category}
	s.Events = append(s.Events, e)
	if s.journalOn {
		s.journal = append(s.journal, e)
	}
}

// EnableJournal starts keeping every event until TakeEvents collects it.
// Without a journal consumer only the capped recent events are kept.
func (s *Simulation) EnableJournal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journalOn = true
}

// TakeEvents returns events recorded since the previous call.
func (s *Simulation) TakeEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.journal
	s.journal = nil
	return out
}

// RequeueEvents puts events a consumer failed to store back in front of the
// pending journal, keeping their order.
func (s *Simulation) RequeueEvents(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal = append(append([]Event{}, events...), s.journal...)
}

// RecentEvents returns up to limit of the most recent events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.Events) > limit {
		start = len(s.Events) - limit
	}
	out := make([]Event, len(s.Events)-start)
	copy(out, s.Events[start:])
	return out
}

// Snapshot is a read-only view of the aggregate state.
type Snapshot struct {
	Tick       uint64          `json:"tick"`
	Now        float64         `json:"now"`
	SimTime    string          `json:"sim_time"`
	Population int             `json:"population"`
	Employed   int             `json:"employed"`
	Unemployed int             `json:"unemployed"`
	Adverts    int             `json:"adverts"`
	Jobs       int             `json:"jobs"`
	Seats      int             `json:"seats"`
	Records    records.Summary `json:"records"`
}

// Snapshot copies the current aggregate state.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unemployed := s.Population.CountTagged(agents.TagUnemployed)
	return Snapshot{
		Tick:       s.LastTick,
		Now:        s.Now,
		SimTime:    SimTime(s.Now * s.Params.TimeScale),
		Population: s.Population.Len(),
		Employed:   s.Population.Len() - unemployed,
		Unemployed: unemployed,
		Adverts:    s.Board.Len(),
		Jobs:       s.Jobs.Len(),
		Seats:      s.Jobs.Seats(),
		Records:    s.Records.Summary(),
	}
}

// Report logs a summary line and returns the snapshot it logged.
func (s *Simulation) Report() Snapshot {
	snap := s.Snapshot()
	slog.Info("report",
		"tick", snap.Tick,
		"time", snap.SimTime,
		"population", snap.Population,
		"employed", snap.Employed,
		"employment_rate", fmt.Sprintf("%.3f", snap.Records.EmploymentRate),
		"open_roles", snap.Adverts,
		"births", snap.Records.Births,
		"deaths", snap.Records.Deaths,
		"hires", snap.Records.Hires,
	)
	return snap
}

// Verify checks the cross-structure invariants: board list and index agree,
// no role exceeds its maximum, every member is a living employed agent, and
// no agent holds more than one seat.
func (s *Simulation) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var errs []error
	if err := s.Board.Verify(); err != nil {
		errs = append(errs, err)
	}

	seated := make(map[agents.AgentID]jobs.JobID)
	for _, j := range s.Jobs.Jobs() {
		for i := range j.Roles {
			role := &j.Roles[i]
			if len(role.Members) > role.Spec.Max {
				errs = append(errs, fmt.Errorf("job %d role %d: %d members exceeds max %d",
					j.ID, i, len(role.Members), role.Spec.Max))
			}
			for _, m := range role.Members {
				a, ok := s.Population.Get(m)
				if !ok || !a.Alive {
					errs = append(errs, fmt.Errorf("job %d role %d: member %d is not alive", j.ID, i, m))
				} else if a.Has(agents.TagUnemployed) {
					errs = append(errs, fmt.Errorf("job %d role %d: member %d is tagged unemployed", j.ID, i, m))
				}
				if prev, dup := seated[m]; dup {
					errs = append(errs, fmt.Errorf("agent %d seated in job %d and job %d", m, prev, j.ID))
				}
				seated[m] = j.ID
			}
		}
	}
	return errors.Join(errs...)
}

// Package agents provides the agent data model, the population store, and the
// demographic producers (births, aging, mortality) that feed the labor market.
package agents

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Sex is used only for name generation.
type Sex uint8

const (
	SexMale   Sex = 0
	SexFemale Sex = 1
)

// SecondsPerYear is the length of one game-year in game-seconds.
const SecondsPerYear = 365 * 24 * 60 * 60

// Tag is a capability marker other subsystems can query without depending on
// whichever subsystem set it.
type Tag uint8

const (
	// TagUnemployed marks an agent eligible to apply for adverts.
	TagUnemployed Tag = iota
)

// TagSet is a bitset of tags.
type TagSet uint32

// Has reports whether t is set.
func (s TagSet) Has(t Tag) bool {
	return s&(1<<t) != 0
}

// With returns the set with t added.
func (s TagSet) With(t Tag) TagSet {
	return s | 1<<t
}

// Without returns the set with t removed.
func (s TagSet) Without(t Tag) TagSet {
	return s &^ (1 << t)
}

// Agent is the core entity representing a person in the simulation.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`
	Sex  Sex     `json:"sex"`

	// Age in game-years. Advanced continuously by Age.
	Age float64 `json:"age"`

	Tags TagSet `json:"tags"`

	// Metadata
	BornTick uint64 `json:"born_tick"`
	Alive    bool   `json:"alive"`
}

// Has reports whether the agent carries tag t.
func (a *Agent) Has(t Tag) bool {
	return a.Tags.Has(t)
}

// Tag sets t on the agent.
func (a *Agent) Tag(t Tag) {
	a.Tags = a.Tags.With(t)
}

// Untag clears t from the agent.
func (a *Agent) Untag(t Tag) {
	a.Tags = a.Tags.Without(t)
}

// AgeYears returns the agent's age. A dead agent has no age, so every
// age-based constraint fails for it.
func (a *Agent) AgeYears() (float64, bool) {
	if a == nil || !a.Alive {
		return 0, false
	}
	return a.Age, true
}

// Age advances the agent's age by dt game-seconds.
func Age(a *Agent, dt float64) {
	if a.Alive && dt > 0 {
		a.Age += dt / SecondsPerYear
	}
}

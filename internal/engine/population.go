// Population dynamics: aging, natural death and births.
package engine

import (
	"fmt"

	"github.com/talgya/labormarket/internal/agents"
)

// ageAgents advances every living agent by dt game-seconds.
func (s *Simulation) ageAgents(dt float64) {
	if dt <= 0 {
		return
	}
	for _, a := range s.Population.All() {
		agents.Age(a, dt)
	}
}

// processDeaths removes agents that die this tick and purges them from every
// role they held, queuing a vacancy notice for each affected job.
func (s *Simulation) processDeaths(tick uint64, dt, gameNow float64) int {
	var dead []*agents.Agent
	for _, a := range s.Population.All() {
		if s.Mortality.Dies(a, dt, tick) {
			dead = append(dead, a)
		}
	}

	for _, a := range dead {
		a.Alive = false
		a.Untag(agents.TagUnemployed)
		s.Population.Remove(a.ID)
		for _, job := range s.Jobs.PurgeAgent(a.ID) {
			s.Notices.Push(job)
		}
		s.addEvent(tick, "death", fmt.Sprintf("%s has died at %.0f", a.Name, a.Age))
	}
	s.Records.RecordDeaths(len(dead), gameNow)
	return len(dead)
}

// processBirths adds the newborns for a tick spanning dt elapsed seconds.
func (s *Simulation) processBirths(tick uint64, dt, gameNow float64) int {
	if dt <= 0 {
		return 0
	}
	born := s.Spawner.Births(dt, gameNow, tick)
	for _, a := range born {
		s.Population.Add(a)
		s.addEvent(tick, "birth", fmt.Sprintf("%s is born", a.Name))
	}
	s.Records.RecordBirths(len(born), gameNow)
	return len(born)
}

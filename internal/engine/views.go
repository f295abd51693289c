package engine

import (
	"github.com/talgya/labormarket/internal/agents"
	"github.com/talgya/labormarket/internal/board"
	"github.com/talgya/labormarket/internal/jobs"
)

// RoleView is a read-only copy of one role.
type RoleView struct {
	Index       int              `json:"index"`
	Name        string           `json:"name,omitempty"`
	Min         int              `json:"min"`
	Max         int              `json:"max"`
	Constraints []string         `json:"constraints,omitempty"`
	Members     []agents.AgentID `json:"members"`
	Vacancy     int              `json:"vacancy"`
	Advertised  bool             `json:"advertised"`
}

// JobView is a read-only copy of one job.
type JobView struct {
	ID    jobs.JobID `json:"id"`
	Name  string     `json:"name"`
	Roles []RoleView `json:"roles"`
}

func (s *Simulation) jobView(j *jobs.Job) JobView {
	v := JobView{ID: j.ID, Name: j.Name, Roles: make([]RoleView, len(j.Roles))}
	for i := range j.Roles {
		r := &j.Roles[i]
		rv := RoleView{
			Index:      i,
			Name:       r.Spec.Name,
			Min:        r.Spec.Min,
			Max:        r.Spec.Max,
			Members:    append([]agents.AgentID{}, r.Members...),
			Vacancy:    r.Vacancy(),
			Advertised: s.Board.Has(board.Key{Job: j.ID, RoleIndex: i}),
		}
		for _, c := range r.Spec.Constraints {
			rv.Constraints = append(rv.Constraints, c.String())
		}
		v.Roles[i] = rv
	}
	return v
}

// JobViews copies every registered job in registration order.
func (s *Simulation) JobViews() []JobView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobView, 0, s.Jobs.Len())
	for _, j := range s.Jobs.Jobs() {
		out = append(out, s.jobView(j))
	}
	return out
}

// JobView copies one job.
func (s *Simulation) JobView(id jobs.JobID) (JobView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.Jobs.Get(id)
	if !ok {
		return JobView{}, false
	}
	return s.jobView(j), true
}

// Adverts copies the board in posting order.
func (s *Simulation) Adverts() []board.Advert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Board.Adverts()
}

// AgentView copies one living agent.
func (s *Simulation) AgentView(id agents.AgentID) (agents.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.Population.Get(id)
	if !ok {
		return agents.Agent{}, false
	}
	return *a, true
}

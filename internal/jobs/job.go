// Package jobs holds job definitions: each job is an ordered list of roles,
// each role a seat range with eligibility constraints plus its current members.
package jobs

import (
	"slices"

	"github.com/talgya/labormarket/internal/agents"
)

// JobID is a unique identifier for a job. Zero is never issued.
type JobID uint64

// RoleSpec is the immutable definition of a role: seat bounds and constraints.
type RoleSpec struct {
	Name        string       `json:"name,omitempty"`
	Min         int          `json:"min"`
	Max         int          `json:"max"`
	Constraints []Constraint `json:"constraints,omitempty"`
}

// Qualifies reports whether s satisfies every constraint of the role.
func (r RoleSpec) Qualifies(s Subject) bool {
	for _, c := range r.Constraints {
		if !c.Satisfied(s) {
			return false
		}
	}
	return true
}

// Role pairs a spec with its current members.
type Role struct {
	Spec    RoleSpec         `json:"spec"`
	Members []agents.AgentID `json:"members"`
}

// Vacancy is the number of unmet minimum seats.
func (r *Role) Vacancy() int {
	return max(0, r.Spec.Min-len(r.Members))
}

// Room is the number of seats left before the role is full.
func (r *Role) Room() int {
	return max(0, r.Spec.Max-len(r.Members))
}

// IsMember reports whether id holds a seat in the role.
func (r *Role) IsMember(id agents.AgentID) bool {
	return slices.Contains(r.Members, id)
}

// Job is an ordered sequence of roles.
type Job struct {
	ID    JobID  `json:"id"`
	Name  string `json:"name"`
	Roles []Role `json:"roles"`
}

// Role returns the role at index i, or nil when out of range.
func (j *Job) Role(i int) *Role {
	if j == nil || i < 0 || i >= len(j.Roles) {
		return nil
	}
	return &j.Roles[i]
}

// Builder assembles a job one role at a time:
//
//	school := jobs.NewBuilder("school").
//		AddRole(20, 200).AgeLessThan(18).
//		AddRole(1, 10).AgeAtLeast(18).
//		Build()
type Builder struct {
	name    string
	roles   []Role
	current int
}

// NewBuilder starts a job definition.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, current: -1}
}

// AddRole starts a new role with seat bounds.
func (b *Builder) AddRole(min, max int) *Builder {
	b.roles = append(b.roles, Role{Spec: RoleSpec{Min: min, Max: max}})
	b.current = len(b.roles) - 1
	return b
}

// Named names the most recently added role.
func (b *Builder) Named(name string) *Builder {
	if b.current >= 0 {
		b.roles[b.current].Spec.Name = name
	}
	return b
}

// With attaches a constraint to the most recently added role.
func (b *Builder) With(c Constraint) *Builder {
	if b.current >= 0 {
		spec := &b.roles[b.current].Spec
		spec.Constraints = append(spec.Constraints, c)
	}
	return b
}

// AgeLessThan requires members younger than n years.
func (b *Builder) AgeLessThan(n float64) *Builder {
	return b.With(Constraint{Kind: AgeLessThan, Years: n})
}

// AgeAtLeast requires members at least n years old.
func (b *Builder) AgeAtLeast(n float64) *Builder {
	return b.With(Constraint{Kind: AgeAtLeast, Years: n})
}

// Build finalizes the job. The ID is assigned by Registry.Add.
func (b *Builder) Build() *Job {
	roles := make([]Role, len(b.roles))
	copy(roles, b.roles)
	return &Job{Name: b.name, Roles: roles}
}

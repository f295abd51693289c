package jobs

import (
	"slices"

	"github.com/talgya/labormarket/internal/agents"
)

// Registry stores jobs in creation order with an ID index.
type Registry struct {
	jobs   []*Job
	index  map[JobID]*Job
	nextID JobID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index:  make(map[JobID]*Job),
		nextID: 1,
	}
}

// Add assigns the job an ID and stores it.
func (r *Registry) Add(j *Job) JobID {
	j.ID = r.nextID
	r.nextID++
	r.jobs = append(r.jobs, j)
	r.index[j.ID] = j
	return j.ID
}

// Get looks up a job by ID.
func (r *Registry) Get(id JobID) (*Job, bool) {
	j, ok := r.index[id]
	return j, ok
}

// Remove deletes a job. Unknown IDs are ignored.
func (r *Registry) Remove(id JobID) bool {
	if _, ok := r.index[id]; !ok {
		return false
	}
	delete(r.index, id)
	r.jobs = slices.DeleteFunc(r.jobs, func(j *Job) bool { return j.ID == id })
	return true
}

// Jobs returns all jobs in creation order. The slice must not be modified.
func (r *Registry) Jobs() []*Job {
	return r.jobs
}

// Len returns the number of jobs.
func (r *Registry) Len() int {
	return len(r.jobs)
}

// Role resolves a (job, role index) pair, or nil when either is unknown.
func (r *Registry) Role(id JobID, i int) *Role {
	j, ok := r.index[id]
	if !ok {
		return nil
	}
	return j.Role(i)
}

// AddMember seats agent in the role. It refuses unknown roles, existing
// members, and full roles, so membership never exceeds Max.
func (r *Registry) AddMember(id JobID, i int, agent agents.AgentID) bool {
	role := r.Role(id, i)
	if role == nil || role.IsMember(agent) || role.Room() == 0 {
		return false
	}
	role.Members = append(role.Members, agent)
	return true
}

// PurgeAgent removes agent from every role it holds and returns the jobs
// that changed, in creation order.
func (r *Registry) PurgeAgent(agent agents.AgentID) []JobID {
	var changed []JobID
	for _, j := range r.jobs {
		touched := false
		for i := range j.Roles {
			role := &j.Roles[i]
			before := len(role.Members)
			role.Members = slices.DeleteFunc(role.Members, func(m agents.AgentID) bool { return m == agent })
			if len(role.Members) != before {
				touched = true
			}
		}
		if touched {
			changed = append(changed, j.ID)
		}
	}
	return changed
}

// Seats returns the total number of filled seats across all jobs.
func (r *Registry) Seats() int {
	n := 0
	for _, j := range r.jobs {
		for i := range j.Roles {
			n += len(j.Roles[i].Members)
		}
	}
	return n
}

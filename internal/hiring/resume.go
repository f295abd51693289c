// Package hiring matches unemployed agents to advertised roles in two passes:
// intake generates optimistic applications against every live advert, then
// the resolver commits hires under capacity and per-tick batch limits.
package hiring

import (
	"github.com/talgya/labormarket/internal/agents"
	"github.com/talgya/labormarket/internal/jobs"
)

// Resume is one agent's application to one (job, role). It lives for a
// single tick.
type Resume struct {
	Applicant agents.AgentID `json:"applicant"`
	Job       jobs.JobID     `json:"job"`
	RoleIndex int            `json:"role_index"`
}

// Inbox queues resumes in arrival order until the resolver drains it.
type Inbox struct {
	resumes []Resume
}

// Submit queues r.
func (in *Inbox) Submit(r Resume) {
	in.resumes = append(in.resumes, r)
}

// Drain returns the queued resumes in arrival order and empties the inbox.
func (in *Inbox) Drain() []Resume {
	out := in.resumes
	in.resumes = nil
	return out
}

// Len returns the number of queued resumes.
func (in *Inbox) Len() int {
	return len(in.resumes)
}

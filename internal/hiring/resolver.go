package hiring

import (
	"github.com/talgya/labormarket/internal/agents"
	"github.com/talgya/labormarket/internal/board"
	"github.com/talgya/labormarket/internal/jobs"
)

// SkipReason records why a resume did not become a hire.
type SkipReason uint8

const (
	SkipUnknownRole SkipReason = iota + 1
	SkipAlreadyMember
	SkipNotAvailable // applicant died or was hired earlier in the same drain
	SkipRoleFull
	SkipBatchCap
)

func (r SkipReason) String() string {
	switch r {
	case SkipUnknownRole:
		return "unknown_role"
	case SkipAlreadyMember:
		return "already_member"
	case SkipNotAvailable:
		return "not_available"
	case SkipRoleFull:
		return "role_full"
	case SkipBatchCap:
		return "batch_cap"
	}
	return "unknown"
}

// Hire is one committed placement.
type Hire struct {
	Agent     agents.AgentID `json:"agent"`
	Job       jobs.JobID     `json:"job"`
	RoleIndex int            `json:"role_index"`
}

// Outcome summarizes one drain of the inbox.
type Outcome struct {
	Hires   []Hire
	Skipped map[SkipReason]int
}

// Resolver commits hires from queued resumes.
type Resolver struct {
	// MaxHiresPerRolePerTick caps how many hires one role absorbs per drain.
	// Zero or less means no cap.
	MaxHiresPerRolePerTick int
}

// Resolve drains the inbox in arrival order. For each resume it resolves the
// role, skips existing members, skips full roles, and skips roles that have
// reached the batch cap this drain; otherwise it seats the applicant, clears
// the unemployed tag and queues a vacancy notice for the job. Ties for the
// last seats go to whichever resume arrived first.
func (r *Resolver) Resolve(pop *agents.Population, reg *jobs.Registry, inbox *Inbox, notices *board.Notices) Outcome {
	out := Outcome{Skipped: make(map[SkipReason]int)}
	admitted := make(map[board.Key]int)

	for _, res := range inbox.Drain() {
		role := reg.Role(res.Job, res.RoleIndex)
		if role == nil {
			out.Skipped[SkipUnknownRole]++
			continue
		}
		if role.IsMember(res.Applicant) {
			out.Skipped[SkipAlreadyMember]++
			continue
		}

		// An agent holds at most one seat: a resume from someone hired
		// earlier in this drain, or who has since died, is stale.
		a, ok := pop.Get(res.Applicant)
		if !ok || !a.Alive || !a.Has(agents.TagUnemployed) {
			out.Skipped[SkipNotAvailable]++
			continue
		}

		if role.Room() == 0 {
			out.Skipped[SkipRoleFull]++
			continue
		}

		key := board.Key{Job: res.Job, RoleIndex: res.RoleIndex}
		if r.MaxHiresPerRolePerTick > 0 && admitted[key] >= r.MaxHiresPerRolePerTick {
			out.Skipped[SkipBatchCap]++
			continue
		}

		if !reg.AddMember(res.Job, res.RoleIndex, res.Applicant) {
			out.Skipped[SkipRoleFull]++
			continue
		}
		admitted[key]++
		a.Untag(agents.TagUnemployed)
		notices.Push(res.Job)
		out.Hires = append(out.Hires, Hire{Agent: res.Applicant, Job: res.Job, RoleIndex: res.RoleIndex})
	}
	return out
}

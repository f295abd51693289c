package hiring

import (
	"github.com/talgya/labormarket/internal/agents"
	"github.com/talgya/labormarket/internal/board"
	"github.com/talgya/labormarket/internal/jobs"
)

// Apply submits a resume for every (unemployed agent, live advert) pair where
// the agent is not already a member of the role and satisfies all of its
// constraints. Agents are visited in population order and adverts in posting
// order, so resume arrival order is deterministic. Adverts whose job or role
// no longer resolves are skipped. Returns the number of resumes submitted.
func Apply(pop *agents.Population, reg *jobs.Registry, b *board.Board, inbox *Inbox) int {
	ads := b.Adverts()
	if len(ads) == 0 {
		return 0
	}

	// Resolve each advert once rather than once per applicant.
	roles := make([]*jobs.Role, len(ads))
	for i, ad := range ads {
		roles[i] = reg.Role(ad.Job, ad.RoleIndex)
	}

	n := 0
	for _, a := range pop.Tagged(agents.TagUnemployed) {
		if !a.Alive {
			continue
		}
		for i, ad := range ads {
			role := roles[i]
			if role == nil || role.IsMember(a.ID) || !role.Spec.Qualifies(a) {
				continue
			}
			inbox.Submit(Resume{Applicant: a.ID, Job: ad.Job, RoleIndex: ad.RoleIndex})
			n++
		}
	}
	return n
}

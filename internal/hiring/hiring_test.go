package hiring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/labormarket/internal/agents"
	"github.com/talgya/labormarket/internal/board"
	"github.com/talgya/labormarket/internal/jobs"
)

type market struct {
	pop     *agents.Population
	reg     *jobs.Registry
	board   *board.Board
	inbox   *Inbox
	notices *board.Notices
}

func newMarket() *market {
	return &market{
		pop:     agents.NewPopulation(),
		reg:     jobs.NewRegistry(),
		board:   board.New(),
		inbox:   &Inbox{},
		notices: &board.Notices{},
	}
}

func (m *market) person(id agents.AgentID, age float64) *agents.Agent {
	a := &agents.Agent{ID: id, Age: age, Alive: true}
	a.Tag(agents.TagUnemployed)
	m.pop.Add(a)
	return a
}

func (m *market) job(j *jobs.Job) jobs.JobID {
	id := m.reg.Add(j)
	board.Reconcile(m.board, m.reg, id, 0)
	return id
}

func TestInbox_FIFO(t *testing.T) {
	var in Inbox
	in.Submit(Resume{Applicant: 2})
	in.Submit(Resume{Applicant: 1})
	assert.Equal(t, 2, in.Len())
	assert.Equal(t, []Resume{{Applicant: 2}, {Applicant: 1}}, in.Drain())
	assert.Equal(t, 0, in.Len())
}

func TestApply_FiltersByConstraintsAndMembership(t *testing.T) {
	m := newMarket()
	school := m.job(jobs.NewBuilder("school").
		AddRole(2, 10).AgeLessThan(18).
		AddRole(1, 2).AgeAtLeast(18).
		Build())

	m.person(1, 10)
	m.person(2, 30)
	employed := m.person(3, 12)
	employed.Untag(agents.TagUnemployed)
	dead := m.person(4, 40)
	dead.Alive = false

	member := m.person(5, 9)
	m.reg.AddMember(school, 0, member.ID)

	n := Apply(m.pop, m.reg, m.board, m.inbox)
	assert.Equal(t, 2, n)
	assert.Equal(t, []Resume{
		{Applicant: 1, Job: school, RoleIndex: 0},
		{Applicant: 2, Job: school, RoleIndex: 1},
	}, m.inbox.Drain())
}

func TestApply_SkipsAdvertsForMissingJobs(t *testing.T) {
	m := newMarket()
	id := m.job(jobs.NewBuilder("gone").AddRole(1, 1).Build())
	m.person(1, 30)
	m.reg.Remove(id)

	assert.Equal(t, 0, Apply(m.pop, m.reg, m.board, m.inbox))
	assert.Equal(t, 0, m.inbox.Len())
}

func TestApply_EveryEligibleAdvert(t *testing.T) {
	m := newMarket()
	a := m.job(jobs.NewBuilder("a").AddRole(1, 1).Build())
	b := m.job(jobs.NewBuilder("b").AddRole(1, 1).Build())
	m.person(1, 30)

	Apply(m.pop, m.reg, m.board, m.inbox)
	assert.Equal(t, []Resume{
		{Applicant: 1, Job: a},
		{Applicant: 1, Job: b},
	}, m.inbox.Drain())
}

func TestResolve_FirstAppliedFirstHired(t *testing.T) {
	m := newMarket()
	id := m.job(jobs.NewBuilder("j").AddRole(1, 1).Build())
	a := m.person(1, 30)
	b := m.person(2, 30)

	Apply(m.pop, m.reg, m.board, m.inbox)
	r := &Resolver{MaxHiresPerRolePerTick: 8}
	out := r.Resolve(m.pop, m.reg, m.inbox, m.notices)

	assert.Equal(t, []Hire{{Agent: 1, Job: id}}, out.Hires)
	assert.Equal(t, 1, out.Skipped[SkipRoleFull])
	assert.Equal(t, []agents.AgentID{1}, m.reg.Role(id, 0).Members)
	assert.False(t, a.Has(agents.TagUnemployed))
	assert.True(t, b.Has(agents.TagUnemployed))
	assert.Equal(t, []board.Notice{{Job: id}}, m.notices.Drain())
	assert.Equal(t, 0, m.inbox.Len(), "inbox is empty after a drain")

	// The hire's notice retracts the advert on the next reconciliation.
	board.Reconcile(m.board, m.reg, id, 1)
	assert.Equal(t, 0, m.board.Len())
}

func TestResolve_BatchCap(t *testing.T) {
	m := newMarket()
	id := m.job(jobs.NewBuilder("big").AddRole(50, 50).Build())
	for i := agents.AgentID(1); i <= 10; i++ {
		m.person(i, 30)
	}

	r := &Resolver{MaxHiresPerRolePerTick: 3}
	Apply(m.pop, m.reg, m.board, m.inbox)
	out := r.Resolve(m.pop, m.reg, m.inbox, m.notices)

	require.Len(t, out.Hires, 3)
	assert.Equal(t, 7, out.Skipped[SkipBatchCap])
	assert.Equal(t, []agents.AgentID{1, 2, 3}, m.reg.Role(id, 0).Members)

	// The counter resets with the next drain.
	Apply(m.pop, m.reg, m.board, m.inbox)
	out = r.Resolve(m.pop, m.reg, m.inbox, m.notices)
	assert.Len(t, out.Hires, 3)
	assert.Len(t, m.reg.Role(id, 0).Members, 6)
}

func TestResolve_BatchCapIsPerRole(t *testing.T) {
	m := newMarket()
	id := m.job(jobs.NewBuilder("two").AddRole(5, 5).AgeLessThan(18).AddRole(5, 5).AgeAtLeast(18).Build())
	for i := agents.AgentID(1); i <= 4; i++ {
		m.person(i, 10)
	}
	for i := agents.AgentID(5); i <= 8; i++ {
		m.person(i, 40)
	}

	r := &Resolver{MaxHiresPerRolePerTick: 2}
	Apply(m.pop, m.reg, m.board, m.inbox)
	out := r.Resolve(m.pop, m.reg, m.inbox, m.notices)

	assert.Len(t, out.Hires, 4)
	assert.Len(t, m.reg.Role(id, 0).Members, 2)
	assert.Len(t, m.reg.Role(id, 1).Members, 2)
}

func TestResolve_NoCapWhenZero(t *testing.T) {
	m := newMarket()
	id := m.job(jobs.NewBuilder("j").AddRole(10, 4).Build())
	for i := agents.AgentID(1); i <= 6; i++ {
		m.person(i, 30)
	}

	Apply(m.pop, m.reg, m.board, m.inbox)
	out := (&Resolver{}).Resolve(m.pop, m.reg, m.inbox, m.notices)

	assert.Len(t, out.Hires, 4, "capacity still bounds hires")
	assert.Len(t, m.reg.Role(id, 0).Members, 4)
	assert.Equal(t, 2, out.Skipped[SkipRoleFull])
}

func TestResolve_AgentTakesAtMostOneSeat(t *testing.T) {
	m := newMarket()
	a := m.job(jobs.NewBuilder("a").AddRole(1, 1).Build())
	b := m.job(jobs.NewBuilder("b").AddRole(1, 1).Build())
	m.person(1, 30)
	m.person(2, 30)

	Apply(m.pop, m.reg, m.board, m.inbox)
	out := (&Resolver{MaxHiresPerRolePerTick: 8}).Resolve(m.pop, m.reg, m.inbox, m.notices)

	assert.Equal(t, []Hire{{Agent: 1, Job: a}, {Agent: 2, Job: b}}, out.Hires)
	assert.Equal(t, 1, out.Skipped[SkipNotAvailable])
	assert.Equal(t, 1, out.Skipped[SkipRoleFull])
}

func TestResolve_SkipsStaleResumes(t *testing.T) {
	m := newMarket()
	id := m.job(jobs.NewBuilder("j").AddRole(3, 3).Build())
	m.person(1, 30)
	m.reg.AddMember(id, 0, 2)

	m.inbox.Submit(Resume{Applicant: 1, Job: id, RoleIndex: 7})
	m.inbox.Submit(Resume{Applicant: 1, Job: 999})
	m.inbox.Submit(Resume{Applicant: 2, Job: id})
	m.inbox.Submit(Resume{Applicant: 77, Job: id})

	out := (&Resolver{MaxHiresPerRolePerTick: 8}).Resolve(m.pop, m.reg, m.inbox, m.notices)
	assert.Empty(t, out.Hires)
	assert.Equal(t, 2, out.Skipped[SkipUnknownRole])
	assert.Equal(t, 1, out.Skipped[SkipAlreadyMember])
	assert.Equal(t, 1, out.Skipped[SkipNotAvailable])
	assert.Equal(t, 0, m.notices.Len())
}

func TestResolve_NeverOvershootsCapacity(t *testing.T) {
	m := newMarket()
	id := m.job(jobs.NewBuilder("j").AddRole(5, 5).Build())
	for i := agents.AgentID(1); i <= 40; i++ {
		m.person(i, 30)
	}
	r := &Resolver{MaxHiresPerRolePerTick: 2}

	for tick := 0; tick < 10; tick++ {
		Apply(m.pop, m.reg, m.board, m.inbox)
		r.Resolve(m.pop, m.reg, m.inbox, m.notices)
		require.LessOrEqual(t, len(m.reg.Role(id, 0).Members), 5)
	}
	assert.Len(t, m.reg.Role(id, 0).Members, 5)
}

func TestSkipReason_String(t *testing.T) {
	assert.Equal(t, "batch_cap", SkipBatchCap.String())
	assert.Equal(t, "unknown", SkipReason(0).String())
}

package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/labormarket/internal/agents"
)

type ageless struct{}

func (ageless) AgeYears() (float64, bool) { return 0, false }

type aged float64

func (a aged) AgeYears() (float64, bool) { return float64(a), true }

func TestConstraint_Satisfied(t *testing.T) {
	tests := []struct {
		name string
		c    Constraint
		s    Subject
		want bool
	}{
		{"younger passes age_lt", Constraint{AgeLessThan, 18}, aged(17.9), true},
		{"equal fails age_lt", Constraint{AgeLessThan, 18}, aged(18), false},
		{"equal passes age_gte", Constraint{AgeAtLeast, 18}, aged(18), true},
		{"younger fails age_gte", Constraint{AgeAtLeast, 18}, aged(3), false},
		{"missing age fails closed", Constraint{AgeLessThan, 18}, ageless{}, false},
		{"unknown kind fails closed", Constraint{Kind: 99}, aged(30), false},
		{"dead agent fails", Constraint{AgeAtLeast, 0}, &agents.Agent{Age: 40}, false},
		{"live agent passes", Constraint{AgeAtLeast, 0}, &agents.Agent{Age: 40, Alive: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Satisfied(tt.s))
		})
	}
}

func TestParseConstraint(t *testing.T) {
	c, err := ParseConstraint("age_lt", 18)
	require.NoError(t, err)
	assert.Equal(t, Constraint{AgeLessThan, 18}, c)
	assert.Equal(t, "age < 18", c.String())

	c, err = ParseConstraint(" AGE_GTE ", 21)
	require.NoError(t, err)
	assert.Equal(t, Constraint{AgeAtLeast, 21}, c)

	_, err = ParseConstraint("has_trait", 1)
	assert.Error(t, err)
}

func TestRoleSpec_QualifiesIsConjunction(t *testing.T) {
	spec := RoleSpec{Constraints: []Constraint{{AgeAtLeast, 18}, {AgeLessThan, 65}}}
	assert.True(t, spec.Qualifies(aged(30)))
	assert.False(t, spec.Qualifies(aged(70)))
	assert.False(t, spec.Qualifies(aged(10)))

	open := RoleSpec{}
	assert.True(t, open.Qualifies(ageless{}), "no constraints means everyone qualifies")
}

func TestRole_VacancyIsDefinedByMin(t *testing.T) {
	r := &Role{Spec: RoleSpec{Min: 2, Max: 5}}
	assert.Equal(t, 2, r.Vacancy())
	assert.Equal(t, 5, r.Room())

	r.Members = []agents.AgentID{1, 2, 3}
	assert.Equal(t, 0, r.Vacancy())
	assert.Equal(t, 2, r.Room())

	zero := &Role{Spec: RoleSpec{Min: 0, Max: 5}}
	assert.Equal(t, 0, zero.Vacancy())
}

func TestBuilder(t *testing.T) {
	school := NewBuilder("school").
		AddRole(20, 200).Named("student").AgeLessThan(18).
		AddRole(1, 10).Named("teacher").AgeAtLeast(18).
		Build()

	assert.Equal(t, "school", school.Name)
	require.Len(t, school.Roles, 2)
	assert.Equal(t, RoleSpec{Name: "student", Min: 20, Max: 200, Constraints: []Constraint{{AgeLessThan, 18}}}, school.Roles[0].Spec)
	assert.Equal(t, RoleSpec{Name: "teacher", Min: 1, Max: 10, Constraints: []Constraint{{AgeAtLeast, 18}}}, school.Roles[1].Spec)

	// Constraints before any role are dropped.
	empty := NewBuilder("x").AgeLessThan(5).Build()
	assert.Empty(t, empty.Roles)
}

func TestRegistry_AddGetRemove(t *testing.T) {
	reg := NewRegistry()
	a := reg.Add(NewBuilder("a").AddRole(1, 1).Build())
	b := reg.Add(NewBuilder("b").AddRole(1, 1).Build())
	assert.NotEqual(t, a, b)
	assert.NotZero(t, a)

	j, ok := reg.Get(b)
	require.True(t, ok)
	assert.Equal(t, "b", j.Name)

	assert.NotNil(t, reg.Role(a, 0))
	assert.Nil(t, reg.Role(a, 1))
	assert.Nil(t, reg.Role(a, -1))
	assert.Nil(t, reg.Role(999, 0))

	assert.True(t, reg.Remove(a))
	assert.False(t, reg.Remove(a))
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, b, reg.Jobs()[0].ID)
}

func TestRegistry_AddMemberRespectsCapacity(t *testing.T) {
	reg := NewRegistry()
	id := reg.Add(NewBuilder("j").AddRole(1, 2).Build())

	assert.True(t, reg.AddMember(id, 0, 1))
	assert.False(t, reg.AddMember(id, 0, 1), "duplicate member")
	assert.True(t, reg.AddMember(id, 0, 2))
	assert.False(t, reg.AddMember(id, 0, 3), "role full")
	assert.False(t, reg.AddMember(id, 1, 3), "unknown role")
	assert.False(t, reg.AddMember(42, 0, 3), "unknown job")

	assert.Equal(t, []agents.AgentID{1, 2}, reg.Role(id, 0).Members)
	assert.Equal(t, 2, reg.Seats())
}

func TestRegistry_PurgeAgent(t *testing.T) {
	reg := NewRegistry()
	a := reg.Add(NewBuilder("a").AddRole(0, 5).AddRole(0, 5).Build())
	b := reg.Add(NewBuilder("b").AddRole(0, 5).Build())
	c := reg.Add(NewBuilder("c").AddRole(0, 5).Build())

	reg.AddMember(a, 1, 7)
	reg.AddMember(b, 0, 8)
	reg.AddMember(c, 0, 7)

	changed := reg.PurgeAgent(7)
	assert.Equal(t, []JobID{a, c}, changed)
	assert.Empty(t, reg.Role(a, 1).Members)
	assert.Equal(t, []agents.AgentID{8}, reg.Role(b, 0).Members)

	assert.Empty(t, reg.PurgeAgent(7))
}

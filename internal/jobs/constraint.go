package jobs

import (
	"fmt"
	"strings"
)

// Subject is anything a role constraint can be evaluated against.
type Subject interface {
	// AgeYears returns the subject's age, or false when it has none.
	AgeYears() (float64, bool)
}

// ConstraintKind identifies a constraint predicate.
type ConstraintKind uint8

const (
	AgeLessThan ConstraintKind = iota + 1
	AgeAtLeast
)

// Constraint is a declarative eligibility rule attached to a role.
type Constraint struct {
	Kind  ConstraintKind `json:"kind"`
	Years float64        `json:"years"`
}

// Satisfied reports whether s meets the constraint. A missing attribute or
// an unknown kind fails closed.
func (c Constraint) Satisfied(s Subject) bool {
	age, ok := s.AgeYears()
	if !ok {
		return false
	}
	switch c.Kind {
	case AgeLessThan:
		return age < c.Years
	case AgeAtLeast:
		return age >= c.Years
	}
	return false
}

func (c Constraint) String() string {
	switch c.Kind {
	case AgeLessThan:
		return fmt.Sprintf("age < %g", c.Years)
	case AgeAtLeast:
		return fmt.Sprintf("age >= %g", c.Years)
	}
	return fmt.Sprintf("unknown(%d)", c.Kind)
}

// ParseConstraint builds a constraint from its config name ("age_lt", "age_gte").
func ParseConstraint(kind string, years float64) (Constraint, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "age_lt", "age_less_than":
		return Constraint{Kind: AgeLessThan, Years: years}, nil
	case "age_gte", "age_at_least":
		return Constraint{Kind: AgeAtLeast, Years: years}, nil
	}
	return Constraint{}, fmt.Errorf("unknown constraint %q", kind)
}

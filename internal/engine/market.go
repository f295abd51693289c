// Labor market stages run once per tick in a fixed order.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/labormarket/internal/board"
	"github.com/talgya/labormarket/internal/hiring"
)

// runMarket runs the four market stages in order. Expiry runs before
// reconciliation so notices it raises are handled in the same tick, and
// notices raised by hiring wait for the next tick.
func (s *Simulation) runMarket(rep *StepReport) {
	tick, now := rep.Tick, rep.Now

	expired := board.Expire(s.Board, now, s.Params.ExpiryTTL, s.Notices)
	rep.Expired = len(expired)

	drained, changes := board.ReconcileAll(s.Board, s.Jobs, s.Notices, now)
	for _, c := range changes {
		if c.Posted {
			rep.Posted++
		} else {
			rep.Retracted++
		}
	}
	if s.OnVacancyChanged != nil {
		for _, n := range drained {
			s.OnVacancyChanged(n)
		}
	}

	rep.Applications = hiring.Apply(s.Population, s.Jobs, s.Board, s.Inbox)

	out := s.Resolver.Resolve(s.Population, s.Jobs, s.Inbox, s.Notices)
	rep.Hires = len(out.Hires)
	s.Records.RecordHires(len(out.Hires))

	for _, h := range out.Hires {
		name := fmt.Sprintf("agent %d", h.Agent)
		if a, ok := s.Population.Get(h.Agent); ok {
			name = a.Name
		}
		jobName := fmt.Sprintf("job %d", h.Job)
		if j, ok := s.Jobs.Get(h.Job); ok {
			jobName = j.Name
			if r := j.Role(h.RoleIndex); r != nil && r.Spec.Name != "" {
				jobName = r.Spec.Name + " at " + j.Name
			}
		}
		s.addEvent(tick, "hire", fmt.Sprintf("%s hired as %s", name, jobName))
	}

	skipped := 0
	for _, n := range out.Skipped {
		skipped += n
	}
	if rep.Expired > 0 || rep.Posted > 0 || rep.Retracted > 0 || rep.Hires > 0 {
		slog.Debug("market",
			"tick", tick,
			"expired", rep.Expired,
			"posted", rep.Posted,
			"retracted", rep.Retracted,
			"applications", rep.Applications,
			"hires", rep.Hires,
			"skipped", skipped,
		)
	}
}

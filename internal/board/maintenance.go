package board

import (
	"github.com/talgya/labormarket/internal/jobs"
)

// Expire retracts every advert older than ttl (now − PostedAt > ttl) and
// queues a notice for its job so a role that is still vacant is re-posted
// with a fresh timestamp on the next reconciliation. It returns the
// retracted adverts in posting order.
func Expire(b *Board, now, ttl float64, notices *Notices) []Advert {
	var expired []Advert
	kept := b.ads[:0]
	for _, a := range b.ads {
		if now-a.PostedAt > ttl {
			expired = append(expired, a)
			continue
		}
		kept = append(kept, a)
	}
	b.ads = kept

	for _, a := range expired {
		delete(b.index, a.Key())
		notices.Push(a.Job)
	}
	return expired
}

// Change describes one advert posted or retracted by Reconcile.
type Change struct {
	Key    Key
	Posted bool // false means retracted
}

// Reconcile recomputes every role's vacancy for job: a vacant role without an
// advert gets one stamped now, a filled role loses its advert. An unknown
// job is skipped silently. Calling it twice on an unchanged job changes
// nothing the second time.
func Reconcile(b *Board, reg *jobs.Registry, job jobs.JobID, now float64) []Change {
	j, ok := reg.Get(job)
	if !ok {
		return nil
	}

	var changes []Change
	for i := range j.Roles {
		k := Key{Job: job, RoleIndex: i}
		if j.Roles[i].Vacancy() > 0 {
			if b.Post(k, now) {
				changes = append(changes, Change{Key: k, Posted: true})
			}
		} else if b.Retract(k) {
			changes = append(changes, Change{Key: k})
		}
	}
	return changes
}

// ReconcileAll drains notices and reconciles each job in arrival order.
// The drained notices are returned for observers.
func ReconcileAll(b *Board, reg *jobs.Registry, notices *Notices, now float64) ([]Notice, []Change) {
	drained := notices.Drain()
	var changes []Change
	for _, n := range drained {
		changes = append(changes, Reconcile(b, reg, n.Job, now)...)
	}
	return drained, changes
}

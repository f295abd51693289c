// Package board implements the vacancy board: the set of live adverts for
// open (job, role) pairs, the vacancy-changed notice queue, and the
// maintenance passes (expiry and reconciliation) that keep adverts in step
// with the job registry.
package board

import (
	"fmt"
	"slices"

	"github.com/talgya/labormarket/internal/jobs"
)

// Key identifies one role of one job.
type Key struct {
	Job       jobs.JobID `json:"job"`
	RoleIndex int        `json:"role_index"`
}

// Advert marks one (job, role) pair as seeking members.
type Advert struct {
	Job       jobs.JobID `json:"job"`
	RoleIndex int        `json:"role_index"`
	PostedAt  float64    `json:"posted_at"` // elapsed seconds
}

// Key returns the advert's (job, role) pair.
func (a Advert) Key() Key {
	return Key{Job: a.Job, RoleIndex: a.RoleIndex}
}

// Board holds live adverts in posting order plus an existence index.
// The list and the index always hold the same keys; at most one advert
// exists per key.
type Board struct {
	ads   []Advert
	index map[Key]struct{}
}

// New creates an empty board.
func New() *Board {
	return &Board{index: make(map[Key]struct{})}
}

// Post appends an advert for k stamped now. It is a no-op when k is
// already advertised.
func (b *Board) Post(k Key, now float64) bool {
	if _, ok := b.index[k]; ok {
		return false
	}
	b.ads = append(b.ads, Advert{Job: k.Job, RoleIndex: k.RoleIndex, PostedAt: now})
	b.index[k] = struct{}{}
	return true
}

// Retract removes the advert for k, if any.
func (b *Board) Retract(k Key) bool {
	if _, ok := b.index[k]; !ok {
		return false
	}
	delete(b.index, k)
	b.ads = slices.DeleteFunc(b.ads, func(a Advert) bool { return a.Key() == k })
	return true
}

// RemoveJob retracts every advert belonging to job.
func (b *Board) RemoveJob(job jobs.JobID) int {
	n := 0
	b.ads = slices.DeleteFunc(b.ads, func(a Advert) bool {
		if a.Job != job {
			return false
		}
		delete(b.index, a.Key())
		n++
		return true
	})
	return n
}

// Has reports whether k is advertised.
func (b *Board) Has(k Key) bool {
	_, ok := b.index[k]
	return ok
}

// Get returns the advert for k.
func (b *Board) Get(k Key) (Advert, bool) {
	if !b.Has(k) {
		return Advert{}, false
	}
	for _, a := range b.ads {
		if a.Key() == k {
			return a, true
		}
	}
	return Advert{}, false
}

// Len returns the number of live adverts.
func (b *Board) Len() int {
	return len(b.ads)
}

// Adverts returns a copy of the live adverts in posting order.
func (b *Board) Adverts() []Advert {
	return slices.Clone(b.ads)
}

// Verify checks that the advert list and the index agree. A failure is a
// programming defect, never a runtime condition.
func (b *Board) Verify() error {
	if len(b.ads) != len(b.index) {
		return fmt.Errorf("board: %d adverts but %d index entries", len(b.ads), len(b.index))
	}
	seen := make(map[Key]struct{}, len(b.ads))
	for _, a := range b.ads {
		k := a.Key()
		if _, dup := seen[k]; dup {
			return fmt.Errorf("board: duplicate advert for job %d role %d", k.Job, k.RoleIndex)
		}
		seen[k] = struct{}{}
		if _, ok := b.index[k]; !ok {
			return fmt.Errorf("board: advert for job %d role %d missing from index", k.Job, k.RoleIndex)
		}
	}
	return nil
}

package board

import "github.com/talgya/labormarket/internal/jobs"

// Notice signals that a job's advert state must be re-derived.
type Notice struct {
	Job jobs.JobID `json:"job"`
}

// Notices is a FIFO queue of vacancy-changed notices. A job may appear more
// than once; reconciling it again is a no-op.
type Notices struct {
	queue []Notice
}

// Push appends a notice for job.
func (q *Notices) Push(job jobs.JobID) {
	q.queue = append(q.queue, Notice{Job: job})
}

// Drain returns every queued notice in arrival order and empties the queue.
func (q *Notices) Drain() []Notice {
	out := q.queue
	q.queue = nil
	return out
}

// Len returns the number of queued notices.
func (q *Notices) Len() int {
	return len(q.queue)
}

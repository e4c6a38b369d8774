package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the pending jobs of one view, most recent submission first.
// Every removal is by id so an insert racing with a removal pass is never lost.
type Registry struct {
	lock sync.Mutex
	jobs []*PendingJob
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Insert puts the job at the front. It is a no-op if the id is already present.
func (r *Registry) Insert(job PendingJob) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.indexOf(job.ID) >= 0 {
		return false
	}
	j := job
	r.jobs = append([]*PendingJob{&j}, r.jobs...)
	return true
}

func (r *Registry) Remove(id uuid.UUID) (PendingJob, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return PendingJob{}, false
	}
	job := *r.jobs[i]
	last := len(r.jobs) - 1
	copy(r.jobs[i:], r.jobs[i+1:])
	r.jobs[last] = nil
	r.jobs = r.jobs[:last]
	return job, true
}

// RemoveIf removes every job for which fn returns true and returns them.
func (r *Registry) RemoveIf(fn func(PendingJob) bool) []PendingJob {
	r.lock.Lock()
	defer r.lock.Unlock()

	removed := []PendingJob{}
	kept := r.jobs[:0]
	for _, j := range r.jobs {
		if fn(*j) {
			removed = append(removed, *j)
			continue
		}
		kept = append(kept, j)
	}
	for i := len(kept); i < len(r.jobs); i++ {
		r.jobs[i] = nil
	}
	r.jobs = kept
	return removed
}

func (r *Registry) Get(id uuid.UUID) (PendingJob, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return PendingJob{}, false
	}
	return *r.jobs[i], true
}

// List returns a copy of the pending jobs, most recent submission first.
func (r *Registry) List() []PendingJob {
	r.lock.Lock()
	defer r.lock.Unlock()

	jobs := make([]PendingJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, *j)
	}
	return jobs
}

func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.jobs)
}

// Advance applies the status rules to every job and returns the jobs whose
// status changed, with their new status.
func (r *Registry) Advance(now time.Time, rules Rules) []PendingJob {
	r.lock.Lock()
	defer r.lock.Unlock()

	changed := []PendingJob{}
	for _, j := range r.jobs {
		next := NextStatus(j.Status, now.Sub(j.SubmittedAt), rules)
		if next == j.Status {
			continue
		}
		j.Status = next
		changed = append(changed, *j)
	}
	return changed
}

// Clear empties the registry and returns what it held.
func (r *Registry) Clear() []PendingJob {
	r.lock.Lock()
	defer r.lock.Unlock()

	jobs := make([]PendingJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, *j)
	}
	r.jobs = nil
	return jobs
}

func (r *Registry) indexOf(id uuid.UUID) int {
	for i, j := range r.jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}

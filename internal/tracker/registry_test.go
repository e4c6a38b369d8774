package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("registry", func() {
	var (
		r   *Registry
		now time.Time
	)

	newJob := func(submittedAt time.Time) PendingJob {
		return PendingJob{ID: uuid.New(), Status: StatusQueued, SubmittedAt: submittedAt}
	}

	BeforeEach(func() {
		r = NewRegistry()
		now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	})

	It("keeps the most recent submission first", func() {
		first := newJob(now)
		second := newJob(now.Add(time.Second))
		Expect(r.Insert(first)).To(BeTrue())
		Expect(r.Insert(second)).To(BeTrue())

		jobs := r.List()
		Expect(jobs).To(HaveLen(2))
		Expect(jobs[0].ID).To(Equal(second.ID))
		Expect(jobs[1].ID).To(Equal(first.ID))
	})

	It("does not insert the same id twice", func() {
		job := newJob(now)
		Expect(r.Insert(job)).To(BeTrue())
		Expect(r.Insert(job)).To(BeFalse())
		Expect(r.Len()).To(Equal(1))
	})

	It("removes by id", func() {
		job := newJob(now)
		r.Insert(job)

		removed, ok := r.Remove(job.ID)
		Expect(ok).To(BeTrue())
		Expect(removed.ID).To(Equal(job.ID))

		_, ok = r.Remove(job.ID)
		Expect(ok).To(BeFalse())
		Expect(r.Len()).To(Equal(0))
	})

	It("releases the slot of a removed job", func() {
		a, b, c := newJob(now), newJob(now), newJob(now)
		r.Insert(a)
		r.Insert(b)
		r.Insert(c)

		_, ok := r.Remove(b.ID)
		Expect(ok).To(BeTrue())
		Expect(r.List()).To(HaveLen(2))
		Expect(r.List()[0].ID).To(Equal(c.ID))
		Expect(r.List()[1].ID).To(Equal(a.ID))

		backing := r.jobs[:3]
		Expect(backing[2]).To(BeNil())
	})

	It("advances statuses with elapsed time", func() {
		old := newJob(now.Add(-2 * time.Minute))
		recent := newJob(now.Add(-5 * time.Second))
		fresh := newJob(now)
		r.Insert(old)
		r.Insert(recent)
		r.Insert(fresh)

		changed := r.Advance(now, DefaultRules())
		Expect(changed).To(HaveLen(2))

		got, _ := r.Get(old.ID)
		Expect(got.Status).To(Equal(StatusTimedOut))
		got, _ = r.Get(recent.ID)
		Expect(got.Status).To(Equal(StatusProcessing))
		got, _ = r.Get(fresh.ID)
		Expect(got.Status).To(Equal(StatusQueued))
	})

	It("removes only what the predicate selects", func() {
		a := newJob(now)
		b := newJob(now)
		b.Status = StatusTimedOut
		r.Insert(a)
		r.Insert(b)

		removed := r.RemoveIf(func(j PendingJob) bool { return j.Status == StatusTimedOut })
		Expect(removed).To(HaveLen(1))
		Expect(removed[0].ID).To(Equal(b.ID))
		Expect(r.List()).To(HaveLen(1))
	})

	It("returns the cleared jobs", func() {
		r.Insert(newJob(now))
		r.Insert(newJob(now))
		Expect(r.Clear()).To(HaveLen(2))
		Expect(r.Len()).To(Equal(0))
	})

	It("never loses an insert racing with removals", func() {
		var wg sync.WaitGroup
		ids := make(chan uuid.UUID, 100)
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				j := newJob(now)
				r.Insert(j)
				ids <- j.ID
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r.RemoveIf(func(j PendingJob) bool { return j.Status == StatusTimedOut })
			}
		}()
		wg.Wait()
		close(ids)

		Expect(r.Len()).To(Equal(100))
		for id := range ids {
			_, ok := r.Get(id)
			Expect(ok).To(BeTrue())
		}
	})
})

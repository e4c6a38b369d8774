package tracker

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/salesdeck/insight-console/internal/kind"
)

var _ = Describe("poll loop", func() {
	var (
		clock   *fakeClock
		backend *fakeBackend
		rec     *recorder
		tk      *tickers
		tr      *Tracker
		ctx     context.Context
	)

	newTracker := func(cfg Config) *Tracker {
		t, err := New(kind.Icebreaker, backend, cfg,
			WithClock(clock), WithTickerFactory(tk.factory), WithNotifier(rec))
		Expect(err).To(BeNil())
		return t
	}

	BeforeEach(func() {
		ctx = context.TODO()
		clock = newFakeClock()
		backend = &fakeBackend{}
		rec = &recorder{}
		tk = &tickers{}
		tr = newTracker(testConfig())
	})

	AfterEach(func() {
		tr.Close()
	})

	Context("lifecycle", func() {
		It("is not running before the first submission", func() {
			Expect(tr.Polling()).To(BeFalse())
			Expect(tk.count()).To(Equal(0))
		})

		It("starts a single loop for many submissions", func() {
			_, err := tr.Submit(ctx, icebreakerPayload("Acme", "Founder"))
			Expect(err).To(BeNil())
			_, err = tr.Submit(ctx, icebreakerPayload("Globex", "CTO"))
			Expect(err).To(BeNil())
			_, err = tr.Submit(ctx, icebreakerPayload("Initech", "PM"))
			Expect(err).To(BeNil())

			Expect(tr.Polling()).To(BeTrue())
			Expect(tk.count()).To(Equal(1))
		})

		It("stops once the registry is empty", func() {
			job, err := tr.Submit(ctx, icebreakerPayload("Acme", "Founder"))
			Expect(err).To(BeNil())
			ticker := tk.last()

			_, err = tr.Cancel(ctx, job.ID)
			Expect(err).To(BeNil())

			Expect(tr.Polling()).To(BeFalse())
			Eventually(ticker.Stopped).Should(BeTrue())
			Expect(tickOnce(tr)).To(BeTrue())
		})

		It("keeps polling while another job is pending", func() {
			job, err := tr.Submit(ctx, icebreakerPayload("Acme", "Founder"))
			Expect(err).To(BeNil())
			_, err = tr.Submit(ctx, icebreakerPayload("Globex", "CTO"))
			Expect(err).To(BeNil())

			_, err = tr.Cancel(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(tr.Polling()).To(BeTrue())
			Expect(tk.last().Stopped()).To(BeFalse())
		})

		It("starts a fresh loop after stopping", func() {
			_, err := tr.Submit(ctx, icebreakerPayload("Acme", "Founder"))
			Expect(err).To(BeNil())
			backend.setResults(icebreakerResult("1", "Acme", "Founder", clock.Now()))

			clock.Advance(2 * time.Second)
			Expect(tickOnce(tr)).To(BeTrue())
			Expect(tr.Polling()).To(BeFalse())

			_, err = tr.Submit(ctx, icebreakerPayload("Globex", "CTO"))
			Expect(err).To(BeNil())
			Expect(tr.Polling()).To(BeTrue())
			Expect(tk.count()).To(Equal(2))
			Expect(tr.poller.Retries()).To(Equal(0))
		})

		It("runs ticks from the ticker channel", func() {
			_, err := tr.Submit(ctx, icebreakerPayload("Acme", "Founder"))
			Expect(err).To(BeNil())

			// one fetch already happened for the submission snapshot
			tk.last().ch <- clock.Now()
			Eventually(func() int {
				backend.lock.Lock()
				defer backend.lock.Unlock()
				return backend.listCalls
			}).Should(Equal(2))
			Eventually(tr.poller.Retries).Should(Equal(1))
		})

		It("can be stopped any number of times", func() {
			_, err := tr.Submit(ctx, icebreakerPayload("Acme", "Founder"))
			Expect(err).To(BeNil())
			ticker := tk.last()

			tr.poller.Stop()
			tr.poller.Stop()
			Expect(tr.Polling()).To(BeFalse())
			Expect(ticker.Stopped()).To(BeTrue())

			tr.Close()
			tr.Close()
		})

		It("does not start again once closed", func() {
			tr.Close()
			_, err := tr.Submit(ctx, icebreakerPayload("Acme", "Founder"))
			Expect(err).To(BeNil())
			Expect(tr.Polling()).To(BeFalse())
		})
	})

	Context("retry ceiling", func() {
		BeforeEach(func() {
			tr.Close()
			cfg := testConfig()
			cfg.MaxRetries = 5
			tr = newTracker(cfg)
		})

		It("clears every pending job with one notification", func() {
			for _, company := range []string{"Acme", "Globex", "Initech"} {
				_, err := tr.Submit(ctx, icebreakerPayload(company, "Founder"))
				Expect(err).To(BeNil())
			}
			ticker := tk.last()
			backend.setListErr(errBackendDown)

			for i := 0; i < 4; i++ {
				clock.Advance(2 * time.Second)
				Expect(tickOnce(tr)).To(BeFalse())
				Expect(tr.Pending()).To(HaveLen(3))
			}

			clock.Advance(2 * time.Second)
			Expect(tickOnce(tr)).To(BeTrue())
			Expect(tr.Pending()).To(BeEmpty())
			Expect(tr.Polling()).To(BeFalse())
			Eventually(ticker.Stopped).Should(BeTrue())

			notes := rec.ofType(NotificationCeilingExhausted)
			Expect(notes).To(HaveLen(1))
			Expect(notes[0].Count).To(Equal(3))
			Expect(notes[0].Severity).To(Equal(SeverityWarning))
			Expect(rec.ofType(NotificationTimedOut)).To(BeEmpty())
		})

		It("counts failed fetches but keeps the jobs", func() {
			_, err := tr.Submit(ctx, icebreakerPayload("Acme", "Founder"))
			Expect(err).To(BeNil())
			backend.setListErr(errBackendDown)

			clock.Advance(2 * time.Second)
			Expect(tickOnce(tr)).To(BeFalse())
			Expect(tr.poller.Retries()).To(Equal(1))
			Expect(tr.Pending()).To(HaveLen(1))
		})

		It("resets the counter when the loop stops", func() {
			job, err := tr.Submit(ctx, icebreakerPayload("Acme", "Founder"))
			Expect(err).To(BeNil())
			backend.setListErr(errBackendDown)

			for i := 0; i < 3; i++ {
				clock.Advance(2 * time.Second)
				tickOnce(tr)
			}
			Expect(tr.poller.Retries()).To(Equal(3))

			_, err = tr.Cancel(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(tr.Polling()).To(BeFalse())
			Expect(tr.poller.Retries()).To(Equal(0))

			backend.setListErr(nil)
			_, err = tr.Submit(ctx, icebreakerPayload("Globex", "CTO"))
			Expect(err).To(BeNil())
			backend.setListErr(errBackendDown)
			for i := 0; i < 4; i++ {
				clock.Advance(2 * time.Second)
				Expect(tickOnce(tr)).To(BeFalse())
			}
			Expect(tr.Pending()).To(HaveLen(1))
		})
	})
})

package store_test

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/salesdeck/insight-console/internal/config"
	st "github.com/salesdeck/insight-console/internal/store"
	"github.com/salesdeck/insight-console/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("Store", func() {
	var (
		store  st.Store
		gormDB *gorm.DB
		ctx    context.Context
		start  time.Time
	)

	BeforeEach(func() {
		ctx = context.TODO()
		start = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

		cfg := config.NewDefault()
		cfg.Database.Name = ":memory:"
		db, err := st.InitDB(cfg)
		Expect(err).To(BeNil())
		gormDB = db

		store = st.NewStore(db)
		Expect(store.InitialMigration(ctx)).To(Succeed())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	record := func(view, typ string, offset time.Duration) model.History {
		return model.History{
			EventID: uuid.NewString(),
			View:    view,
			Type:    typ,
			Title:   "title",
			Time:    start.Add(offset),
		}
	}

	Context("history", func() {
		It("creates a record", func() {
			created, err := store.History().Create(ctx, record("icebreaker", "matched", 0))
			Expect(err).To(BeNil())
			Expect(created.ID).ToNot(BeZero())

			count := 0
			Expect(gormDB.Raw("SELECT COUNT(*) FROM history;").Scan(&count).Error).To(Succeed())
			Expect(count).To(Equal(1))
		})

		It("refuses the same event twice", func() {
			r := record("icebreaker", "matched", 0)
			_, err := store.History().Create(ctx, r)
			Expect(err).To(BeNil())
			_, err = store.History().Create(ctx, r)
			Expect(err).To(MatchError(st.ErrDuplicateKey))
		})

		It("lists records of a view, most recent first", func() {
			for i, typ := range []string{"queued", "matched", "timed-out"} {
				_, err := store.History().Create(ctx, record("icebreaker", typ, time.Duration(i)*time.Second))
				Expect(err).To(BeNil())
			}
			_, err := store.History().Create(ctx, record("transcript", "queued", time.Hour))
			Expect(err).To(BeNil())

			records, err := store.History().List(ctx, st.NewHistoryQueryFilter().ByView("icebreaker"), nil)
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(3))
			Expect(records[0].Type).To(Equal("timed-out"))
			Expect(records[2].Type).To(Equal("queued"))
		})

		It("filters by type and limits", func() {
			for i, typ := range []string{"queued", "matched", "matched", "cancelled"} {
				_, err := store.History().Create(ctx, record("icebreaker", typ, time.Duration(i)*time.Second))
				Expect(err).To(BeNil())
			}

			records, err := store.History().List(ctx,
				st.NewHistoryQueryFilter().ByView("icebreaker").ByType("matched", "cancelled"),
				st.NewHistoryQueryOptions().WithLimit(2))
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(2))
			Expect(records[0].Type).To(Equal("cancelled"))

			count, err := store.History().Count(ctx, st.NewHistoryQueryFilter().ByType("matched"))
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(2)))

			records, err = store.History().List(ctx, st.NewHistoryQueryFilter().Since(start.Add(2*time.Second)), nil)
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(2))
		})
	})

	Context("writer", func() {
		newEvent := func(typ string, data map[string]any) cloudevents.Event {
			e := cloudevents.NewEvent()
			e.SetID(uuid.NewString())
			e.SetSource("test")
			e.SetType(typ)
			e.SetTime(start)
			Expect(e.SetData(cloudevents.ApplicationJSON, data)).To(Succeed())
			return e
		}

		It("records notification events", func() {
			w := st.NewHistoryWriter(store)
			e := newEvent("insight.console.notification.matched", map[string]any{
				"type":      "matched",
				"severity":  "info",
				"view":      "icebreaker",
				"job_id":    "job-1",
				"result_id": "7",
				"title":     "Success!",
				"message":   "Icebreaker for Acme is ready.",
			})
			Expect(w.Write(ctx, "topic", e)).To(Succeed())
			// the producer may redeliver; the second write is ignored
			Expect(w.Write(ctx, "topic", e)).To(Succeed())

			records, err := store.History().List(ctx, st.NewHistoryQueryFilter().ByView("icebreaker"), nil)
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(1))
			Expect(records[0].JobID).To(Equal("job-1"))
			Expect(records[0].ResultID).To(Equal("7"))
			Expect(records[0].EventID).To(Equal(e.ID()))
			Expect(records[0].Time.Equal(start)).To(BeTrue())
		})

		It("ignores other events", func() {
			w := st.NewHistoryWriter(store)
			Expect(w.Write(ctx, "topic", newEvent("other", map[string]any{"view": "icebreaker"}))).To(Succeed())

			count, err := store.History().Count(ctx, nil)
			Expect(err).To(BeNil())
			Expect(count).To(BeZero())
		})
	})
})

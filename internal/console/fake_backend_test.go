package console_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/salesdeck/insight-console/internal/tracker"
)

// fakeBackend serves the icebreaker and transcript routes from memory.
type fakeBackend struct {
	lock        sync.Mutex
	icebreakers []map[string]any
	submits     int
	failSubmit  bool
	nextID      int
}

func (f *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/icebreaker", func(w http.ResponseWriter, req *http.Request) {
		f.lock.Lock()
		defer f.lock.Unlock()
		f.submits++
		if f.failSubmit {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"model unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"queued"}`))
	})
	r.Get("/api/all_icebreker", func(w http.ResponseWriter, req *http.Request) {
		f.lock.Lock()
		defer f.lock.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"linkedin_icebreakers": f.icebreakers})
	})
	r.Delete("/api/icebreaker/{id}", func(w http.ResponseWriter, req *http.Request) {
		f.lock.Lock()
		defer f.lock.Unlock()
		id := chi.URLParam(req, "id")
		for i, ib := range f.icebreakers {
			if fmt.Sprint(ib["id"]) == id {
				f.icebreakers = append(f.icebreakers[:i], f.icebreakers[i+1:]...)
				_, _ = w.Write([]byte(`{"message":"deleted"}`))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/api/transcripts", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"transcripts":[]}`))
	})
	return r
}

func (f *fakeBackend) addIcebreaker(company, bio string, generated time.Time) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.nextID++
	f.icebreakers = append(f.icebreakers, map[string]any{
		"id":              f.nextID,
		"company_name":    company,
		"linkedin_bio":    bio,
		"pitch_deck":      "",
		"icebreaker_text": "Hi " + company,
		"date_generated":  generated.Format("2006-01-02T15:04:05.000000"),
	})
	return f.nextID
}

func (f *fakeBackend) submitCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.submits
}

// idleTicker never fires, leaving the poll loop parked.
type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

func idleTickers(time.Duration) tracker.Ticker {
	return idleTicker{}
}

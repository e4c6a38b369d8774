package console

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/salesdeck/insight-console/internal/backend"
	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/salesdeck/insight-console/internal/store"
	"github.com/salesdeck/insight-console/internal/tracker"
	"go.uber.org/zap"
)

const defaultListLimit = 20

var errHistoryDisabled = errors.New("history is not recorded")

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	reply := HealthReply{Status: "ok", Backends: map[string]backend.Status{}}
	for name, v := range s.views {
		if v.Backend != nil {
			reply.Backends[name] = v.Backend.GetStatus()
		}
	}
	_ = render.Render(w, r, reply)
}

func (s *Server) listViews(w http.ResponseWriter, r *http.Request) {
	reply := ViewListReply{Views: []ViewReply{}}
	for _, name := range s.views.Names() {
		v := s.views[name]
		reply.Views = append(reply.Views, ViewReply{
			Name:        v.Kind.Name,
			Title:       v.Kind.Title,
			Fields:      v.Kind.Fields,
			Required:    v.Kind.Required,
			OutputField: v.Kind.OutputField,
			Pending:     len(v.Tracker.Pending()),
			Polling:     v.Tracker.Polling(),
		})
	}
	_ = render.Render(w, r, reply)
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	v := viewFromContext(r.Context())

	payload := kind.Payload{}
	if err := render.DecodeJSON(r.Body, &payload); err != nil {
		_ = render.Render(w, r, errorReply(http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err)))
		return
	}

	job, err := v.Tracker.Submit(r.Context(), payload)
	switch {
	case errors.Is(err, tracker.ErrValidation):
		_ = render.Render(w, r, errorReply(http.StatusBadRequest, err))
		return
	case errors.Is(err, tracker.ErrSubmissionRejected):
		_ = render.Render(w, r, errorReply(http.StatusBadGateway, err))
		return
	case err != nil:
		_ = render.Render(w, r, errorReply(http.StatusInternalServerError, err))
		return
	}

	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, JobReply{Job: job})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	v := viewFromContext(r.Context())
	_ = render.Render(w, r, JobListReply{Jobs: v.Tracker.Pending(), Polling: v.Tracker.Polling()})
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	v := viewFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = render.Render(w, r, errorReply(http.StatusBadRequest, fmt.Errorf("invalid job id: %w", err)))
		return
	}

	job, err := v.Tracker.Cancel(r.Context(), id)
	if errors.Is(err, tracker.ErrJobNotFound) {
		_ = render.Render(w, r, errorReply(http.StatusNotFound, err))
		return
	}
	if err != nil {
		_ = render.Render(w, r, errorReply(http.StatusInternalServerError, err))
		return
	}
	_ = render.Render(w, r, JobReply{Job: job})
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	v := viewFromContext(r.Context())

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	if refresh || !v.Tracker.ResultsLoaded() {
		if err := v.Tracker.Refresh(r.Context()); err != nil {
			zap.S().Named("console").Warnw("failed to refresh results", "view", v.Kind.Name, "error", err)
			_ = render.Render(w, r, errorReply(http.StatusBadGateway, err))
			return
		}
	}
	_ = render.Render(w, r, ResultListReply{Results: v.Tracker.Results()})
}

func (s *Server) deleteResult(w http.ResponseWriter, r *http.Request) {
	v := viewFromContext(r.Context())

	var statusErr *backend.StatusError
	err := v.Tracker.DeleteResult(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		_ = render.Render(w, r, errorReply(http.StatusNotFound, err))
		return
	case err != nil:
		_ = render.Render(w, r, errorReply(http.StatusBadGateway, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	v := viewFromContext(r.Context())

	reply := NotificationListReply{Notifications: []tracker.Notification{}}
	if s.feed != nil {
		reply.Notifications = s.feed.Recent(v.Kind.Name, limitParam(r))
	}
	_ = render.Render(w, r, reply)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	v := viewFromContext(r.Context())

	if s.store == nil {
		_ = render.Render(w, r, errorReply(http.StatusNotImplemented, errHistoryDisabled))
		return
	}

	filter := store.NewHistoryQueryFilter().ByView(v.Kind.Name)
	if types := r.URL.Query()["type"]; len(types) > 0 {
		filter = filter.ByType(types...)
	}
	records, err := s.store.History().List(r.Context(), filter, store.NewHistoryQueryOptions().WithLimit(limitParam(r)))
	if err != nil {
		_ = render.Render(w, r, errorReply(http.StatusInternalServerError, err))
		return
	}
	_ = render.Render(w, r, HistoryListReply{History: records})
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

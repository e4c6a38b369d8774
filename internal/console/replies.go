package console

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/salesdeck/insight-console/internal/backend"
	"github.com/salesdeck/insight-console/internal/store/model"
	"github.com/salesdeck/insight-console/internal/tracker"
)

type HealthReply struct {
	Status   string                    `json:"status"`
	Backends map[string]backend.Status `json:"backends"`
}

type ViewReply struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Fields      []string `json:"fields"`
	Required    []string `json:"required"`
	OutputField string   `json:"output_field"`
	Pending     int      `json:"pending"`
	Polling     bool     `json:"polling"`
}

type ViewListReply struct {
	Views []ViewReply `json:"views"`
}

type JobReply struct {
	Job tracker.PendingJob `json:"job"`
}

type JobListReply struct {
	Jobs    []tracker.PendingJob `json:"jobs"`
	Polling bool                 `json:"polling"`
}

type ResultListReply struct {
	Results []tracker.Result `json:"results"`
}

type NotificationListReply struct {
	Notifications []tracker.Notification `json:"notifications"`
}

type HistoryListReply struct {
	History model.HistoryList `json:"history"`
}

// ErrorReply is the body of every failed request.
type ErrorReply struct {
	HTTPStatusCode int    `json:"-"`
	Message        string `json:"message"`
}

func (h HealthReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (v ViewListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (j JobReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (j JobListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (res ResultListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (n NotificationListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (h HistoryListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (e ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errorReply(status int, err error) ErrorReply {
	return ErrorReply{HTTPStatusCode: status, Message: err.Error()}
}

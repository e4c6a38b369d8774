package console

import (
	"fmt"
	"sort"

	"github.com/salesdeck/insight-console/internal/backend"
	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/salesdeck/insight-console/internal/tracker"
)

// View is one console page: a job kind with its own tracker.
type View struct {
	Kind    kind.Kind
	Tracker *tracker.Tracker
	// Backend reports the connectivity of the kind backend. It may be nil.
	Backend *backend.Interceptor
}

type Views map[string]*View

// NewViews builds one view per backend client, each tracker sharing cfg.
func NewViews(clients map[string]*backend.Client, cfg tracker.Config, opts ...tracker.Option) (Views, error) {
	views := Views{}
	for name, client := range clients {
		k, ok := kind.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown kind %q", name)
		}
		interceptor := backend.NewInterceptor(client)
		t, err := tracker.New(k, interceptor, cfg, opts...)
		if err != nil {
			views.Close()
			return nil, err
		}
		views[k.Name] = &View{Kind: k, Tracker: t, Backend: interceptor}
	}
	return views, nil
}

func (v Views) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close stops every poll loop.
func (v Views) Close() {
	for _, view := range v {
		view.Tracker.Close()
	}
}

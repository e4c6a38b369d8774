package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/salesdeck/insight-console/internal/tracker"
)

// timestamp layouts accepted for the generation time, most specific first.
// The backend may omit the zone; such values are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func toResult(k kind.Kind, record map[string]any) (tracker.Result, error) {
	id, err := stringify(record["id"])
	if err != nil || id == "" {
		return tracker.Result{}, fmt.Errorf("result without id")
	}

	r := tracker.Result{
		ID:     id,
		Fields: make(map[string]string, len(k.Fields)),
	}
	for _, name := range k.Fields {
		v, err := stringify(record[name])
		if err != nil {
			return tracker.Result{}, errors.Wrapf(err, "result %s field %s", id, name)
		}
		r.Fields[name] = v
	}

	if r.Output, err = stringify(record[k.OutputField]); err != nil {
		return tracker.Result{}, errors.Wrapf(err, "result %s field %s", id, k.OutputField)
	}

	if raw, ok := record[k.GeneratedAtField].(string); ok && raw != "" {
		if r.GeneratedAt, err = ParseTimestamp(raw); err != nil {
			return tracker.Result{}, errors.Wrapf(err, "result %s", id)
		}
	}
	return r, nil
}

func ParseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", raw)
}

func stringify(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}

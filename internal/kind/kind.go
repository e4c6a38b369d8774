package kind

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/salesdeck/insight-console/internal/validator"
	"github.com/thoas/go-funk"
)

const (
	IcebreakerKind = "icebreaker"
	TranscriptKind = "transcript"

	untitledLabel = "Untitled"
	maxLabelRunes = 40
)

// Payload is the body of a job submission keyed by wire field name.
type Payload map[string]string

func (p Payload) Clone() Payload {
	c := make(Payload, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Kind describes one job type served by the backend: the fields a submission
// carries, which of them the backend echoes back for matching, and where the
// job lives on the wire.
type Kind struct {
	Name  string
	Title string

	// Fields are the submitted fields, in display order.
	Fields   []string
	Required []string
	// Fingerprint fields are echoed verbatim by the backend in its result records.
	Fingerprint []string
	// LabelFields are tried in order to name a job in notifications.
	LabelFields []string

	OutputField      string
	GeneratedAtField string

	SubmitPath string
	ListPath   string
	ListKey    string
	// DeletePath is a format string taking the result id.
	DeletePath string
}

var Icebreaker = Kind{
	Name:             IcebreakerKind,
	Title:            "Icebreaker",
	Fields:           []string{"company_name", "linkedin_bio", "pitch_deck"},
	Required:         []string{"linkedin_bio"},
	Fingerprint:      []string{"company_name", "linkedin_bio", "pitch_deck"},
	LabelFields:      []string{"company_name", "linkedin_bio"},
	OutputField:      "icebreaker_text",
	GeneratedAtField: "date_generated",
	SubmitPath:       "/api/icebreaker",
	ListPath:         "/api/all_icebreker",
	ListKey:          "linkedin_icebreakers",
	DeletePath:       "/api/icebreaker/%s",
}

var Transcript = Kind{
	Name:             TranscriptKind,
	Title:            "Transcript analysis",
	Fields:           []string{"transcript", "company", "attendees", "date"},
	Required:         []string{"transcript"},
	Fingerprint:      []string{"company", "transcript"},
	LabelFields:      []string{"company", "transcript"},
	OutputField:      "ai_summary",
	GeneratedAtField: "date_generated",
	SubmitPath:       "/api/transcript",
	ListPath:         "/api/transcripts",
	ListKey:          "transcripts",
	DeletePath:       "/api/transcript/%s",
}

var (
	kinds            = map[string]Kind{}
	payloadValidator = newPayloadValidator()
)

func init() {
	for _, k := range []Kind{Icebreaker, Transcript} {
		if err := Register(k); err != nil {
			panic(err)
		}
	}
}

// Register adds a kind to the lookup table after checking its field names.
func Register(k Kind) error {
	if k.Name == "" {
		return fmt.Errorf("kind name is required")
	}
	if len(k.Fingerprint) == 0 {
		return fmt.Errorf("%s: at least one fingerprint field is required", k.Name)
	}
	for _, group := range [][]string{k.Fields, k.Required, k.Fingerprint, k.LabelFields, {k.OutputField, k.GeneratedAtField}} {
		for _, name := range group {
			if err := payloadValidator.Var(name, "field_name"); err != nil {
				return fmt.Errorf("%s: invalid field name %q", k.Name, name)
			}
		}
	}
	for _, group := range [][]string{k.Required, k.Fingerprint} {
		for _, name := range group {
			if !funk.ContainsString(k.Fields, name) {
				return fmt.Errorf("%s: %q is not a submitted field", k.Name, name)
			}
		}
	}
	kinds[k.Name] = k
	return nil
}

func newPayloadValidator() *validator.Validator {
	v := validator.NewValidator()
	v.Register(validator.NewPayloadValidationRules()...)
	return v
}

func Lookup(name string) (Kind, bool) {
	k, ok := kinds[strings.ToLower(name)]
	return k, ok
}

// Names returns the registered kind names, sorted.
func Names() []string {
	names := funk.Keys(kinds).([]string)
	sort.Strings(names)
	return names
}

// Validate rejects unknown fields and blank required fields. Nothing is sent
// to the backend for a payload that fails here.
func (k Kind) Validate(p Payload) error {
	for name := range p {
		if !funk.ContainsString(k.Fields, name) {
			return fmt.Errorf("unknown field %q for %s", name, k.Name)
		}
	}
	for _, name := range k.Required {
		if err := payloadValidator.Var(p[name], "notblank"); err != nil {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}

// Normalize returns a payload carrying every submitted field, empty when absent.
func (k Kind) Normalize(p Payload) Payload {
	out := make(Payload, len(k.Fields))
	for _, name := range k.Fields {
		out[name] = p[name]
	}
	return out
}

// Label names a job for a human: the first non blank label field, shortened.
func (k Kind) Label(p Payload) string {
	for _, name := range k.LabelFields {
		v := strings.TrimSpace(p[name])
		if v == "" {
			continue
		}
		v = strings.Join(strings.Fields(v), " ")
		if r := []rune(v); len(r) > maxLabelRunes {
			v = strings.TrimRight(string(r[:maxLabelRunes]), " ") + "…"
		}
		return v
	}
	return untitledLabel
}

func (k Kind) DeleteURLPath(id string) string {
	return fmt.Sprintf(k.DeletePath, url.PathEscape(id))
}

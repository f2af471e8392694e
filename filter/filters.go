// Package filter compiles list filters into parameterised SQL predicates over
// the conversation warehouse.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NextMind-AI/convo-qa/models"
)

const dateLayout = "2006-01-02"

// NoRating selects conversations without a QA assessment in the csat filter.
const NoRating = "null"

// TriState is a boolean filter that can also ask for rows with no data.
type TriState int

const (
	Unset TriState = iota
	True
	False
	NoData
)

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	case NoData:
		return "null"
	default:
		return ""
	}
}

func (t TriState) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TriState) UnmarshalText(text []byte) error {
	v, err := ParseTriState(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTriState accepts "true", "false" and "null" (or "none") in any case.
// An empty string leaves the filter unset.
func ParseTriState(s string) (TriState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Unset, nil
	case "true":
		return True, nil
	case "false":
		return False, nil
	case "null", "none", "no_data":
		return NoData, nil
	}
	return Unset, fmt.Errorf("expected true, false or null, got %q", s)
}

// Filters is the abstract filter object sent by the review console.
type Filters struct {
	CSAT          []string `json:"csat,omitempty" jsonschema:"enum=good,enum=okay,enum=bad,enum=null"`
	Channel       []string `json:"channel,omitempty" jsonschema:"enum=website,enum=whatsapp"`
	Intent        []string `json:"intent,omitempty"`
	StudentCSAT   []string `json:"studentCsat,omitempty" jsonschema:"enum=positive,enum=negative,enum=no_feedback"`
	DateFrom      string   `json:"dateFrom,omitempty" jsonschema:"format=date"`
	DateTo        string   `json:"dateTo,omitempty" jsonschema:"format=date"`
	HumanHandover *bool    `json:"humanHandover,omitempty"`
	LeadCreated   TriState `json:"leadCreated,omitempty" jsonschema:"type=string,enum=true,enum=false,enum=null"`
	NeedsHuman    TriState `json:"needsHuman,omitempty" jsonschema:"type=string,enum=true,enum=false,enum=null"`
}

// ValidationError rejects filter input before any query runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var (
	csatValues = map[string]bool{
		string(models.RatingGood): true,
		string(models.RatingOkay): true,
		string(models.RatingBad):  true,
		NoRating:                  true,
	}
	channelValues = map[string]bool{
		string(models.ChannelWebsite):  true,
		string(models.ChannelWhatsApp): true,
	}
	studentCSATValues = map[string]bool{
		string(models.StudentCSATPositive):   true,
		string(models.StudentCSATNegative):   true,
		string(models.StudentCSATNoFeedback): true,
	}
)

// Validate checks every field and puts the multi-select lists in canonical
// order so equal filters produce equal queries and fingerprints.
func (f *Filters) Validate() error {
	var err error
	if f.CSAT, err = canonical("csat", f.CSAT, csatValues, true); err != nil {
		return err
	}
	if f.Channel, err = canonical("channel", f.Channel, channelValues, false); err != nil {
		return err
	}
	if f.StudentCSAT, err = canonical("studentCsat", f.StudentCSAT, studentCSATValues, false); err != nil {
		return err
	}
	if f.Intent, err = canonical("intent", f.Intent, nil, false); err != nil {
		return err
	}

	from, err := parseDate("dateFrom", f.DateFrom)
	if err != nil {
		return err
	}
	to, err := parseDate("dateTo", f.DateTo)
	if err != nil {
		return err
	}
	if from != nil && to != nil && to.Before(*from) {
		return invalid("dateTo", "must not be before dateFrom")
	}

	if f.LeadCreated < Unset || f.LeadCreated > NoData {
		return invalid("leadCreated", "unknown value")
	}
	if f.NeedsHuman < Unset || f.NeedsHuman > NoData {
		return invalid("needsHuman", "unknown value")
	}
	return nil
}

func canonical(field string, values []string, allowed map[string]bool, lower bool) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			return nil, invalid(field, "empty value")
		}
		if allowed != nil && !allowed[v] {
			return nil, invalid(field, "unsupported value %q", v)
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, invalid(field, "expected YYYY-MM-DD, got %q", s)
	}
	return &t, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

package filter

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies the row set a query selects: source scope, filters and
// search, but not the sort. Filters must be canonical (see Validate).
func (c Compiler) Fingerprint(q Query) string {
	f := q.Filters

	var b strings.Builder
	field := func(name, value string) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte('\x1f')
	}
	list := func(name string, values []string) {
		field(name, strings.Join(values, "\x1e"))
	}

	field("source", c.SourcePattern)
	list("csat", f.CSAT)
	list("channel", f.Channel)
	list("intent", f.Intent)
	list("studentCsat", f.StudentCSAT)
	field("dateFrom", f.DateFrom)
	field("dateTo", f.DateTo)
	if f.HumanHandover != nil {
		field("humanHandover", strconv.FormatBool(*f.HumanHandover))
	}
	field("leadCreated", f.LeadCreated.String())
	field("needsHuman", f.NeedsHuman.String())
	field("search", strings.ToLower(strings.TrimSpace(q.Search)))

	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

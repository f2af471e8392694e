package mapper

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// LinkTemplate turns an external identifier into a URL. A template holding
// "{id}" has the identifier substituted there; otherwise it is appended.
type LinkTemplate string

// URL returns nil when either the template or the identifier is blank.
func (t LinkTemplate) URL(id string) *string {
	base := strings.TrimSpace(string(t))
	id = strings.TrimSpace(id)
	if base == "" || id == "" {
		return nil
	}
	escaped := url.PathEscape(id)
	var link string
	if strings.Contains(base, "{id}") {
		link = strings.ReplaceAll(base, "{id}", escaped)
	} else {
		link = base + escaped
	}
	return &link
}

type LinkTemplates struct {
	SalesIQ  LinkTemplate
	CRMLead  LinkTemplate
	Helpdesk LinkTemplate
}

const langSmithBase = "https://smith.langchain.com"

// TraceLinker builds LangSmith trace links for message debugging.
type TraceLinker struct {
	Org      string
	Project  string
	Duration string
}

// URL returns nil unless the trace id, org and project are all set.
func (l TraceLinker) URL(traceID string) *string {
	id := strings.TrimSpace(traceID)
	if id == "" || l.Org == "" || l.Project == "" {
		return nil
	}

	duration := l.Duration
	if duration == "" {
		duration = "7d"
	}
	timeModel, _ := json.Marshal(map[string]string{"duration": duration})

	encoded := url.QueryEscape(id)
	link := fmt.Sprintf("%s/o/%s/projects/%s?timeModel=%s&peek=%s&peeked_trace=%s",
		langSmithBase,
		url.PathEscape(l.Org),
		url.PathEscape(l.Project),
		url.QueryEscape(string(timeModel)),
		encoded,
		encoded,
	)
	return &link
}

// TraceURL is a convenience for callers holding a Mapper.
func (m *Mapper) TraceURL(traceID string) *string {
	return m.traces.URL(traceID)
}

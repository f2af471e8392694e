// Package content turns stored message payloads into display text or safe HTML.
package content

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/NextMind-AI/convo-qa/jsonfield"
	"github.com/NextMind-AI/convo-qa/models"
	"github.com/microcosm-cc/bluemonday"
)

// Normalized is the display form of a message body.
type Normalized struct {
	Format models.ContentFormat
	Value  string
}

func text(s string) Normalized { return Normalized{Format: models.ContentText, Value: s} }

var (
	unicodeEscape = regexp.MustCompile(`(?:\\u[0-9a-fA-F]{4})+`)
	markup        = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

	policy = newPolicy()
)

var friendlyLabels = map[string]string{
	"propertyName": "Property",
	"property":     "Property",
	"location":     "Location",
	"city":         "City",
	"country":      "Country",
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "div", "span", "strong", "b", "em", "i", "u",
		"h1", "h2", "h3", "h4", "ul", "ol", "li", "a")
	p.AllowStandardURLs()
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowAttrs("class", "style").Globally()
	return p
}

// Normalize never fails: when the payload cannot be interpreted the raw text is
// returned unchanged.
func Normalize(raw string) Normalized {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return text(raw)
	}

	switch trimmed[0] {
	case '[':
		doc := jsonfield.Parse(trimmed)
		if doc.Kind() != jsonfield.Array {
			return text(raw)
		}
		var parts []string
		for _, block := range doc.Elements() {
			if data, ok := blockData(block); ok {
				parts = append(parts, data)
			}
		}
		extracted := strings.TrimSpace(strings.Join(parts, "\n\n"))
		if extracted == "" {
			return text(raw)
		}
		return render(extracted)

	case '{':
		doc := jsonfield.Parse(trimmed)
		if doc.Kind() != jsonfield.Object {
			return text(raw)
		}
		if data, ok := blockData(doc); ok {
			if data == "" {
				return text(raw)
			}
			return render(data)
		}
		if lines := labelledLines(doc); lines != "" {
			return text(lines)
		}
	}

	return text(raw)
}

// blockData extracts content.data from a {"content": {"type": "text", "data": ...}} block.
func blockData(block jsonfield.Value) (string, bool) {
	if kind, _ := block.Get("content.type").Str(); kind != "text" {
		return "", false
	}
	data, ok := block.Get("content.data").Str()
	if !ok {
		return "", false
	}
	return strings.TrimSpace(data), true
}

func render(extracted string) Normalized {
	decoded := DecodeUnicodeEscapes(extracted)
	if markup.MatchString(decoded) {
		return Normalized{Format: models.ContentHTML, Value: Sanitize(decoded)}
	}
	return text(html.UnescapeString(decoded))
}

// Sanitize strips every tag and attribute outside the message allowlist.
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}

// DecodeUnicodeEscapes replaces literal \uXXXX sequences left behind by double
// encoding. A run of escapes is read as UTF-16, so surrogate pairs become one
// rune; an unpaired surrogate becomes U+FFFD.
func DecodeUnicodeEscapes(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	return unicodeEscape.ReplaceAllStringFunc(s, func(m string) string {
		units := make([]uint16, 0, len(m)/6)
		for i := 0; i+6 <= len(m); i += 6 {
			code, err := strconv.ParseUint(m[i+2:i+6], 16, 16)
			if err != nil {
				return m
			}
			units = append(units, uint16(code))
		}
		return string(utf16.Decode(units))
	})
}

func labelledLines(doc jsonfield.Value) string {
	var lines []string
	doc.ForEach(func(key string, val jsonfield.Value) bool {
		var value string
		switch val.Kind() {
		case jsonfield.Null, jsonfield.Absent:
			return true
		case jsonfield.Object, jsonfield.Array:
			value = val.Raw()
		default:
			value, _ = val.Text()
			if strings.TrimSpace(value) == "" {
				return true
			}
		}
		lines = append(lines, Label(key)+": "+value)
		return true
	})
	return strings.Join(lines, "\n")
}

// Label turns a payload key into a human label: known keys get a fixed name,
// others are split on camel case and underscores and capitalised.
func Label(key string) string {
	if label, ok := friendlyLabels[key]; ok {
		return label
	}
	spaced := camelBoundary.ReplaceAllString(key, "$1 $2")
	spaced = strings.Join(strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(spaced)), " ")
	if spaced == "" {
		return key
	}
	runes := []rune(spaced)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

package filter

import (
	"fmt"
	"strings"
)

type Sort string

const (
	SortNewest           Sort = "newest"
	SortOldest           Sort = "oldest"
	SortMostMessages     Sort = "most_messages"
	SortFewestMessages   Sort = "fewest_messages"
	SortLongest          Sort = "longest"
	SortShortest         Sort = "shortest"
	SortCSATHigh         Sort = "csat_high"
	SortCSATLow          Sort = "csat_low"
	SortRecentlyReviewed Sort = "recently_reviewed"
)

type strategy struct {
	label      string
	orderBy    string
	assessment bool
}

// Order of this slice is the order the console lists the options in.
var sortOrder = []Sort{
	SortNewest, SortOldest,
	SortMostMessages, SortFewestMessages,
	SortLongest, SortShortest,
	SortCSATHigh, SortCSATLow,
	SortRecentlyReviewed,
}

var strategies = map[Sort]strategy{
	SortNewest:           {label: "Newest First", orderBy: CreatedAtExpr + " DESC"},
	SortOldest:           {label: "Oldest First", orderBy: CreatedAtExpr + " ASC"},
	SortMostMessages:     {label: "Most Messages", orderBy: MessageCountExpr + " DESC"},
	SortFewestMessages:   {label: "Fewest Messages", orderBy: MessageCountExpr + " ASC"},
	SortLongest:          {label: "Longest Duration", orderBy: DurationExpr + " DESC"},
	SortShortest:         {label: "Shortest Duration", orderBy: DurationExpr + " ASC"},
	SortCSATHigh:         {label: "Highest CSAT", orderBy: CSATScoreExpr + " DESC NULLS LAST"},
	SortCSATLow:          {label: "Lowest CSAT", orderBy: CSATScoreExpr + " ASC NULLS LAST"},
	SortRecentlyReviewed: {label: "Recently Reviewed", orderBy: RatingUpdatedExpr + " DESC NULLS LAST", assessment: true},
}

// ParseSort maps a sortBy value to a known strategy. An empty value is newest.
func ParseSort(s string) (Sort, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortNewest, nil
	}
	if _, ok := strategies[Sort(s)]; !ok {
		return "", invalid("sortBy", "unsupported sort %q", s)
	}
	return Sort(s), nil
}

// OrderBy returns the ORDER BY list. Every strategy ends on the conversation id
// so pages are stable.
func (s Sort) OrderBy() string {
	st, ok := strategies[s]
	if !ok {
		st = strategies[SortNewest]
	}
	return fmt.Sprintf("%s, %s ASC", st.orderBy, ConversationIDExpr)
}

// NeedsAssessment reports whether the ordering reads the QA assessment join.
func (s Sort) NeedsAssessment() bool {
	return strategies[s].assessment
}

func (s Sort) Label() string {
	return strategies[s].label
}

// Sorts lists every strategy in display order.
func Sorts() []Sort {
	out := make([]Sort, len(sortOrder))
	copy(out, sortOrder)
	return out
}

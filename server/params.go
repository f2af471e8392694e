package server

import (
	"strconv"
	"strings"

	"github.com/NextMind-AI/convo-qa/conversation"
	"github.com/NextMind-AI/convo-qa/filter"
	"github.com/gofiber/fiber/v3"
)

// listRequest reads the conversation list query string. Paging values that do
// not parse fall back to defaults; everything else is validated.
func listRequest(c fiber.Ctx) (conversation.ListRequest, error) {
	var f filter.Filters
	f.CSAT = multi(c, "csat", true)
	f.Channel = multi(c, "channel", true)
	f.StudentCSAT = multi(c, "studentCsat", true)
	// intents are free text and may contain commas
	f.Intent = multi(c, "intent", false)
	f.DateFrom = c.Query("dateFrom")
	f.DateTo = c.Query("dateTo")

	if v := c.Query("humanHandover"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return conversation.ListRequest{}, invalidParameter("humanHandover", "expected true or false")
		}
		f.HumanHandover = &b
	}

	var err error
	if f.LeadCreated, err = filter.ParseTriState(c.Query("leadCreated")); err != nil {
		return conversation.ListRequest{}, invalidParameter("leadCreated", err.Error())
	}
	if f.NeedsHuman, err = filter.ParseTriState(c.Query("needsHuman")); err != nil {
		return conversation.ListRequest{}, invalidParameter("needsHuman", err.Error())
	}

	sort, err := filter.ParseSort(c.Query("sortBy"))
	if err != nil {
		return conversation.ListRequest{}, err
	}

	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))

	return conversation.ListRequest{
		Query: filter.Query{
			Filters: f,
			Search:  c.Query("search"),
			Sort:    sort,
		},
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// multi collects a repeated query parameter, optionally splitting each value
// on commas.
func multi(c fiber.Ctx, key string, split bool) []string {
	var out []string
	for _, raw := range c.Request().URI().QueryArgs().PeekMulti(key) {
		v := string(raw)
		if !split {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
			continue
		}
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

package filter

import (
	"strconv"
	"strings"
)

// Predicate is one AND-ed fragment of a WHERE clause. Expressions are fixed
// SQL chosen by this package; every user supplied value goes through Bind.
type Predicate interface {
	SQL(b *Builder) string
}

// Builder numbers placeholders ($1, $2, ...) and collects their arguments.
type Builder struct {
	args []any
}

func (b *Builder) Bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *Builder) Args() []any {
	return b.args
}

// Where renders the predicates as "WHERE a AND b", or "" when there are none.
func (b *Builder) Where(preds []Predicate) string {
	if len(preds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, p.SQL(b))
	}
	return "WHERE " + strings.Join(parts, " AND ")
}

type Equals struct {
	Expr  string
	Value any
	Not   bool
}

func (p Equals) SQL(b *Builder) string {
	op := " = "
	if p.Not {
		op = " <> "
	}
	return p.Expr + op + b.Bind(p.Value)
}

type InList struct {
	Expr   string
	Values []any
	Not    bool
}

func (p InList) SQL(b *Builder) string {
	holders := make([]string, 0, len(p.Values))
	for _, v := range p.Values {
		holders = append(holders, b.Bind(v))
	}
	op := " IN ("
	if p.Not {
		op = " NOT IN ("
	}
	return p.Expr + op + strings.Join(holders, ", ") + ")"
}

// Range is half open: From inclusive, To exclusive. Either bound may be nil.
type Range struct {
	Expr string
	From any
	To   any
}

func (p Range) SQL(b *Builder) string {
	var parts []string
	if p.From != nil {
		parts = append(parts, p.Expr+" >= "+b.Bind(p.From))
	}
	if p.To != nil {
		parts = append(parts, p.Expr+" < "+b.Bind(p.To))
	}
	if len(parts) == 0 {
		return "1 = 1"
	}
	return strings.Join(parts, " AND ")
}

// Blank compares Expr with the empty string literal.
type Blank struct {
	Expr string
	Not  bool
}

func (p Blank) SQL(*Builder) string {
	if p.Not {
		return p.Expr + " <> ''"
	}
	return p.Expr + " = ''"
}

type IsNull struct {
	Expr string
	Not  bool
}

func (p IsNull) SQL(*Builder) string {
	if p.Not {
		return p.Expr + " IS NOT NULL"
	}
	return p.Expr + " IS NULL"
}

// Like matches Expr against a pattern taken verbatim.
type Like struct {
	Expr    string
	Pattern string
}

func (p Like) SQL(b *Builder) string {
	return p.Expr + " LIKE " + b.Bind(p.Pattern)
}

// Match is a case-insensitive substring search over several expressions.
// Wildcards in Term are escaped so they match literally.
type Match struct {
	Exprs []string
	Term  string
}

func (p Match) SQL(b *Builder) string {
	holder := b.Bind("%" + escapeLike(strings.ToLower(p.Term)) + "%")
	parts := make([]string, 0, len(p.Exprs))
	for _, expr := range p.Exprs {
		parts = append(parts, "LOWER("+expr+") LIKE "+holder)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// AnyOf ORs its branches together.
type AnyOf []Predicate

func (p AnyOf) SQL(b *Builder) string {
	if len(p) == 1 {
		return p[0].SQL(b)
	}
	parts := make([]string, 0, len(p))
	for _, branch := range p {
		parts = append(parts, branch.SQL(b))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// BoolText selects a JSON boolean that may be stored as true/false or as a
// string, ignoring case and surrounding space. Value NoData matches rows where
// the field is missing or not a boolean.
type BoolText struct {
	Expr  string
	Value TriState
}

func (p BoolText) SQL(b *Builder) string {
	lowered := "LOWER(TRIM(" + p.Expr + "))"
	switch p.Value {
	case True:
		return Equals{Expr: lowered, Value: "true"}.SQL(b)
	case False:
		return Equals{Expr: lowered, Value: "false"}.SQL(b)
	default:
		return AnyOf{
			IsNull{Expr: p.Expr},
			InList{Expr: lowered, Values: []any{"true", "false"}, Not: true},
		}.SQL(b)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

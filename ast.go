package cronexec

import (
	"fmt"
	"slices"
	"strings"
)

// FieldName identifies one component of a cron expression.
type FieldName int

const (
	FieldSecond FieldName = iota + 1
	FieldMinute
	FieldHour
	FieldDayOfMonth
	FieldMonth
	FieldDayOfWeek
	FieldYear
	FieldDayOfYear
)

func (f FieldName) String() string {
	names := map[FieldName]string{
		FieldSecond:     "second",
		FieldMinute:     "minute",
		FieldHour:       "hour",
		FieldDayOfMonth: "day of month",
		FieldMonth:      "month",
		FieldDayOfWeek:  "day of week",
		FieldYear:       "year",
		FieldDayOfYear:  "day of year",
	}
	if n, ok := names[f]; ok {
		return n
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// SpecialChar is a dialect-specific marker carried by an On expression.
type SpecialChar int

const (
	SpecialNone SpecialChar = iota
	// SpecialL is "last": the last day of the month (L, L-n) on the
	// day-of-month field, the last given weekday of the month (nL) on the
	// day-of-week field.
	SpecialL
	// SpecialW is the weekday nearest to a day of the month (nW).
	SpecialW
	// SpecialLW is the last weekday (Mon-Fri) of the month.
	SpecialLW
	// SpecialHash is the Nth given weekday of the month (n#k).
	SpecialHash
	// SpecialQuestionMark only appears in FieldConstraints.Specials; it
	// declares that the field accepts the "?" placeholder.
	SpecialQuestionMark
)

func (s SpecialChar) String() string {
	names := map[SpecialChar]string{
		SpecialNone:         "",
		SpecialL:            "L",
		SpecialW:            "W",
		SpecialLW:           "LW",
		SpecialHash:         "#",
		SpecialQuestionMark: "?",
	}
	return names[s]
}

// ExprKind tags the active variant of a FieldExpression.
type ExprKind int

const (
	ExprKindAlways ExprKind = iota
	ExprKindOn
	ExprKindBetween
	ExprKindEvery
	ExprKindAnd
	ExprKindQuestionMark
)

func (k ExprKind) String() string {
	names := map[ExprKind]string{
		ExprKindAlways:       "always",
		ExprKindOn:           "on",
		ExprKindBetween:      "between",
		ExprKindEvery:        "every",
		ExprKindAnd:          "and",
		ExprKindQuestionMark: "question mark",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FieldExpression is the rule carried by one cron field. Kind selects the
// variant; only the fields belonging to that variant are meaningful.
type FieldExpression struct {
	Kind ExprKind

	// On
	Value   int
	Special SpecialChar
	Nth     int // # ordinal, or the n in L-n

	// Between
	From int
	To   int
	Step int // 0 or 1: every value in the range

	// Every
	Base   *FieldExpression
	Period int

	// And
	Exprs []FieldExpression
}

// Always matches every value of the field's domain.
func Always() FieldExpression {
	return FieldExpression{Kind: ExprKindAlways}
}

// QuestionMark is the "no specific value" placeholder.
func QuestionMark() FieldExpression {
	return FieldExpression{Kind: ExprKindQuestionMark}
}

// On matches exactly value.
func On(value int) FieldExpression {
	return FieldExpression{Kind: ExprKindOn, Value: value}
}

// OnSpecial matches a dialect special marker parameterized by value and nth.
func OnSpecial(value int, special SpecialChar, nth int) FieldExpression {
	return FieldExpression{Kind: ExprKindOn, Value: value, Special: special, Nth: nth}
}

// Between matches the inclusive range [from, to].
func Between(from, to int) FieldExpression {
	return FieldExpression{Kind: ExprKindBetween, From: from, To: to}
}

// BetweenEvery matches every step-th value of the inclusive range [from, to].
func BetweenEvery(from, to, step int) FieldExpression {
	return FieldExpression{Kind: ExprKindBetween, From: from, To: to, Step: step}
}

// Every matches every period-th value starting at base's offset. base must
// be Always, a plain On, or Between.
func Every(base FieldExpression, period int) FieldExpression {
	b := base
	return FieldExpression{Kind: ExprKindEvery, Base: &b, Period: period}
}

// And matches any of exprs.
func And(exprs ...FieldExpression) FieldExpression {
	return FieldExpression{Kind: ExprKindAnd, Exprs: slices.Clone(exprs)}
}

// IsSpecial reports whether e is an On expression carrying a special marker.
func (e FieldExpression) IsSpecial() bool {
	return e.Kind == ExprKindOn && e.Special != SpecialNone
}

// FieldConstraints describe the numeric domain and dialect features of a field.
type FieldConstraints struct {
	Min int
	Max int

	// MondayDoW is the value this dialect uses for Monday on the
	// day-of-week field (1 for Unix, 2 for Quartz).
	MondayDoW int

	Specials []SpecialChar
}

// Supports reports whether the field accepts the given special marker.
func (c FieldConstraints) Supports(s SpecialChar) bool {
	return slices.Contains(c.Specials, s)
}

// isoWeekday maps a day-of-week value in this field's numbering to ISO 8601
// (Monday=1, Sunday=7).
func (c FieldConstraints) isoWeekday(v int) int {
	return mod(v-c.MondayDoW, 7) + 1
}

// fromISOWeekday maps an ISO 8601 weekday back to this field's numbering.
func (c FieldConstraints) fromISOWeekday(iso int) int {
	v := c.MondayDoW + iso - 1
	if v > c.Max {
		v -= 7
	}
	return v
}

// CronField pairs a field name with its expression and constraints.
type CronField struct {
	Name        FieldName
	Expr        FieldExpression
	Constraints FieldConstraints
}

// Cron is an immutable set of fields conforming to a Definition.
type Cron struct {
	definition *Definition
	fields     map[FieldName]CronField
}

// NewCron builds a Cron from per-field expressions. Constraints are taken
// from def. Every mandatory field of def must be present, and no field
// outside def is accepted.
func NewCron(def *Definition, exprs map[FieldName]FieldExpression) (*Cron, error) {
	if def == nil {
		return nil, DefinitionError("nil definition")
	}
	fields := make(map[FieldName]CronField, len(exprs))
	for name, expr := range exprs {
		fd, ok := def.Field(name)
		if !ok {
			return nil, EvalError(fmt.Sprintf("%s field is not part of the %s definition", name, def.Name))
		}
		fields[name] = CronField{Name: name, Expr: expr, Constraints: fd.Constraints}
	}
	for _, fd := range def.Fields {
		if _, ok := fields[fd.Name]; !ok && !fd.Optional {
			return nil, EvalError(fmt.Sprintf("missing mandatory %s field", fd.Name))
		}
	}
	c := &Cron{definition: def, fields: fields}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Definition returns the dialect this cron conforms to.
func (c *Cron) Definition() *Definition {
	return c.definition
}

// Field returns the named field, if present.
func (c *Cron) Field(name FieldName) (CronField, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Fields returns the present fields in the definition's textual order.
func (c *Cron) Fields() []CronField {
	out := make([]CronField, 0, len(c.fields))
	for _, fd := range c.definition.Fields {
		if f, ok := c.fields[fd.Name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// String renders the cron in its dialect's textual form.
func (c *Cron) String() string {
	parts := make([]string, 0, len(c.fields))
	for _, f := range c.Fields() {
		parts = append(parts, f.Expr.String())
	}
	return strings.Join(parts, " ")
}

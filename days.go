package cronexec

import (
	"fmt"
	"slices"
	"time"
)

// dayResolver reconciles the day-of-month, day-of-week and day-of-year
// fields into the valid days of one month. Absent fields are nil.
type dayResolver struct {
	dom, dow, doy *CronField

	// questionMark is set when the dialect accepts "?" on either day field.
	questionMark bool
	// intersect combines two restrictive day fields by intersection.
	intersect bool
}

func newDayResolver(c *Cron) dayResolver {
	r := dayResolver{
		questionMark: c.definition.SupportsQuestionMark(),
		intersect:    c.definition.MatchDayOfWeekAndDayOfMonth,
	}
	if f, ok := c.Field(FieldDayOfMonth); ok {
		r.dom = &f
	}
	if f, ok := c.Field(FieldDayOfWeek); ok {
		r.dow = &f
	}
	if f, ok := c.Field(FieldDayOfYear); ok {
		r.doy = &f
	}
	return r
}

// days returns the sorted valid days of the month. An empty result means no
// day of this month qualifies and the search must move to another month.
func (r dayResolver) days(year int, month time.Month) []int {
	if r.doy != nil && r.doy.Expr.Kind != ExprKindQuestionMark {
		return daysOfYear(r.doy.Expr, r.doy.Constraints, year, month)
	}

	switch {
	case r.dom != nil && r.dow != nil:
		dom, dow := r.dom.Expr, r.dow.Expr
		if r.questionMark {
			switch {
			case dow.Kind == ExprKindQuestionMark:
				return r.monthDays(year, month)
			case dom.Kind == ExprKindQuestionMark:
				return daysOfWeek(dow, r.dow.Constraints, year, month)
			}
			return intersect(r.monthDays(year, month), daysOfWeek(dow, r.dow.Constraints, year, month))
		}

		switch {
		case dow.Kind == ExprKindAlways:
			return r.monthDays(year, month)
		case dom.Kind == ExprKindAlways:
			return daysOfWeek(dow, r.dow.Constraints, year, month)
		}
		byMonth := r.monthDays(year, month)
		byWeek := daysOfWeek(dow, r.dow.Constraints, year, month)
		if r.intersect {
			return intersect(byMonth, byWeek)
		}
		return union(byMonth, byWeek)
	case r.dom != nil:
		return r.monthDays(year, month)
	case r.dow != nil:
		return daysOfWeek(r.dow.Expr, r.dow.Constraints, year, month)
	}
	return allDays(year, month)
}

// monthDays resolves the day-of-month field.
func (r dayResolver) monthDays(year int, month time.Month) []int {
	return r.domDays(r.dom.Expr, year, month)
}

// domDays resolves one day-of-month expression. "nL" names the last weekday
// n of the month and is read with the day-of-week numbering, also inside
// lists.
func (r dayResolver) domDays(e FieldExpression, year int, month time.Month) []int {
	switch {
	case e.Kind == ExprKindOn && e.Special == SpecialL && e.Value > 0:
		if r.dow == nil {
			return nil
		}
		return daysOfWeek(OnSpecial(e.Value, SpecialL, 0), r.dow.Constraints, year, month)
	case e.Kind == ExprKindAnd:
		var out []int
		for _, sub := range e.Exprs {
			out = union(out, r.domDays(sub, year, month))
		}
		return out
	}
	return daysOfMonth(e, r.dom.Constraints, year, month)
}

// daysOfMonth resolves a day-of-month expression for one month.
func daysOfMonth(e FieldExpression, c FieldConstraints, year int, month time.Month) []int {
	last := daysIn(year, month)
	switch e.Kind {
	case ExprKindAlways:
		return allDays(year, month)
	case ExprKindQuestionMark:
		return nil
	case ExprKindOn:
		switch e.Special {
		case SpecialNone:
			if e.Value <= last {
				return []int{e.Value}
			}
			return nil
		case SpecialL:
			if d := last - e.Nth; e.Value == 0 && d >= 1 {
				return []int{d}
			}
			return nil
		case SpecialW:
			if d, ok := nearestWeekday(year, month, e.Value); ok {
				return []int{d}
			}
			return nil
		case SpecialLW:
			return []int{lastWeekdayOfMonth(year, month)}
		case SpecialHash:
			return nil
		}
	case ExprKindBetween, ExprKindEvery:
		clipped := c
		clipped.Max = min(c.Max, last)
		return valueGenerator{expr: e, c: clipped}.Candidates(1, last)
	case ExprKindAnd:
		var out []int
		for _, sub := range e.Exprs {
			out = union(out, daysOfMonth(sub, c, year, month))
		}
		return out
	}
	panic(fmt.Sprintf("cronexec: unhandled day of month expression %s", e.Kind))
}

// daysOfWeek resolves a day-of-week expression to the days of one month.
// Lists are the union of the occurrences of each element.
func daysOfWeek(e FieldExpression, c FieldConstraints, year int, month time.Month) []int {
	switch e.Kind {
	case ExprKindAlways:
		return allDays(year, month)
	case ExprKindQuestionMark:
		return nil
	case ExprKindOn:
		weekday := c.isoWeekday(e.Value)
		switch e.Special {
		case SpecialNone:
			return weekdayOccurrences(year, month, weekday)
		case SpecialL:
			return []int{lastWeekdayInMonth(year, month, weekday)}
		case SpecialHash:
			if d, ok := nthWeekdayOfMonth(year, month, weekday, e.Nth); ok {
				return []int{d}
			}
			return nil
		case SpecialW, SpecialLW:
			return nil
		}
	case ExprKindBetween, ExprKindEvery:
		g := valueGenerator{expr: e, c: c}
		var out []int
		for v := c.Min; v <= c.Max; v++ {
			if g.IsMatch(v) {
				out = union(out, weekdayOccurrences(year, month, c.isoWeekday(v)))
			}
		}
		return out
	case ExprKindAnd:
		var out []int
		for _, sub := range e.Exprs {
			out = union(out, daysOfWeek(sub, c, year, month))
		}
		return out
	}
	panic(fmt.Sprintf("cronexec: unhandled day of week expression %s", e.Kind))
}

// daysOfYear resolves a day-of-year expression and keeps the days that fall
// in the given month.
func daysOfYear(e FieldExpression, c FieldConstraints, year int, month time.Month) []int {
	length := daysInYear(year)
	clipped := c
	clipped.Max = min(c.Max, length)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).YearDay()
	last := first + daysIn(year, month) - 1

	var out []int
	for _, yd := range (valueGenerator{expr: e, c: clipped}).Candidates(max(c.Min, 1), length) {
		if yd >= first && yd <= last {
			out = append(out, yd-first+1)
		}
	}
	return out
}

func allDays(year int, month time.Month) []int {
	n := daysIn(year, month)
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func union(a, b []int) []int {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}

func intersect(a, b []int) []int {
	var out []int
	for _, v := range a {
		if slices.Contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}

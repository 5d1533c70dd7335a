package cronexec

import (
	"fmt"
	"slices"
)

// valueGenerator answers candidate queries for one field expression over the
// integer domain of its constraints. Day-of-month and day-of-week specials
// need calendar context and are resolved in days.go; here they never match.
type valueGenerator struct {
	expr FieldExpression
	c    FieldConstraints
}

func newValueGenerator(f CronField) valueGenerator {
	return valueGenerator{expr: f.Expr, c: f.Constraints}
}

func (g valueGenerator) sub(e FieldExpression) valueGenerator {
	return valueGenerator{expr: e, c: g.c}
}

// IsMatch reports whether v satisfies the expression.
func (g valueGenerator) IsMatch(v int) bool {
	switch g.expr.Kind {
	case ExprKindAlways:
		return v >= g.c.Min && v <= g.c.Max
	case ExprKindOn:
		return !g.expr.IsSpecial() && v == g.expr.Value
	case ExprKindBetween, ExprKindEvery:
		for _, r := range g.ranges() {
			if r.isMatch(v) {
				return true
			}
		}
		return false
	case ExprKindAnd:
		for _, e := range g.expr.Exprs {
			if g.sub(e).IsMatch(v) {
				return true
			}
		}
		return false
	case ExprKindQuestionMark:
		return false
	}
	panic(fmt.Sprintf("cronexec: unhandled expression kind %s", g.expr.Kind))
}

// Next returns the smallest matching value strictly greater than ref.
func (g valueGenerator) Next(ref int) (int, error) {
	switch g.expr.Kind {
	case ExprKindAlways:
		v := max(ref+1, g.c.Min)
		if v > g.c.Max {
			return 0, ErrNoCandidate
		}
		return v, nil
	case ExprKindOn:
		if g.expr.IsSpecial() || g.expr.Value <= ref {
			return 0, ErrNoCandidate
		}
		return g.expr.Value, nil
	case ExprKindBetween, ExprKindEvery:
		return nearest(g.ranges(), func(r stepRange) (int, bool) { return r.next(ref) }, true)
	case ExprKindAnd:
		return g.nearestOfAll(func(s valueGenerator) (int, error) { return s.Next(ref) }, true)
	case ExprKindQuestionMark:
		return 0, ErrNoCandidate
	}
	panic(fmt.Sprintf("cronexec: unhandled expression kind %s", g.expr.Kind))
}

// Previous returns the largest matching value strictly less than ref.
func (g valueGenerator) Previous(ref int) (int, error) {
	switch g.expr.Kind {
	case ExprKindAlways:
		v := min(ref-1, g.c.Max)
		if v < g.c.Min {
			return 0, ErrNoCandidate
		}
		return v, nil
	case ExprKindOn:
		if g.expr.IsSpecial() || g.expr.Value >= ref {
			return 0, ErrNoCandidate
		}
		return g.expr.Value, nil
	case ExprKindBetween, ExprKindEvery:
		return nearest(g.ranges(), func(r stepRange) (int, bool) { return r.previous(ref) }, false)
	case ExprKindAnd:
		return g.nearestOfAll(func(s valueGenerator) (int, error) { return s.Previous(ref) }, false)
	case ExprKindQuestionMark:
		return 0, ErrNoCandidate
	}
	panic(fmt.Sprintf("cronexec: unhandled expression kind %s", g.expr.Kind))
}

// Candidates returns every matching value in [start, end], sorted and
// distinct. Interior values come from Next; both bounds are tested
// explicitly so they are included whenever they match.
func (g valueGenerator) Candidates(start, end int) []int {
	if start > end {
		return nil
	}
	var out []int
	for v, err := g.Next(start); err == nil && v < end; v, err = g.Next(v) {
		out = append(out, v)
	}
	if g.IsMatch(start) {
		out = append(out, start)
	}
	if end != start && g.IsMatch(end) {
		out = append(out, end)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// nearestOfAll takes the minimum (forward) or maximum (backward) across
// sub-generators, skipping those without a candidate.
func (g valueGenerator) nearestOfAll(query func(valueGenerator) (int, error), forward bool) (int, error) {
	best, found := 0, false
	for _, e := range g.expr.Exprs {
		v, err := query(g.sub(e))
		if err != nil {
			continue
		}
		if !found || (forward && v < best) || (!forward && v > best) {
			best, found = v, true
		}
	}
	if !found {
		return 0, ErrNoCandidate
	}
	return best, nil
}

// ranges expands Between and Every into stepped ranges clipped to the
// domain. A wrapping range (from > to) becomes two ranges whose steps
// continue across the wrap.
func (g valueGenerator) ranges() []stepRange {
	e := g.expr
	period := 1
	if e.Kind == ExprKindEvery {
		period = e.Period
		e = *e.Base
	} else if e.Step > 1 {
		period = e.Step
	}
	switch e.Kind {
	case ExprKindAlways:
		return []stepRange{{start: g.c.Min, end: g.c.Max, offset: g.c.Min, period: period}}
	case ExprKindOn:
		return []stepRange{{start: e.Value, end: g.c.Max, offset: e.Value, period: period}}
	case ExprKindBetween:
		if e.From <= e.To {
			return []stepRange{{
				start:  max(g.c.Min, e.From),
				end:    min(g.c.Max, e.To),
				offset: e.From,
				period: period,
			}}
		}
		width := g.c.Max - g.c.Min + 1
		return []stepRange{
			{start: max(g.c.Min, e.From), end: g.c.Max, offset: e.From, period: period},
			{start: g.c.Min, end: min(g.c.Max, e.To), offset: e.From - width, period: period},
		}
	}
	panic(fmt.Sprintf("cronexec: %s cannot be stepped", e.Kind))
}

// stepRange holds the values v in [start, end] with (v-offset) mod period == 0.
type stepRange struct {
	start, end     int
	offset, period int
}

func (r stepRange) isMatch(v int) bool {
	return v >= r.start && v <= r.end && mod(v-r.offset, r.period) == 0
}

func (r stepRange) next(ref int) (int, bool) {
	lo := max(ref+1, r.start)
	v := lo + mod(r.offset-lo, r.period)
	return v, v <= r.end
}

func (r stepRange) previous(ref int) (int, bool) {
	hi := min(ref-1, r.end)
	v := hi - mod(hi-r.offset, r.period)
	return v, v >= r.start
}

func nearest(rs []stepRange, query func(stepRange) (int, bool), forward bool) (int, error) {
	best, found := 0, false
	for _, r := range rs {
		v, ok := query(r)
		if !ok {
			continue
		}
		if !found || (forward && v < best) || (!forward && v > best) {
			best, found = v, true
		}
	}
	if !found {
		return 0, ErrNoCandidate
	}
	return best, nil
}

// mod is the non-negative remainder of a divided by b.
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

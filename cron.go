package cronexec

import (
	"errors"
	"fmt"
)

// Convert maps c onto another dialect, renumbering weekdays and adjusting
// the day fields to the target's "?" rules. It fails when the target cannot
// express c with the same executions.
func Convert(c *Cron, target *Definition) (*Cron, error) {
	if c == nil || target == nil {
		return nil, ConvertError("nil cron or definition")
	}
	notExpressible := func(reason string) error {
		return ConvertError(fmt.Sprintf("not expressible as %s (%s)", target.Name, reason))
	}

	exprs := make(map[FieldName]FieldExpression, len(target.Fields))

	if f, ok := c.Field(FieldSecond); ok && !target.HasField(FieldSecond) {
		if f.Expr.Kind != ExprKindOn || f.Expr.IsSpecial() || f.Expr.Value != 0 {
			return nil, notExpressible("seconds other than 0 not supported")
		}
	}
	if target.HasField(FieldSecond) {
		exprs[FieldSecond] = On(0)
		if f, ok := c.Field(FieldSecond); ok {
			exprs[FieldSecond] = f.Expr
		}
	}

	for _, name := range []FieldName{FieldMinute, FieldHour, FieldMonth} {
		f, ok := c.Field(name)
		if !ok {
			continue
		}
		if !target.HasField(name) {
			return nil, notExpressible(fmt.Sprintf("no %s field", name))
		}
		exprs[name] = f.Expr
	}

	for _, name := range []FieldName{FieldYear, FieldDayOfYear} {
		f, ok := c.Field(name)
		if !ok {
			continue
		}
		if target.HasField(name) {
			exprs[name] = f.Expr
			continue
		}
		if f.Expr.Kind != ExprKindAlways && f.Expr.Kind != ExprKindQuestionMark {
			return nil, notExpressible(fmt.Sprintf("%s restrictions not supported", name))
		}
	}

	dom, dow, err := convertDays(c, target)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Kind == ErrorKindConvert {
			return nil, err
		}
		return nil, notExpressible(err.Error())
	}
	exprs[FieldDayOfMonth] = dom
	exprs[FieldDayOfWeek] = dow

	out, err := NewCron(target, exprs)
	if err != nil {
		return nil, notExpressible(err.Error())
	}
	return out, nil
}

// convertDays returns the target's day-of-month and day-of-week expressions.
func convertDays(c *Cron, target *Definition) (FieldExpression, FieldExpression, error) {
	domField, _ := c.Field(FieldDayOfMonth)
	dowField, _ := c.Field(FieldDayOfWeek)
	dstDow, ok := target.Field(FieldDayOfWeek)
	if !ok {
		return FieldExpression{}, FieldExpression{}, ConvertError(fmt.Sprintf("%s has no day of week field", target.Name))
	}
	dstDom, _ := target.Field(FieldDayOfMonth)

	dom := domField.Expr
	dow, err := mapWeekdays(dowField.Expr, dowField.Constraints, dstDow.Constraints)
	if err != nil {
		return FieldExpression{}, FieldExpression{}, err
	}
	dom = mapLastWeekdays(dom, dowField.Constraints, dstDow.Constraints)

	domRestricts, dowRestricts := restricts(dom), restricts(dow)
	if domRestricts && dowRestricts && intersects(c.definition) != intersects(target) {
		return FieldExpression{}, FieldExpression{}, ConvertError(fmt.Sprintf(
			"not expressible as %s (day of month and day of week combine differently)", target.Name))
	}

	unrestricted := func(fc FieldConstraints) FieldExpression {
		if fc.Supports(SpecialQuestionMark) {
			return QuestionMark()
		}
		return Always()
	}
	switch {
	case !domRestricts && !dowRestricts:
		dom, dow = Always(), unrestricted(dstDow.Constraints)
	case !domRestricts:
		dom = unrestricted(dstDom.Constraints)
	case !dowRestricts:
		dow = unrestricted(dstDow.Constraints)
	}
	return dom, dow, nil
}

// mapLastWeekdays renumbers the "nL" items of a day-of-month expression,
// which use the day of week numbering.
func mapLastWeekdays(e FieldExpression, from, to FieldConstraints) FieldExpression {
	switch {
	case e.Kind == ExprKindOn && e.Special == SpecialL && e.Value > 0:
		e.Value = to.fromISOWeekday(from.isoWeekday(e.Value))
	case e.Kind == ExprKindAnd:
		subs := make([]FieldExpression, len(e.Exprs))
		for i, sub := range e.Exprs {
			subs[i] = mapLastWeekdays(sub, from, to)
		}
		return And(subs...)
	}
	return e
}

func restricts(e FieldExpression) bool {
	return e.Kind != ExprKindAlways && e.Kind != ExprKindQuestionMark
}

// intersects reports how a dialect combines two restrictive day fields.
func intersects(d *Definition) bool {
	return d.SupportsQuestionMark() || d.MatchDayOfWeekAndDayOfMonth
}

// mapWeekdays renumbers a day-of-week expression. Steps and ranges whose
// ends do not stay ascending are rewritten as explicit weekday lists.
func mapWeekdays(e FieldExpression, from, to FieldConstraints) (FieldExpression, error) {
	remap := func(v int) int {
		return to.fromISOWeekday(from.isoWeekday(v))
	}
	switch e.Kind {
	case ExprKindAlways, ExprKindQuestionMark:
		return e, nil
	case ExprKindOn:
		e.Value = remap(e.Value)
		return e, nil
	case ExprKindBetween:
		if e.Step <= 1 {
			lo, hi := remap(e.From), remap(e.To)
			if lo <= hi && e.From <= e.To {
				return Between(lo, hi), nil
			}
		}
	case ExprKindAnd:
		subs := make([]FieldExpression, len(e.Exprs))
		for i, sub := range e.Exprs {
			mapped, err := mapWeekdays(sub, from, to)
			if err != nil {
				return FieldExpression{}, err
			}
			subs[i] = mapped
		}
		return And(subs...), nil
	}

	g := valueGenerator{expr: e, c: from}
	seen := make(map[int]bool, 7)
	var days []FieldExpression
	for iso := 1; iso <= 7; iso++ {
		for v := from.Min; v <= from.Max; v++ {
			if from.isoWeekday(v) == iso && g.IsMatch(v) && !seen[iso] {
				seen[iso] = true
				days = append(days, On(to.fromISOWeekday(iso)))
			}
		}
	}
	switch len(days) {
	case 0:
		return FieldExpression{}, ConvertError(fmt.Sprintf("day of week %s matches no day", e))
	case 1:
		return days[0], nil
	}
	return And(days...), nil
}

package cronexec

import "fmt"

// validate rejects field sets that violate the expression model. These are
// programming errors in whoever built the Cron, so they fail construction
// instead of being absorbed during evaluation.
func (c *Cron) validate() error {
	for _, f := range c.Fields() {
		if err := validateExpr(c.definition, f.Name, f.Expr, f.Constraints, false); err != nil {
			return err
		}
	}
	dom, hasDom := c.fields[FieldDayOfMonth]
	dow, hasDow := c.fields[FieldDayOfWeek]
	if hasDom && hasDow &&
		dom.Expr.Kind == ExprKindQuestionMark && dow.Expr.Kind == ExprKindQuestionMark {
		return EvalError("day of month and day of week cannot both be '?'")
	}
	return nil
}

func validateExpr(def *Definition, name FieldName, e FieldExpression, c FieldConstraints, nested bool) error {
	switch e.Kind {
	case ExprKindAlways:
		return nil
	case ExprKindQuestionMark:
		if nested || !c.Supports(SpecialQuestionMark) {
			return EvalError(fmt.Sprintf("'?' is not supported on the %s field", name))
		}
		return nil
	case ExprKindOn:
		return validateOn(def, name, e, c)
	case ExprKindBetween:
		if err := checkDomain(name, e.From, c); err != nil {
			return err
		}
		if err := checkDomain(name, e.To, c); err != nil {
			return err
		}
		if e.Step < 0 {
			return EvalError(fmt.Sprintf("negative step %d on the %s field", e.Step, name))
		}
		if e.From > e.To && def.StrictRanges {
			return EvalError(fmt.Sprintf("range %d-%d on the %s field is inverted", e.From, e.To, name))
		}
		return nil
	case ExprKindEvery:
		if e.Base == nil {
			return EvalError(fmt.Sprintf("every expression without a base on the %s field", name))
		}
		if e.Period < 1 {
			return EvalError(fmt.Sprintf("period %d on the %s field must be positive", e.Period, name))
		}
		switch e.Base.Kind {
		case ExprKindAlways, ExprKindBetween:
		case ExprKindOn:
			if e.Base.IsSpecial() {
				return EvalError(fmt.Sprintf("'%s' cannot be stepped on the %s field", e.Base.Special, name))
			}
		default:
			return EvalError(fmt.Sprintf("%s cannot be the base of a step on the %s field", e.Base.Kind, name))
		}
		return validateExpr(def, name, *e.Base, c, true)
	case ExprKindAnd:
		if len(e.Exprs) == 0 {
			return EvalError(fmt.Sprintf("empty list on the %s field", name))
		}
		for _, sub := range e.Exprs {
			if err := validateExpr(def, name, sub, c, true); err != nil {
				return err
			}
		}
		return nil
	}
	return EvalError(fmt.Sprintf("unsupported expression kind %s on the %s field", e.Kind, name))
}

func validateOn(def *Definition, name FieldName, e FieldExpression, c FieldConstraints) error {
	if e.Special == SpecialNone {
		return checkDomain(name, e.Value, c)
	}
	if !c.Supports(e.Special) {
		return EvalError(fmt.Sprintf("'%s' is not supported on the %s field", e.Special, name))
	}
	switch e.Special {
	case SpecialL:
		switch name {
		case FieldDayOfMonth:
			if e.Value == 0 {
				if e.Nth < 0 || e.Nth > 30 {
					return EvalError(fmt.Sprintf("offset L-%d out of range (0-30)", e.Nth))
				}
				return nil
			}
			dow, ok := def.Field(FieldDayOfWeek)
			if !ok {
				return EvalError("nL on the day of month field needs a day of week field")
			}
			return checkDomain(FieldDayOfWeek, e.Value, dow.Constraints)
		case FieldDayOfWeek:
			return checkDomain(name, e.Value, c)
		}
	case SpecialW:
		if name == FieldDayOfMonth {
			return checkDomain(name, e.Value, c)
		}
	case SpecialLW:
		if name == FieldDayOfMonth {
			return nil
		}
	case SpecialHash:
		if name == FieldDayOfWeek {
			if e.Nth < 1 || e.Nth > 5 {
				return EvalError(fmt.Sprintf("ordinal #%d out of range (1-5)", e.Nth))
			}
			return checkDomain(name, e.Value, c)
		}
	}
	return EvalError(fmt.Sprintf("'%s' is not supported on the %s field", e.Special, name))
}

func checkDomain(name FieldName, v int, c FieldConstraints) error {
	if v < c.Min || v > c.Max {
		return EvalError(fmt.Sprintf("value %d out of range (%d-%d) on the %s field", v, c.Min, c.Max, name))
	}
	return nil
}

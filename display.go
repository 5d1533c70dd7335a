package cronexec

import (
	"fmt"
	"strings"
)

// Display renders the cron as a canonical expression. Names are rendered
// as numbers and lists keep their written order.
func Display(c *Cron) string {
	return c.String()
}

// String renders the expression in cron syntax.
func (e FieldExpression) String() string {
	switch e.Kind {
	case ExprKindAlways:
		return "*"
	case ExprKindQuestionMark:
		return "?"
	case ExprKindOn:
		return displayOn(e)
	case ExprKindBetween:
		s := fmt.Sprintf("%d-%d", e.From, e.To)
		if e.Step > 1 {
			s += fmt.Sprintf("/%d", e.Step)
		}
		return s
	case ExprKindEvery:
		if e.Base == nil {
			return fmt.Sprintf("*/%d", e.Period)
		}
		return fmt.Sprintf("%s/%d", e.Base, e.Period)
	case ExprKindAnd:
		parts := make([]string, len(e.Exprs))
		for i, sub := range e.Exprs {
			parts[i] = sub.String()
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("<%s>", e.Kind)
}

func displayOn(e FieldExpression) string {
	switch e.Special {
	case SpecialL:
		switch {
		case e.Value > 0:
			return fmt.Sprintf("%dL", e.Value)
		case e.Nth > 0:
			return fmt.Sprintf("L-%d", e.Nth)
		}
		return "L"
	case SpecialW:
		return fmt.Sprintf("%dW", e.Value)
	case SpecialLW:
		return "LW"
	case SpecialHash:
		return fmt.Sprintf("%d#%d", e.Value, e.Nth)
	}
	return fmt.Sprint(e.Value)
}

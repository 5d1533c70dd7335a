package cronexec

import (
	"fmt"
	"strings"
)

// FieldDefinition declares one field of a dialect.
type FieldDefinition struct {
	Name        FieldName
	Constraints FieldConstraints
	// Optional fields may be omitted from the end of an expression.
	Optional bool
}

// Definition describes a cron dialect: its fields in textual order and the
// schedule-level policies the evaluator applies.
type Definition struct {
	Name   string
	Fields []FieldDefinition

	// StrictRanges rejects ranges whose start is after their end. When
	// false, such ranges wrap around the field's domain (FRI-MON, 22-2).
	StrictRanges bool

	// MatchDayOfWeekAndDayOfMonth selects intersection instead of the
	// traditional union when both day fields are restrictive.
	MatchDayOfWeekAndDayOfMonth bool
}

// Field returns the definition of the named field.
func (d *Definition) Field(name FieldName) (FieldDefinition, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// HasField reports whether the dialect declares the named field.
func (d *Definition) HasField(name FieldName) bool {
	_, ok := d.Field(name)
	return ok
}

// SupportsQuestionMark reports whether "?" is accepted on the day-of-month
// or the day-of-week field.
func (d *Definition) SupportsQuestionMark() bool {
	for _, name := range []FieldName{FieldDayOfMonth, FieldDayOfWeek} {
		if f, ok := d.Field(name); ok && f.Constraints.Supports(SpecialQuestionMark) {
			return true
		}
	}
	return false
}

func (d *Definition) requiredFields() int {
	n := 0
	for _, f := range d.Fields {
		if !f.Optional {
			n++
		}
	}
	return n
}

var (
	secondConstraints = FieldConstraints{Min: 0, Max: 59}
	minuteConstraints = FieldConstraints{Min: 0, Max: 59}
	hourConstraints   = FieldConstraints{Min: 0, Max: 23}
	monthConstraints  = FieldConstraints{Min: 1, Max: 12}
	// Used when a dialect has no year field.
	defaultYearConstraints = FieldConstraints{Min: 1, Max: 9999}
)

// Unix is the classic five-field crontab: minute hour day-of-month month
// day-of-week, Sunday as 0 or 7, union of restrictive day fields.
func Unix() *Definition {
	return &Definition{
		Name: "unix",
		Fields: []FieldDefinition{
			{Name: FieldMinute, Constraints: minuteConstraints},
			{Name: FieldHour, Constraints: hourConstraints},
			{Name: FieldDayOfMonth, Constraints: FieldConstraints{Min: 1, Max: 31}},
			{Name: FieldMonth, Constraints: monthConstraints},
			{Name: FieldDayOfWeek, Constraints: FieldConstraints{Min: 0, Max: 7, MondayDoW: 1}},
		},
		StrictRanges: true,
	}
}

// Quartz is the Quartz scheduler dialect: second minute hour day-of-month
// month day-of-week [year], Sunday as 1, with ?, L, W, LW and #.
func Quartz() *Definition {
	return &Definition{
		Name: "quartz",
		Fields: []FieldDefinition{
			{Name: FieldSecond, Constraints: secondConstraints},
			{Name: FieldMinute, Constraints: minuteConstraints},
			{Name: FieldHour, Constraints: hourConstraints},
			{Name: FieldDayOfMonth, Constraints: FieldConstraints{
				Min: 1, Max: 31,
				Specials: []SpecialChar{SpecialQuestionMark, SpecialL, SpecialW, SpecialLW},
			}},
			{Name: FieldMonth, Constraints: monthConstraints},
			{Name: FieldDayOfWeek, Constraints: FieldConstraints{
				Min: 1, Max: 7, MondayDoW: 2,
				Specials: []SpecialChar{SpecialQuestionMark, SpecialL, SpecialHash},
			}},
			{Name: FieldYear, Constraints: FieldConstraints{Min: 1970, Max: 2099}, Optional: true},
		},
		MatchDayOfWeekAndDayOfMonth: true,
	}
}

// Spring is the six-field Spring Framework dialect: second minute hour
// day-of-month month day-of-week, Sunday as 0 or 7.
func Spring() *Definition {
	return &Definition{
		Name: "spring",
		Fields: []FieldDefinition{
			{Name: FieldSecond, Constraints: secondConstraints},
			{Name: FieldMinute, Constraints: minuteConstraints},
			{Name: FieldHour, Constraints: hourConstraints},
			{Name: FieldDayOfMonth, Constraints: FieldConstraints{
				Min: 1, Max: 31,
				Specials: []SpecialChar{SpecialQuestionMark, SpecialL, SpecialW, SpecialLW},
			}},
			{Name: FieldMonth, Constraints: monthConstraints},
			{Name: FieldDayOfWeek, Constraints: FieldConstraints{
				Min: 0, Max: 7, MondayDoW: 1,
				Specials: []SpecialChar{SpecialQuestionMark, SpecialL, SpecialHash},
			}},
		},
		StrictRanges:                true,
		MatchDayOfWeekAndDayOfMonth: true,
	}
}

// Cron4j is the cron4j dialect: five Unix fields, Sunday as 0, L on the
// day of month, and wrapping ranges.
func Cron4j() *Definition {
	return &Definition{
		Name: "cron4j",
		Fields: []FieldDefinition{
			{Name: FieldMinute, Constraints: minuteConstraints},
			{Name: FieldHour, Constraints: hourConstraints},
			{Name: FieldDayOfMonth, Constraints: FieldConstraints{
				Min: 1, Max: 31,
				Specials: []SpecialChar{SpecialL},
			}},
			{Name: FieldMonth, Constraints: monthConstraints},
			{Name: FieldDayOfWeek, Constraints: FieldConstraints{Min: 0, Max: 6, MondayDoW: 1}},
		},
		MatchDayOfWeekAndDayOfMonth: true,
	}
}

// DefinitionByName returns a fresh built-in dialect by case-insensitive name.
func DefinitionByName(name string) (*Definition, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "unix", "":
		return Unix(), nil
	case "quartz":
		return Quartz(), nil
	case "spring":
		return Spring(), nil
	case "cron4j":
		return Cron4j(), nil
	}
	return nil, DefinitionError(fmt.Sprintf("unknown dialect %q", name))
}

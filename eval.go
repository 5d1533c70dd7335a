package cronexec

import (
	"errors"
	"iter"
	"slices"
	"time"
)

// =============================================================================
// Search Safety Limits
// =============================================================================
// MaxIterations (default 1000): maximum potential-match steps per search.
// MaxYearDrift (default 100): maximum civil years a search may move away
// from its reference, or from the year it last jumped to through the year
// field. A restricted year field is bounded by its own domain, so "2099"
// is found from 1990 while day rules that rarely align stay bounded.
//
// Expressions that can never match (day 30 of February) exhaust the year
// drift after about three steps per year; satisfiable expressions converge
// within a handful of steps. Exhaustion is reported as "no execution".
// =============================================================================

// =============================================================================
// Potential-Match Steps
// =============================================================================
// A search walks Year -> Month -> Day -> Hour -> Minute -> Second. The first
// unit whose value is not valid is moved to its nearest valid value and every
// finer unit is reset (to its start going forward, to its end going
// backward). A lookup that wraps around carries into the enclosing unit
// instead. When no unit needs moving the candidate is a match.
//
// Years, months, days and hours move on the civil calendar of the
// reference's location. Minutes and seconds move on the absolute timeline,
// so a search never stalls in a DST gap or fold.
// =============================================================================

// Limits bounds a single search. An execution further away than the limits
// allow is reported as none, even though IsMatch accepts it.
type Limits struct {
	MaxIterations int
	MaxYearDrift  int
}

// DefaultLimits returns the limits used by NewExecutionTime.
func DefaultLimits() Limits {
	return Limits{MaxIterations: 1000, MaxYearDrift: 100}
}

func (l Limits) normalize() Limits {
	d := DefaultLimits()
	if l.MaxIterations <= 0 {
		l.MaxIterations = d.MaxIterations
	}
	if l.MaxYearDrift <= 0 {
		l.MaxYearDrift = d.MaxYearDrift
	}
	return l
}

// ExecutionTime computes executions of one Cron. It is immutable after
// construction and safe for concurrent use.
type ExecutionTime struct {
	cron   *Cron
	limits Limits

	years   valueGenerator
	months  *TimeNode
	hours   *TimeNode
	minutes *TimeNode
	seconds *TimeNode
	days    dayResolver

	secondResolution bool
}

// NewExecutionTime builds an engine for c with DefaultLimits.
func NewExecutionTime(c *Cron) (*ExecutionTime, error) {
	return NewExecutionTimeWithLimits(c, DefaultLimits())
}

// NewExecutionTimeWithLimits builds an engine for c. Zero limit fields take
// their defaults.
func NewExecutionTimeWithLimits(c *Cron, limits Limits) (*ExecutionTime, error) {
	if c == nil {
		return nil, EvalError("nil cron")
	}
	e := &ExecutionTime{
		cron:   c,
		limits: limits.normalize(),
		days:   newDayResolver(c),
	}

	if f, ok := c.Field(FieldYear); ok {
		e.years = newValueGenerator(f)
	} else {
		e.years = valueGenerator{expr: Always(), c: defaultYearConstraints}
	}

	var err error
	if e.months, err = buildNode(c, FieldMonth, monthConstraints, Always()); err != nil {
		return nil, err
	}
	if e.hours, err = buildNode(c, FieldHour, hourConstraints, Always()); err != nil {
		return nil, err
	}
	if e.minutes, err = buildNode(c, FieldMinute, minuteConstraints, Always()); err != nil {
		return nil, err
	}
	if e.seconds, err = buildNode(c, FieldSecond, secondConstraints, On(0)); err != nil {
		return nil, err
	}
	e.secondResolution = c.definition.HasField(FieldSecond)
	return e, nil
}

// buildNode computes the valid values of a time field once. Absent fields
// use fallback.
func buildNode(c *Cron, name FieldName, fallback FieldConstraints, absent FieldExpression) (*TimeNode, error) {
	f, ok := c.Field(name)
	if !ok {
		f = CronField{Name: name, Expr: absent, Constraints: fallback}
	}
	values := newValueGenerator(f).Candidates(f.Constraints.Min, f.Constraints.Max)
	if len(values) == 0 {
		return nil, EvalError("no valid values on the " + name.String() + " field")
	}
	return NewTimeNode(values)
}

// Cron returns the cron this engine evaluates.
func (e *ExecutionTime) Cron() *Cron {
	return e.cron
}

// Limits returns the normalized search limits.
func (e *ExecutionTime) Limits() Limits {
	return e.limits
}

// NextExecution returns the first execution strictly after ref, or nil if
// none exists within the search limits.
func (e *ExecutionTime) NextExecution(ref time.Time) *time.Time {
	start := ref.Truncate(time.Second)
	if start.Before(ref) {
		start = start.Add(time.Second)
	}
	t, err := e.nextClosestMatch(start)
	if err == nil && t.Equal(ref) {
		t, err = e.nextClosestMatch(start.Add(time.Second))
	}
	if err != nil {
		return nil
	}
	return &t
}

// LastExecution returns the last execution strictly before ref, or nil if
// none exists within the search limits.
func (e *ExecutionTime) LastExecution(ref time.Time) *time.Time {
	start := ref.Truncate(time.Second)
	t, err := e.previousClosestMatch(start)
	if err == nil && !t.Before(ref) {
		t, err = e.previousClosestMatch(start.Add(-time.Second))
	}
	if err != nil {
		return nil
	}
	return &t
}

// TimeToNextExecution returns the time from ref until the next execution.
func (e *ExecutionTime) TimeToNextExecution(ref time.Time) (time.Duration, bool) {
	next := e.NextExecution(ref)
	if next == nil {
		return 0, false
	}
	return next.Sub(ref), true
}

// TimeFromLastExecution returns the time elapsed since the last execution
// before ref.
func (e *ExecutionTime) TimeFromLastExecution(ref time.Time) (time.Duration, bool) {
	last := e.LastExecution(ref)
	if last == nil {
		return 0, false
	}
	return ref.Sub(*last), true
}

// IsMatch reports whether t, truncated to the dialect's resolution, is an
// execution.
func (e *ExecutionTime) IsMatch(t time.Time) bool {
	t = e.truncate(t)
	if last := e.LastExecution(t); last != nil {
		if next := e.NextExecution(*last); next != nil {
			return next.Equal(t)
		}
	}
	return e.fieldsMatch(t)
}

// fieldsMatch checks every unit of t independently. IsMatch falls back to it
// when a neighboring execution lies outside the search limits.
func (e *ExecutionTime) fieldsMatch(t time.Time) bool {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return e.years.IsMatch(y) &&
		e.months.Contains(int(mo)) &&
		slices.Contains(e.days.days(y, mo), d) &&
		e.hours.Contains(h) &&
		e.minutes.Contains(mi) &&
		e.seconds.Contains(s)
}

func (e *ExecutionTime) truncate(t time.Time) time.Time {
	if e.secondResolution {
		return t.Truncate(time.Second)
	}
	return startOfMinute(t)
}

func (e *ExecutionTime) nextClosestMatch(ref time.Time) (time.Time, error) {
	return e.search(ref, e.potentialNext)
}

func (e *ExecutionTime) previousClosestMatch(ref time.Time) (time.Time, error) {
	return e.search(ref, e.potentialPrevious)
}

// search applies step until it reports a match or a limit is exceeded.
func (e *ExecutionTime) search(ref time.Time, step func(time.Time) (time.Time, bool, error)) (time.Time, error) {
	t, base := ref, ref.Year()
	for range e.limits.MaxIterations {
		if drift := t.Year() - base; drift > e.limits.MaxYearDrift || -drift > e.limits.MaxYearDrift {
			return time.Time{}, errSearchExhausted
		}
		yearJump := !e.years.IsMatch(t.Year())
		next, matched, err := step(t)
		if err != nil {
			return time.Time{}, err
		}
		if matched {
			return t, nil
		}
		if yearJump {
			base = next.Year()
		}
		t = next
	}
	return time.Time{}, errSearchExhausted
}

// potentialNext moves t forward to the next candidate, or reports that t
// already matches.
func (e *ExecutionTime) potentialNext(t time.Time) (time.Time, bool, error) {
	loc := t.Location()
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	start := func(y int, mo time.Month, d, h int) time.Time {
		return wallClock(loc, y, mo, d, h, 0, 0, true, t)
	}

	if !e.years.IsMatch(y) {
		ny, err := e.years.Next(y)
		if err != nil {
			return t, false, noCandidate(err)
		}
		return start(ny, time.January, 1, 0), false, nil
	}
	if !e.months.Contains(int(mo)) {
		nv := e.months.Next(int(mo), 0)
		if nv.Shifts > 0 {
			return start(y+nv.Shifts, time.January, 1, 0), false, nil
		}
		return start(y, time.Month(nv.Value), 1, 0), false, nil
	}
	days := e.days.days(y, mo)
	if !slices.Contains(days, d) {
		if len(days) == 0 {
			return start(y, mo+1, 1, 0), false, nil
		}
		nv := mustTimeNode(days).Next(d, 0)
		if nv.Shifts > 0 {
			return start(y, mo+1, 1, 0), false, nil
		}
		return start(y, mo, nv.Value, 0), false, nil
	}
	if !e.hours.Contains(h) {
		nv := e.hours.Next(h, 0)
		if nv.Shifts > 0 {
			return start(y, mo, d+1, 0), false, nil
		}
		return start(y, mo, d, nv.Value), false, nil
	}
	if !e.minutes.Contains(mi) {
		nv := e.minutes.Next(mi, 0)
		if nv.Shifts > 0 {
			return startOfHour(t).Add(time.Hour), false, nil
		}
		return startOfHour(t).Add(time.Duration(nv.Value) * time.Minute), false, nil
	}
	if !e.seconds.Contains(s) {
		nv := e.seconds.Next(s, 0)
		if nv.Shifts > 0 {
			return startOfMinute(t).Add(time.Minute), false, nil
		}
		return startOfMinute(t).Add(time.Duration(nv.Value) * time.Second), false, nil
	}
	return t, true, nil
}

// potentialPrevious moves t backward to the previous candidate, or reports
// that t already matches. Ends of units are one second before the start of
// the following unit.
func (e *ExecutionTime) potentialPrevious(t time.Time) (time.Time, bool, error) {
	loc := t.Location()
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	endBefore := func(y int, mo time.Month, d, h int) time.Time {
		return wallClock(loc, y, mo, d, h, 0, 0, true, time.Time{}).Add(-time.Second)
	}

	if !e.years.IsMatch(y) {
		py, err := e.years.Previous(y)
		if err != nil {
			return t, false, noCandidate(err)
		}
		return endBefore(py+1, time.January, 1, 0), false, nil
	}
	if !e.months.Contains(int(mo)) {
		nv := e.months.Previous(int(mo), 0)
		if nv.Shifts > 0 {
			return endBefore(y-nv.Shifts+1, time.January, 1, 0), false, nil
		}
		return endBefore(y, time.Month(nv.Value)+1, 1, 0), false, nil
	}
	days := e.days.days(y, mo)
	if !slices.Contains(days, d) {
		if len(days) == 0 {
			return endBefore(y, mo, 1, 0), false, nil
		}
		nv := mustTimeNode(days).Previous(d, 0)
		if nv.Shifts > 0 {
			return endBefore(y, mo, 1, 0), false, nil
		}
		return endBefore(y, mo, nv.Value+1, 0), false, nil
	}
	if !e.hours.Contains(h) {
		nv := e.hours.Previous(h, 0)
		if nv.Shifts > 0 {
			return endBefore(y, mo, d, 0), false, nil
		}
		return endBefore(y, mo, d, nv.Value+1), false, nil
	}
	if !e.minutes.Contains(mi) {
		nv := e.minutes.Previous(mi, 0)
		if nv.Shifts > 0 {
			return startOfHour(t).Add(-time.Second), false, nil
		}
		return startOfHour(t).Add(time.Duration(nv.Value+1)*time.Minute - time.Second), false, nil
	}
	if !e.seconds.Contains(s) {
		nv := e.seconds.Previous(s, 0)
		if nv.Shifts > 0 {
			return startOfMinute(t).Add(-time.Second), false, nil
		}
		return startOfMinute(t).Add(time.Duration(nv.Value) * time.Second), false, nil
	}
	return t, true, nil
}

// noCandidate maps a generator's exhaustion to the search outcome.
func noCandidate(err error) error {
	if errors.Is(err, ErrNoCandidate) {
		return errSearchExhausted
	}
	return err
}

// --- Iterator functions ---

// Occurrences returns a lazy iterator of executions strictly after from.
// It ends when no further execution exists within the search limits.
func (e *ExecutionTime) Occurrences(from time.Time) iter.Seq[time.Time] {
	return occurrences(e, from)
}

// Between returns a bounded iterator of executions where
// `from < execution <= to`.
func (e *ExecutionTime) Between(from, to time.Time) iter.Seq[time.Time] {
	return between(e, from, to)
}

// NextN returns up to n executions strictly after from.
func (e *ExecutionTime) NextN(from time.Time, n int) []time.Time {
	return nextN(e, from, n)
}

// CountExecutions counts the executions in [start, end].
func (e *ExecutionTime) CountExecutions(start, end time.Time) int {
	return countExecutions(e, start, end)
}

func occurrences(s Schedule, from time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		current := from
		for {
			next := s.NextExecution(current)
			if next == nil {
				return
			}
			current = *next
			if !yield(*next) {
				return
			}
		}
	}
}

func between(s Schedule, from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for t := range occurrences(s, from) {
			if t.After(to) {
				return
			}
			if !yield(t) {
				return
			}
		}
	}
}

func nextN(s Schedule, from time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for t := range occurrences(s, from) {
		out = append(out, t)
		if len(out) == n {
			break
		}
	}
	return out
}

// countExecutions counts whole-second executions, so starting the walk one
// nanosecond early includes start itself.
func countExecutions(s Schedule, start, end time.Time) int {
	n := 0
	for range between(s, start.Add(-time.Nanosecond), end) {
		n++
	}
	return n
}

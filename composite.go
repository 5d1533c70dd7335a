package cronexec

import (
	"iter"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Schedule is the query surface shared by ExecutionTime and Composite.
type Schedule interface {
	NextExecution(ref time.Time) *time.Time
	LastExecution(ref time.Time) *time.Time
	TimeToNextExecution(ref time.Time) (time.Duration, bool)
	TimeFromLastExecution(ref time.Time) (time.Duration, bool)
	IsMatch(t time.Time) bool
}

var (
	_ Schedule = (*ExecutionTime)(nil)
	_ Schedule = (*Composite)(nil)
)

// Composite combines schedules as a logical OR: it executes whenever any
// member does. Members are evaluated concurrently.
type Composite struct {
	members []Schedule
	workers int
}

// NewComposite builds a composite over members. Nil members are skipped.
func NewComposite(members ...Schedule) *Composite {
	c := &Composite{workers: runtime.GOMAXPROCS(0)}
	for _, m := range members {
		if m != nil {
			c.members = append(c.members, m)
		}
	}
	return c
}

// Members returns the member schedules in construction order.
func (c *Composite) Members() []Schedule {
	return append([]Schedule(nil), c.members...)
}

// NextExecution returns the earliest next execution among the members.
func (c *Composite) NextExecution(ref time.Time) *time.Time {
	return reduce(c.fanOut(func(s Schedule) *time.Time { return s.NextExecution(ref) }), time.Time.Before)
}

// LastExecution returns the latest last execution among the members.
func (c *Composite) LastExecution(ref time.Time) *time.Time {
	return reduce(c.fanOut(func(s Schedule) *time.Time { return s.LastExecution(ref) }), time.Time.After)
}

// TimeToNextExecution returns the time from ref until the composite's next
// execution.
func (c *Composite) TimeToNextExecution(ref time.Time) (time.Duration, bool) {
	next := c.NextExecution(ref)
	if next == nil {
		return 0, false
	}
	return next.Sub(ref), true
}

// TimeFromLastExecution returns the time elapsed since the composite's last
// execution before ref.
func (c *Composite) TimeFromLastExecution(ref time.Time) (time.Duration, bool) {
	last := c.LastExecution(ref)
	if last == nil {
		return 0, false
	}
	return ref.Sub(*last), true
}

// IsMatch reports whether any member matches t.
func (c *Composite) IsMatch(t time.Time) bool {
	for _, m := range c.fanOut(func(s Schedule) *time.Time {
		if s.IsMatch(t) {
			return &t
		}
		return nil
	}) {
		if m != nil {
			return true
		}
	}
	return false
}

// Occurrences returns a lazy iterator of composite executions strictly after
// from. Executions shared by several members are yielded once.
func (c *Composite) Occurrences(from time.Time) iter.Seq[time.Time] {
	return occurrences(c, from)
}

// Between returns a bounded iterator of composite executions where
// `from < execution <= to`.
func (c *Composite) Between(from, to time.Time) iter.Seq[time.Time] {
	return between(c, from, to)
}

// NextN returns up to n composite executions strictly after from.
func (c *Composite) NextN(from time.Time, n int) []time.Time {
	return nextN(c, from, n)
}

// fanOut runs query against every member, in parallel up to the worker
// limit. Results keep member order.
func (c *Composite) fanOut(query func(Schedule) *time.Time) []*time.Time {
	results := make([]*time.Time, len(c.members))
	if len(c.members) == 1 {
		results[0] = query(c.members[0])
		return results
	}
	var g errgroup.Group
	g.SetLimit(max(c.workers, 1))
	for i, m := range c.members {
		g.Go(func() error {
			results[i] = query(m)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// reduce keeps the present value that wins against every other.
func reduce(values []*time.Time, wins func(a, b time.Time) bool) *time.Time {
	var best *time.Time
	for _, v := range values {
		if v == nil {
			continue
		}
		if best == nil || wins(*v, *best) {
			best = v
		}
	}
	return best
}

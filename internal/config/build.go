package config

import (
	"fmt"
	"time"

	"github.com/prasrvenkat/cronexec"
)

// Entry is a built schedule from the file.
type Entry struct {
	Name     string
	Cron     *cronexec.Cron
	Location *time.Location
	Schedule cronexec.Schedule
}

// Set holds every schedule of a file and their combination.
type Set struct {
	Entries   []Entry
	Composite *cronexec.Composite
}

// Build parses every schedule of a validated Config. Each schedule is
// evaluated in its own zone; results are reported in that zone.
func Build(cfg *Config) (*Set, error) {
	limits := cronexec.DefaultLimits()
	if cfg.Limits != nil {
		limits = cronexec.Limits{
			MaxIterations: cfg.Limits.MaxIterations,
			MaxYearDrift:  cfg.Limits.MaxYearDrift,
		}
	}

	set := &Set{Entries: make([]Entry, 0, len(cfg.Schedules))}
	members := make([]cronexec.Schedule, 0, len(cfg.Schedules))
	for _, s := range cfg.Schedules {
		def, err := cronexec.DefinitionByName(cfg.dialectFor(s))
		if err != nil {
			return nil, fmt.Errorf("config: schedule %q: %w", s.Name, err)
		}
		loc, err := time.LoadLocation(cfg.timezoneFor(s))
		if err != nil {
			return nil, fmt.Errorf("config: schedule %q: %w", s.Name, err)
		}
		c, err := cronexec.Parse(def, s.Expression)
		if err != nil {
			return nil, fmt.Errorf("config: schedule %q: %w", s.Name, err)
		}
		et, err := cronexec.NewExecutionTimeWithLimits(c, limits)
		if err != nil {
			return nil, fmt.Errorf("config: schedule %q: %w", s.Name, err)
		}

		sched := InLocation(et, loc)
		set.Entries = append(set.Entries, Entry{Name: s.Name, Cron: c, Location: loc, Schedule: sched})
		members = append(members, sched)
	}
	set.Composite = cronexec.NewComposite(members...)
	return set, nil
}

// Lookup returns the entry with the given name.
func (s *Set) Lookup(name string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// MatchingAt returns the names of the entries executing at t.
func (s *Set) MatchingAt(t time.Time) []string {
	var names []string
	for _, e := range s.Entries {
		if e.Schedule.IsMatch(t) {
			names = append(names, e.Name)
		}
	}
	return names
}

// zoned evaluates a schedule on the civil calendar of a fixed location,
// whatever the location of the reference.
type zoned struct {
	s   cronexec.Schedule
	loc *time.Location
}

// InLocation returns s evaluated in loc.
func InLocation(s cronexec.Schedule, loc *time.Location) cronexec.Schedule {
	return zoned{s: s, loc: loc}
}

func (z zoned) NextExecution(ref time.Time) *time.Time {
	return z.s.NextExecution(ref.In(z.loc))
}

func (z zoned) LastExecution(ref time.Time) *time.Time {
	return z.s.LastExecution(ref.In(z.loc))
}

func (z zoned) TimeToNextExecution(ref time.Time) (time.Duration, bool) {
	return z.s.TimeToNextExecution(ref.In(z.loc))
}

func (z zoned) TimeFromLastExecution(ref time.Time) (time.Duration, bool) {
	return z.s.TimeFromLastExecution(ref.In(z.loc))
}

func (z zoned) IsMatch(t time.Time) bool {
	return z.s.IsMatch(t.In(z.loc))
}

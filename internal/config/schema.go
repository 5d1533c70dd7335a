// Package config handles YAML schedule files: loading with environment
// variable expansion, structural validation, and building the schedules
// they declare.
package config

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Timezone is the IANA zone schedules are evaluated in unless they set
	// their own. Empty means UTC.
	Timezone string `yaml:"timezone,omitempty"`

	// Dialect is the cron dialect (unix, quartz, spring, cron4j) used by
	// schedules that do not set their own. Empty means unix.
	Dialect string `yaml:"dialect,omitempty"`

	// Schedules lists the named cron expressions. Their executions are
	// combined: the file fires whenever any schedule does.
	Schedules []ScheduleEntry `yaml:"schedules"`

	// Limits overrides the search limits. Zero fields keep the defaults.
	Limits *LimitsConfig `yaml:"limits,omitempty"`
}

// ScheduleEntry is one named cron expression.
type ScheduleEntry struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	Dialect    string `yaml:"dialect,omitempty"`
	Timezone   string `yaml:"timezone,omitempty"`
}

// LimitsConfig bounds every search of the file's schedules.
type LimitsConfig struct {
	MaxIterations int `yaml:"max_iterations"`
	MaxYearDrift  int `yaml:"max_year_drift"`
}

// dialectFor returns the entry's dialect, falling back to the file default.
func (c *Config) dialectFor(e ScheduleEntry) string {
	if e.Dialect != "" {
		return e.Dialect
	}
	return c.Dialect
}

// timezoneFor returns the entry's zone, falling back to the file default.
func (c *Config) timezoneFor(e ScheduleEntry) string {
	if e.Timezone != "" {
		return e.Timezone
	}
	if c.Timezone != "" {
		return c.Timezone
	}
	return "UTC"
}

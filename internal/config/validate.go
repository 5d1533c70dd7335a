package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/prasrvenkat/cronexec"
)

// Validate checks the structural validity of a Config.
// It verifies the version field, the dialects and zones every schedule
// resolves to, and that each expression parses in its dialect.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Schedules) == 0 {
		errs = append(errs, errors.New("config: at least one schedule must be configured"))
	}

	if cfg.Dialect != "" {
		if _, err := cronexec.DefinitionByName(cfg.Dialect); err != nil {
			errs = append(errs, fmt.Errorf("config: dialect: %w", err))
		}
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("config: timezone: %w", err))
		}
	}

	errs = append(errs, validateSchedules(cfg)...)
	errs = append(errs, validateLimits(cfg.Limits)...)

	return errors.Join(errs...)
}

func validateSchedules(cfg *Config) []error {
	var errs []error
	seen := make(map[string]int, len(cfg.Schedules))

	for i, s := range cfg.Schedules {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: name is required", i))
		} else if prev, dup := seen[s.Name]; dup {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: duplicate name %q (first used by schedules[%d])", i, s.Name, prev))
		} else {
			seen[s.Name] = i
		}

		if s.Timezone != "" {
			if _, err := time.LoadLocation(s.Timezone); err != nil {
				errs = append(errs, fmt.Errorf("config: schedules[%d]: timezone: %w", i, err))
			}
		}

		def, err := cronexec.DefinitionByName(cfg.dialectFor(s))
		if err != nil {
			// An invalid file default is reported once by Validate.
			if s.Dialect != "" {
				errs = append(errs, fmt.Errorf("config: schedules[%d]: dialect: %w", i, err))
			}
			continue
		}
		if s.Expression == "" {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: expression is required", i))
			continue
		}
		if _, err := cronexec.Parse(def, s.Expression); err != nil {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: expression %q: %w", i, s.Expression, err))
		}
	}
	return errs
}

func validateLimits(l *LimitsConfig) []error {
	if l == nil {
		return nil
	}
	var errs []error
	if l.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("config: limits.max_iterations must not be negative, got %d", l.MaxIterations))
	}
	if l.MaxYearDrift < 0 {
		errs = append(errs, fmt.Errorf("config: limits.max_year_drift must not be negative, got %d", l.MaxYearDrift))
	}
	return errs
}

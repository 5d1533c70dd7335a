// Package cronexec computes execution times of cron expressions.
//
// It supports several cron dialects through a Definition:
// - Unix (minute resolution, union of restrictive day fields)
// - Quartz (seconds, optional year, ?, L, W, LW and #)
// - Spring (seconds, ?, L, W, LW and #)
// - Cron4j (minute resolution, L, wrapping ranges)
//
// Searches run on the civil calendar of the reference instant's location
// and stay correct across DST gaps and folds.
//
// Example usage:
//
//	et, err := cronexec.ParseSchedule(cronexec.Quartz(), "0 0 8 31 * ?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	next := et.NextExecution(time.Now())
//	if next != nil {
//	    fmt.Println("Next execution:", next)
//	}
package cronexec

// MustParse parses a cron expression in the given dialect.
// It panics if the input is invalid.
func MustParse(def *Definition, input string) *Cron {
	c, err := Parse(def, input)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseUnix parses a five-field Unix cron expression.
func ParseUnix(input string) (*Cron, error) {
	return Parse(Unix(), input)
}

// ParseQuartz parses a Quartz cron expression.
func ParseQuartz(input string) (*Cron, error) {
	return Parse(Quartz(), input)
}

// ParseSchedule parses a cron expression and builds its ExecutionTime.
// This is the main entry point for evaluation.
func ParseSchedule(def *Definition, input string) (*ExecutionTime, error) {
	c, err := Parse(def, input)
	if err != nil {
		return nil, err
	}
	return NewExecutionTime(c)
}

// ParseComposite parses several expressions of one dialect into a Composite.
func ParseComposite(def *Definition, inputs ...string) (*Composite, error) {
	members := make([]Schedule, 0, len(inputs))
	for _, input := range inputs {
		et, err := ParseSchedule(def, input)
		if err != nil {
			return nil, err
		}
		members = append(members, et)
	}
	return NewComposite(members...), nil
}

// Validate checks if an input string is a valid expression in the dialect.
func Validate(def *Definition, input string) bool {
	_, err := Parse(def, input)
	return err == nil
}

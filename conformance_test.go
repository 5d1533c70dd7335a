package cronexec

import (
	"encoding/json"
	"os"
	"regexp"
	"slices"
	"testing"
	"time"
	_ "time/tzdata"
)

// Conformance fixture layout
type Fixtures struct {
	Now         string                     `json:"now"`
	Parse       map[string]json.RawMessage `json:"parse"`
	ParseErrors ParseErrorGroup            `json:"parse_errors"`
	Eval        map[string]json.RawMessage `json:"eval"`
	Matches     MatchesGroup               `json:"matches"`
	Occurrences OccurrencesGroup           `json:"occurrences"`
	Between     BetweenGroup               `json:"between"`
	Convert     ConvertGroup               `json:"convert"`
}

type ParseGroup struct {
	Tests []ParseTest `json:"tests"`
}

type ParseTest struct {
	Name      string `json:"name"`
	Dialect   string `json:"dialect"`
	Input     string `json:"input"`
	Canonical string `json:"canonical"`
}

type ParseErrorGroup struct {
	Tests []ParseErrorTest `json:"tests"`
}

type ParseErrorTest struct {
	Name        string `json:"name"`
	Dialect     string `json:"dialect"`
	Input       string `json:"input"`
	Description string `json:"description"`
}

type EvalGroup struct {
	Tests []EvalTest `json:"tests"`
}

type EvalTest struct {
	Name       string  `json:"name"`
	Dialect    string  `json:"dialect"`
	Expression string  `json:"expression"`
	Now        string  `json:"now,omitempty"`
	Next       *string `json:"next,omitempty"`
	Last       *string `json:"last,omitempty"`
}

type MatchesGroup struct {
	Tests []MatchesTest `json:"tests"`
}

type MatchesTest struct {
	Name       string `json:"name"`
	Dialect    string `json:"dialect"`
	Expression string `json:"expression"`
	Datetime   string `json:"datetime"`
	Expected   bool   `json:"expected"`
}

type OccurrencesGroup struct {
	Tests []OccurrencesTest `json:"tests"`
}

type OccurrencesTest struct {
	Name       string   `json:"name"`
	Dialect    string   `json:"dialect"`
	Expression string   `json:"expression"`
	From       string   `json:"from"`
	Take       int      `json:"take"`
	Expected   []string `json:"expected"`
}

type BetweenGroup struct {
	Tests []BetweenTest `json:"tests"`
}

type BetweenTest struct {
	Name          string `json:"name"`
	Dialect       string `json:"dialect"`
	Expression    string `json:"expression"`
	From          string `json:"from"`
	To            string `json:"to"`
	ExpectedCount int    `json:"expected_count"`
}

type ConvertGroup struct {
	Tests []ConvertTest `json:"tests"`
}

type ConvertTest struct {
	Name     string `json:"name"`
	From     string `json:"from"`
	Input    string `json:"input"`
	To       string `json:"to"`
	Expected string `json:"expected,omitempty"`
	Error    bool   `json:"error,omitempty"`
}

func loadFixtures(t *testing.T) *Fixtures {
	data, err := os.ReadFile("testdata/conformance.json")
	if err != nil {
		t.Fatalf("failed to read fixtures: %v", err)
	}

	var fx Fixtures
	if err := json.Unmarshal(data, &fx); err != nil {
		t.Fatalf("failed to parse fixtures: %v", err)
	}
	return &fx
}

func dialect(t *testing.T, name string) *Definition {
	t.Helper()
	def, err := DefinitionByName(name)
	if err != nil {
		t.Fatalf("unknown dialect %q: %v", name, err)
	}
	return def
}

var zonedPattern = regexp.MustCompile(`^(.+?)\[([^\]]+)\]$`)

// parseZonedDateTime parses a datetime string in the fixture format.
// Supports: "2026-02-06T12:00:00+00:00[UTC]" or "2026-02-06T12:00:00-05:00[America/New_York]"
func parseZonedDateTime(s string) (time.Time, error) {
	matches := zonedPattern.FindStringSubmatch(s)
	if matches == nil {
		return time.Parse(time.RFC3339, s)
	}

	loc, err := time.LoadLocation(matches[2])
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, matches[1])
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

func mustZoned(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := parseZonedDateTime(s)
	if err != nil {
		t.Fatalf("failed to parse datetime %q: %v", s, err)
	}
	return v
}

func TestParse(t *testing.T) {
	fx := loadFixtures(t)

	for section, raw := range fx.Parse {
		// Skip non-test entries like "description"
		if section == "description" {
			continue
		}

		var group ParseGroup
		if err := json.Unmarshal(raw, &group); err != nil {
			t.Fatalf("failed to parse section %s: %v", section, err)
		}

		t.Run(section, func(t *testing.T) {
			for _, tc := range group.Tests {
				t.Run(tc.Name, func(t *testing.T) {
					def := dialect(t, tc.Dialect)
					c, err := Parse(def, tc.Input)
					if err != nil {
						t.Fatalf("failed to parse %q: %v", tc.Input, err)
					}

					got := c.String()
					if got != tc.Canonical {
						t.Errorf("parse(%q).String() = %q, want %q", tc.Input, got, tc.Canonical)
					}

					// Roundtrip: parse(canonical).String() == canonical
					c2, err := Parse(def, tc.Canonical)
					if err != nil {
						t.Fatalf("failed to parse canonical %q: %v", tc.Canonical, err)
					}
					if got2 := c2.String(); got2 != tc.Canonical {
						t.Errorf("roundtrip: parse(%q).String() = %q, want %q", tc.Canonical, got2, tc.Canonical)
					}
				})
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	fx := loadFixtures(t)

	for _, tc := range fx.ParseErrors.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := Parse(dialect(t, tc.Dialect), tc.Input)
			if err == nil {
				t.Errorf("expected parse error for %q (%s)", tc.Input, tc.Description)
			}
		})
	}
}

func TestEval(t *testing.T) {
	fx := loadFixtures(t)

	defaultNow := mustZoned(t, fx.Now)

	for section, raw := range fx.Eval {
		if section == "description" {
			continue
		}

		var group EvalGroup
		if err := json.Unmarshal(raw, &group); err != nil {
			t.Fatalf("failed to parse eval section %s: %v", section, err)
		}

		t.Run(section, func(t *testing.T) {
			for _, tc := range group.Tests {
				t.Run(tc.Name, func(t *testing.T) {
					et, err := ParseSchedule(dialect(t, tc.Dialect), tc.Expression)
					if err != nil {
						t.Fatalf("failed to parse %q: %v", tc.Expression, err)
					}

					// Use test-specific now or default
					now := defaultNow
					if tc.Now != "" {
						now = mustZoned(t, tc.Now)
					}

					if tc.Next != nil {
						checkOptional(t, "NextExecution", et.NextExecution(now), *tc.Next)
					}
					if tc.Last != nil {
						checkOptional(t, "LastExecution", et.LastExecution(now), *tc.Last)
					}
				})
			}
		})
	}
}

// checkOptional compares a search result with a fixture value where the
// empty string means no result.
func checkOptional(t *testing.T, what string, got *time.Time, want string) {
	t.Helper()
	if want == "" {
		if got != nil {
			t.Errorf("%s() = %v, want nil", what, got)
		}
		return
	}
	expected := mustZoned(t, want)
	if got == nil {
		t.Fatalf("%s() = nil, want %v", what, expected)
	}
	if !got.Equal(expected) {
		t.Errorf("%s() = %v, want %v", what, got, expected)
	}
	if got.Location().String() != expected.Location().String() {
		t.Errorf("%s() location = %s, want %s", what, got.Location(), expected.Location())
	}
}

func TestMatches(t *testing.T) {
	fx := loadFixtures(t)

	for _, tc := range fx.Matches.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			et, err := ParseSchedule(dialect(t, tc.Dialect), tc.Expression)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", tc.Expression, err)
			}
			dt := mustZoned(t, tc.Datetime)
			if got := et.IsMatch(dt); got != tc.Expected {
				t.Errorf("IsMatch(%v) = %v, want %v", dt, got, tc.Expected)
			}
		})
	}
}

func TestOccurrences(t *testing.T) {
	fx := loadFixtures(t)

	for _, tc := range fx.Occurrences.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			et, err := ParseSchedule(dialect(t, tc.Dialect), tc.Expression)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", tc.Expression, err)
			}

			got := et.NextN(mustZoned(t, tc.From), tc.Take)
			want := make([]time.Time, len(tc.Expected))
			for i, s := range tc.Expected {
				want[i] = mustZoned(t, s)
			}
			if !slices.EqualFunc(got, want, time.Time.Equal) {
				t.Errorf("NextN() = %v, want %v", got, want)
			}
		})
	}
}

func TestBetween(t *testing.T) {
	fx := loadFixtures(t)

	for _, tc := range fx.Between.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			et, err := ParseSchedule(dialect(t, tc.Dialect), tc.Expression)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", tc.Expression, err)
			}

			from, to := mustZoned(t, tc.From), mustZoned(t, tc.To)
			got := slices.Collect(et.Between(from, to))
			if len(got) != tc.ExpectedCount {
				t.Errorf("Between() yielded %d executions, want %d", len(got), tc.ExpectedCount)
			}
			for _, dt := range got {
				if !dt.After(from) || dt.After(to) {
					t.Errorf("Between() yielded %v outside (%v, %v]", dt, from, to)
				}
			}
		})
	}
}

func TestConvert(t *testing.T) {
	fx := loadFixtures(t)

	for _, tc := range fx.Convert.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			c, err := Parse(dialect(t, tc.From), tc.Input)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", tc.Input, err)
			}

			got, err := Convert(c, dialect(t, tc.To))
			if tc.Error {
				if err == nil {
					t.Errorf("Convert(%q) = %q, want error", tc.Input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Convert(%q) failed: %v", tc.Input, err)
			}
			if got.String() != tc.Expected {
				t.Errorf("Convert(%q) = %q, want %q", tc.Input, got, tc.Expected)
			}
		})
	}
}

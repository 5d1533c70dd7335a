package cronexec

import (
	"testing"
	"time"
)

func TestNextExecutionScenarios(t *testing.T) {
	tests := []struct {
		name string
		def  *Definition
		expr string
		ref  time.Time
		want time.Time
	}{
		{
			name: "every two hours across midnight",
			def:  Unix(),
			expr: "0 0/2 * * *",
			ref:  time.Date(2016, 8, 30, 23, 59, 0, 0, time.UTC),
			want: time.Date(2016, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "31st carries past april",
			def:  Quartz(),
			expr: "0 0 8 31 * ?",
			ref:  time.Date(2017, 4, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2017, 5, 31, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "31st in the same month",
			def:  Quartz(),
			expr: "0 0 8 31 * ?",
			ref:  time.Date(2017, 1, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2017, 1, 31, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "sub-second reference",
			def:  Quartz(),
			expr: "0 5/15 * * * ? *",
			ref:  time.Date(2016, 7, 30, 15, 0, 0, 527, time.UTC),
			want: time.Date(2016, 7, 30, 15, 5, 0, 0, time.UTC),
		},
		{
			name: "leap day",
			def:  Unix(),
			expr: "0 0 29 2 *",
			ref:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			et := mustSchedule(t, tt.def, tt.expr)
			got := et.NextExecution(tt.ref)
			if got == nil || !got.Equal(tt.want) {
				t.Errorf("NextExecution(%v) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestLastExecutionSubSecondReference(t *testing.T) {
	et := mustSchedule(t, Quartz(), "0 5/15 * * * ? *")
	ref := time.Date(2016, 7, 30, 15, 0, 0, 527, time.UTC)

	want := time.Date(2016, 7, 30, 14, 50, 0, 0, time.UTC)
	if got := et.LastExecution(ref); got == nil || !got.Equal(want) {
		t.Errorf("LastExecution() = %v, want %v", got, want)
	}
}

func TestSpringForwardEveryTwoMinutes(t *testing.T) {
	loc := mustLocation(t, "America/New_York")
	et := mustSchedule(t, Unix(), "*/2 * * * *")

	// 02:00 does not exist on March 13, 2016; 01:58 EST is followed by
	// 03:00 EDT.
	ref := time.Date(2016, 3, 13, 1, 58, 30, 0, loc)
	got := et.NextExecution(ref)
	want := time.Date(2016, 3, 13, 7, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("NextExecution() = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("NextExecution() location = %v, want %v", got.Location(), loc)
	}

	// And backward across the same gap.
	last := et.LastExecution(*got)
	wantLast := time.Date(2016, 3, 13, 6, 58, 0, 0, time.UTC)
	if last == nil || !last.Equal(wantLast) {
		t.Errorf("LastExecution() = %v, want %v", last, wantLast)
	}
}

func TestFallBackFiresTwice(t *testing.T) {
	loc := mustLocation(t, "America/New_York")
	et := mustSchedule(t, Unix(), "30 1 * * *")

	got := et.NextN(time.Date(2026, 11, 1, 0, 0, 0, 0, loc), 3)
	want := []time.Time{
		time.Date(2026, 11, 1, 5, 30, 0, 0, time.UTC),
		time.Date(2026, 11, 1, 6, 30, 0, 0, time.UTC),
		time.Date(2026, 11, 2, 6, 30, 0, 0, time.UTC),
	}
	if len(got) != len(want) {
		t.Fatalf("NextN() = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i].UTC(), want[i])
		}
	}

	last := et.LastExecution(time.Date(2026, 11, 1, 3, 0, 0, 0, loc))
	if last == nil || !last.Equal(want[1]) {
		t.Errorf("LastExecution() = %v, want %v", last, want[1])
	}
}

func TestMonotonicProgress(t *testing.T) {
	exprs := []struct {
		def  *Definition
		expr string
	}{
		{Unix(), "*/7 * * * *"},
		{Unix(), "0 9 1-7 * 1"},
		{Unix(), "30 2 * * *"},
		{Quartz(), "0 0 12 LW * ?"},
		{Quartz(), "*/20 * * ? * 6#3"},
		{Quartz(), "0 15 10 ? * 6L 2010-2040"},
		{Spring(), "0 0 */3 * * MON-FRI"},
		{Cron4j(), "0 22-2 * * *"},
	}
	loc := mustLocation(t, "America/New_York")
	refs := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 23, 59, 59, 999, time.UTC),
		time.Date(2016, 3, 13, 1, 59, 0, 0, loc),
		time.Date(2016, 11, 6, 1, 30, 0, 0, loc),
		time.Date(2031, 12, 31, 23, 0, 0, 0, loc),
	}

	for _, tc := range exprs {
		et := mustSchedule(t, tc.def, tc.expr)
		for _, ref := range refs {
			next := et.NextExecution(ref)
			if next == nil {
				t.Errorf("%s: NextExecution(%v) = nil", tc.expr, ref)
				continue
			}
			if !next.After(ref) {
				t.Errorf("%s: NextExecution(%v) = %v, not after reference", tc.expr, ref, next)
			}
			if again := et.NextExecution(*next); again == nil || !again.After(*next) {
				t.Errorf("%s: NextExecution(%v) = %v, not after previous result", tc.expr, next, again)
			}
			if !et.IsMatch(*next) {
				t.Errorf("%s: IsMatch(%v) = false for a computed execution", tc.expr, next)
			}

			last := et.LastExecution(ref)
			if last == nil {
				t.Errorf("%s: LastExecution(%v) = nil", tc.expr, ref)
				continue
			}
			if !last.Before(ref) {
				t.Errorf("%s: LastExecution(%v) = %v, not before reference", tc.expr, ref, last)
			}
			if round := et.NextExecution(*last); round == nil || round.Before(ref) {
				t.Errorf("%s: NextExecution(LastExecution(%v)) = %v, skipped an execution", tc.expr, ref, round)
			}
		}
	}
}

func TestIsMatchTruncation(t *testing.T) {
	ts := time.Date(2024, 6, 3, 9, 0, 45, 0, time.UTC)

	if !mustSchedule(t, Unix(), "0 9 * * *").IsMatch(ts) {
		t.Error("minute resolution should ignore seconds")
	}
	if mustSchedule(t, Quartz(), "0 0 9 * * ?").IsMatch(ts) {
		t.Error("second resolution should not ignore seconds")
	}
	if !mustSchedule(t, Quartz(), "45 0 9 * * ?").IsMatch(ts.Add(300 * time.Millisecond)) {
		t.Error("second resolution should ignore sub-second time")
	}
}

func TestNoExecutionReturnsNil(t *testing.T) {
	et := mustSchedule(t, Quartz(), "0 0 0 30 2 ?")
	ref := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := et.NextExecution(ref); got != nil {
		t.Errorf("NextExecution() = %v, want nil", got)
	}
	if got := et.LastExecution(ref); got != nil {
		t.Errorf("LastExecution() = %v, want nil", got)
	}
	if _, ok := et.TimeToNextExecution(ref); ok {
		t.Error("TimeToNextExecution() reported an execution")
	}
	if _, ok := et.TimeFromLastExecution(ref); ok {
		t.Error("TimeFromLastExecution() reported an execution")
	}
	if et.IsMatch(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("IsMatch() = true for a schedule without executions")
	}
}

func TestFixedYearEnds(t *testing.T) {
	et := mustSchedule(t, Quartz(), "0 0 0 1 1 ? 2030")

	if got := et.NextExecution(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)); got != nil {
		t.Errorf("NextExecution() after the last year = %v, want nil", got)
	}
	if got := et.LastExecution(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)); got != nil {
		t.Errorf("LastExecution() before the first year = %v, want nil", got)
	}
}

func TestSearchLimits(t *testing.T) {
	leap := MustParse(Unix(), "0 0 29 2 *")
	ref := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tight, err := NewExecutionTimeWithLimits(leap, Limits{MaxIterations: 5})
	if err != nil {
		t.Fatalf("NewExecutionTimeWithLimits() failed: %v", err)
	}
	if got := tight.NextExecution(ref); got != nil {
		t.Errorf("NextExecution() with 5 iterations = %v, want nil", got)
	}

	// February 29 on a Monday: 2016, then 2044.
	rare := MustParse(Spring(), "0 0 0 29 2 MON")
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	near, err := NewExecutionTimeWithLimits(rare, Limits{MaxYearDrift: 5})
	if err != nil {
		t.Fatalf("NewExecutionTimeWithLimits() failed: %v", err)
	}
	if got := near.NextExecution(from); got != nil {
		t.Errorf("NextExecution() with a 5 year drift = %v, want nil", got)
	}

	def, err := NewExecutionTime(rare)
	if err != nil {
		t.Fatalf("NewExecutionTime() failed: %v", err)
	}
	want := time.Date(2044, 2, 29, 0, 0, 0, 0, time.UTC)
	if got := def.NextExecution(from); got == nil || !got.Equal(want) {
		t.Errorf("NextExecution() with default limits = %v, want %v", got, want)
	}
}

func TestYearFieldJumpIgnoresDrift(t *testing.T) {
	far := mustSchedule(t, Quartz(), "0 0 0 1 1 ? 2099")
	from := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := far.NextExecution(from); got == nil || !got.Equal(want) {
		t.Errorf("NextExecution(%v) = %v, want %v", from, got, want)
	}
	if !far.IsMatch(want) {
		t.Errorf("IsMatch(%v) = false, want true", want)
	}

	tight, err := NewExecutionTimeWithLimits(MustParse(Quartz(), "0 0 0 1 1 ? 2030"), Limits{MaxYearDrift: 5})
	if err != nil {
		t.Fatalf("NewExecutionTimeWithLimits() failed: %v", err)
	}
	ref := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	if got, want := tight.NextExecution(ref), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC); got == nil || !got.Equal(want) {
		t.Errorf("NextExecution(%v) with a 5 year drift = %v, want %v", ref, got, want)
	}
	if got, want := tight.LastExecution(time.Date(2045, 1, 1, 0, 0, 0, 0, time.UTC)), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC); got == nil || !got.Equal(want) {
		t.Errorf("LastExecution() with a 5 year drift = %v, want %v", got, want)
	}
}

func TestNewExecutionTimeNilCron(t *testing.T) {
	if _, err := NewExecutionTime(nil); err == nil {
		t.Error("NewExecutionTime(nil) should fail")
	}
}

func TestTimeToNextAndFromLast(t *testing.T) {
	et := mustSchedule(t, Quartz(), "*/10 * * * * ?")
	ref := time.Date(2024, 6, 1, 12, 0, 3, 0, time.UTC)

	if d, ok := et.TimeToNextExecution(ref); !ok || d != 7*time.Second {
		t.Errorf("TimeToNextExecution() = %v, %v, want 7s", d, ok)
	}
	if d, ok := et.TimeFromLastExecution(ref); !ok || d != 3*time.Second {
		t.Errorf("TimeFromLastExecution() = %v, %v, want 3s", d, ok)
	}
}

package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/cadencehq/ppmtrack/internal/types"
)

func date(y int, m time.Month, d int) types.Date {
	return types.NewDate(y, m, d)
}

func phase(name string, start, end types.Date) PhaseInput {
	return PhaseInput{Name: name, StartDate: start, EndDate: end}
}

func messages(result TimelineResult) string {
	var all []string
	for _, e := range result.Errors {
		all = append(all, e.Message)
	}
	return strings.Join(all, " | ")
}

// TestValidTimeline verifies a gapless, non-overlapping partition passes.
func TestValidTimeline(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 12, 31)

	result := ValidatePhaseTimeline(start, end, []PhaseInput{
		phase("Plan", date(2026, 1, 1), date(2026, 3, 31)),
		phase("Build", date(2026, 4, 1), date(2026, 9, 30)),
		phase("Close", date(2026, 10, 1), date(2026, 12, 31)),
	})

	if !result.IsValid {
		t.Errorf("Expected valid timeline, got errors: %s", messages(result))
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %d", len(result.Errors))
	}
}

// TestSinglePhaseCoveringProject verifies one phase spanning the whole
// project range is valid.
func TestSinglePhaseCoveringProject(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 6, 30)

	result := ValidatePhaseTimeline(start, end, []PhaseInput{
		phase("All", start, end),
	})

	if !result.IsValid {
		t.Errorf("Expected valid timeline, got errors: %s", messages(result))
	}
}

// TestEmptyPhaseList verifies the empty set is rejected with the required
// message.
func TestEmptyPhaseList(t *testing.T) {
	result := ValidatePhaseTimeline(date(2026, 1, 1), date(2026, 12, 31), nil)

	if result.IsValid {
		t.Fatal("Expected invalid timeline for empty phase list")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected exactly 1 error, got %d", len(result.Errors))
	}
	if result.Errors[0].Message != "at least one phase required" {
		t.Errorf("Unexpected message: %q", result.Errors[0].Message)
	}
}

// TestPhaseStartAfterEnd verifies a phase with inverted dates is rejected.
func TestPhaseStartAfterEnd(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 12, 31)

	result := ValidatePhaseTimeline(start, end, []PhaseInput{
		phase("Inverted", date(2026, 6, 1), date(2026, 5, 1)),
	})

	if result.IsValid {
		t.Fatal("Expected invalid timeline for inverted phase dates")
	}
	if !strings.Contains(messages(result), "start date 2026-06-01 is after its end date 2026-05-01") {
		t.Errorf("Expected ordering error, got: %s", messages(result))
	}
}

// TestPhaseOutsideProjectBounds verifies boundary violations on both sides
// are both reported.
func TestPhaseOutsideProjectBounds(t *testing.T) {
	start := date(2026, 2, 1)
	end := date(2026, 11, 30)

	result := ValidatePhaseTimeline(start, end, []PhaseInput{
		phase("Wide", date(2026, 1, 15), date(2026, 12, 15)),
	})

	if result.IsValid {
		t.Fatal("Expected invalid timeline for out-of-bounds phase")
	}
	all := messages(result)
	if !strings.Contains(all, "before the project start date 2026-02-01") {
		t.Errorf("Expected project start violation, got: %s", all)
	}
	if !strings.Contains(all, "after the project end date 2026-11-30") {
		t.Errorf("Expected project end violation, got: %s", all)
	}
}

// TestOverlappingPhases verifies an intersection of two phases is reported
// with its exact range.
func TestOverlappingPhases(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 12, 31)

	result := ValidatePhaseTimeline(start, end, []PhaseInput{
		phase("First", date(2026, 1, 1), date(2026, 6, 30)),
		phase("Second", date(2026, 6, 1), date(2026, 12, 31)),
	})

	if result.IsValid {
		t.Fatal("Expected invalid timeline for overlapping phases")
	}
	if !strings.Contains(messages(result), "overlap from 2026-06-01 to 2026-06-30") {
		t.Errorf("Expected overlap error with range, got: %s", messages(result))
	}
}

// TestAdjacentPhasesDoNotOverlap verifies a phase ending the day before the
// next one starts is not an overlap and leaves no gap.
func TestAdjacentPhasesDoNotOverlap(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 2, 28)

	result := ValidatePhaseTimeline(start, end, []PhaseInput{
		phase("Jan", date(2026, 1, 1), date(2026, 1, 31)),
		phase("Feb", date(2026, 2, 1), date(2026, 2, 28)),
	})

	if !result.IsValid {
		t.Errorf("Expected valid timeline for adjacent phases, got: %s", messages(result))
	}
}

// TestSameDayBoundaryOverlaps verifies a phase starting on the previous
// phase's end date is a one-day overlap.
func TestSameDayBoundaryOverlaps(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 2, 28)

	result := ValidatePhaseTimeline(start, end, []PhaseInput{
		phase("Jan", date(2026, 1, 1), date(2026, 1, 31)),
		phase("Feb", date(2026, 1, 31), date(2026, 2, 28)),
	})

	if result.IsValid {
		t.Fatal("Expected one-day boundary overlap to be invalid")
	}
	if !strings.Contains(messages(result), "overlap from 2026-01-31 to 2026-01-31") {
		t.Errorf("Expected one-day overlap range, got: %s", messages(result))
	}
}

// TestTimelineGap verifies an uncovered range between phases is reported.
func TestTimelineGap(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 12, 31)

	result := ValidatePhaseTimeline(start, end, []PhaseInput{
		phase("First", date(2026, 1, 1), date(2026, 3, 31)),
		phase("Second", date(2026, 5, 1), date(2026, 12, 31)),
	})

	if result.IsValid {
		t.Fatal("Expected invalid timeline with a gap")
	}
	if !strings.Contains(messages(result), "timeline gap from 2026-04-01 to 2026-04-30") {
		t.Errorf("Expected gap error with range, got: %s", messages(result))
	}
}

// TestGapAtProjectEdges verifies gaps before the first phase and after the
// last phase are both found.
func TestGapAtProjectEdges(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 12, 31)

	gaps := FindTimelineGaps(start, end, []PhaseInput{
		phase("Middle", date(2026, 3, 1), date(2026, 10, 31)),
	})

	if len(gaps) != 2 {
		t.Fatalf("Expected 2 gaps, got %d", len(gaps))
	}
	if gaps[0].Start.String() != "2026-01-01" || gaps[0].End.String() != "2026-02-28" {
		t.Errorf("Unexpected leading gap: %s to %s", gaps[0].Start, gaps[0].End)
	}
	if gaps[1].Start.String() != "2026-11-01" || gaps[1].End.String() != "2026-12-31" {
		t.Errorf("Unexpected trailing gap: %s to %s", gaps[1].Start, gaps[1].End)
	}
}

// TestGapsWithNoPhases verifies the whole project range is one gap.
func TestGapsWithNoPhases(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 12, 31)

	gaps := FindTimelineGaps(start, end, nil)
	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}
	if !gaps[0].Start.Equal(start) || !gaps[0].End.Equal(end) {
		t.Errorf("Expected gap over the whole range, got %s to %s", gaps[0].Start, gaps[0].End)
	}
}

// TestMultipleSimultaneousViolations verifies one call reports several
// distinct violations at once.
func TestMultipleSimultaneousViolations(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 12, 31)

	result := ValidatePhaseTimeline(start, end, []PhaseInput{
		phase("A", date(2026, 1, 1), date(2026, 4, 30)),
		phase("B", date(2026, 4, 1), date(2026, 6, 30)),
		phase("C", date(2026, 9, 1), date(2026, 12, 31)),
	})

	if result.IsValid {
		t.Fatal("Expected invalid timeline")
	}
	all := messages(result)
	if !strings.Contains(all, "overlap") {
		t.Errorf("Expected an overlap error, got: %s", all)
	}
	if !strings.Contains(all, "timeline gap from 2026-07-01 to 2026-08-31") {
		t.Errorf("Expected a gap error, got: %s", all)
	}
}

// TestOverlapsUnorderedInput verifies overlap detection does not depend on
// input order.
func TestOverlapsUnorderedInput(t *testing.T) {
	overlaps := FindTimelineOverlaps([]PhaseInput{
		phase("Late", date(2026, 5, 1), date(2026, 8, 31)),
		phase("Early", date(2026, 1, 1), date(2026, 5, 15)),
	})

	if len(overlaps) != 1 {
		t.Fatalf("Expected 1 overlap, got %d", len(overlaps))
	}
	o := overlaps[0]
	if o.FirstName != "Early" || o.SecondName != "Late" {
		t.Errorf("Expected sorted pair Early/Late, got %s/%s", o.FirstName, o.SecondName)
	}
	if o.Start.String() != "2026-05-01" || o.End.String() != "2026-05-15" {
		t.Errorf("Unexpected overlap range: %s to %s", o.Start, o.End)
	}
}

// TestContainedPhaseOverlap verifies a phase fully inside another reports
// the inner range.
func TestContainedPhaseOverlap(t *testing.T) {
	overlaps := FindTimelineOverlaps([]PhaseInput{
		phase("Outer", date(2026, 1, 1), date(2026, 12, 31)),
		phase("Inner", date(2026, 3, 1), date(2026, 3, 31)),
	})

	if len(overlaps) != 1 {
		t.Fatalf("Expected 1 overlap, got %d", len(overlaps))
	}
	if overlaps[0].Start.String() != "2026-03-01" || overlaps[0].End.String() != "2026-03-31" {
		t.Errorf("Unexpected overlap range: %s to %s", overlaps[0].Start, overlaps[0].End)
	}
}

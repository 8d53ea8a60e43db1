// Package validation holds the pure business-rule validators: phase
// timeline continuity and resource allocation caps. Nothing in this
// package touches the database.
package validation

import (
	"fmt"
	"sort"

	"github.com/cadencehq/ppmtrack/internal/types"
)

// PhaseInput is a candidate phase, proposed state rather than a database
// row. ID is nil for phases that do not exist yet.
type PhaseInput struct {
	ID        *uint64
	Name      string
	StartDate types.Date
	EndDate   types.Date
}

// Gap is an inclusive range of days inside the project bounds not covered
// by any phase.
type Gap struct {
	Start types.Date `json:"start"`
	End   types.Date `json:"end"`
}

// Overlap is an inclusive range of days covered by two phases at once.
type Overlap struct {
	FirstID    *uint64    `json:"firstId,omitempty"`
	FirstName  string     `json:"firstName"`
	SecondID   *uint64    `json:"secondId,omitempty"`
	SecondName string     `json:"secondName"`
	Start      types.Date `json:"start"`
	End        types.Date `json:"end"`
}

// TimelineResult reports every violation found; IsValid is true iff
// Errors is empty.
type TimelineResult struct {
	IsValid bool               `json:"isValid"`
	Errors  []types.FieldError `json:"errors"`
}

// ValidatePhaseTimeline checks that the candidate phases form a gapless,
// non-overlapping partition of [projectStart, projectEnd]. Checks run in
// order: non-empty, per-phase date ordering, boundary containment,
// overlaps, gaps. All applicable checks run; a single call can report
// several simultaneous violations.
func ValidatePhaseTimeline(projectStart, projectEnd types.Date, phases []PhaseInput) TimelineResult {
	var errs []types.FieldError

	if len(phases) == 0 {
		errs = append(errs, types.FieldError{
			Field:   "phases",
			Message: "at least one phase required",
		})
		return TimelineResult{IsValid: false, Errors: errs}
	}

	for i := range phases {
		p := &phases[i]
		if p.StartDate.After(p.EndDate) {
			errs = append(errs, types.FieldError{
				Field:   "phases",
				PhaseID: p.ID,
				Message: fmt.Sprintf("phase %q start date %s is after its end date %s", p.Name, p.StartDate, p.EndDate),
			})
		}
		if p.StartDate.Before(projectStart) {
			errs = append(errs, types.FieldError{
				Field:   "phases",
				PhaseID: p.ID,
				Message: fmt.Sprintf("phase %q begins %s, before the project start date %s", p.Name, p.StartDate, projectStart),
			})
		}
		if p.EndDate.After(projectEnd) {
			errs = append(errs, types.FieldError{
				Field:   "phases",
				PhaseID: p.ID,
				Message: fmt.Sprintf("phase %q ends %s, after the project end date %s", p.Name, p.EndDate, projectEnd),
			})
		}
	}

	for _, o := range FindTimelineOverlaps(phases) {
		errs = append(errs, types.FieldError{
			Field:   "phases",
			PhaseID: o.SecondID,
			Message: fmt.Sprintf("phase %q and phase %q overlap from %s to %s", o.FirstName, o.SecondName, o.Start, o.End),
		})
	}

	for _, g := range FindTimelineGaps(projectStart, projectEnd, phases) {
		errs = append(errs, types.FieldError{
			Field:   "phases",
			Message: fmt.Sprintf("timeline gap from %s to %s is not covered by any phase", g.Start, g.End),
		})
	}

	return TimelineResult{IsValid: len(errs) == 0, Errors: errs}
}

// FindTimelineGaps returns the day ranges inside [projectStart, projectEnd]
// that no phase covers. Phases with inverted dates contribute no coverage
// beyond their start day ordering and are handled by the ordering check.
func FindTimelineGaps(projectStart, projectEnd types.Date, phases []PhaseInput) []Gap {
	if len(phases) == 0 {
		return []Gap{{Start: projectStart, End: projectEnd}}
	}

	sorted := sortedByStart(phases)

	var gaps []Gap
	cursor := projectStart
	for i := range sorted {
		p := &sorted[i]
		if p.StartDate.After(cursor) {
			gaps = append(gaps, Gap{Start: cursor, End: p.StartDate.AddDays(-1)})
		}
		next := p.EndDate.AddDays(1)
		if next.After(cursor) {
			cursor = next
		}
	}
	if !cursor.After(projectEnd) {
		gaps = append(gaps, Gap{Start: cursor, End: projectEnd})
	}

	return gaps
}

// FindTimelineOverlaps returns every pairwise intersection between phases.
func FindTimelineOverlaps(phases []PhaseInput) []Overlap {
	sorted := sortedByStart(phases)

	var overlaps []Overlap
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := &sorted[i], &sorted[j]
			// Sorted by start, so b starts at or after a. They intersect
			// when b starts on or before a's end.
			if b.StartDate.After(a.EndDate) {
				break
			}
			end := a.EndDate
			if b.EndDate.Before(end) {
				end = b.EndDate
			}
			overlaps = append(overlaps, Overlap{
				FirstID:    a.ID,
				FirstName:  a.Name,
				SecondID:   b.ID,
				SecondName: b.Name,
				Start:      b.StartDate,
				End:        end,
			})
		}
	}

	return overlaps
}

func sortedByStart(phases []PhaseInput) []PhaseInput {
	sorted := make([]PhaseInput, len(phases))
	copy(sorted, phases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})
	return sorted
}

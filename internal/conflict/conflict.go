// Package conflict evaluates a proposed reservation against a shop's current
// floor snapshot. Detect is pure: the same inputs always give the same result,
// so it can run speculatively for UI warnings and again inside the write
// transaction that enforces it.
package conflict

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/database"
)

// Type identifies the kind of conflict.
type Type string

const (
	TypeTimeOverlap      Type = "time_overlap"
	TypeCapacityIssue    Type = "capacity_issue"
	TypeTableUnavailable Type = "table_unavailable"
	TypePeakHours        Type = "peak_hours"
)

// Severity decides whether a conflict blocks the action.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

const (
	OverlapWindow    = 90 * time.Minute
	HighOverlapLimit = 60 * time.Minute

	peakMediumRatio = 0.8
	peakHighRatio   = 1.0
)

// peakHours are inclusive local-hour ranges.
var peakHours = [][2]int{{12, 14}, {18, 21}}

// Conflict is one detected problem with a proposal.
type Conflict struct {
	Type          Type       `json:"type"`
	Severity      Severity   `json:"severity"`
	Message       string     `json:"message"`
	TableID       *uuid.UUID `json:"table_id,omitempty"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
}

// Proposal describes the reservation being created or edited.
type Proposal struct {
	Time      time.Time
	PartySize int32
	// TableID is uuid.Nil when no table was selected.
	TableID uuid.UUID
	// ExcludeReservationID is the reservation being edited or seated, if any.
	ExcludeReservationID uuid.UUID
}

// Snapshot is the state of one shop the proposal is checked against.
type Snapshot struct {
	Reservations []database.Reservation
	Tables       []database.DiningTable
	// Location is the shop's timezone for hour-of-day rules. Nil means UTC.
	Location *time.Location
}

// Result holds the conflicts found for a proposal, most severe first.
type Result struct {
	Conflicts []Conflict
}

func (r Result) HasConflicts() bool { return len(r.Conflicts) > 0 }

func (r Result) HasHighSeverityConflicts() bool {
	for _, c := range r.Conflicts {
		if c.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// CanProceed reports whether the proposal may be written. Callers must reject
// creation when it is false.
func (r Result) CanProceed() bool { return !r.HasHighSeverityConflicts() }

// TableScoped keeps only conflicts tied to a specific table.
func (r Result) TableScoped() Result {
	var out []Conflict
	for _, c := range r.Conflicts {
		if c.TableID != nil {
			out = append(out, c)
		}
	}
	return Result{Conflicts: out}
}

func (r Result) MarshalJSON() ([]byte, error) {
	conflicts := r.Conflicts
	if conflicts == nil {
		conflicts = []Conflict{}
	}
	return json.Marshal(struct {
		HasConflicts             bool       `json:"has_conflicts"`
		HasHighSeverityConflicts bool       `json:"has_high_severity_conflicts"`
		CanProceed               bool       `json:"can_proceed"`
		Conflicts                []Conflict `json:"conflicts"`
	}{r.HasConflicts(), r.HasHighSeverityConflicts(), r.CanProceed(), conflicts})
}

// Detect evaluates p against snap.
func Detect(p Proposal, snap Snapshot) Result {
	loc := snap.Location
	if loc == nil {
		loc = time.UTC
	}

	var out []Conflict

	if p.TableID != uuid.Nil {
		out = append(out, selectedTableConflicts(p, snap)...)
		out = append(out, overlapConflicts(p, snap)...)
	}
	if c, ok := peakHoursConflict(p, snap, loc); ok {
		out = append(out, c)
	}
	if c, ok := noTableAvailable(p, snap); ok {
		out = append(out, c)
	}

	slices.SortStableFunc(out, compareConflicts)
	return Result{Conflicts: out}
}

func selectedTableConflicts(p Proposal, snap Snapshot) []Conflict {
	tableID := p.TableID
	table, ok := findTable(snap.Tables, tableID)
	if !ok {
		return []Conflict{{
			Type:     TypeTableUnavailable,
			Severity: SeverityHigh,
			Message:  "selected table not found",
			TableID:  &tableID,
		}}
	}

	var out []Conflict
	if table.Capacity < p.PartySize {
		out = append(out, Conflict{
			Type:     TypeCapacityIssue,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("table %d seats %d, party size is %d", table.Number, table.Capacity, p.PartySize),
			TableID:  &tableID,
		})
	}
	switch table.Status {
	case database.TableStatusAvailable, database.TableStatusReserved:
	case database.TableStatusOccupied:
		out = append(out, Conflict{
			Type:     TypeTableUnavailable,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("table %d is occupied", table.Number),
			TableID:  &tableID,
		})
	default:
		out = append(out, Conflict{
			Type:     TypeTableUnavailable,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("table %d is %s", table.Number, table.Status),
			TableID:  &tableID,
		})
	}
	return out
}

func overlapConflicts(p Proposal, snap Snapshot) []Conflict {
	var out []Conflict
	for _, r := range snap.Reservations {
		if !isActive(r) || r.ID == p.ExcludeReservationID {
			continue
		}
		if !r.TableID.Valid || uuid.UUID(r.TableID.Bytes) != p.TableID {
			continue
		}
		gap := r.ReservationTime.Sub(p.Time).Abs()
		if gap >= OverlapWindow {
			continue
		}
		severity := SeverityMedium
		if gap < HighOverlapLimit {
			severity = SeverityHigh
		}
		tableID, resID := p.TableID, r.ID
		out = append(out, Conflict{
			Type:     TypeTimeOverlap,
			Severity: severity,
			Message: fmt.Sprintf("table already reserved for %s (%d minutes apart)",
				r.CustomerName, int(gap.Minutes())),
			TableID:       &tableID,
			ReservationID: &resID,
		})
	}
	return out
}

func peakHoursConflict(p Proposal, snap Snapshot, loc *time.Location) (Conflict, bool) {
	local := p.Time.In(loc)
	if !isPeakHour(local.Hour()) {
		return Conflict{}, false
	}

	var seats int64
	for _, t := range snap.Tables {
		seats += int64(t.Capacity)
	}
	if seats == 0 {
		return Conflict{}, false
	}

	demand := int64(p.PartySize)
	for _, r := range snap.Reservations {
		if !isActive(r) || r.ID == p.ExcludeReservationID {
			continue
		}
		rl := r.ReservationTime.In(loc)
		if sameLocalHour(rl, local) {
			demand += int64(r.PartySize)
		}
	}

	ratio := float64(demand) / float64(seats)
	var severity Severity
	switch {
	case ratio > peakHighRatio:
		severity = SeverityHigh
	case ratio > peakMediumRatio:
		severity = SeverityMedium
	default:
		return Conflict{}, false
	}
	return Conflict{
		Type:     TypePeakHours,
		Severity: severity,
		Message: fmt.Sprintf("peak hour %02d:00 demand %d of %d seats (%.0f%%)",
			local.Hour(), demand, seats, ratio*100),
	}, true
}

func noTableAvailable(p Proposal, snap Snapshot) (Conflict, bool) {
	for _, t := range snap.Tables {
		if t.Status == database.TableStatusAvailable && t.Capacity >= p.PartySize {
			return Conflict{}, false
		}
	}
	return Conflict{
		Type:     TypeTableUnavailable,
		Severity: SeverityMedium,
		Message:  fmt.Sprintf("no available table seats a party of %d", p.PartySize),
	}, true
}

func isActive(r database.Reservation) bool {
	return r.Status == database.ReservationStatusConfirmed || r.Status == database.ReservationStatusSeated
}

func isPeakHour(h int) bool {
	for _, rng := range peakHours {
		if h >= rng[0] && h <= rng[1] {
			return true
		}
	}
	return false
}

func sameLocalHour(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd && a.Hour() == b.Hour()
}

func findTable(tables []database.DiningTable, id uuid.UUID) (database.DiningTable, bool) {
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return database.DiningTable{}, false
}

func compareConflicts(a, b Conflict) int {
	if d := b.Severity.rank() - a.Severity.rank(); d != 0 {
		return d
	}
	if c := strings.Compare(string(a.Type), string(b.Type)); c != 0 {
		return c
	}
	if c := strings.Compare(idString(a.TableID), idString(b.TableID)); c != 0 {
		return c
	}
	return strings.Compare(idString(a.ReservationID), idString(b.ReservationID))
}

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

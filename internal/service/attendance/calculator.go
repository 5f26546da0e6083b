package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
)

// TimeOnSite is the reduction of one employee/site/day event sequence.
type TimeOnSite struct {
	TotalMinutes   float64
	ClosedSessions int
	// OrphanEnters counts enters superseded by a later enter before any exit
	OrphanEnters int
	// OpenSession is true when the sequence ends with an unmatched enter
	OpenSession bool
	FirstEntry  *time.Time
	LastExit    *time.Time
	EntryCount  int
	ExitCount   int
}

// CalculateTimeOnSite pairs each enter with the next exit and sums closed sessions.
// Callers pass events for exactly one employee, site and day with noise already removed.
// An enter followed by another enter contributes nothing; exits with no open enter are ignored.
func CalculateTimeOnSite(events []siteattendance.AttendanceEvent) TimeOnSite {
	ordered := make([]siteattendance.AttendanceEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var (
		result   TimeOnSite
		openedAt *time.Time
		total    time.Duration
	)

	for _, ev := range ordered {
		ts := ev.Timestamp
		switch ev.EventType {
		case siteattendance.EventTypeEnter:
			result.EntryCount++
			if result.FirstEntry == nil {
				result.FirstEntry = &ts
			}
			if openedAt != nil {
				result.OrphanEnters++
			}
			openedAt = &ts

		case siteattendance.EventTypeExit:
			result.ExitCount++
			result.LastExit = &ts
			if openedAt == nil {
				continue
			}
			total += ts.Sub(*openedAt)
			result.ClosedSessions++
			openedAt = nil
		}
	}

	result.OpenSession = openedAt != nil
	result.TotalMinutes = total.Minutes()
	return result
}

// Package scoring derives the integrity score and aggregate counts from an
// interview's event log. Everything here is a pure function of its input.
package scoring

import "github.com/avinasha18/interview-proctor/internal/models"

const (
	BaseScore         = 100
	FocusLostPenalty  = 3
	SuspiciousPenalty = 5
)

// Stats is the derived view of an event log.
type Stats struct {
	TotalEvents           int                      `json:"totalEvents"`
	FocusLostCount        int                      `json:"focusLostCount"`
	SuspiciousEventsCount int                      `json:"suspiciousEventsCount"`
	IntegrityScore        int                      `json:"integrityScore"`
	EventTypes            map[models.EventType]int `json:"eventTypes"`
	SeverityCounts        map[models.Severity]int  `json:"severityCounts"`
}

// Score returns 100 minus 3 per focus_lost and 5 per suspicious_object,
// multiple_faces or face_missing event, floored at 0.
func Score(events []models.Event) int {
	focus, suspicious := 0, 0
	for _, e := range events {
		switch {
		case e.EventType == models.EventFocusLost:
			focus++
		case e.EventType.Suspicious():
			suspicious++
		}
	}
	return scoreFromCounts(focus, suspicious)
}

func scoreFromCounts(focus, suspicious int) int {
	score := BaseScore - FocusLostPenalty*focus - SuspiciousPenalty*suspicious
	if score < 0 {
		return 0
	}
	return score
}

// Tally computes every derived statistic in one pass.
func Tally(events []models.Event) Stats {
	s := Stats{
		TotalEvents: len(events),
		EventTypes:  make(map[models.EventType]int),
		SeverityCounts: map[models.Severity]int{
			models.SeverityLow:    0,
			models.SeverityMedium: 0,
			models.SeverityHigh:   0,
		},
	}
	for _, e := range events {
		s.EventTypes[e.EventType]++
		if e.Severity.Valid() {
			s.SeverityCounts[e.Severity]++
		}
		switch {
		case e.EventType == models.EventFocusLost:
			s.FocusLostCount++
		case e.EventType.Suspicious():
			s.SuspiciousEventsCount++
		}
	}
	s.IntegrityScore = scoreFromCounts(s.FocusLostCount, s.SuspiciousEventsCount)
	return s
}

// Breakdown itemises the deductions behind a score.
type Breakdown struct {
	Base                int `json:"base"`
	FocusLossDeduction  int `json:"focusLossDeduction"`
	SuspiciousDeduction int `json:"suspiciousDeduction"`
	Final               int `json:"final"`
}

func (s Stats) Breakdown() Breakdown {
	return Breakdown{
		Base:                BaseScore,
		FocusLossDeduction:  FocusLostPenalty * s.FocusLostCount,
		SuspiciousDeduction: SuspiciousPenalty * s.SuspiciousEventsCount,
		Final:               s.IntegrityScore,
	}
}

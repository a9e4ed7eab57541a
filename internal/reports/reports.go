// Package reports renders an interview and its event log as a JSON summary,
// a CSV export and a plain-text report. Scores are read from the persisted
// record; only the per-type breakdowns are derived here.
package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/scoring"
)

type InterviewHeader struct {
	ID              string                 `json:"id"`
	SessionID       string                 `json:"sessionId"`
	CandidateName   string                 `json:"candidateName"`
	InterviewerName string                 `json:"interviewerName"`
	StartTime       time.Time              `json:"startTime"`
	EndTime         *time.Time             `json:"endTime"`
	Duration        int                    `json:"duration"`
	Status          models.InterviewStatus `json:"status"`
}

type Statistics struct {
	TotalEvents           int                      `json:"totalEvents"`
	IntegrityScore        int                      `json:"integrityScore"`
	FocusLostCount        int                      `json:"focusLostCount"`
	SuspiciousEventsCount int                      `json:"suspiciousEventsCount"`
	EventTypes            map[models.EventType]int `json:"eventTypes"`
	SeverityCounts        map[models.Severity]int  `json:"severityCounts"`
	Breakdown             scoring.Breakdown        `json:"breakdown"`
}

type EventLine struct {
	Timestamp time.Time        `json:"timestamp"`
	EventType models.EventType `json:"eventType"`
	Message   string           `json:"message"`
	Severity  models.Severity  `json:"severity"`
}

type Summary struct {
	Interview  InterviewHeader `json:"interview"`
	Statistics Statistics      `json:"statistics"`
	Events     []EventLine     `json:"events"`
}

// BuildSummary expects events oldest first.
func BuildSummary(iv *models.Interview, events []models.Event) Summary {
	tally := scoring.Tally(events)
	// the record is authoritative for the score and its counts
	tally.FocusLostCount = iv.FocusLostCount
	tally.SuspiciousEventsCount = iv.SuspiciousEventsCount
	tally.IntegrityScore = iv.IntegrityScore

	lines := make([]EventLine, 0, len(events))
	for _, e := range events {
		lines = append(lines, EventLine{Timestamp: e.Timestamp, EventType: e.EventType, Message: e.Message, Severity: e.Severity})
	}
	return Summary{
		Interview: InterviewHeader{
			ID:              iv.ID,
			SessionID:       iv.SessionID,
			CandidateName:   iv.CandidateName,
			InterviewerName: iv.InterviewerName,
			StartTime:       iv.StartTime,
			EndTime:         iv.EndTime,
			Duration:        iv.Duration,
			Status:          iv.Status,
		},
		Statistics: Statistics{
			TotalEvents:           len(events),
			IntegrityScore:        iv.IntegrityScore,
			FocusLostCount:        iv.FocusLostCount,
			SuspiciousEventsCount: iv.SuspiciousEventsCount,
			EventTypes:            tally.EventTypes,
			SeverityCounts:        tally.SeverityCounts,
			Breakdown:             tally.Breakdown(),
		},
		Events: lines,
	}
}

// Filename is the download name for a report of the given extension.
func Filename(iv *models.Interview, ext string) string {
	return fmt.Sprintf("proctoring-report-%s.%s", iv.SessionID, ext)
}

// WriteCSV writes Timestamp, Event Type, Message, Severity rows.
func WriteCSV(w io.Writer, events []models.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Timestamp", "Event Type", "Message", "Severity"}); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			typeLabel(e.EventType),
			e.Message,
			strings.ToUpper(string(e.Severity)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ObjectCounts tallies metadata.object of suspicious_object events.
func ObjectCounts(events []models.Event) map[string]int {
	counts := map[string]int{}
	for _, e := range events {
		if e.EventType != models.EventSuspiciousObject {
			continue
		}
		if obj, ok := e.Metadata["object"].(string); ok && obj != "" {
			counts[obj]++
		}
	}
	return counts
}

// AverageFocusLoss is the mean metadata.duration (seconds) over focus_lost
// events, rounded; events without a duration count as zero.
func AverageFocusLoss(events []models.Event) (int, bool) {
	var sum float64
	n := 0
	for _, e := range events {
		if e.EventType != models.EventFocusLost {
			continue
		}
		n++
		sum += number(e.Metadata["duration"])
	}
	if n == 0 {
		return 0, false
	}
	return int(math.Round(sum / float64(n))), true
}

func number(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, _ := x.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}

// WriteText renders the human-readable report.
func WriteText(w io.Writer, iv *models.Interview, events []models.Event) error {
	s := BuildSummary(iv, events)
	p := &printer{w: w}

	p.line("PROCTORING REPORT")
	p.line("")
	p.line("Interview Details")
	p.line("  Candidate Name:   %s", iv.CandidateName)
	p.line("  Interviewer Name: %s", iv.InterviewerName)
	p.line("  Session ID:       %s", iv.SessionID)
	p.line("  Start Time:       %s", iv.StartTime.UTC().Format(time.RFC1123))
	if iv.EndTime != nil {
		p.line("  End Time:         %s", iv.EndTime.UTC().Format(time.RFC1123))
		p.line("  Duration:         %d minutes", iv.Duration)
	} else {
		p.line("  End Time:         Ongoing")
		p.line("  Duration:         Ongoing")
	}
	p.line("  Status:           %s", iv.Status)
	p.line("  Total Events:     %d", s.Statistics.TotalEvents)
	p.line("  Integrity Score:  %d/100", iv.IntegrityScore)
	p.line("")

	p.line("Events Summary")
	p.line("  Focus Lost: %d occurrences", s.Statistics.FocusLostCount)
	p.line("  Suspicious Events: %d occurrences", s.Statistics.SuspiciousEventsCount)
	p.line("")

	objects := ObjectCounts(events)
	p.line("Object Detection Analysis")
	if len(objects) == 0 {
		p.line("  No suspicious objects detected")
	} else {
		names := make([]string, 0, len(objects))
		total := 0
		for name, n := range objects {
			names = append(names, name)
			total += n
		}
		sort.Slice(names, func(i, j int) bool {
			if objects[names[i]] != objects[names[j]] {
				return objects[names[i]] > objects[names[j]]
			}
			return names[i] < names[j]
		})
		p.line("  Total suspicious objects detected: %d", total)
		p.line("  Most frequently detected: %s", names[0])
		if p.err == nil {
			table := tablewriter.NewWriter(w)
			table.SetHeader([]string{"Object", "Detections"})
			for _, name := range names {
				table.Append([]string{strings.ToUpper(strings.ReplaceAll(name, "_", " ")), strconv.Itoa(objects[name])})
			}
			table.Render()
		}
	}
	p.line("")

	p.line("Focus Analysis")
	p.line("  Times candidate looked away: %d", s.Statistics.EventTypes[models.EventFocusLost])
	if avg, ok := AverageFocusLoss(events); ok {
		p.line("  Average focus loss duration: %d seconds", avg)
	}
	p.line("")

	b := s.Statistics.Breakdown
	p.line("Integrity Score Breakdown")
	p.line("  Base Score: %d", b.Base)
	p.line("  Focus Loss Deductions: -%d points", b.FocusLossDeduction)
	p.line("  Suspicious Event Deductions: -%d points", b.SuspiciousDeduction)
	p.line("  Final Score: %d/100", b.Final)
	p.line("")

	p.line("Detailed Events Log")
	if p.err != nil {
		return p.err
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Timestamp", "Type", "Severity", "Message", "Details"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, e := range events {
		details := ""
		if len(e.Metadata) > 0 {
			raw, _ := json.Marshal(e.Metadata)
			details = string(raw)
		}
		table.Append([]string{
			e.Timestamp.UTC().Format(time.RFC3339),
			typeLabel(e.EventType),
			strings.ToUpper(string(e.Severity)),
			e.Message,
			details,
		})
	}
	table.Render()
	return nil
}

func typeLabel(t models.EventType) string {
	return strings.ToUpper(strings.ReplaceAll(string(t), "_", " "))
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

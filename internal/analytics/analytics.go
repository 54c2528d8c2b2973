// Package analytics turns raw chat-session rows into dashboard metrics and
// conversation list entries. Everything here is pure; callers load the rows.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/notsoai/dashboard/internal/models"
)

// Sentiment buckets.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
	SentimentUnknown  = "unknown"
)

const (
	DefaultRangeDays = 30
	PreviewRunes     = 120
	dayLayout        = "2006-01-02"
)

var ErrInvalidRange = errors.New("analytics: from is after to")

// Range is an inclusive time window in UTC.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// ParseRange reads from/to as RFC3339 timestamps or YYYY-MM-DD dates. A date
// for "to" covers the whole day. Missing bounds default to the last 30 days
// ending at now.
func ParseRange(from, to string, now time.Time) (Range, error) {
	now = now.UTC()
	r := Range{To: now, From: now.AddDate(0, 0, -DefaultRangeDays)}

	if s := strings.TrimSpace(to); s != "" {
		t, dateOnly, err := parseBound(s)
		if err != nil {
			return Range{}, fmt.Errorf("parse to: %w", err)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		r.To = t
		r.From = t.AddDate(0, 0, -DefaultRangeDays)
	}
	if s := strings.TrimSpace(from); s != "" {
		t, _, err := parseBound(s)
		if err != nil {
			return Range{}, fmt.Errorf("parse from: %w", err)
		}
		r.From = t
	}
	if r.From.After(r.To) {
		return Range{}, ErrInvalidRange
	}
	return r, nil
}

func parseBound(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	if t, err = time.Parse(dayLayout, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid time %q", s)
}

type Totals struct {
	Sessions          int `json:"sessions"`
	Messages          int `json:"messages"`
	UserMessages      int `json:"user_messages"`
	AssistantMessages int `json:"assistant_messages"`
}

type DayCount struct {
	Date     string `json:"date"`
	Sessions int    `json:"sessions"`
}

type AssistantCount struct {
	AssistantID string `json:"assistant_id"`
	Sessions    int    `json:"sessions"`
}

type Summary struct {
	Range                 Range            `json:"range"`
	Totals                Totals           `json:"totals"`
	AvgMessagesPerSession float64          `json:"avg_messages_per_session"`
	AvgDurationSeconds    float64          `json:"avg_duration_seconds"`
	Sentiment             map[string]int   `json:"sentiment"`
	AnalysedSessions      int              `json:"analysed_sessions"`
	ResolutionRate        float64          `json:"resolution_rate"`
	PerDay                []DayCount       `json:"per_day"`
	PerAssistant          []AssistantCount `json:"per_assistant"`
}

// Summarize aggregates the sessions that started inside r. Sessions outside r
// are ignored, so callers may pass a superset.
func Summarize(sessions []models.ChatSession, r Range) Summary {
	sum := Summary{
		Range: r,
		Sentiment: map[string]int{
			SentimentPositive: 0,
			SentimentNeutral:  0,
			SentimentNegative: 0,
			SentimentUnknown:  0,
		},
		PerDay:       []DayCount{},
		PerAssistant: []AssistantCount{},
	}

	perDay := map[string]int{}
	perAssistant := map[string]int{}
	var (
		durationTotal float64
		durationN     int
		resolved      int
	)

	for i := range sessions {
		cs := &sessions[i]
		if !r.Contains(cs.StartedAt) {
			continue
		}
		sum.Totals.Sessions++
		for _, e := range cs.Transcript {
			sum.Totals.Messages++
			switch e.Author {
			case models.AuthorUser:
				sum.Totals.UserMessages++
			case models.AuthorAssistant:
				sum.Totals.AssistantMessages++
			}
		}
		if cs.EndedAt != nil && !cs.EndedAt.Before(cs.StartedAt) {
			durationTotal += cs.EndedAt.Sub(cs.StartedAt).Seconds()
			durationN++
		}

		sum.Sentiment[SentimentOf(*cs)]++
		if v, ok := resolvedOf(*cs); ok {
			sum.AnalysedSessions++
			if v {
				resolved++
			}
		}

		perDay[cs.StartedAt.UTC().Format(dayLayout)]++
		perAssistant[cs.AssistantID]++
	}

	if sum.Totals.Sessions > 0 {
		sum.AvgMessagesPerSession = float64(sum.Totals.Messages) / float64(sum.Totals.Sessions)
	}
	if durationN > 0 {
		sum.AvgDurationSeconds = durationTotal / float64(durationN)
	}
	if sum.AnalysedSessions > 0 {
		sum.ResolutionRate = float64(resolved) / float64(sum.AnalysedSessions)
	}

	for d, n := range perDay {
		sum.PerDay = append(sum.PerDay, DayCount{Date: d, Sessions: n})
	}
	sort.Slice(sum.PerDay, func(i, j int) bool { return sum.PerDay[i].Date < sum.PerDay[j].Date })

	for id, n := range perAssistant {
		sum.PerAssistant = append(sum.PerAssistant, AssistantCount{AssistantID: id, Sessions: n})
	}
	sort.Slice(sum.PerAssistant, func(i, j int) bool {
		a, b := sum.PerAssistant[i], sum.PerAssistant[j]
		if a.Sessions != b.Sessions {
			return a.Sessions > b.Sessions
		}
		return a.AssistantID < b.AssistantID
	})
	return sum
}

// SentimentOf normalizes the analysed sentiment into one of the four buckets.
func SentimentOf(cs models.ChatSession) string {
	v, _ := cs.Analysis[models.AnalysisSentiment].(string)
	switch s := strings.ToLower(strings.TrimSpace(v)); s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return s
	}
	return SentimentUnknown
}

func resolvedOf(cs models.ChatSession) (bool, bool) {
	switch v := cs.Analysis[models.AnalysisResolved].(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return false, false
}

// ToConversations maps sessions to list entries, preserving order. The
// preview is the first user message, trimmed to PreviewRunes.
func ToConversations(sessions []models.ChatSession) []models.Conversation {
	out := make([]models.Conversation, 0, len(sessions))
	for _, cs := range sessions {
		c := models.Conversation{
			ID:           cs.ID,
			AssistantID:  cs.AssistantID,
			StartedAt:    cs.StartedAt,
			MessageCount: len(cs.Transcript),
			Preview:      preview(cs.Transcript),
		}
		if s := SentimentOf(cs); s != SentimentUnknown {
			c.Sentiment = s
		}
		out = append(out, c)
	}
	return out
}

func preview(transcript []models.TranscriptEntry) string {
	for _, e := range transcript {
		if e.Author != models.AuthorUser {
			continue
		}
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if r := []rune(msg); len(r) > PreviewRunes {
			return string(r[:PreviewRunes])
		}
		return msg
	}
	return ""
}

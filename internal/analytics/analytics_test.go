package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/notsoai/dashboard/internal/models"
)

var now = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

func ts(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func chat(id, assistant string, started time.Time, dur time.Duration, analysis datatypes.JSONMap, msgs ...string) models.ChatSession {
	cs := models.ChatSession{ID: id, AssistantID: assistant, StartedAt: started, Analysis: analysis}
	if dur > 0 {
		end := started.Add(dur)
		cs.EndedAt = &end
	}
	for i, m := range msgs {
		author := models.AuthorUser
		if i%2 == 1 {
			author = models.AuthorAssistant
		}
		cs.Transcript = append(cs.Transcript, models.TranscriptEntry{Author: author, Message: m})
	}
	return cs
}

func TestParseRange_Defaults(t *testing.T) {
	r, err := ParseRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, now, r.To)
	assert.Equal(t, now.AddDate(0, 0, -30), r.From)
}

func TestParseRange_Formats(t *testing.T) {
	r, err := ParseRange("2026-03-01", "2026-03-10", now)
	require.NoError(t, err)
	assert.Equal(t, ts(1, 0), r.From)
	assert.True(t, r.Contains(time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(ts(11, 0)))

	r, err = ParseRange("2026-03-01T10:00:00+02:00", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), r.From)
	assert.Equal(t, now, r.To)

	r, err = ParseRange("", "2026-02-28", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 29, 23, 59, 59, 999999999, time.UTC), r.From)
}

func TestParseRange_Errors(t *testing.T) {
	_, err := ParseRange("2026-03-10", "2026-03-01", now)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = ParseRange("yesterday", "", now)
	require.Error(t, err)
	_, err = ParseRange("", "03/10/2026", now)
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	sessions := []models.ChatSession{
		chat("1", "as_a", ts(2, 9), 2*time.Minute,
			datatypes.JSONMap{"sentiment": "positive", "resolved": true},
			"hi", "hello", "bye"),
		chat("2", "as_a", ts(2, 15), 0,
			datatypes.JSONMap{"sentiment": "Negative", "resolved": false},
			"broken", "sorry"),
		chat("3", "as_b", ts(5, 8), 4*time.Minute,
			datatypes.JSONMap{"sentiment": "confused", "resolved": "yes"},
			"q"),
		chat("4", "as_b", ts(6, 8), time.Minute, nil, "x", "y", "z", "w"),
		// outside the range
		chat("5", "as_a", ts(20, 8), time.Minute, datatypes.JSONMap{"sentiment": "positive"}, "late"),
	}
	r := Range{From: ts(1, 0), To: ts(10, 0)}

	sum := Summarize(sessions, r)

	assert.Equal(t, Totals{Sessions: 4, Messages: 10, UserMessages: 6, AssistantMessages: 4}, sum.Totals)
	assert.InDelta(t, 2.5, sum.AvgMessagesPerSession, 1e-9)
	assert.InDelta(t, 140.0, sum.AvgDurationSeconds, 1e-9)
	assert.Equal(t, map[string]int{"positive": 1, "neutral": 0, "negative": 1, "unknown": 2}, sum.Sentiment)
	assert.Equal(t, 3, sum.AnalysedSessions)
	assert.InDelta(t, 2.0/3.0, sum.ResolutionRate, 1e-9)
	assert.Equal(t, []DayCount{
		{Date: "2026-03-02", Sessions: 2},
		{Date: "2026-03-05", Sessions: 1},
		{Date: "2026-03-06", Sessions: 1},
	}, sum.PerDay)
	assert.Equal(t, []AssistantCount{
		{AssistantID: "as_a", Sessions: 2},
		{AssistantID: "as_b", Sessions: 2},
	}, sum.PerAssistant)
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil, Range{From: ts(1, 0), To: ts(2, 0)})
	assert.Zero(t, sum.Totals)
	assert.Zero(t, sum.AvgMessagesPerSession)
	assert.Zero(t, sum.ResolutionRate)
	assert.NotNil(t, sum.PerDay)
	assert.Len(t, sum.Sentiment, 4)
}

func TestToConversations(t *testing.T) {
	long := strings.Repeat("é", PreviewRunes+10)
	sessions := []models.ChatSession{
		chat("1", "as_a", ts(2, 9), 0, datatypes.JSONMap{"sentiment": "neutral"}, "  where is my order?  ", "shipped"),
		chat("2", "as_b", ts(3, 9), 0, nil, long),
		{ID: "3", Transcript: datatypes.JSONSlice[models.TranscriptEntry]{
			{Author: models.AuthorAssistant, Message: "Welcome!"},
			{Author: models.AuthorUser, Message: " "},
			{Author: models.AuthorUser, Message: "second"},
		}},
		{ID: "4"},
	}

	got := ToConversations(sessions)
	require.Len(t, got, 4)

	assert.Equal(t, "where is my order?", got[0].Preview)
	assert.Equal(t, 2, got[0].MessageCount)
	assert.Equal(t, "neutral", got[0].Sentiment)
	assert.Equal(t, "as_a", got[0].AssistantID)

	assert.Equal(t, PreviewRunes, len([]rune(got[1].Preview)))
	assert.Empty(t, got[1].Sentiment)

	assert.Equal(t, "second", got[2].Preview)
	assert.Equal(t, "", got[3].Preview)
	assert.Equal(t, 0, got[3].MessageCount)

	assert.Empty(t, ToConversations(nil))
}

package analysis

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/notsoai/dashboard/internal/ai"
	"github.com/notsoai/dashboard/internal/db"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/models"
	"github.com/notsoai/dashboard/internal/store"
)

type fakePublisher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (p *fakePublisher) PublishJob(_ context.Context, jobID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, jobID)
	return nil
}

type fakeProvider struct {
	reply string
	err   error
	got   []ai.Message
}

func (p *fakeProvider) Chat(_ context.Context, messages []ai.Message) (string, error) {
	p.got = messages
	return p.reply, p.err
}

func registryWith(p ai.Provider) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("fake", func(context.Context, string) (ai.Provider, error) { return p, nil })
	return reg
}

func seedChat(t *testing.T, st store.Store) models.ChatSession {
	t.Helper()
	cs := models.ChatSession{
		ID:          "01HZZZZZZZZZZZZZZZZZZZZZZ1",
		ClientID:    "c_123",
		AssistantID: "as_1",
		StartedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Transcript: datatypes.JSONSlice[models.TranscriptEntry]{
			{Author: models.AuthorUser, Message: "Where is my order?"},
			{Author: models.AuthorAssistant, Message: "It ships tomorrow."},
		},
	}
	require.NoError(t, st.CreateChatSession(context.Background(), &cs))
	return cs
}

func TestEnqueue_PublishesJob(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	pub := &fakePublisher{}
	svc := NewService(st, pub, nil, "", "")

	job, err := svc.Enqueue(ctx, "c_123", "cs_1")
	require.NoError(t, err)
	assert.Len(t, job.ID, 26)
	assert.Equal(t, models.JobQueued, job.Status)
	assert.Equal(t, []string{job.ID}, pub.ids)

	stored, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", stored.ChatSessionID)
}

func TestEnqueue_PublishFailureMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	svc := NewService(st, &fakePublisher{err: errors.New("channel closed")}, nil, "", "")

	_, err := svc.Enqueue(ctx, "c_123", "cs_1")
	require.ErrorContains(t, err, "channel closed")
}

func TestEnqueue_WithoutPublisher(t *testing.T) {
	svc := NewService(store.NewMock(), nil, nil, "", "")
	job, err := svc.Enqueue(context.Background(), "c_123", "cs_1")
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, job.Status)
}

func TestProcess_StoresAnalysis(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	cs := seedChat(t, st)
	reply := "Sure!\n```json\n{\"summary\":\"Order status question\",\"sentiment\":\"Positive\",\"resolved\":true}\n```"
	prov := &fakeProvider{reply: reply}
	svc := NewService(st, &fakePublisher{}, registryWith(prov), "fake", "")

	job, err := svc.Enqueue(ctx, cs.ClientID, cs.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, job.ID))

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobSucceeded, got.Status)

	updated, err := st.GetChatSession(ctx, cs.ClientID, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order status question", updated.Analysis[models.AnalysisSummary])
	assert.Equal(t, "positive", updated.Analysis[models.AnalysisSentiment])
	assert.Equal(t, true, updated.Analysis[models.AnalysisResolved])
	assert.Equal(t, reply, updated.Analysis[models.AnalysisRawResponse])

	require.Len(t, prov.got, 2)
	assert.Equal(t, ai.RoleSystem, prov.got[0].Role)
	assert.Contains(t, prov.got[1].Content, "user: Where is my order?")
	assert.Contains(t, prov.got[1].Content, "assistant: It ships tomorrow.")
}

func TestProcess_ProviderErrorFailsJob(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	cs := seedChat(t, st)
	svc := NewService(st, nil, registryWith(&fakeProvider{err: errors.New("timeout")}), "fake", "")

	job, err := svc.Enqueue(ctx, cs.ClientID, cs.ID)
	require.NoError(t, err)
	require.Error(t, svc.Process(ctx, job.ID))

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "timeout")
}

func TestProcess_RetryAfterFailureSucceeds(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	cs := seedChat(t, st)
	prov := &fakeProvider{err: errors.New("timeout")}
	svc := NewService(st, nil, registryWith(prov), "fake", "")

	job, err := svc.Enqueue(ctx, cs.ClientID, cs.ID)
	require.NoError(t, err)
	require.Error(t, svc.Process(ctx, job.ID))

	prov.err = nil
	prov.reply = `{"summary":"ok","sentiment":"neutral","resolved":false}`
	require.NoError(t, svc.Process(ctx, job.ID))

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobSucceeded, got.Status)
	assert.Nil(t, got.Error)
}

// blockingProvider waits for its context to end.
type blockingProvider struct {
	started chan struct{}
}

func (p *blockingProvider) Chat(ctx context.Context, _ []ai.Message) (string, error) {
	close(p.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestProcess_CancelledMidRunMarksFailed(t *testing.T) {
	gdb, err := db.Connect("sqlite", "file:analysis_cancel?mode=memory&cache=shared")
	require.NoError(t, err)
	st := store.NewRepo(gdb)
	cs := seedChat(t, st)

	prov := &blockingProvider{started: make(chan struct{})}
	svc := NewService(st, nil, registryWith(prov), "fake", "")
	job, err := svc.Enqueue(context.Background(), cs.ClientID, cs.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-prov.started
		cancel()
	}()
	require.ErrorIs(t, svc.Process(ctx, job.ID), context.Canceled)

	got, err := st.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "context canceled")
}

func TestProcess_UnparseableKeepsRawResponse(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	cs := seedChat(t, st)
	svc := NewService(st, nil, registryWith(&fakeProvider{reply: "I cannot help"}), "fake", "")

	job, err := svc.Enqueue(ctx, cs.ClientID, cs.ID)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Process(ctx, job.ID), ErrUnparseable)

	updated, err := st.GetChatSession(ctx, cs.ClientID, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, "I cannot help", updated.Analysis[models.AnalysisRawResponse])
}

type analysisWriteFails struct {
	store.Store
}

func (analysisWriteFails) UpdateChatSessionAnalysis(context.Context, string, datatypes.JSONMap) error {
	return errors.New("disk full")
}

func TestProcess_RawResponseWriteFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{}) })

	ctx := context.Background()
	st := analysisWriteFails{Store: store.NewMock()}
	cs := seedChat(t, st)
	svc := NewService(st, nil, registryWith(&fakeProvider{reply: "no json here"}), "fake", "")

	job, err := svc.Enqueue(ctx, cs.ClientID, cs.ID)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Process(ctx, job.ID), ErrUnparseable)

	assert.Contains(t, buf.String(), "store raw response")
	assert.Contains(t, buf.String(), "disk full")

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
}

func TestProcess_WrongTenantChatSessionFails(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	cs := seedChat(t, st)
	svc := NewService(st, nil, registryWith(&fakeProvider{reply: "{}"}), "fake", "")

	job, err := svc.Enqueue(ctx, "c_456", cs.ID)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Process(ctx, job.ID), store.ErrNotFound)
}

func TestProcess_NoRegistry(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	cs := seedChat(t, st)
	svc := NewService(st, nil, nil, "", "")

	job, err := svc.Enqueue(ctx, cs.ClientID, cs.ID)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Process(ctx, job.ID), ErrNoProvider)
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		raw  string
		want Result
		err  bool
	}{
		{`{"summary":"a","sentiment":"negative","resolved":false}`, Result{Summary: "a", Sentiment: "negative"}, false},
		{`{"summary":" b ","sentiment":"meh","resolved":"yes"}`, Result{Summary: "b", Sentiment: "unknown", Resolved: true}, false},
		{`{}`, Result{Sentiment: "unknown"}, false},
		{`no json here`, Result{}, true},
		{`{"summary": }`, Result{}, true},
		{`} {`, Result{}, true},
	}
	for _, tt := range tests {
		got, err := ParseResult(tt.raw)
		if tt.err {
			assert.ErrorIs(t, err, ErrUnparseable, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestBuildPrompt_EmptyTranscript(t *testing.T) {
	msgs := BuildPrompt(models.ChatSession{})
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "(empty transcript)")
}

// Package analysis runs LLM analysis over stored chat sessions. The server
// enqueues jobs; the worker processes them.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/notsoai/dashboard/internal/ai"
	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/models"
	"github.com/notsoai/dashboard/internal/store"
)

// Publisher hands a job id to the queue.
type Publisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Service struct {
	store     store.Store
	publisher Publisher
	registry  *ai.Registry
	provider  string
	model     string
}

// NewService wires the pipeline. publisher may be nil, in which case jobs are
// recorded but not queued; registry may be nil on the server side.
func NewService(st store.Store, publisher Publisher, registry *ai.Registry, provider, model string) *Service {
	if provider == "" {
		provider = "ollama"
	}
	return &Service{store: st, publisher: publisher, registry: registry, provider: provider, model: model}
}

var ErrNoProvider = errors.New("analysis: no ai registry configured")

// Enqueue records a queued job for the chat session and publishes it.
func (s *Service) Enqueue(ctx context.Context, clientID, chatSessionID string) (*models.AnalysisJob, error) {
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	job := &models.AnalysisJob{
		ID:            id,
		ClientID:      clientID,
		ChatSessionID: chatSessionID,
		Status:        models.JobQueued,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.publisher == nil {
		logging.Ctx(ctx).Warn().Str("job_id", id).Msg("no queue configured; analysis job left queued")
		return job, nil
	}
	if err := s.publisher.PublishJob(ctx, id); err != nil {
		s.markFailed(ctx, id, fmt.Errorf("enqueue failed: %w", err))
		return nil, fmt.Errorf("publish job: %w", err)
	}
	return job, nil
}

// Process runs one job to completion. The job row ends either succeeded or
// failed, even when ctx is cancelled mid-run; the returned error mirrors the
// failure.
func (s *Service) Process(ctx context.Context, jobID string) error {
	start := time.Now()
	log := logging.Ctx(ctx).With().Str("job_id", jobID).Logger()

	if err := s.store.UpdateJobStatusRunning(ctx, jobID); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		err = fmt.Errorf("get job: %w", err)
		if !errors.Is(err, store.ErrNotFound) {
			s.markFailed(ctx, jobID, err)
		}
		return err
	}
	if job.Status == models.JobSucceeded {
		log.Debug().Msg("job already succeeded; skipping")
		return nil
	}

	if err := s.run(ctx, job); err != nil {
		s.markFailed(ctx, jobID, err)
		log.Warn().Err(err).Dur("cost", time.Since(start)).Msg("analysis failed")
		return err
	}

	if err := s.store.MarkJobSucceeded(ctx, jobID); err != nil {
		return fmt.Errorf("mark succeeded: %w", err)
	}
	if cost := time.Since(start); cost > 2*time.Second {
		log.Info().Dur("cost", cost).Msg("slow analysis job")
	}
	return nil
}

// markFailed records cause on the job row. It ignores cancellation of ctx so a
// shutdown never leaves the row running.
func (s *Service) markFailed(ctx context.Context, jobID string, cause error) {
	if err := s.store.MarkJobFailed(context.WithoutCancel(ctx), jobID, cause.Error()); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("job_id", jobID).Msg("mark failed")
	}
}

func (s *Service) run(ctx context.Context, job *models.AnalysisJob) error {
	if s.registry == nil {
		return ErrNoProvider
	}
	cs, err := s.store.GetChatSession(ctx, job.ClientID, job.ChatSessionID)
	if err != nil {
		return fmt.Errorf("get chat session: %w", err)
	}
	provider, err := s.registry.Get(ctx, s.provider, s.model)
	if err != nil {
		return err
	}

	raw, err := provider.Chat(ctx, BuildPrompt(*cs))
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}

	res, err := ParseResult(raw)
	if err != nil {
		// Keep what the model said so it can be inspected.
		if serr := s.store.UpdateChatSessionAnalysis(ctx, cs.ID, datatypes.JSONMap{models.AnalysisRawResponse: raw}); serr != nil {
			logging.Ctx(ctx).Error().Err(serr).Str("job_id", job.ID).Msg("store raw response")
		}
		return err
	}
	if err := s.store.UpdateChatSessionAnalysis(ctx, cs.ID, res.toMap(raw)); err != nil {
		return fmt.Errorf("store analysis: %w", err)
	}
	return nil
}

const systemPrompt = `You analyse customer support chat transcripts.
Reply with a single JSON object and nothing else:
{"summary": "<one sentence>", "sentiment": "positive|neutral|negative", "resolved": true|false}`

// BuildPrompt renders the transcript as a system + user message pair.
func BuildPrompt(cs models.ChatSession) []ai.Message {
	var b strings.Builder
	for _, e := range cs.Transcript {
		author := e.Author
		if author == "" {
			author = models.AuthorUser
		}
		fmt.Fprintf(&b, "%s: %s\n", author, strings.TrimSpace(e.Message))
	}
	if b.Len() == 0 {
		b.WriteString("(empty transcript)\n")
	}
	return []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: "Transcript:\n" + b.String()},
	}
}

type Result struct {
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
	Resolved  bool   `json:"resolved"`
}

var ErrUnparseable = errors.New("analysis: model answer is not a JSON object")

// ParseResult extracts the first JSON object from raw. Models often wrap the
// object in prose or code fences.
func ParseResult(raw string) (Result, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return Result{}, ErrUnparseable
	}

	var out struct {
		Summary   string `json:"summary"`
		Sentiment string `json:"sentiment"`
		Resolved  any    `json:"resolved"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	res := Result{Summary: strings.TrimSpace(out.Summary), Sentiment: normalizeSentiment(out.Sentiment)}
	switch v := out.Resolved.(type) {
	case bool:
		res.Resolved = v
	case string:
		res.Resolved = strings.EqualFold(strings.TrimSpace(v), "true") || strings.EqualFold(strings.TrimSpace(v), "yes")
	}
	return res, nil
}

func normalizeSentiment(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "positive", "neutral", "negative":
		return s
	}
	return "unknown"
}

func (r Result) toMap(raw string) datatypes.JSONMap {
	return datatypes.JSONMap{
		models.AnalysisSummary:     r.Summary,
		models.AnalysisSentiment:   r.Sentiment,
		models.AnalysisResolved:    r.Resolved,
		models.AnalysisRawResponse: raw,
	}
}

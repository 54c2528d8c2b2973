package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/models"
)

// Demo tenant identifiers used by the mock-data fallback.
const (
	DemoClientID   = "c_123"
	DemoClientSlug = "acme-inc"
	DemoOtherID    = "c_456"
	DemoOtherSlug  = "globex"
)

var demoExchanges = []struct {
	user, assistant, sentiment string
	resolved                   bool
}{
	{"Where is my order?", "Your order shipped yesterday and arrives Friday.", "positive", true},
	{"I want a refund", "I have opened a refund request for you.", "neutral", true},
	{"The app keeps crashing", "Sorry about that. Could you tell me your app version?", "negative", false},
	{"Do you ship to Canada?", "Yes, we ship to Canada within 5 business days.", "positive", true},
	{"How do I reset my password?", "Use the 'Forgot password' link on the login page.", "neutral", true},
}

// SeedDemo fills s with two demo tenants. passwordHash is stored for every
// demo user.
func SeedDemo(ctx context.Context, s Store, passwordHash string, now time.Time) error {
	now = now.UTC()
	tenants := []models.Client{
		{ID: DemoClientID, Slug: DemoClientSlug, Name: "Acme Inc", Plan: "growth"},
		{ID: DemoOtherID, Slug: DemoOtherSlug, Name: "Globex", Plan: "starter"},
	}
	users := []models.User{
		{ClientID: DemoClientID, Email: "owner@acme.test", Role: "owner"},
		{ClientID: DemoClientID, Email: "viewer@acme.test", Role: "viewer"},
		{ClientID: DemoOtherID, Email: "admin@globex.test", Role: "admin"},
	}

	for i := range tenants {
		if err := s.CreateClient(ctx, &tenants[i]); err != nil {
			return fmt.Errorf("seed client %s: %w", tenants[i].Slug, err)
		}
	}

	for _, c := range tenants {
		wsID, err := common.NewULIDAt(now)
		if err != nil {
			return err
		}
		ws := models.Workspace{ID: wsID, ClientID: c.ID, Name: c.Name + " Support"}
		if err := s.CreateWorkspace(ctx, &ws); err != nil {
			return fmt.Errorf("seed workspace: %w", err)
		}

		asID, err := common.NewULIDAt(now)
		if err != nil {
			return err
		}
		as := models.Assistant{ID: asID, ClientID: c.ID, WorkspaceID: ws.ID, Name: "Helpdesk Bot", Model: "llama3:latest"}
		if err := s.CreateAssistant(ctx, &as); err != nil {
			return fmt.Errorf("seed assistant: %w", err)
		}

		for i := range users {
			if users[i].ClientID != c.ID {
				continue
			}
			if users[i].ID, err = common.NewULIDAt(now); err != nil {
				return err
			}
			users[i].PasswordHash = passwordHash
			users[i].DefaultWorkspaceID = &ws.ID
			if err := s.CreateUser(ctx, &users[i]); err != nil {
				return fmt.Errorf("seed user %s: %w", users[i].Email, err)
			}
		}

		for day := 0; day < 30; day++ {
			ex := demoExchanges[day%len(demoExchanges)]
			started := now.Add(-time.Duration(day)*24*time.Hour - time.Hour)
			ended := started.Add(time.Duration(2+day%7) * time.Minute)
			id, err := common.NewULIDAt(started)
			if err != nil {
				return err
			}
			cs := models.ChatSession{
				ID:          id,
				ClientID:    c.ID,
				AssistantID: as.ID,
				VisitorID:   fmt.Sprintf("visitor-%02d", day%9),
				StartedAt:   started,
				EndedAt:     &ended,
				Transcript: datatypes.JSONSlice[models.TranscriptEntry]{
					{Author: models.AuthorUser, Message: ex.user},
					{Author: models.AuthorAssistant, Message: ex.assistant},
				},
				Analysis: datatypes.JSONMap{
					models.AnalysisSummary:     ex.user,
					models.AnalysisSentiment:   ex.sentiment,
					models.AnalysisResolved:    ex.resolved,
					models.AnalysisRawResponse: fmt.Sprintf(`{"sentiment":%q,"resolved":%t}`, ex.sentiment, ex.resolved),
				},
			}
			if err := s.CreateChatSession(ctx, &cs); err != nil {
				return fmt.Errorf("seed chat session: %w", err)
			}
		}
	}

	if m, ok := s.(*Mock); ok {
		periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		m.SetBilling(models.BillingAccount{ClientID: DemoClientID, Plan: "growth", MonthlyQuota: 5000, PeriodStart: periodStart},
			models.Invoice{ID: "inv_acme_1", ClientID: DemoClientID, AmountCents: 9900, Currency: "USD", Status: "paid", IssuedAt: periodStart.AddDate(0, -1, 0)},
			models.Invoice{ID: "inv_acme_2", ClientID: DemoClientID, AmountCents: 9900, Currency: "USD", Status: "open", IssuedAt: periodStart},
		)
		m.SetBilling(models.BillingAccount{ClientID: DemoOtherID, Plan: "starter", MonthlyQuota: 1000, PeriodStart: periodStart})
	}
	return nil
}

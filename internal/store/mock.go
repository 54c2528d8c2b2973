package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/notsoai/dashboard/internal/models"
)

// Mock is an in-memory Store used when DB_DRIVER=mock. Values are copied in
// and out so callers never share memory with the store.
type Mock struct {
	mu           sync.RWMutex
	clients      map[string]models.Client
	users        map[string]models.User
	workspaces   []models.Workspace
	assistants   []models.Assistant
	chatSessions map[string]models.ChatSession
	billing      map[string]models.BillingAccount
	invoices     []models.Invoice
	jobs         map[string]models.AnalysisJob
}

func NewMock() *Mock {
	return &Mock{
		clients:      make(map[string]models.Client),
		users:        make(map[string]models.User),
		chatSessions: make(map[string]models.ChatSession),
		billing:      make(map[string]models.BillingAccount),
		jobs:         make(map[string]models.AnalysisJob),
	}
}

var _ Store = (*Mock)(nil)

var errDuplicate = errors.New("store: duplicate key")

func (m *Mock) GetClient(_ context.Context, ref string) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ref == "" {
		return nil, ErrNotFound
	}
	if c, ok := m.clients[ref]; ok {
		return &c, nil
	}
	for _, c := range m.clients {
		if c.Slug == ref {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mock) CreateClient(_ context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c.ID]; ok {
		return errDuplicate
	}
	for _, existing := range m.clients {
		if existing.Slug == c.Slug {
			return errDuplicate
		}
	}
	stamp(&c.CreatedAt)
	m.clients[c.ID] = *c
	return nil
}

func (m *Mock) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Mock) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; ok {
		return errDuplicate
	}
	stamp(&u.CreatedAt)
	m.users[key] = *u
	return nil
}

func (m *Mock) ListWorkspaces(_ context.Context, clientID string) ([]models.Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Workspace
	for _, w := range m.workspaces {
		if w.ClientID == clientID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Mock) CreateWorkspace(_ context.Context, w *models.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&w.CreatedAt)
	m.workspaces = append(m.workspaces, *w)
	return nil
}

func (m *Mock) ListAssistants(_ context.Context, clientID, workspaceID string) ([]models.Assistant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Assistant
	for _, a := range m.assistants {
		if a.ClientID != clientID {
			continue
		}
		if workspaceID != "" && a.WorkspaceID != workspaceID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *Mock) GetAssistant(_ context.Context, clientID, id string) (*models.Assistant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assistants {
		if a.ClientID == clientID && a.ID == id {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mock) CreateAssistant(_ context.Context, a *models.Assistant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&a.CreatedAt)
	m.assistants = append(m.assistants, *a)
	return nil
}

func (m *Mock) ListChatSessions(_ context.Context, clientID string, f ChatSessionFilter) ([]models.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ChatSession
	for _, cs := range m.chatSessions {
		if cs.ClientID != clientID {
			continue
		}
		if f.AssistantID != "" && cs.AssistantID != f.AssistantID {
			continue
		}
		if !f.From.IsZero() && cs.StartedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !cs.StartedAt.Before(f.To) {
			continue
		}
		if f.Before != "" && cs.ID >= f.Before {
			continue
		}
		out = append(out, cloneChatSession(cs))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Mock) GetChatSession(_ context.Context, clientID, id string) (*models.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cs, ok := m.chatSessions[id]
	if !ok || cs.ClientID != clientID {
		return nil, ErrNotFound
	}
	out := cloneChatSession(cs)
	return &out, nil
}

func (m *Mock) CreateChatSession(_ context.Context, cs *models.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chatSessions[cs.ID]; ok {
		return errDuplicate
	}
	stamp(&cs.CreatedAt)
	m.chatSessions[cs.ID] = cloneChatSession(*cs)
	return nil
}

func (m *Mock) UpdateChatSessionAnalysis(_ context.Context, id string, analysis datatypes.JSONMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.chatSessions[id]
	if !ok {
		return ErrNotFound
	}
	cs.Analysis = maps.Clone(analysis)
	cs.UpdatedAt = time.Now()
	m.chatSessions[id] = cs
	return nil
}

func (m *Mock) CountChatSessionsSince(_ context.Context, clientID string, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, cs := range m.chatSessions {
		if cs.ClientID == clientID && !cs.StartedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *Mock) GetBilling(_ context.Context, clientID string) (*models.BillingAccount, []models.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.billing[clientID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	var invoices []models.Invoice
	for _, inv := range m.invoices {
		if inv.ClientID == clientID {
			invoices = append(invoices, inv)
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].IssuedAt.After(invoices[j].IssuedAt) })
	return &acct, invoices, nil
}

// SetBilling installs a billing account and its invoices.
func (m *Mock) SetBilling(acct models.BillingAccount, invoices ...models.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.billing[acct.ClientID] = acct
	m.invoices = append(m.invoices, invoices...)
}

func (m *Mock) CreateJob(_ context.Context, job *models.AnalysisJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; ok {
		return errDuplicate
	}
	stamp(&job.CreatedAt)
	job.UpdatedAt = job.CreatedAt
	m.jobs[job.ID] = *job
	return nil
}

func (m *Mock) GetJob(_ context.Context, id string) (*models.AnalysisJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}

func (m *Mock) UpdateJobStatusRunning(_ context.Context, id string) error {
	return m.updateJob(id, func(j *models.AnalysisJob) {
		if j.Status == models.JobQueued || j.Status == models.JobFailed {
			j.Status = models.JobRunning
		}
	})
}

func (m *Mock) MarkJobSucceeded(_ context.Context, id string) error {
	return m.updateJob(id, func(j *models.AnalysisJob) {
		j.Status = models.JobSucceeded
		j.Error = nil
	})
}

func (m *Mock) MarkJobFailed(_ context.Context, id string, errMsg string) error {
	return m.updateJob(id, func(j *models.AnalysisJob) {
		j.Status = models.JobFailed
		j.Error = &errMsg
	})
}

func (m *Mock) updateJob(id string, fn func(*models.AnalysisJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil
	}
	fn(&j)
	j.UpdatedAt = time.Now()
	m.jobs[id] = j
	return nil
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

func cloneChatSession(cs models.ChatSession) models.ChatSession {
	if cs.Transcript != nil {
		cs.Transcript = slices.Clone(cs.Transcript)
	}
	if cs.Analysis != nil {
		cs.Analysis = maps.Clone(cs.Analysis)
	}
	if cs.EndedAt != nil {
		t := *cs.EndedAt
		cs.EndedAt = &t
	}
	return cs
}

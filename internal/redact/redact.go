// Package redact strips user-authored text and raw model output from chat
// data before it leaves the API for lower-privilege roles.
package redact

import (
	"maps"
	"strings"
	"unicode"

	"github.com/notsoai/dashboard/internal/models"
	"github.com/notsoai/dashboard/internal/session"
)

// ShouldRedactRole is true for viewer and member. Every role must be listed;
// TestShouldRedactRole_CoversAllRoles fails when a new role is added without a
// decision here.
func ShouldRedactRole(role session.Role) bool {
	switch role {
	case session.RoleViewer, session.RoleMember:
		return true
	case session.RoleOwner, session.RoleAdmin, session.RoleUnset:
		return false
	}
	return false
}

// MaskText replaces every non-whitespace rune with '*'.
func MaskText(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return r
		}
		return '*'
	}, text)
}

// RedactChatSession returns a copy of cs with user messages masked and the raw
// analysis payload nulled. The input is not modified.
func RedactChatSession(cs models.ChatSession) models.ChatSession {
	out := cs

	if cs.Transcript != nil {
		out.Transcript = make([]models.TranscriptEntry, len(cs.Transcript))
		for i, e := range cs.Transcript {
			if e.Author == models.AuthorUser {
				e.Message = MaskText(e.Message)
			}
			out.Transcript[i] = e
		}
	}

	if cs.Analysis != nil {
		out.Analysis = maps.Clone(cs.Analysis)
		if _, ok := out.Analysis[models.AnalysisRawResponse]; ok {
			out.Analysis[models.AnalysisRawResponse] = nil
		}
	}
	return out
}

// RedactConversations masks the preview of every conversation.
func RedactConversations(list []models.Conversation) []models.Conversation {
	if list == nil {
		return nil
	}
	out := make([]models.Conversation, len(list))
	for i, c := range list {
		c.Preview = MaskText(c.Preview)
		out[i] = c
	}
	return out
}

// ChatSessionsForRole applies RedactChatSession when role requires it.
func ChatSessionsForRole(role session.Role, list []models.ChatSession) []models.ChatSession {
	if !ShouldRedactRole(role) {
		return list
	}
	if list == nil {
		return nil
	}
	out := make([]models.ChatSession, len(list))
	for i, cs := range list {
		out[i] = RedactChatSession(cs)
	}
	return out
}

func ChatSessionForRole(role session.Role, cs *models.ChatSession) *models.ChatSession {
	if cs == nil || !ShouldRedactRole(role) {
		return cs
	}
	out := RedactChatSession(*cs)
	return &out
}

func ConversationsForRole(role session.Role, list []models.Conversation) []models.Conversation {
	if !ShouldRedactRole(role) {
		return list
	}
	return RedactConversations(list)
}

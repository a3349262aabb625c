package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"confidant/internal/domain"
	"confidant/internal/domain/models"
	"confidant/internal/domain/services"
)

// AnalyzeConversation runs a one-shot provider call over the recent session
// window and stores any proposed risk/strategy tags unconfirmed. The user
// confirms or discards them later.
func (s *Service) AnalyzeConversation(ctx context.Context, contactID, sessionID string) (*services.Analysis, error) {
	if contactID == "" || sessionID == "" {
		return nil, fmt.Errorf("contact and session are required: %w", domain.ErrValidation)
	}

	contact, err := s.contacts.GetContact(ctx, contactID)
	if err != nil {
		return nil, err
	}

	tags, err := s.contacts.ListTags(ctx, contactID)
	if err != nil {
		return nil, err
	}

	history, err := s.messages.ListSessionMessages(ctx, contactID, sessionID, s.cfg.HistoryWindow)
	if err != nil {
		return nil, err
	}

	reply, err := s.oneShot(ctx, s.personas.Analyst, s.composer.ComposeAnalysis(contact, tags, history))
	if err != nil {
		return nil, err
	}

	analysis := parseAnalysis(contactID, reply.Text)
	for i := range analysis.Tags {
		if err := s.contacts.AddTag(ctx, &analysis.Tags[i]); err != nil {
			// Re-proposing a known tag is expected, not an error.
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, err
		}
	}

	return analysis, nil
}

// PolishMessage rewrites a draft the user wants to send to the contact.
// Nothing is persisted.
func (s *Service) PolishMessage(ctx context.Context, contactID, draft string) (string, error) {
	if contactID == "" || strings.TrimSpace(draft) == "" {
		return "", fmt.Errorf("contact and draft are required: %w", domain.ErrValidation)
	}

	contact, err := s.contacts.GetContact(ctx, contactID)
	if err != nil {
		return "", err
	}

	tags, err := s.contacts.ListTags(ctx, contactID)
	if err != nil {
		return "", err
	}

	reply, err := s.oneShot(ctx, s.personas.Polisher, s.composer.ComposePolish(contact, tags, draft))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(reply.Text), nil
}

func (s *Service) oneShot(ctx context.Context, persona, prompt string) (*services.Reply, error) {
	provider, model, err := s.resolveProvider()
	if err != nil {
		return nil, err
	}

	return provider.Reply(ctx, &services.ReplyRequest{
		Model:  model,
		System: &persona,
		Prompt: prompt,
	})
}

// parseAnalysis splits the analyst's reply into a prose summary and proposed
// tags. Tag lines use the "RISK: label" / "STRATEGY: label" shape the
// analyst persona is instructed to emit; everything else is summary text.
func parseAnalysis(contactID, text string) *services.Analysis {
	var summary []string
	var tags []models.ContactTag

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		var kind string
		switch {
		case strings.HasPrefix(trimmed, "RISK:"):
			kind = models.TagKindRisk
		case strings.HasPrefix(trimmed, "STRATEGY:"):
			kind = models.TagKindStrategy
		default:
			summary = append(summary, line)
			continue
		}

		label := strings.TrimSpace(trimmed[strings.Index(trimmed, ":")+1:])
		if label == "" {
			continue
		}
		tags = append(tags, models.ContactTag{
			ContactID: contactID,
			Kind:      kind,
			Label:     label,
		})
	}

	return &services.Analysis{
		Summary: strings.TrimSpace(strings.Join(summary, "\n")),
		Tags:    tags,
	}
}

package advisor

import (
	"fmt"
	"strings"

	"confidant/internal/domain/models"
	"confidant/internal/domain/models/chat"
)

// PromptComposer assembles bounded prompts from the contact profile, the
// confirmed tags and the recent session history. Composition is pure: no
// I/O, no persistence, deterministic for a given input.
type PromptComposer struct {
	window   int
	maxChars int
}

// NewPromptComposer creates a composer that keeps at most window history
// messages and caps the rendered prompt at maxChars characters.
func NewPromptComposer(window, maxChars int) *PromptComposer {
	if window <= 0 {
		window = 20
	}
	if maxChars <= 0 {
		maxChars = 24000
	}
	return &PromptComposer{window: window, maxChars: maxChars}
}

// Compose renders the advisor prompt for one turn. History is expected
// newest first (as the store returns it); the rendered transcript reads
// oldest first. When the character cap is exceeded, the oldest history
// lines are dropped before anything else.
func (c *PromptComposer) Compose(contact *models.Contact, tags []models.ContactTag, history []chat.Message, userText string) string {
	var sb strings.Builder

	c.writeContactSection(&sb, contact, tags)

	lines := c.historyLines(history)
	budget := c.maxChars - sb.Len() - len(userText) - 64
	for total := lineLen(lines); len(lines) > 0 && total > budget; {
		total -= len(lines[0]) + 1
		lines = lines[1:]
	}

	if len(lines) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, line := range lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	sb.WriteString("User's new message:\n")
	sb.WriteString(userText)

	return sb.String()
}

// ComposeAnalysis renders the prompt for a one-shot conversation analysis.
func (c *PromptComposer) ComposeAnalysis(contact *models.Contact, tags []models.ContactTag, history []chat.Message) string {
	var sb strings.Builder

	c.writeContactSection(&sb, contact, tags)

	lines := c.historyLines(history)
	if len(lines) == 0 {
		sb.WriteString("There is no conversation yet.\n")
		return sb.String()
	}

	sb.WriteString("Conversation to analyze:\n")
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	return sb.String()
}

// ComposePolish renders the prompt for rewriting a draft message the user
// intends to send to the contact.
func (c *PromptComposer) ComposePolish(contact *models.Contact, tags []models.ContactTag, draft string) string {
	var sb strings.Builder

	c.writeContactSection(&sb, contact, tags)

	sb.WriteString("Draft message to polish:\n")
	sb.WriteString(draft)

	return sb.String()
}

func (c *PromptComposer) writeContactSection(sb *strings.Builder, contact *models.Contact, tags []models.ContactTag) {
	fmt.Fprintf(sb, "Contact: %s", contact.Name)
	if contact.Relationship != "" {
		fmt.Fprintf(sb, " (%s)", contact.Relationship)
	}
	sb.WriteByte('\n')

	if contact.Profile != "" {
		fmt.Fprintf(sb, "Profile notes:\n%s\n", contact.Profile)
	}

	var risks, strategies []string
	for _, tag := range tags {
		if !tag.Confirmed {
			continue
		}
		switch tag.Kind {
		case models.TagKindRisk:
			risks = append(risks, tag.Label)
		case models.TagKindStrategy:
			strategies = append(strategies, tag.Label)
		}
	}
	if len(risks) > 0 {
		fmt.Fprintf(sb, "Known risks: %s\n", strings.Join(risks, "; "))
	}
	if len(strategies) > 0 {
		fmt.Fprintf(sb, "Working strategies: %s\n", strings.Join(strategies, "; "))
	}

	sb.WriteByte('\n')
}

// historyLines converts newest-first history into oldest-first transcript
// lines, keeping at most the configured window and skipping messages that
// never produced content.
func (c *PromptComposer) historyLines(history []chat.Message) []string {
	if len(history) > c.window {
		history = history[:c.window]
	}

	lines := make([]string, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Content == "" || msg.SendStatus == chat.SendStatusPending {
			continue
		}
		speaker := "User"
		if msg.Author == chat.AuthorAI {
			speaker = "Advisor"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, msg.Content))
	}

	return lines
}

func lineLen(lines []string) int {
	total := 0
	for _, line := range lines {
		total += len(line) + 1
	}
	return total
}

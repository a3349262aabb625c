package advisor

import (
	"context"
	"testing"

	"confidant/internal/domain/models"
)

func TestParseAnalysisSplitsTagsFromSummary(t *testing.T) {
	text := "They seem stressed about the deadline.\n" +
		"RISK: gets defensive when rushed\n" +
		"STRATEGY: acknowledge the pressure first\n" +
		"Overall the conversation is warming up.\n" +
		"RISK:\n"

	analysis := parseAnalysis("c1", text)

	if len(analysis.Tags) != 2 {
		t.Fatalf("tags: got %d, want 2 (%+v)", len(analysis.Tags), analysis.Tags)
	}
	if analysis.Tags[0].Kind != models.TagKindRisk || analysis.Tags[0].Label != "gets defensive when rushed" {
		t.Errorf("first tag: %+v", analysis.Tags[0])
	}
	if analysis.Tags[1].Kind != models.TagKindStrategy || analysis.Tags[1].Label != "acknowledge the pressure first" {
		t.Errorf("second tag: %+v", analysis.Tags[1])
	}
	for _, tag := range analysis.Tags {
		if tag.Confirmed {
			t.Errorf("proposed tag must start unconfirmed: %+v", tag)
		}
		if tag.ContactID != "c1" {
			t.Errorf("tag contact: %+v", tag)
		}
	}

	want := "They seem stressed about the deadline.\nOverall the conversation is warming up."
	if analysis.Summary != want {
		t.Errorf("summary: got %q, want %q", analysis.Summary, want)
	}
}

func TestParseAnalysisWithoutTags(t *testing.T) {
	analysis := parseAnalysis("c1", "Just a plain summary.")

	if len(analysis.Tags) != 0 {
		t.Errorf("tags: got %+v, want none", analysis.Tags)
	}
	if analysis.Summary != "Just a plain summary." {
		t.Errorf("summary: %q", analysis.Summary)
	}
}

func TestAnalyzeConversationStoresProposedTags(t *testing.T) {
	contacts := defaultContacts()
	messages := newFakeMessages()
	provider := &fakeProvider{
		name:      "fake",
		replyText: "Going well.\nRISK: avoid money topics\nSTRATEGY: keep it short",
	}

	svc := newTestService(contacts, messages, provider)

	analysis, err := svc.AnalyzeConversation(context.Background(), "c1", "s1")
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}

	if analysis.Summary != "Going well." {
		t.Errorf("summary: %q", analysis.Summary)
	}
	if len(contacts.added) != 2 {
		t.Fatalf("stored tags: got %d, want 2", len(contacts.added))
	}
	for _, tag := range contacts.added {
		if tag.Confirmed {
			t.Errorf("stored tag must be unconfirmed: %+v", tag)
		}
	}
}

func TestAnalyzeConversationIgnoresDuplicateTags(t *testing.T) {
	contacts := defaultContacts()
	contacts.added = []models.ContactTag{
		{Kind: models.TagKindRisk, Label: "avoid money topics"},
	}
	provider := &fakeProvider{
		name:      "fake",
		replyText: "Same as before.\nRISK: avoid money topics",
	}

	svc := newTestService(contacts, newFakeMessages(), provider)

	if _, err := svc.AnalyzeConversation(context.Background(), "c1", "s1"); err != nil {
		t.Fatalf("duplicate tag should not fail the analysis: %v", err)
	}
	if len(contacts.added) != 1 {
		t.Errorf("stored tags: got %d, want 1", len(contacts.added))
	}
}

func TestPolishMessageTrimsReply(t *testing.T) {
	provider := &fakeProvider{name: "fake", replyText: "  Polished draft.\n"}
	svc := newTestService(defaultContacts(), newFakeMessages(), provider)

	polished, err := svc.PolishMessage(context.Background(), "c1", "raw draft")
	if err != nil {
		t.Fatalf("PolishMessage: %v", err)
	}
	if polished != "Polished draft." {
		t.Errorf("polished: %q", polished)
	}
}

package advisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"confidant/internal/config"
	"confidant/internal/domain"
	"confidant/internal/domain/models"
	"confidant/internal/domain/models/chat"
	"confidant/internal/domain/repositories"
	"confidant/internal/domain/services"
)

// --- fakes ---

type fakeContacts struct {
	repositories.ContactRepository

	contact *models.Contact
	tags    []models.ContactTag

	mu    sync.Mutex
	added []models.ContactTag
}

func (f *fakeContacts) GetContact(ctx context.Context, contactID string) (*models.Contact, error) {
	if f.contact == nil || f.contact.ID != contactID {
		return nil, fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}
	return f.contact, nil
}

func (f *fakeContacts) ListTags(ctx context.Context, contactID string) ([]models.ContactTag, error) {
	return f.tags, nil
}

func (f *fakeContacts) AddTag(ctx context.Context, tag *models.ContactTag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.added {
		if existing.Kind == tag.Kind && existing.Label == tag.Label {
			return fmt.Errorf("tag %q: %w", tag.Label, domain.ErrConflict)
		}
	}
	tag.ID = fmt.Sprintf("t%d", len(f.added)+1)
	f.added = append(f.added, *tag)
	return nil
}

type fakeMessages struct {
	mu      sync.Mutex
	nextID  int
	order   []string
	msgs    map[string]*chat.Message
	blocks  map[string]*chat.MessageBlock
	upserts int
	history []chat.Message
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{
		msgs:   make(map[string]*chat.Message),
		blocks: make(map[string]*chat.MessageBlock),
	}
}

func blockKey(messageID, blockType string) string {
	return messageID + "/" + blockType
}

func (f *fakeMessages) CreateMessage(ctx context.Context, msg *chat.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg.ID = fmt.Sprintf("m%d", f.nextID)
	msg.CreatedAt = time.Now()
	stored := *msg
	f.msgs[msg.ID] = &stored
	f.order = append(f.order, msg.ID)
	return nil
}

func (f *fakeMessages) CreateBlock(ctx context.Context, block *chat.MessageBlock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := blockKey(block.MessageID, block.BlockType)
	if _, exists := f.blocks[key]; exists {
		return fmt.Errorf("block %s: %w", key, domain.ErrConflict)
	}
	block.ID = key
	stored := *block
	f.blocks[key] = &stored
	return nil
}

func (f *fakeMessages) UpsertBlock(ctx context.Context, block *chat.MessageBlock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	key := blockKey(block.MessageID, block.BlockType)
	block.ID = key
	stored := *block
	f.blocks[key] = &stored
	return nil
}

func (f *fakeMessages) UpdateMessageResult(ctx context.Context, messageID, content, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.msgs[messageID]
	if !ok {
		return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	msg.Content = content
	msg.SendStatus = status
	return nil
}

func (f *fakeMessages) GetMessage(ctx context.Context, messageID string) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.msgs[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeMessages) ListSessionMessages(ctx context.Context, contactID, sessionID string, limit int) ([]chat.Message, error) {
	return f.history, nil
}

func (f *fakeMessages) GetBlocks(ctx context.Context, messageID string) ([]chat.MessageBlock, error) {
	return nil, nil
}

func (f *fakeMessages) message(t *testing.T, id string) chat.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.msgs[id]
	if !ok {
		t.Fatalf("message %s not stored", id)
	}
	return *msg
}

func (f *fakeMessages) block(t *testing.T, messageID, blockType string) chat.MessageBlock {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	block, ok := f.blocks[blockKey(messageID, blockType)]
	if !ok {
		t.Fatalf("block %s/%s not stored", messageID, blockType)
	}
	return *block
}

func (f *fakeMessages) hasBlock(messageID, blockType string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blocks[blockKey(messageID, blockType)]
	return ok
}

type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type fakeProvider struct {
	name      string
	chunks    []chat.StreamChunk
	openErr   error
	replyText string
	stream    chan chat.StreamChunk
}

func (f *fakeProvider) Name() string                 { return f.name }
func (f *fakeProvider) SupportsModel(mo string) bool { return true }

func (f *fakeProvider) Reply(ctx context.Context, req *services.ReplyRequest) (*services.Reply, error) {
	return &services.Reply{Text: f.replyText, Model: req.Model}, nil
}

func (f *fakeProvider) StreamReply(ctx context.Context, req *services.ReplyRequest) (<-chan chat.StreamChunk, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.stream != nil {
		return f.stream, nil
	}

	out := make(chan chat.StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range f.chunks {
			select {
			case <-ctx.Done():
				return
			case out <- chunk:
			}
		}
	}()
	return out, nil
}

// --- harness ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(contacts *fakeContacts, messages *fakeMessages, provider services.ChatProvider) services.Advisor {
	cfg := &config.Config{
		DefaultProvider: "fake",
		DefaultModel:    "fake-model",
		HistoryWindow:   20,
		MaxPromptChars:  24000,
	}

	registry := NewProviderRegistry(cfg.DefaultProvider)
	if provider != nil {
		registry.Register(provider)
	}

	logger := testLogger()
	personas := config.DefaultPersonas()

	return NewService(
		contacts,
		messages,
		registry,
		NewSynchronizer(messages, fakeTxManager{}, logger),
		NewPromptComposer(cfg.HistoryWindow, cfg.MaxPromptChars),
		personas,
		cfg,
		logger,
	)
}

func defaultContacts() *fakeContacts {
	return &fakeContacts{
		contact: &models.Contact{ID: "c1", Name: "Alex", Relationship: "coworker"},
	}
}

func sendRequest() *services.SendRequest {
	return &services.SendRequest{
		ContactID: "c1",
		SessionID: "s1",
		UserText:  "how should I bring this up?",
	}
}

func collect(ch <-chan chat.StreamStatus) []chat.StreamStatus {
	var statuses []chat.StreamStatus
	for status := range ch {
		statuses = append(statuses, status)
	}
	return statuses
}

func kinds(statuses []chat.StreamStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.Kind
	}
	return out
}

// --- tests ---

func TestSendFullTurnWithThinking(t *testing.T) {
	contacts := defaultContacts()
	messages := newFakeMessages()
	provider := &fakeProvider{
		name: "fake",
		chunks: []chat.StreamChunk{
			{Kind: chat.ChunkStarted},
			{Kind: chat.ChunkThinkingDelta, Text: "weighing "},
			{Kind: chat.ChunkThinkingDelta, Text: "options"},
			{Kind: chat.ChunkThinkingComplete},
			{Kind: chat.ChunkTextDelta, Text: "Lead with "},
			{Kind: chat.ChunkTextDelta, Text: "the ask."},
			{Kind: chat.ChunkComplete, Usage: &chat.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}},
		},
	}

	svc := newTestService(contacts, messages, provider)
	statuses := collect(svc.Send(context.Background(), sendRequest()))

	want := []string{
		chat.StatusStarted,
		chat.StatusThinkingUpdate,
		chat.StatusThinkingUpdate,
		chat.StatusTextUpdate,
		chat.StatusTextUpdate,
		chat.StatusCompleted,
	}
	got := kinds(statuses)
	if len(got) != len(want) {
		t.Fatalf("status kinds: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("status kinds: got %v, want %v", got, want)
		}
	}

	// Accumulated text is monotonically non-decreasing in each update.
	if statuses[1].Text != "weighing " || statuses[2].Text != "weighing options" {
		t.Errorf("thinking updates must carry accumulated text: %q, %q", statuses[1].Text, statuses[2].Text)
	}
	if statuses[3].Text != "Lead with " || statuses[4].Text != "Lead with the ask." {
		t.Errorf("text updates must carry accumulated text: %q, %q", statuses[3].Text, statuses[4].Text)
	}

	final := statuses[len(statuses)-1]
	if final.FinalText != "Lead with the ask." {
		t.Errorf("final text: got %q", final.FinalText)
	}
	if final.Usage == nil || final.Usage.TotalTokens != 15 {
		t.Errorf("usage missing from completed status: %+v", final.Usage)
	}

	// User message persisted terminal, AI message flushed to success.
	userMsg := messages.message(t, "m1")
	if userMsg.Author != chat.AuthorUser || userMsg.SendStatus != chat.SendStatusSuccess {
		t.Errorf("user message: %+v", userMsg)
	}
	aiMsg := messages.message(t, "m2")
	if aiMsg.SendStatus != chat.SendStatusSuccess || aiMsg.Content != "Lead with the ask." {
		t.Errorf("ai message: %+v", aiMsg)
	}
	if aiMsg.RelatedUserMessageID == nil || *aiMsg.RelatedUserMessageID != "m1" {
		t.Errorf("ai message should link to the user message: %+v", aiMsg.RelatedUserMessageID)
	}

	thinking := messages.block(t, "m2", chat.BlockTypeThinking)
	if thinking.Status != chat.BlockStatusSuccess || thinking.Content != "weighing options" {
		t.Errorf("thinking block: %+v", thinking)
	}
	mainText := messages.block(t, "m2", chat.BlockTypeMainText)
	if mainText.Status != chat.BlockStatusSuccess || mainText.Content != "Lead with the ask." {
		t.Errorf("main block: %+v", mainText)
	}

	// Durable writes happen at the fixed points only, never per delta:
	// thinking open, thinking finalize, main_text streaming, terminal flush.
	if messages.upserts != 4 {
		t.Errorf("upsert count: got %d, want 4", messages.upserts)
	}
}

func TestSendBareThinkingCompleteCreatesNoThinkingBlock(t *testing.T) {
	contacts := defaultContacts()
	messages := newFakeMessages()
	provider := &fakeProvider{
		name: "fake",
		chunks: []chat.StreamChunk{
			{Kind: chat.ChunkStarted},
			{Kind: chat.ChunkThinkingComplete, FullText: "stray"},
			{Kind: chat.ChunkTextDelta, Text: "Answer."},
			{Kind: chat.ChunkComplete},
		},
	}

	svc := newTestService(contacts, messages, provider)
	statuses := collect(svc.Send(context.Background(), sendRequest()))

	got := kinds(statuses)
	if got[len(got)-1] != chat.StatusCompleted {
		t.Fatalf("expected completed terminal, got %v", got)
	}

	if messages.hasBlock("m2", chat.BlockTypeThinking) {
		t.Error("no thinking block expected without thinking deltas")
	}
	// Only the main_text streaming mark and the terminal flush hit the store.
	if messages.upserts != 2 {
		t.Errorf("upsert count: got %d, want 2", messages.upserts)
	}
}

func TestSendProviderErrorMarksMessageFailed(t *testing.T) {
	contacts := defaultContacts()
	messages := newFakeMessages()
	provider := &fakeProvider{
		name: "fake",
		chunks: []chat.StreamChunk{
			{Kind: chat.ChunkStarted},
			{Kind: chat.ChunkTextDelta, Text: "partial answer"},
			{Kind: chat.ChunkError, Err: errors.New("upstream overloaded")},
		},
	}

	svc := newTestService(contacts, messages, provider)
	statuses := collect(svc.Send(context.Background(), sendRequest()))

	got := kinds(statuses)
	if len(got) != 3 || got[0] != chat.StatusStarted || got[1] != chat.StatusTextUpdate || got[2] != chat.StatusError {
		t.Fatalf("status kinds: got %v", got)
	}
	if !strings.Contains(statuses[2].ErrorMessage, "upstream overloaded") {
		t.Errorf("error status should carry the cause: %q", statuses[2].ErrorMessage)
	}

	aiMsg := messages.message(t, "m2")
	if aiMsg.SendStatus != chat.SendStatusFailed {
		t.Errorf("ai message status: got %q, want failed", aiMsg.SendStatus)
	}
	if !strings.Contains(aiMsg.Content, "upstream overloaded") {
		t.Errorf("failed message content should embed the error summary: %q", aiMsg.Content)
	}

	// The partial answer stays on the block for possible display.
	mainText := messages.block(t, "m2", chat.BlockTypeMainText)
	if mainText.Status != chat.BlockStatusError || mainText.Content != "partial answer" {
		t.Errorf("main block after failure: %+v", mainText)
	}
}

func TestSendNoProviderEmitsOnlyError(t *testing.T) {
	contacts := defaultContacts()
	messages := newFakeMessages()

	svc := newTestService(contacts, messages, nil)
	statuses := collect(svc.Send(context.Background(), sendRequest()))

	got := kinds(statuses)
	if len(got) != 1 || got[0] != chat.StatusError {
		t.Fatalf("status kinds: got %v, want exactly one error", got)
	}
	if !errors.Is(statuses[0].Err, domain.ErrNoProvider) {
		t.Errorf("error cause: got %v", statuses[0].Err)
	}

	// Placeholders were written before resolution and stay pending.
	aiMsg := messages.message(t, "m2")
	if aiMsg.SendStatus != chat.SendStatusPending {
		t.Errorf("ai message should stay pending: %q", aiMsg.SendStatus)
	}
	if messages.upserts != 0 {
		t.Errorf("no further writes expected after resolution failure, got %d upserts", messages.upserts)
	}
}

func TestSendValidationFailureWritesNothing(t *testing.T) {
	messages := newFakeMessages()
	svc := newTestService(defaultContacts(), messages, &fakeProvider{name: "fake"})

	statuses := collect(svc.Send(context.Background(), &services.SendRequest{
		SessionID: "s1",
		UserText:  "hi",
	}))

	got := kinds(statuses)
	if len(got) != 1 || got[0] != chat.StatusError {
		t.Fatalf("status kinds: got %v, want exactly one error", got)
	}
	if !errors.Is(statuses[0].Err, domain.ErrValidation) {
		t.Errorf("error cause: got %v", statuses[0].Err)
	}
	if len(messages.msgs) != 0 {
		t.Errorf("no rows should be written on validation failure, got %d", len(messages.msgs))
	}
}

func TestSendEmptyTextAllowedWhenSkippingUserMessage(t *testing.T) {
	contacts := defaultContacts()
	messages := newFakeMessages()
	related := "m99"
	provider := &fakeProvider{
		name: "fake",
		chunks: []chat.StreamChunk{
			{Kind: chat.ChunkTextDelta, Text: "regenerated"},
			{Kind: chat.ChunkComplete},
		},
	}

	svc := newTestService(contacts, messages, provider)
	statuses := collect(svc.Send(context.Background(), &services.SendRequest{
		ContactID:            "c1",
		SessionID:            "s1",
		SkipUserMessage:      true,
		RelatedUserMessageID: &related,
	}))

	got := kinds(statuses)
	if got[len(got)-1] != chat.StatusCompleted {
		t.Fatalf("expected completed terminal, got %v", got)
	}

	// Only the AI message exists; it links to the given user message.
	if len(messages.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(messages.msgs))
	}
	aiMsg := messages.message(t, "m1")
	if aiMsg.Author != chat.AuthorAI {
		t.Errorf("author: %q", aiMsg.Author)
	}
	if aiMsg.RelatedUserMessageID == nil || *aiMsg.RelatedUserMessageID != related {
		t.Errorf("related user message: %+v", aiMsg.RelatedUserMessageID)
	}
}

func TestSendStreamClosedWithoutTerminal(t *testing.T) {
	contacts := defaultContacts()
	messages := newFakeMessages()
	provider := &fakeProvider{
		name: "fake",
		chunks: []chat.StreamChunk{
			{Kind: chat.ChunkStarted},
			{Kind: chat.ChunkTextDelta, Text: "cut "},
		},
	}

	svc := newTestService(contacts, messages, provider)
	statuses := collect(svc.Send(context.Background(), sendRequest()))

	got := kinds(statuses)
	if got[len(got)-1] != chat.StatusError {
		t.Fatalf("expected error terminal, got %v", got)
	}

	aiMsg := messages.message(t, "m2")
	if aiMsg.SendStatus != chat.SendStatusFailed {
		t.Errorf("ai message status: %q", aiMsg.SendStatus)
	}
}

func TestSendOpenStreamFailure(t *testing.T) {
	contacts := defaultContacts()
	messages := newFakeMessages()
	provider := &fakeProvider{name: "fake", openErr: errors.New("connection refused")}

	svc := newTestService(contacts, messages, provider)
	statuses := collect(svc.Send(context.Background(), sendRequest()))

	got := kinds(statuses)
	if len(got) != 1 || got[0] != chat.StatusError {
		t.Fatalf("status kinds: got %v, want exactly one error", got)
	}

	aiMsg := messages.message(t, "m2")
	if aiMsg.SendStatus != chat.SendStatusFailed {
		t.Errorf("ai message status: %q", aiMsg.SendStatus)
	}
}

func TestSendCancellationKeepsLastDurableState(t *testing.T) {
	contacts := defaultContacts()
	messages := newFakeMessages()

	stream := make(chan chat.StreamChunk)
	provider := &fakeProvider{name: "fake", stream: stream}

	svc := newTestService(contacts, messages, provider)
	ctx, cancel := context.WithCancel(context.Background())

	statuses := svc.Send(ctx, sendRequest())

	stream <- chat.StreamChunk{Kind: chat.ChunkTextDelta, Text: "half an "}

	first := <-statuses
	if first.Kind != chat.StatusStarted {
		t.Fatalf("first status: %q", first.Kind)
	}
	second := <-statuses
	if second.Kind != chat.StatusTextUpdate {
		t.Fatalf("second status: %q", second.Kind)
	}

	cancel()

	// The channel closes without a terminal status.
	for status := range statuses {
		if status.IsTerminal() {
			t.Errorf("no terminal status expected after cancellation, got %q", status.Kind)
		}
	}

	// Rows keep the last durably committed state.
	aiMsg := messages.message(t, "m2")
	if aiMsg.SendStatus != chat.SendStatusPending {
		t.Errorf("ai message should stay pending after cancellation: %q", aiMsg.SendStatus)
	}
	if messages.hasBlock("m2", chat.BlockTypeThinking) {
		t.Error("no thinking block expected")
	}
}

package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/chunk"
	"github.com/view-avocats/assistant/internal/usecase/retrieval"
)

// --- Mocks ---

type mockChat struct {
	completion domain.Completion
	err        error
	calls      int
	got        domain.ChatRequest
}

func (m *mockChat) Complete(_ context.Context, req domain.ChatRequest) (domain.Completion, error) {
	m.calls++
	m.got = req
	return m.completion, m.err
}

type mockRetriever struct {
	hits  []retrieval.Hit
	err   error
	gotK  int
	calls int
}

func (m *mockRetriever) Query(_ context.Context, _ string, k int) ([]retrieval.Hit, error) {
	m.calls++
	m.gotK = k
	return m.hits, m.err
}

var testCfg = Config{
	SystemPrompt:       "Vous êtes l'assistant virtuel du cabinet VIEW Avocats.",
	ContextInstruction: "Informations du cabinet :",
	ErrorMessage:       "Désolé, je rencontre des difficultés techniques. Veuillez réessayer.",
	TopK:               3,
}

func hit(i int, text string) retrieval.Hit {
	return retrieval.Hit{Chunk: chunk.New(i, text, 0, 0)}
}

// --- Tests ---

func TestBuildPrompt_WithContext(t *testing.T) {
	req := BuildPrompt("SYS", "CTX", "Q?", []retrieval.Hit{hit(0, "one"), hit(1, "two")})

	if len(req.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != domain.RoleSystem || req.Messages[0].Content != "SYS" {
		t.Errorf("unexpected system message: %+v", req.Messages[0])
	}
	if req.Messages[1].Content != "CTX\n\none\n\n---\n\ntwo" {
		t.Errorf("unexpected context message: %q", req.Messages[1].Content)
	}
	if req.Messages[2].Role != domain.RoleUser || req.Messages[2].Content != "Q?" {
		t.Errorf("unexpected user message: %+v", req.Messages[2])
	}
}

func TestBuildPrompt_NoHitsOmitsContext(t *testing.T) {
	req := BuildPrompt("SYS", "CTX", "Q?", nil)

	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	for _, m := range req.Messages {
		if strings.Contains(m.Content, "CTX") {
			t.Error("context instruction must be omitted without hits")
		}
	}
}

func TestRespond_Success(t *testing.T) {
	chat := &mockChat{completion: domain.Completion{Text: "Bonjour", Model: "gpt-4o-mini", PromptTokens: 12, OutputTokens: 3}}
	svc := New(chat, nil, testCfg, zap.NewNop())

	res := svc.Respond(context.Background(), "Bonjour ?", []retrieval.Hit{hit(4, "ctx")})
	if !res.OK() || res.Text != "Bonjour" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Usage.PromptTokens != 12 || res.Usage.OutputTokens != 3 {
		t.Errorf("unexpected usage: %+v", res.Usage)
	}
	if len(res.Sources) != 1 || res.Sources[0] != 4 {
		t.Errorf("unexpected sources: %v", res.Sources)
	}
}

func TestRespond_ChatFailureBecomesErrorResult(t *testing.T) {
	chat := &mockChat{err: domain.NewServiceError(domain.ServiceChat, 503, "overloaded")}
	svc := New(chat, nil, testCfg, zap.NewNop())

	res := svc.Respond(context.Background(), "Q", nil)
	if res.Status != StatusError {
		t.Fatalf("expected error status, got %q", res.Status)
	}
	if res.Message != testCfg.ErrorMessage {
		t.Errorf("Message = %q", res.Message)
	}
	if strings.Contains(res.Message, "overloaded") {
		t.Error("upstream detail must not reach the user")
	}
}

func TestRespond_EmptyCompletionIsFailure(t *testing.T) {
	svc := New(&mockChat{completion: domain.Completion{Text: "  "}}, nil, testCfg, zap.NewNop())

	if res := svc.Respond(context.Background(), "Q", nil); res.OK() {
		t.Fatal("empty completion must be a failure")
	}
}

func TestAnswer_SingleChunkScenario(t *testing.T) {
	corpus := "Le cabinet est ouvert de 9h à 18h."
	question := "Quels sont vos horaires ?"
	chat := &mockChat{completion: domain.Completion{Text: "De 9h à 18h."}}
	ret := &mockRetriever{hits: []retrieval.Hit{hit(0, corpus)}}
	svc := New(chat, ret, testCfg, zap.NewNop())

	res := svc.Answer(context.Background(), question)
	if !res.OK() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if ret.gotK != 3 {
		t.Errorf("expected top_k=3, got %d", ret.gotK)
	}

	var prompt strings.Builder
	for _, m := range chat.got.Messages {
		prompt.WriteString(m.Content)
		prompt.WriteString("\n")
	}
	p := prompt.String()
	ci, qi := strings.Index(p, corpus), strings.Index(p, question)
	if ci < 0 || qi < 0 || ci > qi {
		t.Errorf("chunk must appear verbatim before the question in:\n%s", p)
	}
}

func TestAnswer_RetrievalFailureSkipsChat(t *testing.T) {
	for _, err := range []error{domain.ErrIndexNotBuilt, domain.NewServiceError(domain.ServiceEmbedding, 401, "bad key")} {
		chat := &mockChat{completion: domain.Completion{Text: "x"}}
		svc := New(chat, &mockRetriever{err: err}, testCfg, zap.NewNop())

		res := svc.Answer(context.Background(), "Q")
		if res.Status != StatusError || res.Message != testCfg.ErrorMessage {
			t.Errorf("%v: unexpected result %+v", err, res)
		}
		if chat.calls != 0 {
			t.Errorf("%v: chat must not be called", err)
		}
	}
}

func TestAnswer_WithoutRetriever(t *testing.T) {
	chat := &mockChat{completion: domain.Completion{Text: "ok"}}
	svc := New(chat, nil, testCfg, zap.NewNop())

	if res := svc.Answer(context.Background(), "Q"); !res.OK() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if len(chat.got.Messages) != 2 {
		t.Errorf("expected system + user messages, got %d", len(chat.got.Messages))
	}
}

func TestAnswer_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	chat := &mockChat{err: context.Canceled}
	svc := New(chat, nil, testCfg, zap.NewNop())

	res := svc.Answer(ctx, "Q")
	if res.OK() || !errors.Is(chat.err, context.Canceled) {
		t.Fatalf("expected failure on cancelled context, got %+v", res)
	}
}

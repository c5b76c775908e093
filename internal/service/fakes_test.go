package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"quill-ai-go/internal/model"
	"quill-ai-go/internal/repository"
	"quill-ai-go/internal/testutil"
	"quill-ai-go/pkg/events"
	"quill-ai-go/pkg/llm"

	"gorm.io/gorm"
)

type fakeProvider struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	text    string
	tokens  int
	err     error
}

func (p *fakeProvider) Name() string  { return "fake" }
func (p *fakeProvider) Model() string { return "fake-1" }

func (p *fakeProvider) Generate(_ context.Context, prompt string, _ *llm.GenerationParams) (*llm.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Completion{Text: p.text, TokensUsed: p.tokens}, nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.UsageEvent
}

func (p *fakePublisher) Publish(_ context.Context, e events.UsageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type memBlacklist struct {
	tokens map[string]bool
}

func (b *memBlacklist) Add(_ context.Context, token string, _ time.Duration) error {
	b.tokens[token] = true
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, token string) (bool, error) {
	return b.tokens[token], nil
}

type fixture struct {
	db        *gorm.DB
	user      *model.User
	provider  *fakeProvider
	publisher *fakePublisher
	usage     repository.UsageRepository
	requests  repository.AIRequestRepository
	ai        AIService
}

func newFixture(t *testing.T, requestLimit int) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:        db,
		user:      testutil.CreateUser(t, db, "alice", model.RoleUser),
		provider:  &fakeProvider{text: "generated text", tokens: 500},
		publisher: &fakePublisher{},
		usage:     repository.NewUsageRepository(db, repository.QuotaDefaults{RequestLimit: requestLimit, Period: "monthly"}),
		requests:  repository.NewAIRequestRepository(db),
	}
	f.ai = NewAIService(f.provider, f.usage, f.requests, nil, f.publisher, AIOptions{CostPer1KTokens: 2})
	return f
}

func (f *fixture) caller() Caller {
	return Caller{UserID: f.user.ID, IPAddress: "127.0.0.1", UserAgent: "test"}
}

func (f *fixture) quota(t *testing.T) *model.UsageQuota {
	t.Helper()
	q, err := f.usage.GetOrCreate(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("get quota: %v", err)
	}
	return q
}

func (f *fixture) rows(t *testing.T) []model.AIRequest {
	t.Helper()
	var out []model.AIRequest
	if err := f.db.Order("id ASC").Find(&out).Error; err != nil {
		t.Fatalf("list rows: %v", err)
	}
	return out
}

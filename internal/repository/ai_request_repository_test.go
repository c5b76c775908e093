package repository

import (
	"context"
	"testing"

	"quill-ai-go/internal/model"
	"quill-ai-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIRequestRepository_ListAndCount(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice", model.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", model.RoleUser)
	repo := NewAIRequestRepository(db)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		require.NoError(t, repo.Create(ctx, newAIRequest(alice.ID, i)))
	}
	require.NoError(t, repo.Create(ctx, newAIRequest(bob.ID, 1)))

	recent, err := repo.ListRecentByUser(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, 11, recent[0].TokensUsed, "newest first")

	all, err := repo.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, all, 12)
	assert.Equal(t, 0, all[0].TokensUsed, "oldest first")

	n, err := repo.CountByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestAIRequestRepository_Stats(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice", model.RoleUser)
	repo := NewAIRequestRepository(db)
	ctx := context.Background()

	ok1 := newAIRequest(user.ID, 10)
	ok2 := newAIRequest(user.ID, 20)
	ok2.RequestType = model.RequestSEOOptimization
	failed := newAIRequest(user.ID, 0)
	failed.Status = model.StatusFailed
	failed.Provider = "openai"
	for _, r := range []*model.AIRequest{ok1, ok2, failed} {
		require.NoError(t, repo.Create(ctx, r))
	}

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Successful)
	assert.Equal(t, int64(30), stats.TotalTokens)
	assert.Equal(t, []NamedCount{{Name: "blog_draft", Count: 2}, {Name: "seo_optimization", Count: 1}}, stats.ByRequestType)
	assert.Equal(t, []NamedCount{{Name: "mock", Count: 2}, {Name: "openai", Count: 1}}, stats.ByProvider)
}

package repository

import (
	"context"
	"testing"
	"time"

	"quill-ai-go/internal/model"
	"quill-ai-go/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAIRequest(userID uint, tokens int) *model.AIRequest {
	return &model.AIRequest{
		RequestID:   uuid.NewString(),
		UserID:      userID,
		Provider:    "mock",
		RequestType: model.RequestBlogDraft,
		Status:      model.StatusCompleted,
		TokensUsed:  tokens,
	}
}

func TestUsageRepository_GetOrCreateUsesDefaults(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice", model.RoleUser)
	repo := NewUsageRepository(db, QuotaDefaults{RequestLimit: 3, TokenLimit: 100, Period: "monthly"})
	ctx := context.Background()

	q, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, q.RequestLimit)
	assert.Equal(t, 100, q.TokenLimit)
	assert.Zero(t, q.RequestsUsed)
	assert.True(t, model.PeriodStartFor(time.Now(), "monthly").Equal(q.PeriodStart))

	// second call reads the existing row
	again, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, q.UserID, again.UserID)

	var n int64
	require.NoError(t, db.Model(&model.UsageQuota{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestUsageRepository_RecordSuccessIncrementsAndInserts(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice", model.RoleUser)
	repo := NewUsageRepository(db, QuotaDefaults{RequestLimit: 2})
	ctx := context.Background()
	_, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, repo.RecordSuccess(ctx, newAIRequest(user.ID, 40)))

	q, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, q.RequestsUsed)
	assert.Equal(t, 40, q.TokensUsed)
	assert.Equal(t, 1, q.TotalRequests)
	assert.Equal(t, 40, q.TotalTokens)
	assert.NotNil(t, q.LastRequestAt)

	var rows int64
	require.NoError(t, db.Model(&model.AIRequest{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestUsageRepository_RecordSuccessRejectsAtLimit(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice", model.RoleUser)
	repo := NewUsageRepository(db, QuotaDefaults{RequestLimit: 1})
	ctx := context.Background()
	_, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, repo.RecordSuccess(ctx, newAIRequest(user.ID, 1)))
	err = repo.RecordSuccess(ctx, newAIRequest(user.ID, 1))
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	q, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, q.RequestsUsed)

	var rows int64
	require.NoError(t, db.Model(&model.AIRequest{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows, "rejected increment must not leave an audit row")
}

func TestUsageRepository_RecordSuccessRollsBackOnInsertFailure(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice", model.RoleUser)
	repo := NewUsageRepository(db, QuotaDefaults{RequestLimit: 5})
	ctx := context.Background()
	_, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	first := newAIRequest(user.ID, 1)
	require.NoError(t, repo.RecordSuccess(ctx, first))

	// duplicate request_id violates the unique index
	dup := newAIRequest(user.ID, 1)
	dup.RequestID = first.RequestID
	require.Error(t, repo.RecordSuccess(ctx, dup))

	q, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, q.RequestsUsed, "quota increment must roll back with the failed insert")
}

func TestUsageRepository_UpdateLimits(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice", model.RoleUser)
	repo := NewUsageRepository(db, QuotaDefaults{RequestLimit: 5})

	q, err := repo.UpdateLimits(context.Background(), user.ID, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, q.RequestLimit)
	assert.Equal(t, 0, q.TokenLimit)
}

func TestUsageRepository_ResetPeriod(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice", model.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", model.RoleUser)
	repo := NewUsageRepository(db, QuotaDefaults{RequestLimit: 5})
	ctx := context.Background()

	oldStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	newStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&model.UsageQuota{UserID: alice.ID, PeriodStart: oldStart, RequestsUsed: 5, RequestLimit: 5, TokensUsed: 9, TotalRequests: 5}).Error)
	require.NoError(t, db.Create(&model.UsageQuota{UserID: bob.ID, PeriodStart: newStart, RequestsUsed: 2, RequestLimit: 5}).Error)

	n, err := repo.ResetPeriod(ctx, newStart)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	a, err := repo.GetOrCreate(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, a.RequestsUsed)
	assert.Zero(t, a.TokensUsed)
	assert.Equal(t, 5, a.TotalRequests, "lifetime totals survive a reset")
	assert.True(t, newStart.Equal(a.PeriodStart))

	b, err := repo.GetOrCreate(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, b.RequestsUsed)
}

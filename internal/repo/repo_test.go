package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecosol/internal/domain"
	"ecosol/internal/repo"
	"ecosol/internal/repo/repotest"
)

func TestUserEnsureIsIdempotent(t *testing.T) {
	users := repo.NewUserRepo(repotest.Open(t))
	ctx := context.Background()

	u1, err := users.Ensure(ctx, "ana@x.com", "ana")
	require.NoError(t, err)
	require.NoError(t, users.SetRole(ctx, "ana@x.com", domain.RoleAdmin))
	u2, err := users.Ensure(ctx, "ana@x.com", "other")
	require.NoError(t, err)

	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "ana", u2.Name)
	assert.Equal(t, domain.RoleAdmin, u2.Role)

	missing, err := users.FindByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountDuplicateEmail(t *testing.T) {
	accounts := repo.NewAccountRepo(repotest.Open(t))
	ctx := context.Background()

	require.NoError(t, accounts.Create(ctx, &domain.Account{ID: "a1", Email: "ana@x.com", PasswordHash: "h"}))
	err := accounts.Create(ctx, &domain.Account{ID: "a2", Email: "ana@x.com", PasswordHash: "h"})
	assert.True(t, domain.Is(err, domain.KindConflict))

	require.NoError(t, accounts.UpdatePassword(ctx, "a1", "h2"))
	a, err := accounts.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "h2", a.PasswordHash)
	assert.True(t, domain.Is(accounts.UpdatePassword(ctx, "zz", "h"), domain.KindNotFound))
}

func TestApplyTransitionRollsBackOnDecideError(t *testing.T) {
	db := repotest.Open(t)
	listings := repo.NewListingRepo(db)
	ctx := context.Background()

	l := &domain.Listing{OwnerEmail: "ana@x.com", Name: "A", Category: "outros"}
	require.NoError(t, listings.Create(ctx, l))

	boom := domain.Conflict("stop")
	_, err := listings.ApplyTransition(ctx, domain.OpApprove, []uint{l.ID}, func(states []domain.ListingState) (domain.Plan, error) {
		require.Len(t, states, 1)
		return domain.Plan{}, boom
	})
	assert.True(t, errors.Is(err, boom))

	got, err := listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, got.Approved)
}

func TestApplyTransitionSeesSoftDeletedRows(t *testing.T) {
	listings := repo.NewListingRepo(repotest.Open(t))
	ctx := context.Background()
	l := &domain.Listing{OwnerEmail: "ana@x.com", Name: "A", Category: "outros"}
	require.NoError(t, listings.Create(ctx, l))

	plan, err := listings.ApplyTransition(ctx, domain.OpSoftDelete, []uint{l.ID}, func(s []domain.ListingState) (domain.Plan, error) {
		return domain.PlanTransition(domain.OpSoftDelete, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{l.ID}, plan.Target)

	var seen []domain.ListingState
	_, err = listings.ApplyTransition(ctx, domain.OpRestore, []uint{l.ID}, func(s []domain.ListingState) (domain.Plan, error) {
		seen = s
		return domain.PlanTransition(domain.OpRestore, s)
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Deleted)
	assert.Equal(t, "ana@x.com", seen[0].OwnerEmail)

	got, err := listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.DeletedAt)
}

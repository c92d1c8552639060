// ABOUTME: Tests for activity persistence
// ABOUTME: Covers owner filtering, partial updates and not-found handling

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestActivity(t *testing.T, store *SQLiteStore, day string, owner *int64) *Activity {
	t.Helper()
	a := &Activity{Day: day, Steps: 5000, DistanceKm: 3.2, ActiveTime: "40m", UserID: owner}
	require.NoError(t, store.CreateActivity(context.Background(), a))
	return a
}

func TestStore_CreateAndGetActivity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := createTestActivity(t, store, "Lun", nil)
	assert.NotZero(t, a.ID)

	got, err := store.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lun", got.Day)
	assert.Equal(t, 5000, got.Steps)
	assert.InDelta(t, 3.2, got.DistanceKm, 1e-9)
	assert.Equal(t, "40m", got.ActiveTime)
	assert.Nil(t, got.UserID)
}

func TestStore_CreateActivities(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	batch := []*Activity{
		{Day: "Lun", Steps: 100, DistanceKm: 0.1, ActiveTime: "5m"},
		{Day: "Mar", Steps: 200, DistanceKm: 0.2, ActiveTime: "10m"},
	}
	require.NoError(t, store.CreateActivities(ctx, batch))
	assert.NotZero(t, batch[0].ID)
	assert.Greater(t, batch[1].ID, batch[0].ID)

	n, err := store.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_CreateActivities_RollsBackOnFailure(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	missingUser := int64(999)
	batch := []*Activity{
		{Day: "Lun", Steps: 100, DistanceKm: 0.1, ActiveTime: "5m"},
		{Day: "Mar", Steps: 200, DistanceKm: 0.2, ActiveTime: "10m", UserID: &missingUser},
	}
	require.Error(t, store.CreateActivities(ctx, batch))

	n, err := store.CountActivities(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_GetActivity_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetActivity(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListActivities_FilterByOwner(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ana := createTestUser(t, store, "ana@x.com")
	bob := createTestUser(t, store, "bob@x.com")

	createTestActivity(t, store, "Lun", &ana.ID)
	createTestActivity(t, store, "Mar", &bob.ID)
	createTestActivity(t, store, "Mié", nil)
	createTestActivity(t, store, "Jue", &ana.ID)

	all, err := store.ListActivities(ctx, ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mine, err := store.ListActivities(ctx, ActivityFilter{UserID: &ana.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Lun", mine[0].Day)
	assert.Equal(t, "Jue", mine[1].Day)
	for _, a := range mine {
		require.NotNil(t, a.UserID)
		assert.Equal(t, ana.ID, *a.UserID)
	}
}

func TestStore_ListActivities_Empty(t *testing.T) {
	store := setupTestStore(t)

	activities, err := store.ListActivities(context.Background(), ActivityFilter{})
	require.NoError(t, err)
	assert.NotNil(t, activities)
	assert.Empty(t, activities)
}

func TestStore_UpdateActivity_Partial(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := createTestActivity(t, store, "Lun", nil)

	steps := 100
	updated, err := store.UpdateActivity(ctx, a.ID, ActivityPatch{Steps: &steps})
	require.NoError(t, err)

	assert.Equal(t, 100, updated.Steps)
	assert.Equal(t, "Lun", updated.Day)
	assert.InDelta(t, 3.2, updated.DistanceKm, 1e-9)
	assert.Equal(t, "40m", updated.ActiveTime)

	day, active := "Mar", "1h"
	dist := 0.0
	updated, err = store.UpdateActivity(ctx, a.ID, ActivityPatch{Day: &day, DistanceKm: &dist, ActiveTime: &active})
	require.NoError(t, err)
	assert.Equal(t, "Mar", updated.Day)
	assert.Equal(t, 100, updated.Steps)
	assert.Zero(t, updated.DistanceKm)
	assert.Equal(t, "1h", updated.ActiveTime)
}

func TestStore_UpdateActivity_EmptyPatch(t *testing.T) {
	store := setupTestStore(t)

	a := createTestActivity(t, store, "Lun", nil)

	updated, err := store.UpdateActivity(context.Background(), a.ID, ActivityPatch{})
	require.NoError(t, err)
	assert.Equal(t, a.Steps, updated.Steps)
	assert.Equal(t, a.Day, updated.Day)
}

func TestStore_UpdateActivity_NotFound(t *testing.T) {
	store := setupTestStore(t)

	steps := 100
	_, err := store.UpdateActivity(context.Background(), 999, ActivityPatch{Steps: &steps})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteActivity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := createTestActivity(t, store, "Lun", nil)
	require.NoError(t, store.DeleteActivity(ctx, a.ID))

	_, err := store.GetActivity(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteActivity(ctx, a.ID), ErrNotFound)
}

// ABOUTME: Tests for activity validation, ownership filtering and partial updates
// ABOUTME: Uses a real SQLite store in a temp directory

package activity

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vladimir-28/FitLife/internal/store"
)

func setupService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "activity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st, nil), st
}

func ptr[T any](v T) *T { return &v }

func fullFields() Fields {
	return Fields{
		Day:        ptr("Lun"),
		Steps:      ptr(5200),
		DistanceKm: ptr(3.4),
		ActiveTime: ptr("45m"),
	}
}

func requireValidation(t *testing.T, err error, msg string) {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Equal(t, msg, ve.Message)
}

func TestCreate(t *testing.T) {
	svc, _ := setupService(t)

	a, err := svc.Create(context.Background(), fullFields(), nil)
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.Equal(t, "Lun", a.Day)
	assert.Equal(t, 5200, a.Steps)
	assert.InDelta(t, 3.4, a.DistanceKm, 1e-9)
	assert.Equal(t, "45m", a.ActiveTime)
	assert.Nil(t, a.UserID)
}

func TestCreate_MissingFields(t *testing.T) {
	svc, _ := setupService(t)

	for _, drop := range []string{"day", "steps", "distanceKm", "activeTime"} {
		t.Run(drop, func(t *testing.T) {
			f := fullFields()
			switch drop {
			case "day":
				f.Day = nil
			case "steps":
				f.Steps = nil
			case "distanceKm":
				f.DistanceKm = nil
			case "activeTime":
				f.ActiveTime = nil
			}
			_, err := svc.Create(context.Background(), f, nil)
			requireValidation(t, err, MsgMissingFields)
		})
	}
}

func TestValidation(t *testing.T) {
	svc, _ := setupService(t)

	tests := []struct {
		name   string
		mutate func(*Fields)
		msg    string
	}{
		{"negative steps", func(f *Fields) { f.Steps = ptr(-1) }, MsgNegativeSteps},
		{"negative distance", func(f *Fields) { f.DistanceKm = ptr(-0.5) }, MsgInvalidDistance},
		{"NaN distance", func(f *Fields) { f.DistanceKm = ptr(math.NaN()) }, MsgInvalidDistance},
		{"blank day", func(f *Fields) { f.Day = ptr("   ") }, MsgDayRequired},
		{"long day", func(f *Fields) { f.Day = ptr(strings.Repeat("x", 21)) }, MsgDayTooLong},
		{"long active time", func(f *Fields) { f.ActiveTime = ptr(strings.Repeat("1", 21)) }, MsgActiveTimeTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fullFields()
			tt.mutate(&f)
			_, err := svc.Create(context.Background(), f, nil)
			requireValidation(t, err, tt.msg)
		})
	}
}

func TestCreate_MultibyteDay(t *testing.T) {
	svc, _ := setupService(t)
	f := fullFields()
	f.Day = ptr("Miércoles")

	a, err := svc.Create(context.Background(), f, nil)
	require.NoError(t, err)
	assert.Equal(t, "Miércoles", a.Day)
}

func TestList_Owner(t *testing.T) {
	svc, st := setupService(t)
	ctx := context.Background()

	user := &store.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "h"}
	require.NoError(t, st.CreateUser(ctx, user))

	_, err := svc.Create(ctx, fullFields(), nil)
	require.NoError(t, err)
	mine, err := svc.Create(ctx, fullFields(), &user.ID)
	require.NoError(t, err)
	require.NotNil(t, mine.UserID)
	assert.Equal(t, user.ID, *mine.UserID)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	owned, err := svc.List(ctx, &user.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, mine.ID, owned[0].ID)
}

func TestUpdate_Partial(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, fullFields(), nil)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a.ID, Fields{Steps: ptr(6000)})
	require.NoError(t, err)
	assert.Equal(t, 6000, updated.Steps)
	assert.Equal(t, "Lun", updated.Day)
	assert.InDelta(t, 3.4, updated.DistanceKm, 1e-9)
	assert.Equal(t, "45m", updated.ActiveTime)

	_, err = svc.Update(ctx, a.ID, Fields{Steps: ptr(-3)})
	requireValidation(t, err, MsgNegativeSteps)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Update(context.Background(), 999, Fields{Steps: ptr(1)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, fullFields(), nil)
	require.NoError(t, err)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lun", got.Day)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, fullFields(), nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), ErrNotFound)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

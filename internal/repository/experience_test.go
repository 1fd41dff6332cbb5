package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/gradnet/gradnet/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExperience(userID, title string, start time.Time, end *time.Time, current bool) *model.Experience {
	now := time.Now().UTC()
	return &model.Experience{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Company:   "Acme",
		StartDate: start,
		EndDate:   end,
		IsCurrent: current,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestExperienceRepository(t *testing.T) {
	ctx := context.Background()
	database := testdb.New(t)
	exps := NewExperienceRepository(database)
	user := testdb.User(t, database, "Alice", "")

	d := func(y int) time.Time { return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC) }
	end := d(2021)

	require.NoError(t, exps.Create(ctx, newExperience(user, "Intern", d(2019), &end, false)))
	require.NoError(t, exps.Create(ctx, newExperience(user, "Engineer", d(2022), nil, true)))
	require.NoError(t, exps.Create(ctx, newExperience(user, "Contractor", d(2021), &end, false)))

	t.Run("current first then newest start", func(t *testing.T) {
		list, err := exps.ByUser(ctx, user)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Engineer", list[0].Title)
		assert.Equal(t, "Contractor", list[1].Title)
		assert.Equal(t, "Intern", list[2].Title)
	})

	t.Run("store rejects current role with end date", func(t *testing.T) {
		err := exps.Create(ctx, newExperience(user, "Bad", d(2020), &end, true))
		assert.ErrorIs(t, err, ErrExperienceInvalid)
	})

	t.Run("owner scoped update and delete", func(t *testing.T) {
		list, err := exps.ByUser(ctx, user)
		require.NoError(t, err)
		exp := list[0]
		exp.UserID = uuid.NewString()
		assert.ErrorIs(t, exps.Update(ctx, &exp), ErrExperienceNotFound)
		assert.ErrorIs(t, exps.Delete(ctx, exp.ID, exp.UserID), ErrExperienceNotFound)
		require.NoError(t, exps.Delete(ctx, exp.ID, user))
	})
}

package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/zenplan-api/internal/domain/entity"
	"github.com/oksasatya/zenplan-api/internal/testutil"
)

const (
	alice = "11111111-1111-1111-1111-111111111111"
	bob   = "22222222-2222-2222-2222-222222222222"
)

func newListService(t *testing.T) (*ListService, *testutil.ActivityRepo) {
	t.Helper()
	r := testutil.NewActivityRepo()
	return NewListService(r, nil, nil), r
}

func walk() CreateActivityInput {
	return CreateActivityInput{Title: "Walk", Category: "Exercise", Time: "2024-01-01T10:00:00Z"}
}

func strp(s string) *string { return &s }

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    CreateActivityInput
		field string
	}{
		{"blank title", CreateActivityInput{Title: "   ", Category: "Exercise", Time: "2024-01-01T10:00:00Z"}, "title"},
		{"unknown category", CreateActivityInput{Title: "Walk", Category: "Sleep", Time: "2024-01-01T10:00:00Z"}, "category"},
		{"lower-case category", CreateActivityInput{Title: "Walk", Category: "exercise", Time: "2024-01-01T10:00:00Z"}, "category"},
		{"bad time", CreateActivityInput{Title: "Walk", Category: "Exercise", Time: "tomorrow"}, "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, r := newListService(t)
			_, err := svc.Create(context.Background(), alice, tt.in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Zero(t, r.Count(), "nothing is persisted on validation failure")
		})
	}
}

func TestCreateAcceptsBothCategoryForms(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, alice, CreateActivityInput{Title: " Breathe ", Category: "Stress_Management", Time: "2024-01-01T10:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, entity.CategoryStressManagement, a.Category)
	assert.Equal(t, "Breathe", a.Title)
	assert.Equal(t, alice, a.UserID)
	assert.False(t, a.Completed)

	b, err := svc.Create(ctx, alice, CreateActivityInput{Title: "Talk", Category: "Social Wellness", Time: "2024-01-01 10:00"})
	require.NoError(t, err)
	assert.Equal(t, entity.CategorySocialWellness, b.Category)
}

func TestListIsScopedToOwner(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, alice, walk())
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, walk())
	require.NoError(t, err)
	second, err := svc.Create(ctx, alice, CreateActivityInput{Title: "Drink water", Category: "Hydration", Time: "2024-01-01T11:00:00Z"})
	require.NoError(t, err)

	items, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
	for _, a := range items {
		assert.Equal(t, alice, a.UserID)
	}

	empty, err := svc.List(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestForeignIDBehavesLikeMissingID(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, alice, walk())
	require.NoError(t, err)

	missing := uuid.NewString()
	for _, id := range []string{a.ID, missing, "not-a-uuid"} {
		_, err := svc.Toggle(ctx, bob, id)
		assert.ErrorIs(t, err, ErrActivityNotFound, id)

		_, err = svc.Edit(ctx, bob, id, EditActivityInput{Title: strp("Run")})
		assert.ErrorIs(t, err, ErrActivityNotFound, id)

		assert.ErrorIs(t, svc.Delete(ctx, bob, id), ErrActivityNotFound, id)
	}

	items, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Walk", items[0].Title)
	assert.False(t, items[0].Completed)
}

func TestToggleTwiceRestores(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, alice, walk())
	require.NoError(t, err)

	on, err := svc.Toggle(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.True(t, on.Completed)

	off, err := svc.Toggle(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.False(t, off.Completed)
}

func TestCompleteAllLeavesOthersUntouched(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	a1, _ := svc.Create(ctx, alice, walk())
	_, _ = svc.Create(ctx, alice, walk())
	_, _ = svc.Toggle(ctx, alice, a1.ID)
	b1, _ := svc.Create(ctx, bob, walk())

	changed, err := svc.CompleteAll(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, changed, 1, "only open activities change")

	items, _ := svc.List(ctx, alice)
	for _, a := range items {
		assert.True(t, a.Completed)
	}
	bobs, _ := svc.List(ctx, bob)
	require.Len(t, bobs, 1)
	assert.Equal(t, b1.ID, bobs[0].ID)
	assert.False(t, bobs[0].Completed)

	again, err := svc.CompleteAll(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestEdit(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, alice, walk())
	require.NoError(t, err)

	updated, err := svc.Edit(ctx, alice, a.ID, EditActivityInput{Category: strp("Medical_Checkups"), Note: strp("bring shoes")})
	require.NoError(t, err)
	assert.Equal(t, "Walk", updated.Title, "unset fields are kept")
	assert.Equal(t, entity.CategoryMedicalCheckups, updated.Category)
	assert.Equal(t, "bring shoes", updated.Note)
	assert.False(t, updated.Completed)

	_, err = svc.Edit(ctx, alice, a.ID, EditActivityInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "payload")

	_, err = svc.Edit(ctx, alice, a.ID, EditActivityInput{Title: strp(" ")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cannot be empty", verr.Fields["title"])
}

func TestDelete(t *testing.T) {
	svc, r := newListService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, alice, walk())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, alice, a.ID))
	assert.Zero(t, r.Count())
	assert.ErrorIs(t, svc.Delete(ctx, alice, a.ID), ErrActivityNotFound)
}

func TestStoreErrorsPropagate(t *testing.T) {
	svc, r := newListService(t)
	boom := errors.New("connection reset")
	r.Err = boom

	_, err := svc.List(context.Background(), alice)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Toggle(context.Background(), alice, uuid.NewString())
	assert.ErrorIs(t, err, boom)
}

func TestSearch(t *testing.T) {
	r := testutil.NewActivityRepo()
	idx := testutil.NewIndex()
	svc := NewListService(r, idx, nil)
	ctx := context.Background()

	mine, err := svc.Create(ctx, alice, CreateActivityInput{Title: "Morning walk", Category: "Exercise", Time: "2024-01-01T07:00:00Z"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, CreateActivityInput{Title: "Evening walk", Category: "Exercise", Time: "2024-01-01T19:00:00Z"})
	require.NoError(t, err)
	assert.True(t, idx.Has(mine.ID))

	hits, err := svc.Search(ctx, alice, "walk", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1, "foreign index hits are dropped")
	assert.Equal(t, mine.ID, hits[0].ID)

	idx.Err = errors.New("cluster red")
	hits, err = svc.Search(ctx, alice, "WALK", 10)
	require.NoError(t, err, "falls back to a store scan")
	require.Len(t, hits, 1)

	_, err = svc.Search(ctx, alice, "  ", 10)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, svc.Delete(ctx, alice, mine.ID))
	assert.False(t, idx.Has(mine.ID))
}

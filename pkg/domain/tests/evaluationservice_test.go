package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustrade/pkg/domain/model"
)

func TestCreateEvaluation(t *testing.T) {
	ctx := context.Background()

	t.Run("Success adjusts seller credit", func(t *testing.T) {
		f := setup(t)
		tr := f.completedTrade(t, 3, 1)
		f.dispatcher.Reset()

		evaluation, err := f.evaluations.CreateEvaluation(ctx, tr.order.ID, tr.buyer.ID, 5, "  great condition ")
		require.NoError(t, err)
		assert.Equal(t, "great condition", evaluation.Content)
		assert.Equal(t, tr.seller.ID, evaluation.SellerID)
		assert.Equal(t, 69, f.user(tr.seller.ID).Credit)
		assert.Equal(t, []string{"EvaluationCreated", "CreditAdjusted"}, f.dispatcher.types())
	})

	t.Run("Low rating lowers credit", func(t *testing.T) {
		f := setup(t)
		tr := f.completedTrade(t, 3, 1)

		_, err := f.evaluations.CreateEvaluation(ctx, tr.order.ID, tr.buyer.ID, 1, "")
		require.NoError(t, err)
		assert.Equal(t, 61, f.user(tr.seller.ID).Credit)
	})

	t.Run("Second evaluation conflicts", func(t *testing.T) {
		f := setup(t)
		tr := f.completedTrade(t, 3, 1)
		_, err := f.evaluations.CreateEvaluation(ctx, tr.order.ID, tr.buyer.ID, 4, "ok")
		require.NoError(t, err)
		creditAfterFirst := f.user(tr.seller.ID).Credit

		_, err = f.evaluations.CreateEvaluation(ctx, tr.order.ID, tr.buyer.ID, 5, "even better")
		assert.ErrorIs(t, err, model.ErrConflict)
		assert.Equal(t, creditAfterFirst, f.user(tr.seller.ID).Credit)
		assert.Len(t, f.store.evaluations, 1)
	})

	t.Run("Credit never exceeds the cap", func(t *testing.T) {
		f := setup(t)
		first := f.newTrade(t, 3, 1)
		f.store.users[first.seller.ID].Credit = 98

		buyer := f.addUser(50, false)
		second, err := f.orders.CreateOrder(ctx, buyer.ID, first.product.ID, 1, tradeTime, "lab")
		require.NoError(t, err)
		for _, id := range []uuid.UUID{first.order.ID, second.ID} {
			_, err := f.orders.ConfirmOrder(ctx, id, first.seller.ID)
			require.NoError(t, err)
		}
		_, err = f.orders.CompleteOrder(ctx, first.order.ID, first.buyer.ID)
		require.NoError(t, err)

		_, err = f.evaluations.CreateEvaluation(ctx, first.order.ID, first.buyer.ID, 5, "")
		require.NoError(t, err)
		_, err = f.orders.CompleteOrder(ctx, second.ID, buyer.ID)
		require.NoError(t, err)

		assert.Equal(t, model.MaxCredit, f.user(first.seller.ID).Credit)
	})

	t.Run("Preconditions are checked in order", func(t *testing.T) {
		f := setup(t)
		tr := f.newTrade(t, 3, 1)
		stranger := f.addUser(50, false)

		_, err := f.evaluations.CreateEvaluation(ctx, uuid.New(), tr.buyer.ID, 9, "")
		assert.ErrorIs(t, err, model.ErrOrderNotFound)

		_, err = f.evaluations.CreateEvaluation(ctx, tr.order.ID, stranger.ID, 9, "")
		assert.ErrorIs(t, err, model.ErrNotOrderBuyer)

		_, err = f.evaluations.CreateEvaluation(ctx, tr.order.ID, tr.buyer.ID, 9, "")
		assert.ErrorIs(t, err, model.ErrOrderNotCompleted)

		done := f.completedTrade(t, 3, 1)
		for _, rating := range []int{0, 6, -1} {
			_, err = f.evaluations.CreateEvaluation(ctx, done.order.ID, done.buyer.ID, rating, "")
			assert.ErrorIs(t, err, model.ErrInvalidRating)
		}

		_, err = f.evaluations.CreateEvaluation(ctx, done.order.ID, done.buyer.ID, 3, strings.Repeat("x", model.MaxContentLength+1))
		assert.ErrorIs(t, err, model.ErrValidation)
		assert.Empty(t, f.store.evaluations)
	})

	t.Run("Credit failure leaves no evaluation", func(t *testing.T) {
		f := setup(t)
		tr := f.completedTrade(t, 3, 1)
		f.store.failAppend = true

		_, err := f.evaluations.CreateEvaluation(ctx, tr.order.ID, tr.buyer.ID, 5, "")
		assert.Error(t, err)
		assert.Empty(t, f.store.evaluations)
		assert.Equal(t, 65, f.user(tr.seller.ID).Credit)
	})
}

func TestDeleteEvaluation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	tr := f.completedTrade(t, 3, 1)
	evaluation, err := f.evaluations.CreateEvaluation(ctx, tr.order.ID, tr.buyer.ID, 5, "")
	require.NoError(t, err)
	staff := f.addUser(50, true)

	t.Run("Fail for non staff", func(t *testing.T) {
		err := f.evaluations.DeleteEvaluation(ctx, evaluation.ID, tr.buyer.ID)
		assert.ErrorIs(t, err, model.ErrStaffOnly)
	})

	t.Run("Staff deletes and credit stays", func(t *testing.T) {
		err := f.evaluations.DeleteEvaluation(ctx, evaluation.ID, staff.ID)
		require.NoError(t, err)
		assert.Empty(t, f.store.evaluations)
		assert.Equal(t, 69, f.user(tr.seller.ID).Credit)
	})

	t.Run("Fail on missing evaluation", func(t *testing.T) {
		err := f.evaluations.DeleteEvaluation(ctx, evaluation.ID, staff.ID)
		assert.ErrorIs(t, err, model.ErrEvaluationNotFound)
	})

	t.Run("Deleted order evaluation cannot be created again", func(t *testing.T) {
		entriesBefore := len(f.store.credits)

		_, err := f.evaluations.CreateEvaluation(ctx, tr.order.ID, tr.buyer.ID, 5, "second try")
		assert.ErrorIs(t, err, model.ErrEvaluationExists)
		assert.Empty(t, f.store.evaluations)
		assert.Len(t, f.store.credits, entriesBefore)
		assert.Equal(t, 69, f.user(tr.seller.ID).Credit)
	})
}

func TestGetAndListEvaluations(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	first := f.completedTrade(t, 3, 1)
	second := f.completedTrade(t, 3, 1)
	made, err := f.evaluations.CreateEvaluation(ctx, first.order.ID, first.buyer.ID, 4, "fine")
	require.NoError(t, err)
	_, err = f.evaluations.CreateEvaluation(ctx, second.order.ID, second.buyer.ID, 2, "late")
	require.NoError(t, err)

	t.Run("Get by id", func(t *testing.T) {
		got, err := f.evaluations.GetEvaluation(ctx, made.ID)
		require.NoError(t, err)
		assert.Equal(t, made.OrderID, got.OrderID)

		_, err = f.evaluations.GetEvaluation(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrEvaluationNotFound)
	})

	t.Run("Made and received", func(t *testing.T) {
		evaluations, total, err := f.evaluations.ListEvaluations(ctx, model.EvaluationQuery{UserID: first.buyer.ID, Role: model.ListAsBuyer})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, made.ID, evaluations[0].ID)

		evaluations, total, err = f.evaluations.ListEvaluations(ctx, model.EvaluationQuery{UserID: second.seller.ID, Role: model.ListAsSeller})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, 2, evaluations[0].Rating)

		_, total, err = f.evaluations.ListEvaluations(ctx, model.EvaluationQuery{UserID: first.buyer.ID, Role: model.ListAsSeller})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("Staff list every evaluation", func(t *testing.T) {
		staff := f.addUser(50, true)

		_, total, err := f.evaluations.ListEvaluations(ctx, model.EvaluationQuery{UserID: staff.ID, Role: model.ListAll})
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		_, _, err = f.evaluations.ListEvaluations(ctx, model.EvaluationQuery{UserID: first.buyer.ID, Role: model.ListAll})
		assert.ErrorIs(t, err, model.ErrStaffOnly)

		_, _, err = f.evaluations.ListEvaluations(ctx, model.EvaluationQuery{UserID: staff.ID, PageSize: model.MaxPageSize + 1})
		assert.ErrorIs(t, err, model.ErrInvalidQuery)
	})
}

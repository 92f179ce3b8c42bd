package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sspl_backend/internals/features/registration/model"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleSubmission(name string) *model.Submission {
	now := time.Now().UTC()
	return &model.Submission{
		SubmissionID:         uuid.New(),
		SubmissionName:       name,
		SubmissionAddress:    "12 Main Road, Sawantwadi",
		PlayerType:           "batsman",
		TshirtSize:           "L",
		JerseyName:           name,
		JerseyNumber:         "7",
		FoodType:             "veg",
		FeeResponse:          "paid",
		PhotoKey:             "photos/1-a-photo.jpg",
		PaymentScreenshotKey: "payments/1-a-shot.jpg",
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func sampleFailedSubmission(name string) *model.FailedSubmission {
	return &model.FailedSubmission{
		Submission:     *sampleSubmission(name),
		FailureReason:  "payment_not_confirmed",
		FailureMessage: "no allowed amount found in OCR text",
	}
}

func TestFileStoreInsertAndList(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	first := sampleSubmission("First Player")
	require.NoError(t, store.Insert(ctx, first))

	second := sampleSubmission("Second Player")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, store.Insert(ctx, second))

	subs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	// newest first
	assert.Equal(t, second.SubmissionID, subs[0].SubmissionID)
	assert.Equal(t, first.SubmissionID, subs[1].SubmissionID)
	assert.Equal(t, "First Player", subs[1].SubmissionName)
	assert.Equal(t, "photos/1-a-photo.jpg", subs[1].PhotoKey)
}

func TestFileStoreSoftDeleteHidesFromListing(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	sub := sampleSubmission("Player")
	require.NoError(t, store.Insert(ctx, sub))

	removed, err := store.SoftDelete(ctx, sub.SubmissionID)
	require.NoError(t, err)
	assert.True(t, removed)

	subs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	count, err := store.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// second delete of the same id finds nothing
	removed, err = store.SoftDelete(ctx, sub.SubmissionID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFileStoreSoftDeleteFailedTrack(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	failed := sampleFailedSubmission("Player")
	require.NoError(t, store.InsertFailed(ctx, failed))

	removed, err := store.SoftDelete(ctx, failed.SubmissionID)
	require.NoError(t, err)
	assert.True(t, removed)

	failedList, err := store.ListFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, failedList)
}

func TestFileStoreApproveMovesRecord(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	failed := sampleFailedSubmission("Player")
	failed.PaymentValidated = false
	require.NoError(t, store.InsertFailed(ctx, failed))

	moved, err := store.Approve(ctx, failed.SubmissionID)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, failed.SubmissionID, moved.SubmissionID)
	assert.True(t, moved.PaymentValidated)

	subs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, failed.SubmissionID, subs[0].SubmissionID)

	failedList, err := store.ListFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, failedList)
}

func TestFileStoreApproveUnknownID(t *testing.T) {
	store := newTestFileStore(t)

	moved, err := store.Approve(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, moved)
}

func TestFileStoreApproveIsExactlyOnce(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	failed := sampleFailedSubmission("Player")
	require.NoError(t, store.InsertFailed(ctx, failed))

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*model.Submission, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			moved, err := store.Approve(ctx, failed.SubmissionID)
			assert.NoError(t, err)
			results[i] = moved
		}(i)
	}
	wg.Wait()

	var winners int
	for _, moved := range results {
		if moved != nil {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	subs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestFileStoreConcurrentApproveAndDelete(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	failed := sampleFailedSubmission("Player")
	require.NoError(t, store.InsertFailed(ctx, failed))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := store.Approve(ctx, failed.SubmissionID)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := store.SoftDelete(ctx, failed.SubmissionID)
		assert.NoError(t, err)
	}()
	wg.Wait()

	// whichever interleaving won, the entry is active at most once across
	// both tracks
	subs, err := store.List(ctx)
	require.NoError(t, err)
	failedList, err := store.ListFailed(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(subs)+len(failedList), 1)
}

func TestFileStoreSetPaymentValidated(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	sub := sampleSubmission("Player")
	sub.PaymentValidated = true
	require.NoError(t, store.Insert(ctx, sub))

	updated, err := store.SetPaymentValidated(ctx, sub.SubmissionID, false)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.False(t, updated.PaymentValidated)

	subs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.False(t, subs[0].PaymentValidated)

	missing, err := store.SetPaymentValidated(ctx, uuid.New(), true)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFileStoreRoundTripsValidationEvidence(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	amount := 900.0
	sub := sampleSubmission("Player")
	sub.OcrText = "Paid Rs 900 to Aditya Kuveskar"
	sub.DetectedAmounts = []float64{900}
	sub.MatchedReasons = []string{"currency_context", "payee_name"}
	sub.MatchedAmount = &amount
	sub.PaymentDetected = true
	sub.PaymentValidated = true
	require.NoError(t, store.Insert(ctx, sub))

	subs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	got := subs[0]
	assert.Equal(t, sub.OcrText, got.OcrText)
	assert.Equal(t, []float64{900}, []float64(got.DetectedAmounts))
	assert.Equal(t, []string{"currency_context", "payee_name"}, []string(got.MatchedReasons))
	require.NotNil(t, got.MatchedAmount)
	assert.Equal(t, 900.0, *got.MatchedAmount)
	assert.True(t, got.PaymentDetected)
	assert.True(t, got.PaymentValidated)
}

func TestFileStoreCountActive(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Insert(ctx, sampleSubmission("Player")))
	}
	// failed submissions never count toward capacity
	require.NoError(t, store.InsertFailed(ctx, sampleFailedSubmission("Rejected")))

	count, err := store.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

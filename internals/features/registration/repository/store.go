package repository

import (
	"context"

	"github.com/google/uuid"

	"sspl_backend/internals/features/registration/model"
)

// SubmissionStore is the persistence boundary for both submission tracks.
// The backend is chosen once at startup configuration; callers never branch
// on the implementation.
//
// Invariant: a logical entry is active in exactly one of the two tracks.
// Approve is the only transition and must be atomic under concurrent
// approve/delete for the same id.
type SubmissionStore interface {
	Insert(ctx context.Context, sub *model.Submission) error
	InsertFailed(ctx context.Context, sub *model.FailedSubmission) error

	// List and ListFailed return active records, newest first.
	List(ctx context.Context) ([]model.Submission, error)
	ListFailed(ctx context.Context) ([]model.FailedSubmission, error)

	// SoftDelete hides the record from listings without removing it; it
	// checks the successful track first, then the failed track. Returns
	// false when the id is not active anywhere.
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)

	// Approve moves a failed submission into the successful track and
	// returns the moved record, or nil when the id is not an active failed
	// submission.
	Approve(ctx context.Context, id uuid.UUID) (*model.Submission, error)

	// SetPaymentValidated is the manual admin override; returns the updated
	// record, or nil when not found.
	SetPaymentValidated(ctx context.Context, id uuid.UUID, validated bool) (*model.Submission, error)

	// CountActive counts non-deleted successful submissions (capacity gate).
	CountActive(ctx context.Context) (int64, error)
}

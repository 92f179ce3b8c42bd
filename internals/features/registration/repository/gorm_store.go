package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sspl_backend/internals/features/registration/model"
)

// GormStore persists both tracks in the relational backend (postgres or
// mysql, per startup config).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates/updates both track tables.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&model.Submission{}, &model.FailedSubmission{})
}

func (s *GormStore) Insert(ctx context.Context, sub *model.Submission) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s *GormStore) InsertFailed(ctx context.Context, sub *model.FailedSubmission) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s *GormStore) List(ctx context.Context) ([]model.Submission, error) {
	var subs []model.Submission
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&subs).Error
	return subs, err
}

func (s *GormStore) ListFailed(ctx context.Context) ([]model.FailedSubmission, error) {
	var subs []model.FailedSubmission
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&subs).Error
	return subs, err
}

func (s *GormStore) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Where("submission_id = ?", id).Delete(&model.Submission{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	res = s.db.WithContext(ctx).Where("submission_id = ?", id).Delete(&model.FailedSubmission{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Approve moves failed -> successful in one transaction. The failed row is
// locked FOR UPDATE so a concurrent approve or delete of the same id cannot
// double-insert or lose the record.
func (s *GormStore) Approve(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	var moved *model.Submission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var failed model.FailedSubmission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("submission_id = ?", id).
			First(&failed).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		sub := failed.Submission
		sub.PaymentValidated = true
		sub.DeletedAt = gorm.DeletedAt{}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		if err := tx.Delete(&failed).Error; err != nil {
			return err
		}
		moved = &sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func (s *GormStore) SetPaymentValidated(ctx context.Context, id uuid.UUID, validated bool) (*model.Submission, error) {
	res := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("submission_id = ?", id).
		Update("payment_validated", validated)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var sub model.Submission
	if err := s.db.WithContext(ctx).Where("submission_id = ?", id).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *GormStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Submission{}).Count(&count).Error
	return count, err
}

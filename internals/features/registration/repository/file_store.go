package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sspl_backend/internals/features/registration/model"
)

// FileStore is the zero-infrastructure backend: both tracks as JSON files
// under a data directory. One mutex serializes every operation, which is what
// makes Approve atomic here.
type FileStore struct {
	mu         sync.Mutex
	subsPath   string
	failedPath string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		subsPath:   filepath.Join(dir, "submissions.json"),
		failedPath: filepath.Join(dir, "failed-submissions.json"),
	}, nil
}

func readJSONFile[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("corrupt store file %s: %w", path, err)
	}
	return out, nil
}

// writeJSONFile writes via tmp+rename so a crash never leaves a torn file.
func writeJSONFile[T any](path string, records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) Insert(_ context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := readJSONFile[model.Submission](s.subsPath)
	if err != nil {
		return err
	}
	subs = append(subs, *sub)
	return writeJSONFile(s.subsPath, subs)
}

func (s *FileStore) InsertFailed(_ context.Context, sub *model.FailedSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := readJSONFile[model.FailedSubmission](s.failedPath)
	if err != nil {
		return err
	}
	subs = append(subs, *sub)
	return writeJSONFile(s.failedPath, subs)
}

func (s *FileStore) List(_ context.Context) ([]model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := readJSONFile[model.Submission](s.subsPath)
	if err != nil {
		return nil, err
	}
	active := subs[:0:0]
	for _, sub := range subs {
		if !sub.DeletedAt.Valid {
			active = append(active, sub)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active, nil
}

func (s *FileStore) ListFailed(_ context.Context) ([]model.FailedSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := readJSONFile[model.FailedSubmission](s.failedPath)
	if err != nil {
		return nil, err
	}
	active := subs[:0:0]
	for _, sub := range subs {
		if !sub.DeletedAt.Valid {
			active = append(active, sub)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active, nil
}

func (s *FileStore) SoftDelete(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := readJSONFile[model.Submission](s.subsPath)
	if err != nil {
		return false, err
	}
	for i := range subs {
		if subs[i].SubmissionID == id && !subs[i].DeletedAt.Valid {
			subs[i].DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
			return true, writeJSONFile(s.subsPath, subs)
		}
	}

	failed, err := readJSONFile[model.FailedSubmission](s.failedPath)
	if err != nil {
		return false, err
	}
	for i := range failed {
		if failed[i].SubmissionID == id && !failed[i].DeletedAt.Valid {
			failed[i].DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
			return true, writeJSONFile(s.failedPath, failed)
		}
	}
	return false, nil
}

func (s *FileStore) Approve(_ context.Context, id uuid.UUID) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	failed, err := readJSONFile[model.FailedSubmission](s.failedPath)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range failed {
		if failed[i].SubmissionID == id && !failed[i].DeletedAt.Valid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	subs, err := readJSONFile[model.Submission](s.subsPath)
	if err != nil {
		return nil, err
	}

	moved := failed[idx].Submission
	moved.PaymentValidated = true
	moved.DeletedAt = gorm.DeletedAt{}
	moved.UpdatedAt = time.Now().UTC()
	subs = append(subs, moved)

	// the successful copy is written before the failed entry is retired, so a
	// crash between the two writes duplicates rather than loses the record
	if err := writeJSONFile(s.subsPath, subs); err != nil {
		return nil, err
	}
	failed[idx].DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
	if err := writeJSONFile(s.failedPath, failed); err != nil {
		return nil, err
	}
	return &moved, nil
}

func (s *FileStore) SetPaymentValidated(_ context.Context, id uuid.UUID, validated bool) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := readJSONFile[model.Submission](s.subsPath)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].SubmissionID == id && !subs[i].DeletedAt.Valid {
			subs[i].PaymentValidated = validated
			subs[i].UpdatedAt = time.Now().UTC()
			if err := writeJSONFile(s.subsPath, subs); err != nil {
				return nil, err
			}
			sub := subs[i]
			return &sub, nil
		}
	}
	return nil, nil
}

func (s *FileStore) CountActive(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := readJSONFile[model.Submission](s.subsPath)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, sub := range subs {
		if !sub.DeletedAt.Valid {
			count++
		}
	}
	return count, nil
}

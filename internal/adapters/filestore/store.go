package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fxhub/internal/adapters"
	"fxhub/internal/domain"
)

var _ adapters.RateStore = (*Store)(nil)

// Store keeps the rate snapshot and the rate history as two JSON files.
// Every write goes to a temp file in the same directory which is then renamed
// over the target, so readers only ever see a complete file.
type Store struct {
	snapshotPath string
	historyPath  string

	snapshotMu sync.Mutex
	historyMu  sync.Mutex
}

func New(snapshotPath, historyPath string) (*Store, error) {
	for _, p := range []string{snapshotPath, historyPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, &domain.StorageError{Op: "mkdir", Path: p, Err: err}
		}
	}
	return &Store{snapshotPath: snapshotPath, historyPath: historyPath}, nil
}

func (s *Store) LoadSnapshot(_ context.Context) (domain.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.EmptySnapshot(), nil
	}
	if err != nil {
		return domain.Snapshot{}, &domain.StorageError{Op: "read", Path: s.snapshotPath, Err: err}
	}

	snap := domain.EmptySnapshot()
	if err = json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, &domain.StorageError{Op: "decode", Path: s.snapshotPath, Err: err}
	}
	if snap.Pairs == nil {
		snap.Pairs = map[string]domain.SnapshotEntry{}
	}
	return snap, nil
}

func (s *Store) SaveSnapshot(_ context.Context, pairs map[string]domain.SnapshotEntry, refresh time.Time) error {
	refresh = refresh.UTC()
	snap := domain.Snapshot{Pairs: pairs, LastRefresh: &refresh}
	if snap.Pairs == nil {
		snap.Pairs = map[string]domain.SnapshotEntry{}
	}

	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()
	return atomicWriteJSON(s.snapshotPath, snap)
}

func (s *Store) LoadHistory(_ context.Context) ([]domain.HistoryRecord, error) {
	return s.loadHistory()
}

// AppendHistory adds records whose id is not yet present and returns how many
// were appended.
func (s *Store) AppendHistory(_ context.Context, records []domain.HistoryRecord) (int, error) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	history, err := s.loadHistory()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(history)+len(records))
	for _, r := range history {
		seen[r.ID] = struct{}{}
	}

	appended := 0
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		history = append(history, r)
		appended++
	}
	if appended == 0 {
		return 0, nil
	}

	if err = atomicWriteJSON(s.historyPath, history); err != nil {
		return 0, err
	}
	return appended, nil
}

func (s *Store) loadHistory() ([]domain.HistoryRecord, error) {
	data, err := os.ReadFile(s.historyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.HistoryRecord{}, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "read", Path: s.historyPath, Err: err}
	}

	if !json.Valid(data) {
		return nil, &domain.StorageError{Op: "decode", Path: s.historyPath, Err: errors.New("invalid JSON")}
	}
	// anything but a JSON array is treated as empty history
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return []domain.HistoryRecord{}, nil
	}

	var history []domain.HistoryRecord
	if err = json.Unmarshal(data, &history); err != nil {
		return nil, &domain.StorageError{Op: "decode", Path: s.historyPath, Err: err}
	}
	if history == nil {
		history = []domain.HistoryRecord{}
	}
	return history, nil
}

func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return &domain.StorageError{Op: "encode", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return &domain.StorageError{Op: "create temp", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if err = writeAndClose(tmp, data); err != nil {
		_ = os.Remove(tmpPath)
		return &domain.StorageError{Op: "write temp", Path: path, Err: err}
	}
	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &domain.StorageError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

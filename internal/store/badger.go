package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

const (
	detectionKeyPrefix = "det:"
	alertKeyPrefix     = "alert:"
)

// BadgerStore persists detections and alerts in an embedded Badger database.
// Detection keys embed the timestamp so time-range queries are prefix scans.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadger opens (or creates) a database at dir. An empty dir opens an
// in-memory database.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, unavailable("open", err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func detectionKey(ts time.Time, id string) []byte {
	k := make([]byte, 0, len(detectionKeyPrefix)+8+1+len(id))
	k = append(k, detectionKeyPrefix...)
	k = binary.BigEndian.AppendUint64(k, uint64(ts.UnixNano()))
	k = append(k, ':')
	return append(k, id...)
}

func (s *BadgerStore) CreateDetection(_ context.Context, d detection.Detection) (string, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal detection: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(detectionKey(d.Timestamp, d.ID), data)
	})
	if err != nil {
		return "", unavailable("create detection", err)
	}
	return d.ID, nil
}

func (s *BadgerStore) CreateAlert(_ context.Context, a alert.Alert) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal alert: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(alertKeyPrefix+a.ID), data)
	})
	if err != nil {
		return "", unavailable("create alert", err)
	}
	return a.ID, nil
}

func (s *BadgerStore) QueryDetections(_ context.Context, since time.Time) ([]detection.Detection, error) {
	var out []detection.Detection
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(detectionKeyPrefix)
		start := detectionKey(since, "")
		if since.Before(time.Unix(0, 0)) {
			start = prefix
		}
		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			var d detection.Detection
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			}); err != nil {
				return err
			}
			out = append(out, d)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("query detections", err)
	}
	return out, nil
}

func (s *BadgerStore) UpdateAlertStatus(_ context.Context, id string, status alert.Status) (bool, error) {
	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(alertKeyPrefix + id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var a alert.Alert
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &a)
		}); err != nil {
			return err
		}
		found = true
		a, err = a.Transition(status, s.now().UTC())
		if err != nil {
			return err
		}
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, alert.ErrInvalidTransition) {
		return false, err
	}
	if err != nil {
		return false, unavailable("update alert status", err)
	}
	return found, nil
}

func (s *BadgerStore) ListAlerts(_ context.Context) ([]alert.Alert, error) {
	var out []alert.Alert
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(alertKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var a alert.Alert
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &a)
			}); err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("list alerts", err)
	}
	slices.SortStableFunc(out, func(x, y alert.Alert) int { return x.CreatedAt.Compare(y.CreatedAt) })
	return out, nil
}

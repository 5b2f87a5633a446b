package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("not found")

var (
	bktSessions = []byte("sessions")
	bktCounters = []byte("counters")
)

// Storage is a wrapper around bolt.DB
type Storage struct {
	db        *bolt.DB
	closeFunc func() error
}

// NewStorage creates a new storage
func NewStorage(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &Storage{
		db:        db,
		closeFunc: db.Close,
	}, nil
}

// NewTempStorage creates a storage backed by a throwaway file. Used in tests
// and debug runs.
func NewTempStorage() (*Storage, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("bucketbot-%s.db", uuid.New().String()))
	storage, err := NewStorage(path)
	if err != nil {
		return nil, err
	}
	originalCloseFunc := storage.closeFunc
	storage.closeFunc = func() error {
		if err := originalCloseFunc(); err != nil {
			return err
		}
		return os.Remove(path)
	}
	return storage, nil
}

// Close closes the storage
func (s *Storage) Close() error {
	return s.closeFunc()
}

// Session returns the conversation state for the user.
// Returns ErrNotFound if the user has no stored session.
func (s *Storage) Session(userID int64) (Session, error) {
	var sess Session
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktSessions)
		if b == nil {
			return ErrNotFound
		}
		data := b.Get(userKey(userID))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &sess); err != nil {
			return errors.Wrap(err, "decode session")
		}
		return nil
	})
	return sess, err
}

// PutSession stores the conversation state for the user, stamping UpdatedAt.
func (s *Storage) PutSession(userID int64, sess Session) error {
	sess.UpdatedAt = time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktSessions)
		if err != nil {
			return err
		}
		data, err := json.Marshal(sess)
		if err != nil {
			return errors.Wrap(err, "encode session")
		}
		return b.Put(userKey(userID), data)
	})
}

// DeleteSession drops the conversation state for the user. Deleting a
// missing session is not an error.
func (s *Storage) DeleteSession(userID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktSessions)
		if b == nil {
			return nil
		}
		return b.Delete(userKey(userID))
	})
}

// IncSubmitted bumps the submitted-entries counter for the given entry type.
// Only counts are kept, never entry content.
func (s *Storage) IncSubmitted(entryType string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktCounters)
		if err != nil {
			return err
		}
		count, err := counterValue(b.Get([]byte(entryType)))
		if err != nil {
			return err
		}
		return b.Put([]byte(entryType), []byte(strconv.FormatInt(count+1, 10)))
	})
}

// SubmittedCounts returns the submitted-entries counter per entry type.
func (s *Storage) SubmittedCounts() (map[string]int64, error) {
	counts := make(map[string]int64)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktCounters)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			count, err := counterValue(v)
			if err != nil {
				return err
			}
			counts[string(k)] = count
			return nil
		})
	})
	return counts, err
}

func counterValue(raw []byte) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	count, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse counter")
	}
	return count, nil
}

func userKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

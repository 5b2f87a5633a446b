package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/sumeetsaini/bucketbot/internal/storage"
	"github.com/sumeetsaini/bucketbot/internal/wellapi"
)

var ErrUnknownEntryType = errors.New("unknown entry type")
var ErrNoContentExpected = errors.New("no content expected")
var ErrEmptyContent = errors.New("content is empty")

// EntryPoster submits one entry to the Well API.
type EntryPoster interface {
	PostEntry(ctx context.Context, entryType, body string) (wellapi.PostResult, error)
}

type Service struct {
	s    *storage.Storage
	well EntryPoster
}

func NewService(s *storage.Storage, well EntryPoster) *Service {
	return &Service{s: s, well: well}
}

// State returns the user's conversation state. Users without a stored
// session are idle.
func (s *Service) State(userID int64) (storage.Session, error) {
	sess, err := s.s.Session(userID)
	if err == storage.ErrNotFound {
		return storage.Session{State: storage.StateIdle}, nil
	}
	return sess, err
}

// BeginEntry moves the user to the type-selection step.
func (s *Service) BeginEntry(userID int64) error {
	return s.s.PutSession(userID, storage.Session{State: storage.StateAwaitingType})
}

// SelectType stores the chosen entry type and moves the user to the
// content step. Selecting a type again mid-flow just replaces the choice.
func (s *Service) SelectType(userID int64, label string) (EntryType, error) {
	entryType, ok := ParseEntryType(label)
	if !ok {
		return "", ErrUnknownEntryType
	}
	err := s.s.PutSession(userID, storage.Session{
		State:     storage.StateAwaitingContent,
		EntryType: string(entryType),
	})
	return entryType, err
}

// SubmitContent posts the entry content and returns the user to idle.
// The session is dropped before the outbound call, so a failed submission
// never leaves a partial entry behind. Validation failures (ErrNoContentExpected,
// ErrEmptyContent) keep the session untouched.
func (s *Service) SubmitContent(ctx context.Context, userID int64, content string) (EntryType, wellapi.PostResult, error) {
	sess, err := s.State(userID)
	if err != nil {
		return "", wellapi.PostResult{}, err
	}
	if sess.State != storage.StateAwaitingContent || sess.EntryType == "" {
		return "", wellapi.PostResult{}, ErrNoContentExpected
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", wellapi.PostResult{}, ErrEmptyContent
	}
	entryType := EntryType(sess.EntryType)

	if err := s.s.DeleteSession(userID); err != nil {
		return "", wellapi.PostResult{}, errors.Wrap(err, "reset session")
	}

	result, err := s.well.PostEntry(ctx, string(entryType), content)
	if err != nil {
		return entryType, wellapi.PostResult{}, errors.Wrap(err, "post entry")
	}
	if result.OK() {
		if err := s.s.IncSubmitted(string(entryType)); err != nil {
			return entryType, result, errors.Wrap(err, "count submission")
		}
	}
	return entryType, result, nil
}

// Cancel discards any in-flight entry and returns the user to idle.
// Reports whether there was anything to discard.
func (s *Service) Cancel(userID int64) (bool, error) {
	sess, err := s.State(userID)
	if err != nil {
		return false, err
	}
	if sess.State == storage.StateIdle {
		return false, nil
	}
	return true, s.s.DeleteSession(userID)
}

// SubmittedCounts returns how many entries of each type were accepted by
// the Well API since the database was created.
func (s *Service) SubmittedCounts() (map[string]int64, error) {
	return s.s.SubmittedCounts()
}

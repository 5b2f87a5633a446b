package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumeetsaini/bucketbot/internal/service"
	"github.com/sumeetsaini/bucketbot/internal/storage"
	"github.com/sumeetsaini/bucketbot/internal/wellapi"
)

type postCall struct {
	entryType string
	body      string
}

type fakePoster struct {
	calls  []postCall
	result wellapi.PostResult
	err    error
}

func (f *fakePoster) PostEntry(_ context.Context, entryType, body string) (wellapi.PostResult, error) {
	f.calls = append(f.calls, postCall{entryType: entryType, body: body})
	return f.result, f.err
}

func newTestService(t *testing.T, poster *fakePoster) *service.Service {
	t.Helper()
	s, err := storage.NewTempStorage()
	require.NoError(t, err)
	t.Cleanup(func() {
		err := s.Close()
		require.NoError(t, err)
	})
	return service.NewService(s, poster)
}

func TestParseEntryType(t *testing.T) {
	tests := []struct {
		label  string
		want   service.EntryType
		wantOk bool
	}{
		{label: "Task", want: service.TypeTask, wantOk: true},
		{label: "Note", want: service.TypeNote, wantOk: true},
		{label: "Bookmark", want: service.TypeBookmark, wantOk: true},
		{label: " Note ", want: service.TypeNote, wantOk: true},
		{label: "note", wantOk: false},
		{label: "Recipe", wantOk: false},
		{label: "", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := service.ParseEntryType(tt.label)
			require.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFullFlow(t *testing.T) {
	for _, label := range service.EntryTypeLabels {
		t.Run(label, func(t *testing.T) {
			poster := &fakePoster{result: wellapi.PostResult{StatusCode: http.StatusCreated, Body: "ok"}}
			svc := newTestService(t, poster)
			userID := int64(1)

			require.NoError(t, svc.BeginEntry(userID))
			sess, err := svc.State(userID)
			require.NoError(t, err)
			assert.Equal(t, storage.StateAwaitingType, sess.State)

			entryType, err := svc.SelectType(userID, label)
			require.NoError(t, err)
			assert.Equal(t, label, entryType.Label())
			sess, err = svc.State(userID)
			require.NoError(t, err)
			assert.Equal(t, storage.StateAwaitingContent, sess.State)
			assert.Equal(t, string(entryType), sess.EntryType)

			gotType, result, err := svc.SubmitContent(context.Background(), userID, "buy milk")
			require.NoError(t, err)
			assert.Equal(t, entryType, gotType)
			assert.True(t, result.OK())

			// exactly one outbound call with (type, content)
			require.Len(t, poster.calls, 1)
			assert.Equal(t, postCall{entryType: string(entryType), body: "buy milk"}, poster.calls[0])

			// back to idle
			sess, err = svc.State(userID)
			require.NoError(t, err)
			assert.Equal(t, storage.StateIdle, sess.State)

			counts, err := svc.SubmittedCounts()
			require.NoError(t, err)
			assert.Equal(t, map[string]int64{string(entryType): 1}, counts)
		})
	}
}

func TestSelectType_Unknown(t *testing.T) {
	poster := &fakePoster{}
	svc := newTestService(t, poster)
	userID := int64(1)

	require.NoError(t, svc.BeginEntry(userID))
	_, err := svc.SelectType(userID, "Shopping list")
	require.ErrorIs(t, err, service.ErrUnknownEntryType)

	// no transition on bad input
	sess, err := svc.State(userID)
	require.NoError(t, err)
	assert.Equal(t, storage.StateAwaitingType, sess.State)
	assert.Empty(t, poster.calls)
}

func TestSubmitContent_NoTypeSelected(t *testing.T) {
	poster := &fakePoster{}
	svc := newTestService(t, poster)
	userID := int64(1)

	// idle user
	_, _, err := svc.SubmitContent(context.Background(), userID, "stray text")
	require.ErrorIs(t, err, service.ErrNoContentExpected)

	// still picking a type
	require.NoError(t, svc.BeginEntry(userID))
	_, _, err = svc.SubmitContent(context.Background(), userID, "stray text")
	require.ErrorIs(t, err, service.ErrNoContentExpected)

	assert.Empty(t, poster.calls)
}

func TestSubmitContent_EmptyContent(t *testing.T) {
	poster := &fakePoster{}
	svc := newTestService(t, poster)
	userID := int64(1)

	require.NoError(t, svc.BeginEntry(userID))
	_, err := svc.SelectType(userID, service.LabelNote)
	require.NoError(t, err)

	_, _, err = svc.SubmitContent(context.Background(), userID, "   \n ")
	require.ErrorIs(t, err, service.ErrEmptyContent)
	assert.Empty(t, poster.calls)

	// session survives so the user can retry
	sess, err := svc.State(userID)
	require.NoError(t, err)
	assert.Equal(t, storage.StateAwaitingContent, sess.State)
}

func TestSubmitContent_PostFails(t *testing.T) {
	poster := &fakePoster{err: errors.New("connection refused")}
	svc := newTestService(t, poster)
	userID := int64(1)

	require.NoError(t, svc.BeginEntry(userID))
	_, err := svc.SelectType(userID, service.LabelTask)
	require.NoError(t, err)

	_, _, err = svc.SubmitContent(context.Background(), userID, "do taxes")
	require.Error(t, err)

	// no partial entry retained, no retry: user is idle again
	sess, err := svc.State(userID)
	require.NoError(t, err)
	assert.Equal(t, storage.StateIdle, sess.State)
	require.Len(t, poster.calls, 1)

	counts, err := svc.SubmittedCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestSubmitContent_RejectedByAPI(t *testing.T) {
	poster := &fakePoster{result: wellapi.PostResult{StatusCode: http.StatusBadRequest, Body: "nope"}}
	svc := newTestService(t, poster)
	userID := int64(1)

	require.NoError(t, svc.BeginEntry(userID))
	_, err := svc.SelectType(userID, service.LabelBookmark)
	require.NoError(t, err)

	_, result, err := svc.SubmitContent(context.Background(), userID, "https://example.com")
	require.NoError(t, err)
	assert.False(t, result.OK())
	assert.Equal(t, "nope", result.Body)

	sess, err := svc.State(userID)
	require.NoError(t, err)
	assert.Equal(t, storage.StateIdle, sess.State)

	// rejected entries are not counted
	counts, err := svc.SubmittedCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCancel(t *testing.T) {
	poster := &fakePoster{}
	svc := newTestService(t, poster)
	userID := int64(1)

	// nothing to cancel while idle
	discarded, err := svc.Cancel(userID)
	require.NoError(t, err)
	assert.False(t, discarded)

	// cancel from type selection
	require.NoError(t, svc.BeginEntry(userID))
	discarded, err = svc.Cancel(userID)
	require.NoError(t, err)
	assert.True(t, discarded)
	sess, err := svc.State(userID)
	require.NoError(t, err)
	assert.Equal(t, storage.StateIdle, sess.State)

	// cancel from content step discards the stored type
	require.NoError(t, svc.BeginEntry(userID))
	_, err = svc.SelectType(userID, service.LabelNote)
	require.NoError(t, err)
	discarded, err = svc.Cancel(userID)
	require.NoError(t, err)
	assert.True(t, discarded)

	_, _, err = svc.SubmitContent(context.Background(), userID, "late content")
	require.ErrorIs(t, err, service.ErrNoContentExpected)
	assert.Empty(t, poster.calls)
}

func TestSessionsAreKeyedByUser(t *testing.T) {
	poster := &fakePoster{result: wellapi.PostResult{StatusCode: http.StatusOK}}
	svc := newTestService(t, poster)
	alice, bob := int64(1), int64(2)

	require.NoError(t, svc.BeginEntry(alice))
	_, err := svc.SelectType(alice, service.LabelTask)
	require.NoError(t, err)

	// bob's flow doesn't touch alice's
	sess, err := svc.State(bob)
	require.NoError(t, err)
	assert.Equal(t, storage.StateIdle, sess.State)

	_, _, err = svc.SubmitContent(context.Background(), bob, "not bob's turn")
	require.ErrorIs(t, err, service.ErrNoContentExpected)

	sess, err = svc.State(alice)
	require.NoError(t, err)
	assert.Equal(t, storage.StateAwaitingContent, sess.State)
}

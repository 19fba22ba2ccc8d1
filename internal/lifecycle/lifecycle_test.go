package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/postdeck/internal/types"
)

var today = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

func post(status types.Status, content string) types.Post {
	return types.Post{
		ID:              7,
		Content:         content,
		Status:          status,
		PublicationDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		MediaURLs:       []string{"a.png"},
	}
}

func TestPublishDraftSetsToday(t *testing.T) {
	p := post(types.StatusDraft, "hello")
	got, err := Transition(p, ActionPublish, today)
	require.NoError(t, err)

	assert.Equal(t, types.StatusPublished, got.Status)
	assert.Equal(t, types.Day(today), got.PublicationDate)
	assert.Equal(t, types.StatusDraft, p.Status, "input must not be mutated")
}

func TestPublishEmptyContentFails(t *testing.T) {
	p := post(types.StatusDraft, "   \n\t")
	got, err := Transition(p, ActionPublish, today)

	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, p, got)
}

func TestSaveDraftIsIdempotent(t *testing.T) {
	p := post(types.StatusDraft, "hello")
	once, err := Transition(p, ActionSaveDraft, today)
	require.NoError(t, err)
	twice, err := Transition(once, ActionSaveDraft, today)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, types.StatusDraft, twice.Status)
}

func TestArchiveSkipsContentValidation(t *testing.T) {
	p := post(types.StatusPublished, "")
	got, err := Transition(p, ActionArchive, today)
	require.NoError(t, err)
	assert.Equal(t, types.StatusArchived, got.Status)
	assert.Equal(t, p.PublicationDate, got.PublicationDate)
}

func TestArchivedIsTerminal(t *testing.T) {
	p := post(types.StatusArchived, "hello")
	for _, action := range []Action{ActionSaveDraft, ActionPublish, ActionSchedule, ActionAutoPublish, ActionArchive} {
		got, err := Transition(p, action, today)
		assert.ErrorIs(t, err, types.ErrInvalidTransition, "action %s", action)
		assert.Equal(t, p, got)
	}
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct {
		from   types.Status
		action Action
	}{
		{types.StatusPublished, ActionPublish},
		{types.StatusPublished, ActionSaveDraft},
		{types.StatusDraft, ActionArchive},
		{types.StatusScheduled, ActionArchive},
		{types.StatusDraft, ActionAutoPublish},
		{types.StatusScheduled, ActionPublish},
	}
	for _, tc := range cases {
		p := post(tc.from, "hello")
		_, err := Transition(p, tc.action, today)

		var terr *TransitionError
		require.True(t, errors.As(err, &terr), "%s from %s", tc.action, tc.from)
		assert.Equal(t, tc.from, terr.From)
		assert.Equal(t, tc.action, terr.Action)
	}
}

func TestScheduleRequiresFutureDate(t *testing.T) {
	p := post(types.StatusDraft, "hello")
	_, err := Transition(p, ActionSchedule, today)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	p.PublicationDate = today.AddDate(0, 0, 3)
	got, err := Transition(p, ActionSchedule, today)
	require.NoError(t, err)
	assert.Equal(t, types.StatusScheduled, got.Status)
}

func TestAutoPublishWaitsForDate(t *testing.T) {
	p := post(types.StatusScheduled, "hello")
	p.PublicationDate = types.Day(today.AddDate(0, 0, 1))

	_, err := Transition(p, ActionAutoPublish, today)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	got, err := Transition(p, ActionAutoPublish, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, types.StatusPublished, got.Status)
	assert.Equal(t, p.PublicationDate, got.PublicationDate, "scheduled date is kept")
}

func TestCommit(t *testing.T) {
	draft := types.PostDraft{Content: "launch day", MediaURLs: []string{"x.png"}}

	out, err := Commit(draft, types.StatusPublished, today)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPublished, out.Status)
	assert.Equal(t, types.Day(today), out.PublicationDate)
	assert.Equal(t, []string{"x.png"}, out.MediaURLs)

	_, err = Commit(types.PostDraft{Content: " "}, types.StatusDraft, today)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = Commit(draft, types.StatusArchived, today)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = Commit(draft, types.StatusScheduled, today)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	draft.PublicationDate = today.AddDate(0, 0, 2)
	out, err = Commit(draft, types.StatusScheduled, today)
	require.NoError(t, err)
	assert.Equal(t, types.Day(today.AddDate(0, 0, 2)), out.PublicationDate)
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("x"))
	assert.ErrorIs(t, ValidateContent(""), types.ErrValidation)
}

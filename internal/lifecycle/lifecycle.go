// Package lifecycle owns the post status state machine and the content
// validation rule. Every save, publish, schedule and archive path validates
// through this package so the composer and the store cannot drift apart.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/postdeck/internal/types"
)

// MaxContentLength is the advisory content ceiling shown by the composer.
// It is not enforced on save.
const MaxContentLength = 3000

// Action is a lifecycle operation applied to a post
type Action string

const (
	ActionSaveDraft   Action = "save_draft"
	ActionPublish     Action = "publish"
	ActionSchedule    Action = "schedule"
	ActionAutoPublish Action = "auto_publish"
	ActionArchive     Action = "archive"
)

// TransitionError reports a rejected transition. It matches
// types.ErrInvalidTransition under errors.Is.
type TransitionError struct {
	Action Action
	From   types.Status
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s a %s post", strings.ReplaceAll(string(e.Action), "_", " "), e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error {
	return types.ErrInvalidTransition
}

// rule is one permitted edge of the state machine.
type rule struct {
	from         types.Status
	to           types.Status
	needsContent bool
}

var rules = map[Action]rule{
	ActionSaveDraft:   {from: types.StatusDraft, to: types.StatusDraft, needsContent: true},
	ActionPublish:     {from: types.StatusDraft, to: types.StatusPublished, needsContent: true},
	ActionSchedule:    {from: types.StatusDraft, to: types.StatusScheduled, needsContent: true},
	ActionAutoPublish: {from: types.StatusScheduled, to: types.StatusPublished},
	ActionArchive:     {from: types.StatusPublished, to: types.StatusArchived},
}

// ValidateContent rejects content that is empty after trimming whitespace.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: post content cannot be empty", types.ErrValidation)
	}
	return nil
}

// Target returns the status an action produces.
func Target(action Action) (types.Status, bool) {
	r, ok := rules[action]
	return r.to, ok
}

// Transition applies action to p and returns the updated copy. p itself is
// never modified, so a rejected transition leaves the caller's record intact.
func Transition(p types.Post, action Action, today time.Time) (types.Post, error) {
	r, ok := rules[action]
	if !ok {
		return p, &TransitionError{Action: action, From: p.Status, Reason: "unknown action"}
	}
	if p.Status == types.StatusArchived {
		return p, &TransitionError{Action: action, From: p.Status, Reason: "archived posts are final"}
	}
	if p.Status != r.from {
		return p, &TransitionError{Action: action, From: p.Status}
	}
	if r.needsContent {
		if err := ValidateContent(p.Content); err != nil {
			return p, err
		}
	}

	today = types.Day(today)
	next := p.Clone()
	next.Status = r.to

	switch action {
	case ActionPublish:
		next.PublicationDate = today
	case ActionSchedule:
		if !types.Day(p.PublicationDate).After(today) {
			return p, &TransitionError{Action: action, From: p.Status, Reason: "publication date must be in the future"}
		}
	case ActionAutoPublish:
		if types.Day(p.PublicationDate).After(today) {
			return p, &TransitionError{Action: action, From: p.Status, Reason: "publication date not reached"}
		}
	}

	return next, nil
}

// Commit validates a new draft for its first save and stamps its
// publication date. Draft and Published posts are dated today; Scheduled
// posts keep their own date, which must be after today.
func Commit(draft types.PostDraft, target types.Status, today time.Time) (types.PostDraft, error) {
	if err := ValidateContent(draft.Content); err != nil {
		return draft, err
	}

	today = types.Day(today)
	out := draft
	out.MediaURLs = append([]string{}, draft.MediaURLs...)
	out.Status = target

	switch target {
	case types.StatusDraft, types.StatusPublished:
		out.PublicationDate = today
	case types.StatusScheduled:
		if draft.PublicationDate.IsZero() || !types.Day(draft.PublicationDate).After(today) {
			return draft, &TransitionError{Action: ActionSchedule, From: types.StatusDraft, Reason: "publication date must be in the future"}
		}
		out.PublicationDate = types.Day(draft.PublicationDate)
	default:
		return draft, &TransitionError{Action: ActionSaveDraft, From: types.StatusDraft, Reason: fmt.Sprintf("new posts cannot start as %s", target)}
	}

	return out, nil
}

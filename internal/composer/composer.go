// Package composer holds the state of one post being written: its text,
// attached media and the assistant conversation helping to write it.
//
// A Composer belongs to a single operator session and is not safe for
// concurrent use; only the assistant reply arrives from another goroutine,
// and the assistant session guards that itself.
package composer

import (
	"context"
	"slices"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ibeckermayer/postdeck/internal/assistant"
	"github.com/ibeckermayer/postdeck/internal/lifecycle"
	"github.com/ibeckermayer/postdeck/internal/logging"
	"github.com/ibeckermayer/postdeck/internal/media"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// Composer is the draft being edited
type Composer struct {
	uploader *media.Uploader
	log      *zap.Logger

	content         string
	publicationDate time.Time
	media           []string

	session       *assistant.Session
	assistantOpen bool
}

func New(uploader *media.Uploader, gen assistant.Generator, log *zap.Logger) *Composer {
	log = logging.OrNop(log).Named("composer")
	return &Composer{
		uploader: uploader,
		log:      log,
		media:    []string{},
		session:  assistant.NewSession(gen, log),
	}
}

func (c *Composer) SetContent(text string) { c.content = text }

func (c *Composer) Content() string { return c.content }

// SetPublicationDate sets the date used when scheduling.
func (c *Composer) SetPublicationDate(t time.Time) { c.publicationDate = t }

// CharacterCount counts characters, not bytes.
func (c *Composer) CharacterCount() int {
	return utf8.RuneCountInString(c.content)
}

// OverLimit reports whether the content is past the advisory ceiling.
func (c *Composer) OverLimit() bool {
	return c.CharacterCount() > lifecycle.MaxContentLength
}

// Media returns a copy of the attached media URLs in attach order.
func (c *Composer) Media() []string {
	return slices.Clone(c.media)
}

// AttachMedia appends ref unless it is already attached.
func (c *Composer) AttachMedia(ref string) {
	if ref == "" || slices.Contains(c.media, ref) {
		return
	}
	c.media = append(c.media, ref)
}

// DetachMedia removes ref and deletes its stored object. Storage failures
// are logged only; the ref is detached regardless.
func (c *Composer) DetachMedia(ctx context.Context, ref string) {
	i := slices.Index(c.media, ref)
	if i < 0 {
		return
	}
	c.media = slices.Delete(c.media, i, i+1)

	if c.uploader == nil || !c.uploader.Configured() {
		return
	}
	if err := c.uploader.Remove(ctx, ref); err != nil {
		c.log.Warn("failed to remove media object", zap.String("url", ref), zap.Error(err))
	}
}

// UploadMedia uploads files and attaches each one that succeeded, in input
// order. Per-file failures are in the results.
func (c *Composer) UploadMedia(ctx context.Context, files []media.File) ([]media.Result, error) {
	if c.uploader == nil {
		return nil, types.ErrStorageUnconfigured
	}
	results, err := c.uploader.Upload(ctx, files)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Err == nil {
			c.AttachMedia(r.URL)
		}
	}
	return results, nil
}

// ToCommittedPost builds the payload for saving the draft as target.
func (c *Composer) ToCommittedPost(target types.Status, today time.Time) (types.PostDraft, error) {
	return lifecycle.Commit(types.PostDraft{
		Content:         c.content,
		PublicationDate: c.publicationDate,
		Status:          target,
		MediaURLs:       c.media,
	}, target, today)
}

// Reset clears the draft and starts a fresh assistant conversation.
func (c *Composer) Reset() {
	c.content = ""
	c.publicationDate = time.Time{}
	c.media = []string{}
	c.assistantOpen = false
	c.session.Reset()
}

// Close cancels pending assistant work. The composer must not be used after.
func (c *Composer) Close() {
	c.session.Close()
}

// Assistant returns the current assistant conversation.
func (c *Composer) Assistant() *assistant.Session { return c.session }

func (c *Composer) AssistantOpen() bool { return c.assistantOpen }

// ToggleAssistant shows or hides the assistant panel.
func (c *Composer) ToggleAssistant() {
	c.assistantOpen = !c.assistantOpen
}

// SubmitPrompt asks the assistant for post text. A blank prompt returns nil.
func (c *Composer) SubmitPrompt(ctx context.Context, prompt string) (*assistant.Pending, error) {
	return c.session.SubmitPrompt(ctx, prompt)
}

// UseGeneratedContent replaces the content with the latest assistant reply
// and closes the panel. It returns false when there is no reply to use.
func (c *Composer) UseGeneratedContent() bool {
	text, ok := c.session.TakeResponse()
	if !ok {
		return false
	}
	c.content = text
	c.assistantOpen = false
	return true
}

// Package locales translates operator notices. Message files are embedded
// JSON, one per language.
package locales

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/ibeckermayer/postdeck/internal/logging"
)

//go:embed *.json
var localeFS embed.FS

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "en"

// Message IDs
const (
	MsgDraftSaved          = "MsgDraftSaved"
	MsgPostPublished       = "MsgPostPublished"
	MsgPostScheduled       = "MsgPostScheduled"
	MsgPostArchived        = "MsgPostArchived"
	MsgContentRequired     = "MsgContentRequired"
	MsgInvalidTransition   = "MsgInvalidTransition"
	MsgPostNotFound        = "MsgPostNotFound"
	MsgSaveFailed          = "MsgSaveFailed"
	MsgArchiveFailed       = "MsgArchiveFailed"
	MsgOfflineData         = "MsgOfflineData"
	MsgSeeded              = "MsgSeeded"
	MsgStorageUnconfigured = "MsgStorageUnconfigured"
	MsgUploadFailed        = "MsgUploadFailed"
	MsgUploadDone          = "MsgUploadDone"
	MsgAssistantFailed     = "MsgAssistantFailed"
	MsgAssistantUsed       = "MsgAssistantUsed"
	MsgScheduledPublished  = "MsgScheduledPublished"
	MsgReportSaved         = "MsgReportSaved"
	MsgNoPosts             = "MsgNoPosts"
	MsgOverLimit           = "MsgOverLimit"
)

// Data is the template data of a message
type Data map[string]any

// Translator localizes messages into one language, falling back to English.
type Translator struct {
	log       *zap.Logger
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	fallback  *i18n.Localizer
}

// New loads every embedded message file and localizes into lang.
func New(lang string, log *zap.Logger) (*Translator, error) {
	log = logging.OrNop(log).Named("locales")

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := localeFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales: %w", err)
	}
	loaded := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, f.Name()); err != nil {
			return nil, fmt.Errorf("failed to load message file %s: %w", f.Name(), err)
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no message files embedded")
	}

	if lang == "" {
		lang = DefaultLanguage
	}
	if _, err := language.Parse(lang); err != nil {
		log.Warn("unknown language, using English", zap.String("lang", lang), zap.Error(err))
		lang = DefaultLanguage
	}

	return &Translator{
		log:       log,
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, lang, DefaultLanguage),
		fallback:  i18n.NewLocalizer(bundle, DefaultLanguage),
	}, nil
}

// Languages lists the languages with a message file.
func (t *Translator) Languages() []string {
	tags := t.bundle.LanguageTags()
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.String()
	}
	return out
}

// T returns the message msgID rendered with data.
func (t *Translator) T(msgID string, data Data) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Plural returns the plural form of msgID for count. count is also
// available to the template as .Count.
func (t *Translator) Plural(msgID string, count int, data Data) string {
	merged := Data{"Count": count}
	for k, v := range data {
		merged[k] = v
	}
	return t.localize(&i18n.LocalizeConfig{MessageID: msgID, TemplateData: merged, PluralCount: count})
}

func (t *Translator) localize(cfg *i18n.LocalizeConfig) string {
	msg, err := t.localizer.Localize(cfg)
	if err == nil {
		return msg
	}
	t.log.Error("failed to localize message", zap.String("msg_id", cfg.MessageID), zap.Error(err))

	if msg, err := t.fallback.Localize(cfg); err == nil {
		return msg
	}
	return cfg.MessageID
}

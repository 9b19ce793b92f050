package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/mindbridge-gateway/internal/config"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Localizer manages internationalization
type Localizer struct {
	bundle          *i18n.Bundle
	defaultLanguage string
	localizers      map[string]*i18n.Localizer
}

// NewLocalizer creates a new localizer with the embedded message files
func NewLocalizer(cfg *config.I18nConfig) (*Localizer, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	localizers := make(map[string]*i18n.Localizer)
	for _, lang := range models.SupportedLanguages {
		path := fmt.Sprintf("locales/%s.json", lang)
		if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
			return nil, fmt.Errorf("failed to load language file %s: %w", lang, err)
		}
		localizers[lang.String()] = i18n.NewLocalizer(bundle, lang.String())
	}

	defaultLanguage := cfg.DefaultLanguage
	if _, ok := localizers[defaultLanguage]; !ok {
		defaultLanguage = models.LanguageEnglish.String()
	}

	return &Localizer{
		bundle:          bundle,
		defaultLanguage: defaultLanguage,
		localizers:      localizers,
	}, nil
}

// Get returns localized message, falling back to the default language
func (l *Localizer) Get(lang, messageID string, data map[string]interface{}) string {
	localizer, exists := l.localizers[lang]
	if !exists {
		localizer = l.localizers[l.defaultLanguage]
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID // Fallback to message ID
	}

	return msg
}

// Message IDs
const (
	MsgCrisisReply         = "crisis_reply"
	MsgUnsupportedLanguage = "unsupported_language"
	MsgUnexpectedResponse  = "unexpected_response"
	MsgInvalidJSON         = "invalid_json"
	MsgEmptyText           = "empty_text"
	MsgTextsRequired       = "texts_required"
	MsgHistoryRequired     = "history_required"
	MsgInvalidIndex        = "invalid_index"
	MsgUpstreamError       = "upstream_error"
	MsgSchemaError         = "schema_error"
	MsgNestedJSONError     = "nested_json_error"
	MsgInputTooLong        = "input_too_long"
	MsgRateLimitExceeded   = "rate_limit_exceeded"
	MsgInternalError       = "internal_error"
)

package i18n

import (
	"strings"
	"testing"

	"github.com/mindbridge-gateway/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLocalizer_Get(t *testing.T) {
	req := require.New(t)

	l, err := NewLocalizer(&config.I18nConfig{DefaultLanguage: "en"})
	req.NoError(err)

	req.Equal("Modelden beklenmeyen yanıt.", l.Get("tr", MsgUnexpectedResponse, nil))
	req.Equal("Currently, this language is not supported.", l.Get("en", MsgUnsupportedLanguage, nil))
	req.True(strings.HasPrefix(l.Get("tr", MsgCrisisReply, nil), "Söylediklerin çok önemli"))

	// unknown languages fall back to the default
	req.Equal(l.Get("en", MsgCrisisReply, nil), l.Get("fr", MsgCrisisReply, nil))

	// unknown ids echo the id
	req.Equal("no_such_message", l.Get("en", "no_such_message", nil))
}

func TestLocalizer_EveryMessageTranslated(t *testing.T) {
	req := require.New(t)

	l, err := NewLocalizer(&config.I18nConfig{DefaultLanguage: "tr"})
	req.NoError(err)

	ids := []string{
		MsgCrisisReply, MsgUnsupportedLanguage, MsgUnexpectedResponse, MsgInvalidJSON,
		MsgEmptyText, MsgTextsRequired, MsgHistoryRequired, MsgInvalidIndex, MsgUpstreamError,
		MsgSchemaError, MsgNestedJSONError, MsgInputTooLong, MsgRateLimitExceeded, MsgInternalError,
	}
	for _, id := range ids {
		req.NotEqual(id, l.Get("en", id, nil), id)
		req.NotEqual(id, l.Get("tr", id, nil), id)
		req.NotEqual(l.Get("en", id, nil), l.Get("tr", id, nil), id)
	}
}

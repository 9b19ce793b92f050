// Package dialogue produces supportive chat replies and future-self letters.
// Crisis input is answered with a canned safety message and never reaches the model.
package dialogue

import (
	"context"
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/mindbridge-gateway/internal/apperr"
	"github.com/mindbridge-gateway/internal/config"
	"github.com/mindbridge-gateway/internal/i18n"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/mindbridge-gateway/internal/services/ai"
	"github.com/mindbridge-gateway/internal/services/crisis"
	"github.com/mindbridge-gateway/internal/services/extract"
	"github.com/mindbridge-gateway/internal/services/prompt"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// CrisisRecorder receives crisis interception events
type CrisisRecorder interface {
	RecordCrisisIntercepted(route, language string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCrisisIntercepted(string, string) {}

// Request is a single dialogue turn
type Request struct {
	Text     string
	Language models.Language
	Question string
}

// Reply is the text shown to the user. Kind is set when Text is a degraded
// message rather than model output.
type Reply struct {
	Text   string
	Crisis bool
	Kind   apperr.Kind
}

// FutureRequest carries the reflections a future-self letter is written from
type FutureRequest struct {
	History  []string
	Language models.Language
}

// Service orchestrates crisis gating, prompt building, inference and extraction
type Service struct {
	client    ai.Client
	prompts   *prompt.Builder
	detector  *crisis.Detector
	localizer *i18n.Localizer
	sampling  config.SamplingConfig
	metrics   CrisisRecorder
	logger    *logrus.Logger
}

// NewService creates a dialogue service. metrics may be nil.
func NewService(
	client ai.Client,
	prompts *prompt.Builder,
	detector *crisis.Detector,
	localizer *i18n.Localizer,
	sampling config.SamplingConfig,
	metrics CrisisRecorder,
	logger *logrus.Logger,
) *Service {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Service{
		client:    client,
		prompts:   prompts,
		detector:  detector,
		localizer: localizer,
		sampling:  sampling,
		metrics:   metrics,
		logger:    logger,
	}
}

// Reply answers one user message.
// The returned error is only ever a validation failure for blank text; every
// other failure degrades into a localized Reply with Kind set.
func (s *Service) Reply(ctx context.Context, req Request) (Reply, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Reply{}, apperr.Validation(i18n.MsgEmptyText, errors.New("text is blank"))
	}

	log := s.logger.WithFields(logrus.Fields{
		"language": req.Language,
		"detected": detectLanguage(text),
	})

	if matches := s.detector.Matches(text); len(matches) > 0 {
		log.WithField("matches", matches).Warn("Crisis phrase detected, returning canned reply")
		s.metrics.RecordCrisisIntercepted("generate", req.Language.String())
		return Reply{Text: s.crisisReply(req.Language), Crisis: true}, nil
	}

	model, err := s.prompts.Model(req.Language)
	if err != nil {
		log.WithError(err).Info("Rejected dialogue request")
		return s.degraded(models.LanguageEnglish, err), nil
	}
	promptText, err := s.prompts.Dialogue(req.Language, text, req.Question)
	if err != nil {
		return s.degraded(models.LanguageEnglish, err), nil
	}

	raw, err := s.client.Generate(ctx, models.InferenceRequest{
		Model:       model,
		Prompt:      promptText,
		MaxTokens:   s.sampling.Dialogue.MaxTokens,
		Temperature: s.sampling.Dialogue.Temperature,
		Stop:        s.sampling.Dialogue.Stop,
	})
	if err != nil {
		log.WithError(err).WithField("model", model).Error("Dialogue inference failed")
		return s.degraded(req.Language, apperr.Upstream(i18n.MsgUpstreamError, err)), nil
	}

	answer, ok := extract.Best(raw)
	if !ok {
		log.WithFields(logrus.Fields{
			"model": model,
			"raw":   raw,
		}).Warn("No usable text in model reply")
		return s.degraded(req.Language, apperr.Schema(i18n.MsgUnexpectedResponse, errors.New("model reply has no usable text"))), nil
	}

	log.WithFields(logrus.Fields{
		"model":  model,
		"length": len(answer),
	}).Debug("Dialogue reply generated")
	return Reply{Text: answer}, nil
}

// FutureMessage writes a letter from the user's future self based on history.
// Turkish is used for "tr", English for any other language.
func (s *Service) FutureMessage(ctx context.Context, req FutureRequest) (string, error) {
	history := lo.FilterMap(req.History, func(h string, _ int) (string, bool) {
		h = strings.TrimSpace(h)
		return h, h != ""
	})
	if len(history) == 0 {
		return "", apperr.Validation(i18n.MsgHistoryRequired, errors.New("history is empty"))
	}

	lang := models.LanguageEnglish
	if req.Language == models.LanguageTurkish {
		lang = models.LanguageTurkish
	}

	if matches := s.detector.Matches(strings.Join(history, "\n")); len(matches) > 0 {
		s.logger.WithFields(logrus.Fields{
			"language": lang,
			"matches":  matches,
		}).Warn("Crisis phrase detected in history, returning canned reply")
		s.metrics.RecordCrisisIntercepted("generate-future-message", lang.String())
		return s.crisisReply(lang), nil
	}

	model, err := s.prompts.Model(lang)
	if err != nil {
		return "", err
	}

	raw, err := s.client.Generate(ctx, models.InferenceRequest{
		Model:       model,
		Prompt:      s.prompts.FutureMessage(lang, history),
		MaxTokens:   s.sampling.FutureMessage.MaxTokens,
		Temperature: s.sampling.FutureMessage.Temperature,
		Stop:        s.sampling.FutureMessage.Stop,
	})
	if err != nil {
		return "", apperr.Upstream(i18n.MsgUpstreamError, err)
	}

	message, ok := extract.Best(raw)
	if !ok {
		return "", apperr.Schema(i18n.MsgUnexpectedResponse, errors.New("future message reply has no text"))
	}
	return message, nil
}

func (s *Service) crisisReply(lang models.Language) string {
	if !lang.Supported() {
		lang = models.LanguageEnglish
	}
	return s.localizer.Get(lang.String(), i18n.MsgCrisisReply, nil)
}

func (s *Service) degraded(lang models.Language, err error) Reply {
	if !lang.Supported() {
		lang = models.LanguageEnglish
	}
	msgID := apperr.MessageIDOf(err, i18n.MsgInternalError)
	return Reply{
		Text: s.localizer.Get(lang.String(), msgID, nil),
		Kind: apperr.KindOf(err),
	}
}

const minDetectConfidence = 0.5

func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if info.Confidence < minDetectConfidence {
		return "unknown"
	}
	return info.Lang.Iso6391()
}

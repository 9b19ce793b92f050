// Package emotion extracts a normalized six-emotion percentage distribution
// from model output.
package emotion

import (
	"context"
	"errors"
	"fmt"

	"github.com/mindbridge-gateway/internal/apperr"
	"github.com/mindbridge-gateway/internal/config"
	"github.com/mindbridge-gateway/internal/i18n"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/mindbridge-gateway/internal/services/ai"
	"github.com/mindbridge-gateway/internal/services/cache"
	"github.com/mindbridge-gateway/internal/services/extract"
	"github.com/mindbridge-gateway/internal/services/prompt"
	"github.com/sirupsen/logrus"
)

// Service runs Build -> Query -> SpanExtract -> Repair -> Normalize
type Service struct {
	client   ai.Client
	prompts  *prompt.Builder
	cache    cache.Service
	sampling config.SamplingParams
	logger   *logrus.Logger
}

// NewService creates the analysis pipeline. A nil cache disables caching.
func NewService(client ai.Client, prompts *prompt.Builder, resultCache cache.Service, sampling config.SamplingParams, logger *logrus.Logger) *Service {
	if resultCache == nil {
		resultCache = cache.Disabled{}
	}
	return &Service{
		client:   client,
		prompts:  prompts,
		cache:    resultCache,
		sampling: sampling,
		logger:   logger,
	}
}

// Analyze returns the normalized distribution for texts in lang
func (s *Service) Analyze(ctx context.Context, texts []string, lang models.Language) (map[string]int, error) {
	if len(texts) == 0 {
		return nil, apperr.Validation(i18n.MsgTextsRequired, errors.New("texts list is empty"))
	}
	joined := prompt.JoinTexts(texts)
	if joined == "" {
		return nil, apperr.Validation(i18n.MsgEmptyText, errors.New("texts are blank"))
	}

	schema, err := SchemaFor(lang)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.Key(lang.String(), joined)
	if d, ok := s.cache.Get(ctx, cacheKey); ok {
		return d, nil
	}

	promptText, err := s.prompts.EmotionAnalysis(lang, texts)
	if err != nil {
		return nil, err
	}
	model, err := s.prompts.Model(lang)
	if err != nil {
		return nil, err
	}

	stream := false
	raw, err := s.client.Generate(ctx, models.InferenceRequest{
		Model:       model,
		Prompt:      promptText,
		MaxTokens:   s.sampling.MaxTokens,
		Temperature: s.sampling.Temperature,
		Stop:        s.sampling.Stop,
		Stream:      &stream,
	})
	if err != nil {
		return nil, apperr.Upstream(i18n.MsgUpstreamError, err)
	}

	s.logger.WithFields(logrus.Fields{
		"language": lang,
		"model":    model,
		"raw":      raw,
	}).Debug("Model raw response")

	obj, err := extract.JSONObject(raw)
	if err != nil {
		msgID := i18n.MsgSchemaError
		if errors.Is(err, extract.ErrNestedJSON) {
			msgID = i18n.MsgNestedJSONError
		}
		return nil, apperr.Schema(msgID, fmt.Errorf("analysis reply from %s: %w", model, err))
	}

	distribution := Normalize(schema.Keys, schema.Repair(obj))

	if err := s.cache.Set(ctx, cacheKey, distribution); err != nil {
		s.logger.WithError(err).Warn("Failed to cache analysis result")
	}
	return distribution, nil
}

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mindbridge-gateway/internal/config"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	maxReplyBytes   = 4 << 20
	maxErrorExcerpt = 512
)

// MetricsRecorder receives one observation per inference call
type MetricsRecorder interface {
	RecordAIRequest(model, status string, duration time.Duration)
}

// OllamaClient calls an Ollama-style /api/generate endpoint
type OllamaClient struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	metrics    MetricsRecorder
	logger     *logrus.Logger
}

// NewOllamaClient creates a client for the configured endpoint. metrics may be nil.
func NewOllamaClient(cfg *config.InferenceConfig, metrics MetricsRecorder, logger *logrus.Logger) *OllamaClient {
	logger.WithFields(logrus.Fields{
		"url":     cfg.URL,
		"timeout": cfg.Timeout,
		"modelEN": cfg.Models.EN,
		"modelTR": cfg.Models.TR,
	}).Info("Inference client initialized")

	return &OllamaClient{
		url:        cfg.URL,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		metrics:    metrics,
		logger:     logger,
	}
}

// Generate performs a single request bounded by the configured timeout. No retries.
func (c *OllamaClient) Generate(ctx context.Context, req models.InferenceRequest) (string, error) {
	start := time.Now()
	body, err := c.do(ctx, req)

	status := "success"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordAIRequest(req.Model, status, time.Since(start))
	}

	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"model":    req.Model,
			"status":   status,
			"duration": time.Since(start),
		}).Error("Inference request failed")
		return "", err
	}
	return body, nil
}

func (c *OllamaClient) do(ctx context.Context, req models.InferenceRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"model":       req.Model,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
		"url":         c.url,
	}).Debug("Sending inference request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := body
		if len(excerpt) > maxErrorExcerpt {
			excerpt = excerpt[:maxErrorExcerpt]
		}
		return "", fmt.Errorf("inference request failed with status %d: %s", resp.StatusCode, string(excerpt))
	}

	c.logger.WithFields(logrus.Fields{
		"model": req.Model,
		"bytes": len(body),
	}).Debug("Inference reply received")

	return string(body), nil
}

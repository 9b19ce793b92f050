package models

import (
	"strings"
)

// Language is the request language tag
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"
)

// SupportedLanguages lists the languages with a model, prompt set and emotion schema
var SupportedLanguages = []Language{LanguageEnglish, LanguageTurkish}

// ParseLanguage normalizes a raw language value, falling back to def when empty.
// The result is not guaranteed to be supported; check with Supported.
func ParseLanguage(raw string, def Language) Language {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return def
	}
	return Language(raw)
}

// Supported reports whether the language has a model and prompt set
func (l Language) Supported() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// InferenceRequest is the body sent to the inference endpoint
type InferenceRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
	Stream      *bool    `json:"stream,omitempty"`
}

// GenerateRequest is the body of POST /generate
type GenerateRequest struct {
	Text     string `json:"text" validate:"required,max=8000"`
	Language string `json:"language"`
	Question string `json:"question" validate:"max=2000"`
}

// GenerateResponse is returned by POST /generate. Error carries the error kind
// when the reply text is a degraded message rather than model output.
type GenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// AnalyzeRequest is the body of POST /analyze-emotions
type AnalyzeRequest struct {
	Texts    []string `json:"texts" validate:"required,min=1,max=64,dive,max=8000"`
	Language string   `json:"language"`
}

// AnalyzeResponse is returned by POST /analyze-emotions on success
type AnalyzeResponse struct {
	Emotions map[string]int `json:"emotions"`
}

// FutureMessageRequest is the body of POST /generate-future-message
type FutureMessageRequest struct {
	History  []string `json:"history" validate:"required,min=1,max=128,dive,max=8000"`
	Language string   `json:"language"`
}

// FutureMessageResponse is returned by POST /generate-future-message
type FutureMessageResponse struct {
	Message string `json:"message"`
}

// QuestionResponse is returned by the question lookup routes
type QuestionResponse struct {
	Question *string `json:"question"`
	HasMore  bool    `json:"has_more"`
}

// ErrorResponse is the body of a failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// EmotionKeys is the fixed six-label emotion schema per language, in schema order.
// Labels are not interchangeable between languages.
var EmotionKeys = map[Language][]string{
	LanguageEnglish: {"joy", "sadness", "fear", "anger", "disgust", "surprise"},
	LanguageTurkish: {"sevinç", "üzüntü", "korku", "öfke", "tiksinti", "şaşkınlık"},
}

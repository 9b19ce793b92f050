package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mindbridge-gateway/internal/apperr"
	"github.com/mindbridge-gateway/internal/i18n"
	"github.com/mindbridge-gateway/internal/middleware"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/mindbridge-gateway/internal/services/dialogue"
	"github.com/mindbridge-gateway/internal/services/questions"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// DialogueService answers chat turns and writes future-self letters
type DialogueService interface {
	Reply(ctx context.Context, req dialogue.Request) (dialogue.Reply, error)
	FutureMessage(ctx context.Context, req dialogue.FutureRequest) (string, error)
}

// EmotionService turns texts into an emotion distribution
type EmotionService interface {
	Analyze(ctx context.Context, texts []string, lang models.Language) (map[string]int, error)
}

// APIHandler serves the public HTTP API
type APIHandler struct {
	dialogue        DialogueService
	emotion         EmotionService
	localizer       *i18n.Localizer
	validate        *validator.Validate
	defaultLanguage models.Language
	logger          *logrus.Logger
}

// NewAPIHandler creates the API handler. defaultLanguage localizes errors raised
// before a request's own language is known.
func NewAPIHandler(
	dialogueService DialogueService,
	emotionService EmotionService,
	localizer *i18n.Localizer,
	defaultLanguage models.Language,
	logger *logrus.Logger,
) *APIHandler {
	return &APIHandler{
		dialogue:        dialogueService,
		emotion:         emotionService,
		localizer:       localizer,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// Generate handles POST /generate.
// Only malformed input is an HTTP error; model failures come back as a 200
// whose response text explains the problem.
func (h *APIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeGenerateError(w, r, h.defaultLanguage, apperr.Validation(i18n.MsgInvalidJSON, err))
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	req.Question = strings.TrimSpace(req.Question)
	lang := models.ParseLanguage(req.Language, models.LanguageEnglish)

	if err := h.validate.Struct(req); err != nil {
		h.writeGenerateError(w, r, lang, h.validationError(err))
		return
	}

	reply, err := h.dialogue.Reply(r.Context(), dialogue.Request{
		Text:     req.Text,
		Language: lang,
		Question: req.Question,
	})
	if err != nil {
		h.writeGenerateError(w, r, lang, err)
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateResponse{
		Response: reply.Text,
		Error:    string(reply.Kind),
	})
}

// AnalyzeEmotions handles POST /analyze-emotions
func (h *APIHandler) AnalyzeEmotions(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, h.defaultLanguage, apperr.Validation(i18n.MsgInvalidJSON, err))
		return
	}
	lang := models.ParseLanguage(req.Language, models.LanguageEnglish)

	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, r, lang, h.validationError(err))
		return
	}

	emotions, err := h.emotion.Analyze(r.Context(), req.Texts, lang)
	if err != nil {
		h.writeError(w, r, lang, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AnalyzeResponse{Emotions: emotions})
}

// GetNowQuestion handles GET /get-now-question
func (h *APIHandler) GetNowQuestion(w http.ResponseWriter, r *http.Request) {
	h.serveQuestion(w, r, questions.Current)
}

// GetNextQuestion handles GET /get-next-question
func (h *APIHandler) GetNextQuestion(w http.ResponseWriter, r *http.Request) {
	h.serveQuestion(w, r, questions.Next)
}

func (h *APIHandler) serveQuestion(w http.ResponseWriter, r *http.Request, lookup func(models.Language, int) (*string, bool, error)) {
	query := r.URL.Query()
	lang := models.ParseLanguage(query.Get("language"), models.LanguageTurkish)

	index := 0
	if raw := strings.TrimSpace(query.Get("index")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, lang, apperr.Validation(i18n.MsgInvalidIndex, err))
			return
		}
		index = n
	}

	question, hasMore, err := lookup(lang, index)
	if err != nil {
		h.writeError(w, r, lang, err)
		return
	}

	writeJSON(w, http.StatusOK, models.QuestionResponse{Question: question, HasMore: hasMore})
}

// GenerateFutureMessage handles POST /generate-future-message
func (h *APIHandler) GenerateFutureMessage(w http.ResponseWriter, r *http.Request) {
	var req models.FutureMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, h.defaultLanguage, apperr.Validation(i18n.MsgInvalidJSON, err))
		return
	}
	lang := models.ParseLanguage(req.Language, models.LanguageEnglish)

	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, r, lang, h.validationError(err))
		return
	}

	message, err := h.dialogue.FutureMessage(r.Context(), dialogue.FutureRequest{
		History:  req.History,
		Language: lang,
	})
	if err != nil {
		h.writeError(w, r, lang, err)
		return
	}

	writeJSON(w, http.StatusOK, models.FutureMessageResponse{Message: message})
}

// Health handles GET /health
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// validationError maps the first failed field rule to a user-facing message
func (h *APIHandler) validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation(i18n.MsgInvalidJSON, err)
	}

	fe := verrs[0]
	if fe.Tag() == "max" {
		return apperr.Validation(i18n.MsgInputTooLong, err)
	}
	switch fe.StructField() {
	case "Text":
		return apperr.Validation(i18n.MsgEmptyText, err)
	case "Texts":
		return apperr.Validation(i18n.MsgTextsRequired, err)
	case "History":
		return apperr.Validation(i18n.MsgHistoryRequired, err)
	}
	return apperr.Validation(i18n.MsgInvalidJSON, err)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) logFailure(r *http.Request, err error) {
	entry := middleware.LoggerFrom(r, h.logger).WithError(err).WithField("kind", apperr.KindOf(err))
	if apperr.KindOf(err) == apperr.KindValidation {
		entry.Info("Request rejected")
		return
	}
	entry.Error("Request failed")
}

func (h *APIHandler) message(lang models.Language, err error) string {
	if !lang.Supported() {
		lang = h.defaultLanguage
	}
	return h.localizer.Get(lang.String(), apperr.MessageIDOf(err, i18n.MsgInternalError), nil)
}

func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, lang models.Language, err error) {
	h.logFailure(r, err)
	kind := apperr.KindOf(err)
	writeJSON(w, statusFor(kind), models.ErrorResponse{
		Error: h.message(lang, err),
		Kind:  string(kind),
	})
}

// writeGenerateError keeps the dialogue route's {response} body shape for errors
func (h *APIHandler) writeGenerateError(w http.ResponseWriter, r *http.Request, lang models.Language, err error) {
	h.logFailure(r, err)
	kind := apperr.KindOf(err)
	writeJSON(w, statusFor(kind), models.GenerateResponse{
		Response: h.message(lang, err),
		Error:    string(kind),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

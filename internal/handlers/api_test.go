package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mindbridge-gateway/internal/config"
	"github.com/mindbridge-gateway/internal/i18n"
	"github.com/mindbridge-gateway/internal/middleware"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/mindbridge-gateway/internal/services/ai/mocks"
	"github.com/mindbridge-gateway/internal/services/crisis"
	"github.com/mindbridge-gateway/internal/services/dialogue"
	"github.com/mindbridge-gateway/internal/services/emotion"
	"github.com/mindbridge-gateway/internal/services/prompt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testServer struct {
	handler   http.Handler
	client    *mocks.MockClient
	localizer *i18n.Localizer
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	log := logrus.New()
	log.SetOutput(io.Discard)

	localizer, err := i18n.NewLocalizer(&config.I18nConfig{DefaultLanguage: "en"})
	require.NoError(t, err)
	detector, err := crisis.NewDetector(crisis.DefaultKeywords)
	require.NoError(t, err)
	prompts := prompt.New(&config.InferenceConfig{Models: config.ModelsConfig{EN: "mistral:instruct", TR: "turkcell"}})
	sampling := config.SamplingConfig{
		Dialogue:      config.SamplingParams{Temperature: 0.7, MaxTokens: 200},
		Emotion:       config.SamplingParams{Temperature: 0, MaxTokens: 150, Stop: []string{"\n"}},
		FutureMessage: config.SamplingParams{Temperature: 0.7, MaxTokens: 300},
	}

	api := NewAPIHandler(
		dialogue.NewService(client, prompts, detector, localizer, sampling, nil, log),
		emotion.NewService(client, prompts, nil, sampling.Emotion, log),
		localizer,
		models.LanguageEnglish,
		log,
	)
	serverCfg := &config.ServerConfig{CORS: config.CORSConfig{AllowedOrigins: []string{"*"}}}

	return testServer{
		handler:   NewRouter(api, serverCfg, log, middleware.RequestID),
		client:    client,
		localizer: localizer,
	}
}

func (s testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGenerate(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(`{"response":"I hear you."}`, nil)

	rec := s.do(http.MethodPost, "/generate", `{"text":"I had a rough day","language":"EN"}`)
	req.Equal(http.StatusOK, rec.Code)
	req.NotEmpty(rec.Header().Get(middleware.RequestIDHeader))
	req.Equal(models.GenerateResponse{Response: "I hear you."}, decode[models.GenerateResponse](t, rec))
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		msgID string
	}{
		{name: "Invalid JSON", body: `{"text": `, msgID: i18n.MsgInvalidJSON},
		{name: "Empty body", body: "", msgID: i18n.MsgInvalidJSON},
		{name: "Missing text", body: `{"language":"en"}`, msgID: i18n.MsgEmptyText},
		{name: "Blank text", body: `{"text":"   "}`, msgID: i18n.MsgEmptyText},
		{name: "Text too long", body: `{"text":"` + strings.Repeat("a", 8001) + `"}`, msgID: i18n.MsgInputTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)

			rec := s.do(http.MethodPost, "/generate", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			got := decode[models.GenerateResponse](t, rec)
			require.Equal(t, s.localizer.Get("en", tt.msgID, nil), got.Response)
			require.Equal(t, "validation", got.Error)
		})
	}
}

func TestGenerate_DegradedRepliesAreOK(t *testing.T) {
	t.Run("Crisis", func(t *testing.T) {
		s := newTestServer(t)
		s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)

		rec := s.do(http.MethodPost, "/generate", `{"text":"Kendime zarar vereceğim","language":"tr"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, s.localizer.Get("tr", i18n.MsgCrisisReply, nil), decode[models.GenerateResponse](t, rec).Response)
	})

	t.Run("Unsupported language", func(t *testing.T) {
		s := newTestServer(t)
		s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)

		rec := s.do(http.MethodPost, "/generate", `{"text":"bonjour","language":"fr"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[models.GenerateResponse](t, rec)
		require.Equal(t, "Currently, this language is not supported.", got.Response)
		require.Equal(t, "validation", got.Error)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		s := newTestServer(t)
		s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", errors.New("dial tcp 127.0.0.1:11434: connect: connection refused"))

		rec := s.do(http.MethodPost, "/generate", `{"text":"hello"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[models.GenerateResponse](t, rec)
		require.Equal(t, s.localizer.Get("en", i18n.MsgUpstreamError, nil), got.Response)
		require.Equal(t, "upstream", got.Error)
		require.NotContains(t, rec.Body.String(), "11434")
	})
}

func TestAnalyzeEmotions(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(`Sure! {"joy": 50, "sadness": 50}`, nil)

	rec := s.do(http.MethodPost, "/analyze-emotions", `{"texts":["good news","bad news"],"language":"en"}`)
	req.Equal(http.StatusOK, rec.Code)

	got := decode[models.AnalyzeResponse](t, rec)
	req.Equal(map[string]int{"joy": 50, "sadness": 50, "fear": 0, "anger": 0, "disgust": 0, "surprise": 0}, got.Emotions)
}

func TestAnalyzeEmotions_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		reply      string
		replyErr   error
		callsLLM   bool
		wantStatus int
		wantKind   string
		wantMsgID  string
	}{
		{name: "Invalid JSON", body: `[`, wantStatus: http.StatusBadRequest, wantKind: "validation", wantMsgID: i18n.MsgInvalidJSON},
		{name: "Missing texts", body: `{"language":"en"}`, wantStatus: http.StatusBadRequest, wantKind: "validation", wantMsgID: i18n.MsgTextsRequired},
		{name: "Empty texts", body: `{"texts":[],"language":"en"}`, wantStatus: http.StatusBadRequest, wantKind: "validation", wantMsgID: i18n.MsgTextsRequired},
		{name: "Blank texts", body: `{"texts":["  "],"language":"en"}`, wantStatus: http.StatusBadRequest, wantKind: "validation", wantMsgID: i18n.MsgEmptyText},
		{name: "Unsupported language", body: `{"texts":["hola"],"language":"es"}`, wantStatus: http.StatusBadRequest, wantKind: "validation", wantMsgID: i18n.MsgUnsupportedLanguage},
		{name: "Upstream failure", body: `{"texts":["x"]}`, replyErr: errors.New("status 502"), callsLLM: true, wantStatus: http.StatusInternalServerError, wantKind: "upstream", wantMsgID: i18n.MsgUpstreamError},
		{name: "No JSON in reply", body: `{"texts":["x"]}`, reply: "I cannot do that.", callsLLM: true, wantStatus: http.StatusInternalServerError, wantKind: "schema", wantMsgID: i18n.MsgSchemaError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			if tt.callsLLM {
				s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(tt.reply, tt.replyErr)
			} else {
				s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)
			}

			rec := s.do(http.MethodPost, "/analyze-emotions", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			got := decode[models.ErrorResponse](t, rec)
			require.Equal(t, tt.wantKind, got.Kind)
			require.Equal(t, s.localizer.Get("en", tt.wantMsgID, nil), got.Error)
		})
	}
}

func TestQuestions(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/get-now-question?index=0", "")
	req.Equal(http.StatusOK, rec.Code)
	now := decode[models.QuestionResponse](t, rec)
	req.NotNil(now.Question)
	req.True(now.HasMore)
	req.Contains(*now.Question, "Bugün", "questions default to Turkish")

	rec = s.do(http.MethodGet, "/get-next-question?index=0&language=en", "")
	req.Equal(http.StatusOK, rec.Code)
	next := decode[models.QuestionResponse](t, rec)
	req.NotNil(next.Question)
	req.Equal("What has been on your mind the most this week?", *next.Question)

	rec = s.do(http.MethodGet, "/get-next-question?index=99&language=en", "")
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"question":null,"has_more":false}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/get-now-question?index=two", "")
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal(s.localizer.Get("tr", i18n.MsgInvalidIndex, nil), decode[models.ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodGet, "/get-now-question?language=de", "")
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("validation", decode[models.ErrorResponse](t, rec).Kind)
}

func TestGenerateFutureMessage(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("{\"response\":\"Sevgili ben,\"}\n{\"response\":\" başardın.\"}", nil)

	rec := s.do(http.MethodPost, "/generate-future-message", `{"history":["Yeni bir işe başladım"],"language":"tr"}`)
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("Sevgili ben, başardın.", decode[models.FutureMessageResponse](t, rec).Message)
}

func TestGenerateFutureMessage_Failures(t *testing.T) {
	t.Run("Empty history", func(t *testing.T) {
		s := newTestServer(t)
		s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)

		rec := s.do(http.MethodPost, "/generate-future-message", `{"history":[]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, s.localizer.Get("en", i18n.MsgHistoryRequired, nil), decode[models.ErrorResponse](t, rec).Error)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		s := newTestServer(t)
		s.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", errors.New("timeout"))

		rec := s.do(http.MethodPost, "/generate-future-message", `{"history":["a quiet week"]}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "upstream", decode[models.ErrorResponse](t, rec).Kind)
	})
}

func TestRouter(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "")
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("OK", rec.Body.String())

	rec = s.do(http.MethodGet, "/generate", "")
	req.Equal(http.StatusMethodNotAllowed, rec.Code)

	r := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
}

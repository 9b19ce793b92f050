package handlers

import (
	"net/http"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mindbridge-gateway/internal/config"
	"github.com/sirupsen/logrus"
)

// NewRouter registers the API routes and wraps them with CORS and panic recovery.
// mws run in order on every matched route.
func NewRouter(api *APIHandler, cfg *config.ServerConfig, logger *logrus.Logger, mws ...mux.MiddlewareFunc) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/generate", api.Generate).Methods(http.MethodPost)
	router.HandleFunc("/analyze-emotions", api.AnalyzeEmotions).Methods(http.MethodPost)
	router.HandleFunc("/get-next-question", api.GetNextQuestion).Methods(http.MethodGet)
	router.HandleFunc("/get-now-question", api.GetNowQuestion).Methods(http.MethodGet)
	router.HandleFunc("/generate-future-message", api.GenerateFutureMessage).Methods(http.MethodPost)
	router.HandleFunc("/health", api.Health).Methods(http.MethodGet)

	router.Use(mws...)

	cors := ghandlers.CORS(
		ghandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
		ghandlers.ExposedHeaders([]string{"X-Request-ID"}),
	)
	recovery := ghandlers.RecoveryHandler(
		ghandlers.RecoveryLogger(logger),
		ghandlers.PrintRecoveryStack(true),
	)

	return cors(recovery(router))
}

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/logoproxy/internal/config"
	"github.com/local/logoproxy/internal/imageutil"
	mpkg "github.com/local/logoproxy/internal/metrics"
	"github.com/local/logoproxy/internal/upstream"
)

// Handler serves the generation endpoints. Configuration is injected once at
// construction; nothing re-reads the environment per request.
type Handler struct {
	cfg    config.UpstreamConfig
	caller *upstream.Caller
}

func NewHandler(cfg config.UpstreamConfig) *Handler {
	return &Handler{
		cfg: cfg,
		caller: upstream.NewCaller(upstream.CallerOptions{
			APIKey:     cfg.APIKey,
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			Jitter:     cfg.RetryJitter,
			Timeout:    cfg.RequestTimeout,
		}),
	}
}

type logoPayload struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Prompt   string       `json:"prompt"`
	LogoData *logoPayload `json:"logoData,omitempty"`
}

type generateResponse struct {
	ImageURL   string `json:"imageUrl,omitempty"`
	Base64Data string `json:"base64Data,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Generate returns the handler for one upstream variant. Both routes run the
// same sequence; the variant decides the endpoint, the payload shape and the
// success response field.
func (h *Handler) Generate(v upstream.Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With().
			Str("request_id", uuid.NewString()).
			Str("variant", v.Name).
			Logger()

		// Fail fast before any network call when the credential is absent.
		if h.cfg.APIKey == "" {
			logger.Error().Msg("upstream API key is not configured")
			mpkg.IncGeneration(v.Name, "config_missing")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "server configuration error: missing API key"})
			return
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			mpkg.IncGeneration(v.Name, "invalid_input")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
			return
		}

		prompt := strings.TrimSpace(req.Prompt)
		if prompt == "" {
			mpkg.IncGeneration(v.Name, "invalid_input")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
			return
		}
		if h.cfg.MaxPromptLength > 0 && len(prompt) > h.cfg.MaxPromptLength {
			mpkg.IncGeneration(v.Name, "invalid_input")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is too long"})
			return
		}

		ureq := upstream.Request{Prompt: prompt}
		// The prediction endpoint is prompt-only; a supplied logo is ignored
		// there, so it must not be validated either.
		if v.Shape == upstream.ShapeContent && req.LogoData != nil && req.LogoData.Data != "" {
			data := imageutil.StripDataURI(req.LogoData.Data)
			detected, err := imageutil.Verify(req.LogoData.MimeType, data)
			if err != nil {
				mpkg.IncGeneration(v.Name, "invalid_input")
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			mime := req.LogoData.MimeType
			if mime == "" {
				mime = detected
			}
			ureq.ImageBase64 = data
			ureq.ImageMIME = mime
		}

		logger.Info().
			Int("prompt_len", len(prompt)).
			Bool("has_logo", ureq.ImageBase64 != "").
			Msg("generation request")

		raw, err := h.caller.PostJSON(r.Context(), v.Name, v.URL(h.cfg.BaseURL), v.BuildPayload(ureq))
		if err != nil {
			h.writeUpstreamError(w, logger, v, err)
			return
		}

		img, err := upstream.Extract(v.Shape, raw)
		if err != nil {
			h.writeUpstreamError(w, logger, v, err)
			return
		}

		mpkg.IncGeneration(v.Name, "success")
		logger.Info().Str("mime", img.MimeType).Int("encoded_len", len(img.Base64)).Msg("generation succeeded")

		if v.WrapDataURI {
			writeJSON(w, http.StatusOK, generateResponse{ImageURL: img.DataURI()})
			return
		}
		writeJSON(w, http.StatusOK, generateResponse{Base64Data: img.Base64})
	}
}

// writeUpstreamError maps a classified upstream failure to an HTTP response.
// Input rejections are the caller's fault; everything else is a 500.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, logger zerolog.Logger, v upstream.Variant, err error) {
	status := http.StatusInternalServerError
	result := classify(err)
	if result == "input_rejected" {
		status = http.StatusBadRequest
	}

	mpkg.IncGeneration(v.Name, result)
	logger.Warn().Err(err).Str("result", result).Msg("generation failed")
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func classify(err error) string {
	var (
		rateErr    *upstream.RateLimitError
		httpErr    *upstream.HTTPError
		parseErr   *upstream.ParseError
		rejectErr  *upstream.InputRejectedError
		safetyErr  *upstream.SafetyFilteredError
		unknownErr *upstream.UnknownShapeError
	)
	switch {
	case errors.As(err, &rateErr):
		return "rate_limited"
	case errors.As(err, &rejectErr):
		return "input_rejected"
	case errors.As(err, &safetyErr):
		return "safety_filtered"
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &unknownErr):
		return "unknown_shape"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

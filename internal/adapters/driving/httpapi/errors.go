package httpapi

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Detail     string   `json:"detail"`
	Violations []string `json:"violations,omitempty"`
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response: %v", err)
	}
}

// writeDetail writes an error response with a fixed message.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps a service error onto a status code. Internal failures are
// logged in full and answered with a short summary.
func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	var (
		maxBytes   *http.MaxBytesError
		validation *domain.ValidationError
		storage    *domain.StorageError
		analysis   *domain.AnalysisError
	)

	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, errorBody{Detail: "upload exceeds the size limit"}
	case errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, errorBody{Detail: err.Error()}
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, errorBody{Detail: err.Error()}
	case errors.As(err, &validation):
		body := errorBody{Detail: "validation failed"}
		for _, v := range validation.Violations {
			body.Violations = append(body.Violations, v.String())
		}
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorBody{Detail: err.Error()}
	case errors.Is(err, domain.ErrWaitTimeout):
		return http.StatusGatewayTimeout, errorBody{Detail: err.Error()}
	case errors.Is(err, domain.ErrGeneratorUnavailable):
		return http.StatusServiceUnavailable, errorBody{Detail: err.Error()}
	case errors.As(err, &storage):
		return http.StatusInternalServerError, errorBody{Detail: "failed to store analysis results"}
	case errors.As(err, &analysis):
		return http.StatusInternalServerError, errorBody{Detail: "analysis pipeline failed: " + analysis.Phase.String()}
	default:
		return http.StatusInternalServerError, errorBody{Detail: "an unexpected error occurred"}
	}
}

package orders_api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/pkg/errors"
)

func respondJSON(w http.ResponseWriter, code int, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal response failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

func respondError(w http.ResponseWriter, code int, errCode string) {
	respondJSON(w, code, map[string]string{"error": errCode})
}

// respondServiceError переводит доменную ошибку в HTTP-статус и
// машинный код. Детали внутренних ошибок наружу не утекают.
func respondServiceError(w http.ResponseWriter, err error) {
	code, errCode := mapError(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	}
	respondError(w, code, errCode)
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, models.ErrInvalidStageSet):
		return http.StatusBadRequest, "invalid_stage_set"
	case errors.Is(err, models.ErrUploadRejected):
		return http.StatusBadRequest, "upload_rejected"
	case errors.Is(err, models.ErrNoFiles):
		return http.StatusBadRequest, "no_files"
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, models.ErrInvalidCode):
		return http.StatusForbidden, "invalid_code"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrLocked):
		return http.StatusTooManyRequests, "locked"
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	}
	return http.StatusInternalServerError, "internal"
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(models.ErrInvalidInput, err.Error())
	}
	return nil
}

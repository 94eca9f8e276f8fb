package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/validation"
)

// maxRequestBody bounds every JSON request body.
const maxRequestBody = 1 << 20

// parseJSON decodes the request body into a T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T
	if r.Body == nil {
		return req, errors.New("request body is empty")
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode request body: %w", err)
	}
	return req, nil
}

// lookupSession resolves the {uuid} path parameter to an open session.
// It writes a 404 and returns false when there is none.
func lookupSession(w http.ResponseWriter, r *http.Request, sessions *service.SessionService) (*service.Session, bool) {
	sess, err := sessions.GetSession(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, "failed to load session")
		return nil, false
	}
	return sess, true
}

// respondServiceError maps a service error to its HTTP status. Errors the
// taxonomy does not name become a 500 with fallback as the message.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var (
		verr     *validation.Error
		rejected *apperrors.RejectedError
	)

	switch {
	case errors.As(err, &verr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrMissingInstrument),
		errors.Is(err, apperrors.ErrInvalidQuantity),
		errors.Is(err, apperrors.ErrInvalidPrice),
		errors.Is(err, apperrors.ErrInvalidMode):
		response.RespondError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, apperrors.ErrSessionNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrSessionNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrPanelClosed):
		response.RespondError(w, http.StatusConflict, apperrors.ErrPanelClosed.Error(), "")
	case errors.Is(err, apperrors.ErrSubmissionInFlight):
		response.RespondError(w, http.StatusConflict, apperrors.ErrSubmissionInFlight.Error(), "")
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		response.RespondError(w, http.StatusUnprocessableEntity, apperrors.ErrInsufficientBalance.Error(), err.Error())
	case errors.As(err, &rejected):
		response.RespondError(w, http.StatusUnprocessableEntity, rejected.Reason, rejected.Error())
	case errors.Is(err, apperrors.ErrAuthExpired):
		response.RespondError(w, http.StatusUnauthorized, apperrors.ErrAuthExpired.Error(), "")
	case errors.Is(err, apperrors.ErrCollaboratorUnavailable):
		response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrCollaboratorUnavailable.Error(), err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/api/shared"
)

// learnerFromRequest returns the learner set by the auth middleware, writing
// a 401 when it is missing.
func learnerFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	learnerID, ok := shared.GetLearnerID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner not found or invalid")
		return uuid.Nil, false
	}
	return learnerID, true
}

// pathLevel parses the {level} URL parameter, writing a 400 when it is not a
// positive integer.
func pathLevel(w http.ResponseWriter, r *http.Request) (int, bool) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil || level <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid level")
		return 0, false
	}
	return level, true
}

// queryInt parses an optional integer query parameter. A missing parameter
// yields fallback.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

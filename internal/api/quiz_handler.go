package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/api/shared"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/redact"
	"github.com/phrazzld/scry-quiz/internal/service/quiz"
)

// DefaultQuestionCount is the batch size when ?count is omitted.
const DefaultQuestionCount = 10

// QuizHandler serves the quiz engine over HTTP.
type QuizHandler struct {
	quiz   quiz.Service
	logger *slog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService quiz.Service, logger *slog.Logger) *QuizHandler {
	if quizService == nil {
		panic("quiz service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QuizHandler{
		quiz:   quizService,
		logger: logger.With(slog.String("component", "quiz_handler")),
	}
}

// Routes registers the quiz endpoints on r. They expect an authenticated
// learner in the request context.
func (h *QuizHandler) Routes(r chi.Router) {
	r.Route("/levels/{level}", func(r chi.Router) {
		r.Get("/questions", h.SelectQuestions)
		r.Post("/answers", h.RecordAnswer)
		r.Get("/progress", h.GetLevelProgress)
		r.Get("/statistics", h.GetLevelStatistics)
		r.Post("/unlock", h.UnlockLevel)
		r.Post("/reset", h.ResetLevel)
	})
	r.Get("/reviews/due", h.GetDueReviews)
}

// SelectQuestions handles GET /levels/{level}/questions?count=N
func (h *QuizHandler) SelectQuestions(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}
	level, ok := pathLevel(w, r)
	if !ok {
		return
	}

	count, err := queryInt(r, "count", DefaultQuestionCount)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid count")
		return
	}

	questions, err := h.quiz.SelectQuestions(r.Context(), learnerID, level, count)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, questionsToResponse(level, questions))
}

// RecordAnswer handles POST /levels/{level}/answers
func (h *QuizHandler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}
	level, ok := pathLevel(w, r)
	if !ok {
		return
	}

	var req RecordAnswerRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	submission := quiz.AnswerSubmission{
		LearnerID:  learnerID,
		Level:      level,
		QuestionID: req.QuestionID,
		Correct:    *req.Correct,
	}
	if req.EventID != nil {
		submission.EventID = *req.EventID
	}
	if submission.EventID == uuid.Nil {
		log.Debug("answer submitted without event_id, retries will not be deduplicated")
	}

	progress, err := h.quiz.RecordAnswer(r.Context(), submission)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(progress))
}

// GetLevelProgress handles GET /levels/{level}/progress
func (h *QuizHandler) GetLevelProgress(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}
	level, ok := pathLevel(w, r)
	if !ok {
		return
	}

	progress, err := h.quiz.GetLevelProgress(r.Context(), learnerID, level)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(progress))
}

// GetLevelStatistics handles GET /levels/{level}/statistics
func (h *QuizHandler) GetLevelStatistics(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}
	level, ok := pathLevel(w, r)
	if !ok {
		return
	}

	stats, err := h.quiz.GetLevelStatistics(r.Context(), learnerID, level)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statisticsToResponse(stats))
}

// UnlockLevel handles POST /levels/{level}/unlock. It answers 409 when the
// previous level has not reached the unlock threshold.
func (h *QuizHandler) UnlockLevel(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}
	level, ok := pathLevel(w, r)
	if !ok {
		return
	}

	unlocked, err := h.quiz.UnlockLevel(r.Context(), learnerID, level)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	if !unlocked {
		shared.RespondWithError(w, r, http.StatusConflict, "Previous level has not reached the unlock threshold")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UnlockResponse{Level: level, Unlocked: true})
}

// ResetLevel handles POST /levels/{level}/reset
func (h *QuizHandler) ResetLevel(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}
	level, ok := pathLevel(w, r)
	if !ok {
		return
	}

	if err := h.quiz.ResetLevel(r.Context(), learnerID, level); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDueReviews handles GET /reviews/due?level=N. A missing level covers
// every level.
func (h *QuizHandler) GetDueReviews(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}

	level, err := queryInt(r, "level", 0)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid level")
		return
	}

	entries, err := h.quiz.GetDueReviews(r.Context(), learnerID, level)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewsToResponse(entries))
}

func (h *QuizHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

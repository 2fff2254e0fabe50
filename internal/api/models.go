package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
)

// RecordAnswerRequest is the payload of POST /levels/{level}/answers.
type RecordAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required,max=128"`
	Correct    *bool  `json:"correct"     validate:"required"`

	// EventID makes the submission idempotent. Clients retrying a request
	// must resend the same value.
	EventID *uuid.UUID `json:"event_id,omitempty"`
}

// QuestionResponse is one selected question.
type QuestionResponse struct {
	ID                 string   `json:"id"`
	Level              int      `json:"level"`
	Content            string   `json:"content"`
	Choices            []string `json:"choices"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
	Category           string   `json:"category,omitempty"`
}

// QuestionsResponse is the response of GET /levels/{level}/questions.
type QuestionsResponse struct {
	Level     int                `json:"level"`
	Questions []QuestionResponse `json:"questions"`
}

// ProgressResponse is a learner's progress on a level.
type ProgressResponse struct {
	Level              int        `json:"level"`
	Mode               string     `json:"mode"`
	Rounds             int        `json:"rounds"`
	TotalQuestions     int        `json:"total_questions"`
	Cleared            []string   `json:"cleared"`
	Unsolved           []string   `json:"unsolved"`
	Wrong              []string   `json:"wrong"`
	CompletionRate     int        `json:"completion_rate"`
	IsUnlocked         bool       `json:"is_unlocked"`
	PerfectClearCount  int        `json:"perfect_clear_count"`
	LastPerfectClearAt *time.Time `json:"last_perfect_clear_at,omitempty"`
	LastPlayedAt       *time.Time `json:"last_played_at,omitempty"`
}

// StatisticsResponse is a learner's running statistics on a level.
type StatisticsResponse struct {
	Level           int            `json:"level"`
	TotalAnswered   int            `json:"total_answered"`
	CorrectCount    int            `json:"correct_count"`
	AverageAccuracy float64        `json:"average_accuracy"`
	CurrentStreak   int            `json:"current_streak"`
	BestStreak      int            `json:"best_streak"`
	PlayCounts      map[string]int `json:"play_counts"`
}

// ReviewResponse is one due review ledger entry.
type ReviewResponse struct {
	QuestionID          string    `json:"question_id"`
	Level               int       `json:"level"`
	TotalWrongCount     int       `json:"total_wrong_count"`
	ResolvedCount       int       `json:"resolved_count"`
	ReviewIntervalIndex int       `json:"review_interval_index"`
	DifficultyScore     int       `json:"difficulty_score"`
	LastWrongAt         time.Time `json:"last_wrong_at"`
	NextReviewAt        time.Time `json:"next_review_at"`
}

// DueReviewsResponse is the response of GET /reviews/due.
type DueReviewsResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
}

// UnlockResponse is the response of POST /levels/{level}/unlock.
type UnlockResponse struct {
	Level    int  `json:"level"`
	Unlocked bool `json:"unlocked"`
}

func questionsToResponse(level int, questions []domain.Question) QuestionsResponse {
	out := QuestionsResponse{Level: level, Questions: make([]QuestionResponse, len(questions))}
	for i, q := range questions {
		out.Questions[i] = QuestionResponse{
			ID:                 q.ID,
			Level:              q.Level,
			Content:            q.Content,
			Choices:            q.Choices,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
			Category:           q.Category,
		}
	}
	return out
}

func progressToResponse(p *domain.LevelProgress) ProgressResponse {
	return ProgressResponse{
		Level:              p.Level,
		Mode:               string(p.Mode),
		Rounds:             p.Rounds,
		TotalQuestions:     p.TotalQuestions,
		Cleared:            p.Cleared(),
		Unsolved:           p.Unsolved(),
		Wrong:              p.Wrong(),
		CompletionRate:     p.CompletionRate,
		IsUnlocked:         p.IsUnlocked,
		PerfectClearCount:  p.PerfectClearCount,
		LastPerfectClearAt: optionalTime(p.LastPerfectClearAt),
		LastPlayedAt:       optionalTime(p.LastPlayedAt),
	}
}

func statisticsToResponse(s *domain.LevelStatistics) StatisticsResponse {
	return StatisticsResponse{
		Level:           s.Level,
		TotalAnswered:   s.TotalAnswered,
		CorrectCount:    s.CorrectCount,
		AverageAccuracy: s.AverageAccuracy(),
		CurrentStreak:   s.CurrentStreak,
		BestStreak:      s.BestStreak,
		PlayCounts:      s.PlayCounts,
	}
}

func reviewsToResponse(entries []*domain.ReviewEntry) DueReviewsResponse {
	out := DueReviewsResponse{Reviews: make([]ReviewResponse, len(entries))}
	for i, e := range entries {
		out.Reviews[i] = ReviewResponse{
			QuestionID:          e.QuestionID,
			Level:               e.Level,
			TotalWrongCount:     e.TotalWrongCount,
			ResolvedCount:       e.ResolvedCount,
			ReviewIntervalIndex: e.ReviewIntervalIndex,
			DifficultyScore:     e.DifficultyScore,
			LastWrongAt:         e.LastWrongAt,
			NextReviewAt:        e.NextReviewAt,
		}
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
)

// SubmitReviewRequest is the payload of POST /api/review and
// POST /api/sessions/{id}/reviews.
type SubmitReviewRequest struct {
	Identifier string `json:"identifier"    validate:"required,max=512"`

	// Quality is a pointer so a missing value is distinguishable from 0.
	// Its range is checked by the scheduler.
	Quality     *int  `json:"quality"       validate:"required"`
	TimeSpentMS int64 `json:"time_spent_ms" validate:"gte=0"`
}

// EnableItemRequest is the optional payload of POST /api/items/{id}/enable.
type EnableItemRequest struct {
	ContentType string `json:"content_type" validate:"max=64"`
}

// PostponeItemRequest is the payload of POST /api/items/{id}/postpone.
type PostponeItemRequest struct {
	Days int `json:"days" validate:"required,min=1,max=3650"`
}

// ItemResponse is the scheduling state of an item.
type ItemResponse struct {
	Identifier     string     `json:"identifier"`
	UserID         uuid.UUID  `json:"user_id"`
	ContentType    string     `json:"content_type"`
	IntervalDays   float64    `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	Repetitions    int        `json:"repetitions"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	Enabled        bool       `json:"enabled"`
	ReviewCount    int        `json:"review_count"`
	Version        int64      `json:"version"`
}

// ItemStatusResponse adds retention analytics to ItemResponse.
type ItemStatusResponse struct {
	ItemResponse
	Retention       float64 `json:"retention"`
	Stability       float64 `json:"stability"`
	TargetRetention float64 `json:"target_retention"`
	DaysUntilTarget float64 `json:"days_until_target"`
}

// ReviewQueueResponse is the body of GET /api/review-queue.
type ReviewQueueResponse struct {
	Items       []ranking.Entry `json:"items"`
	Count       int             `json:"count"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// SessionResponse describes a session and its queue.
type SessionResponse struct {
	SessionID uuid.UUID              `json:"session_id"`
	State     review_session.State   `json:"state"`
	Queue     []ranking.Entry        `json:"queue"`
	Summary   review_session.Summary `json:"summary"`
}

// itemToResponse converts a domain.ReviewableItem to an ItemResponse
func itemToResponse(item *domain.ReviewableItem) ItemResponse {
	resp := ItemResponse{
		Identifier:   item.Identifier,
		UserID:       item.UserID,
		ContentType:  item.ContentType,
		IntervalDays: item.IntervalDays,
		EaseFactor:   item.EaseFactor,
		Repetitions:  item.Repetitions,
		NextReviewAt: item.NextReviewAt,
		Enabled:      item.Enabled,
		ReviewCount:  len(item.ReviewHistory),
		Version:      item.Version,
	}
	if !item.NeverReviewed() {
		last := item.LastReviewedAt
		resp.LastReviewedAt = &last
	}
	return resp
}

package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/service/assessment"
)

// AddCardRequest defines the payload for adding a question to the review queue.
type AddCardRequest struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
}

// SubmitReviewRequest defines the payload for rating a review card.
type SubmitReviewRequest struct {
	Rating domain.Rating `json:"rating" validate:"required,oneof=again hard good easy"`
}

// RecordAnswerRequest defines the payload for answering a question outside a session.
type RecordAnswerRequest struct {
	QuestionID          uuid.UUID `json:"question_id"           validate:"required"`
	SelectedChoiceIndex *int      `json:"selected_choice_index" validate:"required,gte=0"`
	TimeSpentSeconds    *int      `json:"time_spent_seconds"    validate:"omitempty,gte=0"`
}

// FlagQuestionRequest defines the payload for flagging a question.
type FlagQuestionRequest struct {
	Flagged bool `json:"flagged"`
}

// CreateSessionRequest defines the payload for starting an assessment session.
type CreateSessionRequest struct {
	ExamID            uuid.UUID           `json:"exam_id"            validate:"required"`
	Mode              domain.SessionMode  `json:"mode"               validate:"required,oneof=tutor timed untimed"`
	SelectionCriteria SelectionCriteria   `json:"selection_criteria"`
	Timer             *domain.TimerConfig `json:"timer,omitempty"`
}

// SelectionCriteria describes which questions a new session draws from.
type SelectionCriteria struct {
	Source        domain.SelectionSource `json:"source"         validate:"required,oneof=all unused incorrect flagged custom"`
	Subjects      []string               `json:"subjects"`
	Topics        []string               `json:"topics"`
	QuestionCount int                    `json:"question_count" validate:"required,gt=0,lte=500"`
}

// toServiceRequest converts the payload into the assessment service request.
func (r *CreateSessionRequest) toServiceRequest() assessment.CreateRequest {
	req := assessment.CreateRequest{
		ExamID: r.ExamID,
		Mode:   r.Mode,
		Policy: domain.SelectionPolicy{
			Source:        r.SelectionCriteria.Source,
			Subjects:      r.SelectionCriteria.Subjects,
			Topics:        r.SelectionCriteria.Topics,
			QuestionCount: r.SelectionCriteria.QuestionCount,
		},
	}
	if r.Timer != nil {
		req.Timer = *r.Timer
	}
	return req
}

// SubmitAnswerRequest defines the payload for answering a session question.
type SubmitAnswerRequest struct {
	QuestionID          uuid.UUID `json:"question_id"           validate:"required"`
	SelectedChoiceIndex *int      `json:"selected_choice_index" validate:"required,gte=0"`
	TimeSpentSeconds    *int      `json:"time_spent_seconds"    validate:"omitempty,gte=0"`
}

// FlagAnswerRequest defines the payload for flagging a session question.
type FlagAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
	Flagged    bool      `json:"flagged"`
}

// SessionResponse is the client view of an assessment session.
type SessionResponse struct {
	ID                uuid.UUID              `json:"id"`
	ExamID            uuid.UUID              `json:"exam_id"`
	Mode              domain.SessionMode     `json:"mode"`
	SelectionCriteria domain.SelectionPolicy `json:"selection_criteria"`
	Timer             domain.TimerConfig     `json:"timer"`
	QuestionIDs       []uuid.UUID            `json:"question_ids"`
	Answers           []domain.Answer        `json:"answers"`
	Completed         bool                   `json:"completed"`
	Result            *domain.SessionResult  `json:"result,omitempty"`
	StartedAt         time.Time              `json:"started_at"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
	Questions         []*domain.Question     `json:"questions,omitempty"`
}

func sessionToResponse(s *domain.AssessmentSession, questions []*domain.Question) SessionResponse {
	return SessionResponse{
		ID:                s.ID,
		ExamID:            s.ExamID,
		Mode:              s.Mode,
		SelectionCriteria: s.Policy,
		Timer:             s.Timer,
		QuestionIDs:       s.QuestionIDs,
		Answers:           s.Answers(),
		Completed:         s.Completed,
		Result:            s.Result,
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
		Questions:         questions,
	}
}

func sessionsToResponse(sessions []*domain.AssessmentSession) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionToResponse(s, nil))
	}
	return out
}

// WebhookResponse acknowledges a provider delivery.
type WebhookResponse struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Action    string `json:"action,omitempty"`
}

// ActiveResponse answers the premium gate.
type ActiveResponse struct {
	Active bool `json:"active"`
}

// SweepResponse reports the outcome of a manual expiry sweep.
type SweepResponse struct {
	Expired int  `json:"expired"`
	Skipped bool `json:"skipped"`
}

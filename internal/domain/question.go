package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Question validation errors.
var (
	ErrQuestionExamIDEmpty     = errors.New("question exam ID cannot be empty")
	ErrQuestionTextEmpty       = errors.New("question text cannot be empty")
	ErrQuestionChoicesEmpty    = errors.New("question must have at least two choices")
	ErrQuestionCorrectIndex    = errors.New("question correct choice index out of range")
	ErrQuestionSubjectEmpty    = errors.New("question subject cannot be empty")
	ErrInvalidChoiceIndex      = errors.New("choice index out of range")
	ErrInvalidProgressStatus   = errors.New("invalid progress status")
	ErrProgressQuestionIDEmpty = errors.New("progress question ID cannot be empty")
)

// Question is one multiple-choice item of an exam's question bank. The bank
// itself is maintained elsewhere; the study core only reads it.
type Question struct {
	ID                 uuid.UUID `json:"id"`
	ExamID             uuid.UUID `json:"exam_id"`
	Text               string    `json:"text"`
	Choices            []string  `json:"choices"`
	CorrectChoiceIndex int       `json:"-"`
	Explanation        string    `json:"explanation,omitempty"`
	Subject            string    `json:"subject"`
	Topic              string    `json:"topic"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Validate checks if the Question has valid data.
func (q *Question) Validate() error {
	if q.ID == uuid.Nil {
		return ErrInvalidID
	}
	if q.ExamID == uuid.Nil {
		return ErrQuestionExamIDEmpty
	}
	if q.Text == "" {
		return ErrQuestionTextEmpty
	}
	if len(q.Choices) < 2 {
		return ErrQuestionChoicesEmpty
	}
	if q.CorrectChoiceIndex < 0 || q.CorrectChoiceIndex >= len(q.Choices) {
		return ErrQuestionCorrectIndex
	}
	if q.Subject == "" {
		return ErrQuestionSubjectEmpty
	}
	return nil
}

// IsCorrect reports whether choice is the correct answer. Out-of-range choices
// are rejected rather than treated as wrong.
func (q *Question) IsCorrect(choice int) (bool, error) {
	if choice < 0 || choice >= len(q.Choices) {
		return false, ErrInvalidChoiceIndex
	}
	return choice == q.CorrectChoiceIndex, nil
}

// ProgressStatus is the latest outcome a user had on a question.
type ProgressStatus string

// Possible progress status values.
const (
	ProgressCorrect   ProgressStatus = "correct"
	ProgressIncorrect ProgressStatus = "incorrect"
	ProgressFlagged   ProgressStatus = "flagged"
	ProgressSkipped   ProgressStatus = "skipped"
)

// Valid reports whether s is a known progress status.
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressCorrect, ProgressIncorrect, ProgressFlagged, ProgressSkipped:
		return true
	default:
		return false
	}
}

// QuestionProgress is a user's history on a single question.
type QuestionProgress struct {
	ID                  uuid.UUID      `json:"id"`
	UserID              uuid.UUID      `json:"user_id"`
	QuestionID          uuid.UUID      `json:"question_id"`
	Status              ProgressStatus `json:"status"`
	Attempts            int            `json:"attempts"`
	CorrectAttempts     int            `json:"correct_attempts"`
	TimeSpentSeconds    *int           `json:"time_spent_seconds,omitempty"`
	SelectedChoiceIndex *int           `json:"selected_choice_index,omitempty"`
	FirstAttemptAt      time.Time      `json:"first_attempt_at"`
	LastAttemptAt       time.Time      `json:"last_attempt_at"`
}

// NewQuestionProgress creates an empty progress row with the given status.
func NewQuestionProgress(
	userID, questionID uuid.UUID,
	status ProgressStatus,
	now time.Time,
) (*QuestionProgress, error) {
	now = now.UTC()
	p := &QuestionProgress{
		ID:             uuid.New(),
		UserID:         userID,
		QuestionID:     questionID,
		Status:         status,
		FirstAttemptAt: now,
		LastAttemptAt:  now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// RecordAttempt applies one answered attempt to the progress row.
func (p *QuestionProgress) RecordAttempt(choice int, correct bool, elapsedSeconds *int, now time.Time) {
	p.Attempts++
	if correct {
		p.CorrectAttempts++
		p.Status = ProgressCorrect
	} else {
		p.Status = ProgressIncorrect
	}
	if elapsedSeconds != nil {
		total := *elapsedSeconds
		if p.TimeSpentSeconds != nil {
			total += *p.TimeSpentSeconds
		}
		p.TimeSpentSeconds = &total
	}
	selected := choice
	p.SelectedChoiceIndex = &selected
	p.LastAttemptAt = now.UTC()
}

// Validate checks if the QuestionProgress has valid data.
func (p *QuestionProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if p.QuestionID == uuid.Nil {
		return ErrProgressQuestionIDEmpty
	}
	if !p.Status.Valid() {
		return ErrInvalidProgressStatus
	}
	return nil
}

// ProgressStats summarises a user's question history.
type ProgressStats struct {
	TotalAttempted int     `json:"total_attempted"`
	Correct        int     `json:"correct"`
	Incorrect      int     `json:"incorrect"`
	Flagged        int     `json:"flagged"`
	Skipped        int     `json:"skipped"`
	TotalAttempts  int     `json:"total_attempts"`
	TotalTime      int     `json:"total_time_seconds"`
	Accuracy       float64 `json:"accuracy"`
}

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionMode controls how a session is presented to the learner.
type SessionMode string

// Possible session modes.
const (
	SessionModeTutor   SessionMode = "tutor"
	SessionModeTimed   SessionMode = "timed"
	SessionModeUntimed SessionMode = "untimed"
)

// Valid reports whether m is a known session mode.
func (m SessionMode) Valid() bool {
	switch m {
	case SessionModeTutor, SessionModeTimed, SessionModeUntimed:
		return true
	default:
		return false
	}
}

// SelectionSource narrows the question pool by the user's history.
type SelectionSource string

// Possible selection sources.
const (
	SourceAll       SelectionSource = "all"
	SourceUnused    SelectionSource = "unused"
	SourceIncorrect SelectionSource = "incorrect"
	SourceFlagged   SelectionSource = "flagged"
	SourceCustom    SelectionSource = "custom"
)

// Valid reports whether s is a known selection source.
func (s SelectionSource) Valid() bool {
	switch s {
	case SourceAll, SourceUnused, SourceIncorrect, SourceFlagged, SourceCustom:
		return true
	default:
		return false
	}
}

// UnknownSubject labels breakdown rows for questions that no longer exist.
const UnknownSubject = "Unknown"

// Session errors.
var (
	ErrSessionUserIDEmpty       = errors.New("session user ID cannot be empty")
	ErrSessionExamIDEmpty       = errors.New("session exam ID cannot be empty")
	ErrInvalidSessionMode       = errors.New("invalid session mode")
	ErrInvalidSelectionSource   = errors.New("invalid selection source")
	ErrInvalidQuestionCount     = errors.New("question count must be greater than 0")
	ErrSessionHasNoQuestions    = errors.New("session must contain at least one question")
	ErrDuplicateSessionQuestion = errors.New("session contains a question more than once")
	ErrAnswersMisaligned        = errors.New("session answers do not match its questions")
	ErrQuestionNotInSession     = errors.New("question is not part of this session")
	ErrSessionCompleted         = errors.New("session already completed")
)

// SelectionPolicy describes which questions a new session draws from.
type SelectionPolicy struct {
	Source        SelectionSource `json:"source"`
	Subjects      []string        `json:"subjects,omitempty"`
	Topics        []string        `json:"topics,omitempty"`
	QuestionCount int             `json:"question_count"`
}

// Validate checks if the SelectionPolicy has valid data.
func (p SelectionPolicy) Validate() error {
	if !p.Source.Valid() {
		return ErrInvalidSelectionSource
	}
	if p.QuestionCount <= 0 {
		return ErrInvalidQuestionCount
	}
	return nil
}

// TimerConfig holds the optional time limits of a session.
type TimerConfig struct {
	HasTimer               bool `json:"has_timer"`
	TimeLimitMinutes       *int `json:"time_limit_minutes,omitempty"`
	TimePerQuestionSeconds *int `json:"time_per_question_seconds,omitempty"`
}

// Answer is the learner's response slot for one question of a session.
// IsCorrect is nil while the question is unanswered.
type Answer struct {
	QuestionID          uuid.UUID `json:"question_id"`
	SelectedChoiceIndex *int      `json:"selected_choice_index,omitempty"`
	IsCorrect           *bool     `json:"is_correct,omitempty"`
	TimeSpentSeconds    *int      `json:"time_spent_seconds,omitempty"`
	Flagged             bool      `json:"flagged"`
	MarkedForReview     bool      `json:"marked_for_review"`
}

// SubjectScore is one row of the per-subject breakdown.
type SubjectScore struct {
	Subject    string  `json:"subject"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// SessionResult holds the aggregates computed once at completion.
type SessionResult struct {
	ScorePercentage  float64        `json:"score_percentage"`
	CorrectCount     int            `json:"correct_count"`
	IncorrectCount   int            `json:"incorrect_count"`
	SkippedCount     int            `json:"skipped_count"`
	TotalTimeSeconds int            `json:"total_time_seconds"`
	BySubject        []SubjectScore `json:"performance_by_subject"`
}

// AssessmentSession is a frozen set of questions a user works through once.
// Answers are indexed by question id internally and exposed in question order.
type AssessmentSession struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ExamID      uuid.UUID
	Mode        SessionMode
	Policy      SelectionPolicy
	Timer       TimerConfig
	QuestionIDs []uuid.UUID
	Completed   bool
	Result      *SessionResult
	StartedAt   time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time

	answers map[uuid.UUID]Answer
}

// NewAssessmentSession creates a session over questionIDs with blank answers.
func NewAssessmentSession(
	userID, examID uuid.UUID,
	mode SessionMode,
	policy SelectionPolicy,
	timer TimerConfig,
	questionIDs []uuid.UUID,
	now time.Time,
) (*AssessmentSession, error) {
	now = now.UTC()
	s := &AssessmentSession{
		ID:          uuid.New(),
		UserID:      userID,
		ExamID:      examID,
		Mode:        mode,
		Policy:      policy,
		Timer:       timer,
		QuestionIDs: append([]uuid.UUID(nil), questionIDs...),
		StartedAt:   now,
		UpdatedAt:   now,
		answers:     make(map[uuid.UUID]Answer, len(questionIDs)),
	}
	for _, id := range s.QuestionIDs {
		s.answers[id] = Answer{QuestionID: id}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// RestoreAnswers loads persisted answers into the session. The answers must
// line up one to one with QuestionIDs.
func (s *AssessmentSession) RestoreAnswers(answers []Answer) error {
	if len(answers) != len(s.QuestionIDs) {
		return ErrAnswersMisaligned
	}
	index := make(map[uuid.UUID]Answer, len(answers))
	for i, a := range answers {
		if a.QuestionID != s.QuestionIDs[i] {
			return ErrAnswersMisaligned
		}
		index[a.QuestionID] = a
	}
	s.answers = index
	return nil
}

// Answers returns the answer slots in question order.
func (s *AssessmentSession) Answers() []Answer {
	out := make([]Answer, 0, len(s.QuestionIDs))
	for _, id := range s.QuestionIDs {
		out = append(out, s.answers[id])
	}
	return out
}

// Answer returns the slot for questionID.
func (s *AssessmentSession) Answer(questionID uuid.UUID) (Answer, bool) {
	a, ok := s.answers[questionID]
	return a, ok
}

// RecordAnswer overwrites the slot for questionID with a new response.
// Flags survive resubmission.
func (s *AssessmentSession) RecordAnswer(
	questionID uuid.UUID,
	choice int,
	correct bool,
	elapsedSeconds *int,
	now time.Time,
) error {
	if s.Completed {
		return ErrSessionCompleted
	}
	slot, ok := s.answers[questionID]
	if !ok {
		return ErrQuestionNotInSession
	}

	selected := choice
	isCorrect := correct
	slot.SelectedChoiceIndex = &selected
	slot.IsCorrect = &isCorrect
	if elapsedSeconds != nil {
		elapsed := *elapsedSeconds
		slot.TimeSpentSeconds = &elapsed
	} else {
		slot.TimeSpentSeconds = nil
	}

	s.answers[questionID] = slot
	s.UpdatedAt = now.UTC()
	return nil
}

// SetFlag marks or unmarks questionID for later attention.
func (s *AssessmentSession) SetFlag(questionID uuid.UUID, flagged bool, now time.Time) error {
	if s.Completed {
		return ErrSessionCompleted
	}
	slot, ok := s.answers[questionID]
	if !ok {
		return ErrQuestionNotInSession
	}
	slot.Flagged = flagged
	s.answers[questionID] = slot
	s.UpdatedAt = now.UTC()
	return nil
}

// Complete computes the aggregate result and freezes the session. subjects
// maps question id to subject; missing questions are grouped as UnknownSubject.
func (s *AssessmentSession) Complete(subjects map[uuid.UUID]string, now time.Time) (*SessionResult, error) {
	if s.Completed {
		return nil, ErrSessionCompleted
	}

	result := Score(s.Answers(), subjects)
	completedAt := now.UTC()

	s.Completed = true
	s.Result = result
	s.CompletedAt = &completedAt
	s.UpdatedAt = completedAt
	return result, nil
}

// Score aggregates answers into a SessionResult. Subjects are reported in the
// order they first appear.
func Score(answers []Answer, subjects map[uuid.UUID]string) *SessionResult {
	result := &SessionResult{BySubject: []SubjectScore{}}
	bySubject := make(map[string]int)

	for _, a := range answers {
		switch {
		case a.IsCorrect == nil:
			result.SkippedCount++
		case *a.IsCorrect:
			result.CorrectCount++
		default:
			result.IncorrectCount++
		}
		if a.TimeSpentSeconds != nil {
			result.TotalTimeSeconds += *a.TimeSpentSeconds
		}

		subject, ok := subjects[a.QuestionID]
		if !ok || subject == "" {
			subject = UnknownSubject
		}
		idx, seen := bySubject[subject]
		if !seen {
			idx = len(result.BySubject)
			bySubject[subject] = idx
			result.BySubject = append(result.BySubject, SubjectScore{Subject: subject})
		}
		result.BySubject[idx].Total++
		if a.IsCorrect != nil && *a.IsCorrect {
			result.BySubject[idx].Correct++
		}
	}

	if total := len(answers); total > 0 {
		result.ScorePercentage = float64(result.CorrectCount) / float64(total) * 100
	}
	for i := range result.BySubject {
		row := &result.BySubject[i]
		row.Percentage = float64(row.Correct) / float64(row.Total) * 100
	}
	return result
}

// Validate checks if the AssessmentSession has valid data.
func (s *AssessmentSession) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrSessionUserIDEmpty
	}
	if s.ExamID == uuid.Nil {
		return ErrSessionExamIDEmpty
	}
	if !s.Mode.Valid() {
		return ErrInvalidSessionMode
	}
	if err := s.Policy.Validate(); err != nil {
		return err
	}
	if len(s.QuestionIDs) == 0 {
		return ErrSessionHasNoQuestions
	}
	seen := make(map[uuid.UUID]struct{}, len(s.QuestionIDs))
	for _, id := range s.QuestionIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSessionQuestion, id)
		}
		seen[id] = struct{}{}
	}
	if len(s.answers) != len(s.QuestionIDs) {
		return ErrAnswersMisaligned
	}
	return nil
}

// SessionStats summarises a user's completed sessions.
type SessionStats struct {
	TotalExams              int     `json:"total_exams"`
	AvgScore                float64 `json:"avg_score"`
	HighestScore            float64 `json:"highest_score"`
	LowestScore             float64 `json:"lowest_score"`
	TotalQuestionsAttempted int     `json:"total_questions_attempted"`
}

// SummarizeSessions computes SessionStats over completed sessions.
func SummarizeSessions(sessions []*AssessmentSession) SessionStats {
	var stats SessionStats
	var sum float64
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		score := 0.0
		if s.Result != nil {
			score = s.Result.ScorePercentage
		}
		if stats.TotalExams == 0 || score > stats.HighestScore {
			stats.HighestScore = score
		}
		if stats.TotalExams == 0 || score < stats.LowestScore {
			stats.LowestScore = score
		}
		stats.TotalExams++
		stats.TotalQuestionsAttempted += len(s.QuestionIDs)
		sum += score
	}
	if stats.TotalExams > 0 {
		stats.AvgScore = sum / float64(stats.TotalExams)
	}
	return stats
}

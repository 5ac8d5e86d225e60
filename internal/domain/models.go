package domain

import (
	"strings"
	"time"
)

// Choice is one of the four option letters of a question.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
)

// Choices lists the valid options in display order.
var Choices = [4]Choice{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// ParseChoice normalizes a raw answer ("b", " B ") into a Choice.
func ParseChoice(raw string) (Choice, error) {
	c := Choice(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", ErrInvalidChoice
	}
	return c, nil
}

// Valid reports whether c is A, B, C or D.
func (c Choice) Valid() bool {
	switch c {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return true
	}
	return false
}

// Matches compares two choices case-insensitively.
func (c Choice) Matches(other Choice) bool {
	return strings.EqualFold(strings.TrimSpace(string(c)), strings.TrimSpace(string(other)))
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string    `json:"id"`
	Prompt  string    `json:"prompt"`
	Options [4]string `json:"options"` // A, B, C, D
	Correct Choice    `json:"correct"`
	Active  bool      `json:"active"`
}

// Option returns the text for a choice.
func (q Question) Option(c Choice) string {
	for i, choice := range Choices {
		if choice == c {
			return q.Options[i]
		}
	}
	return ""
}

// Validate checks the catalog invariants of a single question.
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" || strings.TrimSpace(q.Prompt) == "" {
		return ErrInvalidQuestion
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return ErrInvalidQuestion
		}
	}
	if !q.Correct.Valid() {
		return ErrInvalidQuestion
	}
	return nil
}

// SessionStatus is the lifecycle state of a quiz window.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// Session is a quiz window. It owns the question snapshot taken at open time.
type Session struct {
	PeriodKey string        `json:"periodKey"`
	Status    SessionStatus `json:"status"`
	OpenedAt  time.Time     `json:"openedAt"`
	ClosedAt  *time.Time    `json:"closedAt,omitempty"`
	Questions []Question    `json:"questions"`
}

// IsActive reports whether participants may still progress.
func (s Session) IsActive() bool {
	return s.Status == SessionActive
}

// QuestionIndex returns the position of questionID in the snapshot, or -1.
func (s Session) QuestionIndex(questionID string) int {
	for i := range s.Questions {
		if s.Questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// View renders the question at index without its correct answer.
func (s Session) View(index int) QuestionView {
	q := s.Questions[index]
	return QuestionView{
		PeriodKey:  s.PeriodKey,
		QuestionID: q.ID,
		Prompt:     q.Prompt,
		Options:    q.Options,
		Number:     index + 1,
		Total:      len(s.Questions),
	}
}

// ParticipantAnswer is one durable answer row keyed by (participant, session, question).
type ParticipantAnswer struct {
	ParticipantID string    `json:"participantId"`
	PeriodKey     string    `json:"periodKey"`
	QuestionID    string    `json:"questionId"`
	Position      int       `json:"position"`
	Choice        Choice    `json:"choice"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// Result is the finalized score of one participant in one session.
type Result struct {
	ParticipantID string    `json:"participantId"`
	PeriodKey     string    `json:"periodKey"`
	Score         int       `json:"score"`
	Total         int       `json:"total"`
	CompletedAt   time.Time `json:"completedAt"`
}

// Participant is a known recipient of quiz messages.
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Category    string    `json:"category,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Participant categories offered in the welcome notice.
const (
	CategoryStudent6 = "student_6"
	CategoryStudent9 = "student_9"
	CategoryParent   = "parent"
	CategoryTeacher  = "teacher"
)

// Categories lists the accepted participant categories in display order.
var Categories = []string{CategoryStudent6, CategoryStudent9, CategoryParent, CategoryTeacher}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Standing is a ranked leaderboard row.
type Standing struct {
	Rank          int       `json:"rank"`
	ParticipantID string    `json:"participantId"`
	DisplayName   string    `json:"displayName"`
	Score         int       `json:"score"`
	Total         int       `json:"total"`
	CompletedAt   time.Time `json:"completedAt"`
}

// QuestionView is what a participant sees; it never carries the correct option.
type QuestionView struct {
	PeriodKey  string    `json:"periodKey"`
	QuestionID string    `json:"questionId"`
	Prompt     string    `json:"prompt"`
	Options    [4]string `json:"options"`
	Number     int       `json:"number"`
	Total      int       `json:"total"`
}

// SubmitOutcome is either an advance to Next or a completion with Result.
type SubmitOutcome struct {
	Completed bool          `json:"completed"`
	Next      *QuestionView `json:"next,omitempty"`
	Result    *Result       `json:"result,omitempty"`
}

// Window summarizes an opened session for the operator.
type Window struct {
	PeriodKey     string        `json:"periodKey"`
	Status        SessionStatus `json:"status"`
	QuestionCount int           `json:"questionCount"`
	OpenedAt      time.Time     `json:"openedAt"`
}

// CloseSummary is returned when a window is closed.
type CloseSummary struct {
	PeriodKey string     `json:"periodKey"`
	Winners   []Standing `json:"winners"`
}

// Notice is a message pushed to participants.
type Notice struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Payload any    `json:"payload,omitempty"`
}

// BroadcastReport aggregates per-recipient delivery outcomes.
type BroadcastReport struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Total   int `json:"total"`
}

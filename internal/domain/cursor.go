package domain

// Cursor is a participant's position in a session's question sequence.
// Choices[i] is the accepted answer for question i; Index == len(Choices).
type Cursor struct {
	ParticipantID string   `json:"participantId"`
	PeriodKey     string   `json:"periodKey"`
	Index         int      `json:"index"`
	Choices       []Choice `json:"choices"`
}

// Done reports whether every question of the session has been answered.
func (c Cursor) Done(s Session) bool {
	return c.Index >= len(s.Questions)
}

// Advance records the answer for the current question.
func (c Cursor) Advance(choice Choice) Cursor {
	choices := make([]Choice, len(c.Choices), len(c.Choices)+1)
	copy(choices, c.Choices)
	c.Choices = append(choices, choice)
	c.Index = len(c.Choices)
	return c
}

// RebuildCursor derives a cursor from durable answer rows. Only the gap-free
// prefix of the snapshot counts, so the result is a pure function of the rows.
func RebuildCursor(s Session, participantID string, answers []ParticipantAnswer) Cursor {
	byQuestion := make(map[string]Choice, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Choice
	}
	cursor := Cursor{ParticipantID: participantID, PeriodKey: s.PeriodKey}
	for _, q := range s.Questions {
		choice, ok := byQuestion[q.ID]
		if !ok {
			break
		}
		cursor = cursor.Advance(choice)
	}
	return cursor
}

package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"weekly-quiz-service/internal/domain"
)

// Notice types pushed to participants.
const (
	NoticeWindowOpened = "window_opened"
	NoticeWindowClosed = "window_closed"
	NoticeAnnouncement = "announcement"
	NoticeWelcome      = "welcome"
)

// WelcomeNotice greets a first-time participant and asks for a category.
func WelcomeNotice(p domain.Participant) domain.Notice {
	name := p.DisplayName
	if name == "" {
		name = "there"
	}
	return domain.Notice{
		Type: NoticeWelcome,
		Text: fmt.Sprintf("Welcome, %s! Tell us who you are: %s.", name, strings.Join(domain.Categories, ", ")),
		Payload: map[string]any{
			"categories": domain.Categories,
		},
	}
}

// OpenedNotice tells participants a new window accepts answers.
func OpenedNotice(w domain.Window) domain.Notice {
	return domain.Notice{
		Type:    NoticeWindowOpened,
		Text:    fmt.Sprintf("The weekly quiz %s is open with %d questions. Send begin to start.", w.PeriodKey, w.QuestionCount),
		Payload: w,
	}
}

// ClosedNotice announces the winners of a closed window.
func ClosedNotice(summary domain.CloseSummary) domain.Notice {
	var b strings.Builder
	fmt.Fprintf(&b, "The weekly quiz %s is closed.", summary.PeriodKey)
	if len(summary.Winners) == 0 {
		b.WriteString(" Nobody finished this time.")
	} else {
		b.WriteString(" Winners:")
		for _, w := range summary.Winners {
			fmt.Fprintf(&b, "\n%d. %s - %d/%d", w.Rank, w.DisplayName, w.Score, w.Total)
		}
	}
	return domain.Notice{Type: NoticeWindowClosed, Text: b.String(), Payload: summary}
}

// OpenAndAnnounce opens the current window and broadcasts it. A failed
// broadcast is logged; the window stays open.
func (s *QuizService) OpenAndAnnounce(ctx context.Context) (domain.Window, domain.BroadcastReport, error) {
	window, err := s.OpenWindow(ctx)
	if err != nil {
		return domain.Window{}, domain.BroadcastReport{}, err
	}
	report, err := s.Broadcast(ctx, OpenedNotice(window))
	if err != nil {
		log.Printf("announce open %s: %v", window.PeriodKey, err)
	}
	return window, report, nil
}

// CloseAndAnnounce closes the active window and broadcasts its winners.
func (s *QuizService) CloseAndAnnounce(ctx context.Context) (domain.CloseSummary, domain.BroadcastReport, error) {
	summary, err := s.CloseWindow(ctx)
	if err != nil {
		return domain.CloseSummary{}, domain.BroadcastReport{}, err
	}
	report, err := s.Broadcast(ctx, ClosedNotice(summary))
	if err != nil {
		log.Printf("announce close %s: %v", summary.PeriodKey, err)
	}
	return summary, report, nil
}

package app

import (
	"context"
	"errors"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"weekly-quiz-service/internal/domain"
)

// ErrNoTransport is returned by the fallback notifier when no transport is wired.
var ErrNoTransport = errors.New("no notification transport configured")

// Broadcaster fans a notice out to every known participant. Deliveries are
// independent; one failure never stops the others.
type Broadcaster struct {
	participants ParticipantDirectory
	notifier     Notifier
	concurrency  int
}

func NewBroadcaster(participants ParticipantDirectory, notifier Notifier, concurrency int) *Broadcaster {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Broadcaster{participants: participants, notifier: notifier, concurrency: concurrency}
}

// Broadcast delivers notice and reports aggregate counts.
func (b *Broadcaster) Broadcast(ctx context.Context, notice domain.Notice) (domain.BroadcastReport, error) {
	recipients, err := b.participants.List(ctx)
	if err != nil {
		return domain.BroadcastReport{}, domain.Storage("list participants", err)
	}

	var success, failure atomic.Int64
	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for _, p := range recipients {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.notifier.Notify(ctx, p.ID, notice); err != nil {
				failure.Add(1)
				log.Printf("broadcast to %s failed: %v", p.ID, err)
				return nil
			}
			success.Add(1)
			return nil
		})
	}
	err = g.Wait()

	report := domain.BroadcastReport{
		Success: int(success.Load()),
		Failure: int(failure.Load()),
		Total:   len(recipients),
	}
	if err != nil {
		// recipients not reached before cancellation count as neither
		return report, err
	}
	return report, nil
}

// Send delivers notice to a single participant.
func (b *Broadcaster) Send(ctx context.Context, participantID string, notice domain.Notice) error {
	return b.notifier.Notify(ctx, participantID, notice)
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, string, domain.Notice) error {
	return ErrNoTransport
}

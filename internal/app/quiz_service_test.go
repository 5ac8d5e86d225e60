package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"weekly-quiz-service/internal/app"
	"weekly-quiz-service/internal/domain"
	"weekly-quiz-service/internal/infra/memory"
)

func TestOpenWindowIsIdempotentWithinPeriod(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)

	first, err := env.service.OpenWindow(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if first.PeriodKey != "week_2026_42" || first.QuestionCount != 4 {
		t.Fatalf("unexpected window %+v", first)
	}

	env.clock.Advance(2 * time.Hour)
	second, err := env.service.OpenWindow(ctx)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if second != first {
		t.Fatalf("expected same window, got %+v vs %+v", second, first)
	}
}

func TestOpenWindowConflictsWithActiveSessionOfOtherPeriod(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)

	if _, err := env.service.OpenWindow(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	env.clock.Advance(7 * 24 * time.Hour)
	if _, err := env.service.OpenWindow(ctx); !errors.Is(err, domain.ErrSessionActive) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := env.service.CloseWindow(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	w, err := env.service.OpenWindow(ctx)
	if err != nil || w.PeriodKey != "week_2026_43" {
		t.Fatalf("expected new week window, got %+v err=%v", w, err)
	}
}

func TestConcurrentOpenWindowYieldsSingleActiveSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)

	var wg sync.WaitGroup
	keys := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := env.service.OpenWindow(ctx)
			if err != nil {
				t.Errorf("open: %v", err)
				return
			}
			keys <- w.PeriodKey
		}()
	}
	wg.Wait()
	close(keys)
	for key := range keys {
		if key != "week_2026_42" {
			t.Fatalf("unexpected key %s", key)
		}
	}
	active, ok, err := env.service.ActiveWindow(ctx)
	if err != nil || !ok || active.PeriodKey != "week_2026_42" {
		t.Fatalf("expected one active window, got %+v ok=%v err=%v", active, ok, err)
	}
}

func TestOpenWindowRequiresQuestions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	for _, q := range sampleQuestions() {
		q.Active = false
		_ = env.catalog.Upsert(ctx, q)
	}
	if _, err := env.service.OpenWindow(ctx); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions, got %v", err)
	}
}

func TestFullRunProducesOneResultAndBlocksReentry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	mustOpen(t, env)

	view, err := env.service.Begin(ctx, "p1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if view.QuestionID != "q1" || view.Number != 1 || view.Total != 4 {
		t.Fatalf("unexpected first question %+v", view)
	}

	choices := []string{"a", "B", "d", "D"}
	var outcome domain.SubmitOutcome
	for i, c := range choices {
		outcome, err = env.service.SubmitAnswer(ctx, "p1", sampleQuestions()[i].ID, c)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if i < len(choices)-1 && (outcome.Completed || outcome.Next.QuestionID != sampleQuestions()[i+1].ID) {
			t.Fatalf("expected advance after %d, got %+v", i, outcome)
		}
	}
	if !outcome.Completed || outcome.Result == nil {
		t.Fatalf("expected completion, got %+v", outcome)
	}
	if outcome.Result.Score != 3 || outcome.Result.Total != 4 {
		t.Fatalf("expected 3/4, got %d/%d", outcome.Result.Score, outcome.Result.Total)
	}

	if _, err := env.service.Begin(ctx, "p1"); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}
	if _, ok, _ := env.cursors.Load(ctx, "p1", "week_2026_42"); ok {
		t.Fatalf("cursor should be discarded on completion")
	}
}

func TestSubmitReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	mustOpen(t, env)
	mustBegin(t, env, "p1")

	first, err := env.service.SubmitAnswer(ctx, "p1", "q1", "A")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := env.service.SubmitAnswer(ctx, "p1", "q1", "a")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if *first.Next != *second.Next {
		t.Fatalf("expected same next question, got %+v vs %+v", first.Next, second.Next)
	}
	answers, _ := env.answers.ListFor(ctx, "p1", "week_2026_42")
	if len(answers) != 1 {
		t.Fatalf("expected one stored answer, got %d", len(answers))
	}

	if _, err := env.service.SubmitAnswer(ctx, "p1", "q1", "C"); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
}

func TestReplayOfLastAnswerReturnsStoredResult(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	mustOpen(t, env)
	mustBegin(t, env, "p1")
	final := answerAll(t, env, "p1", []string{"A", "B", "C", "D"})

	env.clock.Advance(time.Minute)
	again, err := env.service.SubmitAnswer(ctx, "p1", "q4", "D")
	if err != nil {
		t.Fatalf("replay last: %v", err)
	}
	if !again.Completed || *again.Result != *final.Result {
		t.Fatalf("expected stored result, got %+v", again)
	}
}

func TestOutOfOrderAnswerIsRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	mustOpen(t, env)
	mustBegin(t, env, "p1")
	answerAll(t, env, "p1", []string{"A", "B"})

	if _, err := env.service.SubmitAnswer(ctx, "p1", "q4", "D"); !errors.Is(err, domain.ErrOutOfSequence) {
		t.Fatalf("expected out of sequence, got %v", err)
	}
	cursor, ok, _ := env.cursors.Load(ctx, "p1", "week_2026_42")
	if !ok || cursor.Index != 2 {
		t.Fatalf("cursor must stay at 2, got %+v", cursor)
	}
	if _, err := env.service.SubmitAnswer(ctx, "p1", "nope", "D"); !errors.Is(err, domain.ErrUnknownQuestion) {
		t.Fatalf("expected unknown question, got %v", err)
	}
	if _, err := env.service.SubmitAnswer(ctx, "p1", "q3", "E"); !errors.Is(err, domain.ErrInvalidChoice) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
}

func TestSubmitRequiresBeginAndActiveSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)

	if _, err := env.service.Begin(ctx, "p1"); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no active session, got %v", err)
	}
	mustOpen(t, env)
	if _, err := env.service.SubmitAnswer(ctx, "p1", "q1", "A"); !errors.Is(err, domain.ErrNotStarted) {
		t.Fatalf("expected not started, got %v", err)
	}
	mustBegin(t, env, "p1")
	answerAll(t, env, "p1", []string{"A"})

	if _, err := env.service.CloseWindow(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := env.service.SubmitAnswer(ctx, "p1", "q2", "B"); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected rejection after close, got %v", err)
	}
	answers, _ := env.answers.ListFor(ctx, "p1", "week_2026_42")
	if len(answers) != 1 {
		t.Fatalf("recorded answers must survive close, got %d", len(answers))
	}

	result, err := env.service.FinalizeScore(ctx, "p1", "week_2026_42")
	if err != nil || result.Score != 1 || result.Total != 4 {
		t.Fatalf("expected late finalize 1/4, got %+v err=%v", result, err)
	}
}

func TestCursorIsRebuiltAfterLoss(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	mustOpen(t, env)
	mustBegin(t, env, "p1")
	answerAll(t, env, "p1", []string{"A", "A"})

	_ = env.cursors.Purge(ctx, "week_2026_42")

	view, err := env.service.Begin(ctx, "p1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if view.QuestionID != "q3" {
		t.Fatalf("expected resume at q3, got %s", view.QuestionID)
	}

	_ = env.cursors.Purge(ctx, "week_2026_42")
	outcome, err := env.service.SubmitAnswer(ctx, "p1", "q3", "C")
	if err != nil || outcome.Next.QuestionID != "q4" {
		t.Fatalf("expected advance from rebuilt cursor, got %+v err=%v", outcome, err)
	}
}

// failingCursorStore accepts the first save and fails every write after it.
type failingCursorStore struct {
	*memory.CursorStore
	mu    sync.Mutex
	saves int
}

func (s *failingCursorStore) Save(ctx context.Context, cursor domain.Cursor) error {
	s.mu.Lock()
	s.saves++
	n := s.saves
	s.mu.Unlock()
	if n > 1 {
		return errors.New("cache unavailable")
	}
	return s.CursorStore.Save(ctx, cursor)
}

func (s *failingCursorStore) Delete(context.Context, string, string) error {
	return errors.New("cache unavailable")
}

func TestStaleCachedCursorDoesNotBlockNextAnswer(t *testing.T) {
	ctx := context.Background()
	cursors := &failingCursorStore{CursorStore: memory.NewCursorStore()}
	env := newTestEnvWith(nil, func(d *app.Dependencies) { d.Cursors = cursors })
	mustOpen(t, env)
	mustBegin(t, env, "p1")

	outcome, err := env.service.SubmitAnswer(ctx, "p1", "q1", "A")
	if err != nil || outcome.Next == nil || outcome.Next.QuestionID != "q2" {
		t.Fatalf("expected q2 next, got %+v err=%v", outcome, err)
	}

	// the cache still holds the cursor from Begin
	cached, ok, _ := cursors.Load(ctx, "p1", "week_2026_42")
	if !ok || cached.Index != 0 {
		t.Fatalf("expected stale cached cursor at 0, got %+v ok=%v", cached, ok)
	}

	for i, c := range []string{"B", "C", "D"} {
		qid := sampleQuestions()[i+1].ID
		outcome, err = env.service.SubmitAnswer(ctx, "p1", qid, c)
		if err != nil {
			t.Fatalf("submit %s: %v", qid, err)
		}
	}
	if !outcome.Completed || outcome.Result.Score != 4 {
		t.Fatalf("expected completed 4/4, got %+v", outcome)
	}
}

func TestConcurrentDoubleTapStoresOneAnswer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	mustOpen(t, env)
	mustBegin(t, env, "p1")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.SubmitAnswer(ctx, "p1", "q1", "A")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil && !errors.Is(err, domain.ErrInProgress) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	answers, _ := env.answers.ListFor(ctx, "p1", "week_2026_42")
	if len(answers) != 1 {
		t.Fatalf("expected exactly one answer, got %d", len(answers))
	}
	cursor, _, _ := env.cursors.Load(ctx, "p1", "week_2026_42")
	if cursor.Index != 1 {
		t.Fatalf("expected cursor at 1, got %d", cursor.Index)
	}
}

func TestCloseWindowAnnouncesWinners(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	mustOpen(t, env)

	_, _ = env.service.Join(ctx, "p1", "Alice")
	_, _ = env.service.Join(ctx, "p2", "Bob")
	_, _ = env.service.Join(ctx, "p3", "Carol")

	run := func(id string, choices []string, delay time.Duration) {
		env.clock.Advance(delay)
		mustBegin(t, env, id)
		answerAll(t, env, id, choices)
	}
	run("p3", []string{"A", "B", "A", "A"}, time.Second)    // 2
	run("p2", []string{"A", "B", "C", "A"}, 4*time.Second)  // 3, earlier
	run("p1", []string{"A", "B", "C", "A"}, 5*time.Second)  // 3, later
	run("p4", []string{"B", "A", "A", "A"}, 10*time.Second) // 0

	summary, err := env.service.CloseWindow(ctx)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	want := []string{"p2", "p1", "p3"}
	if len(summary.Winners) != len(want) {
		t.Fatalf("expected %d winners, got %+v", len(want), summary.Winners)
	}
	for i, id := range want {
		w := summary.Winners[i]
		if w.ParticipantID != id || w.Rank != i+1 {
			t.Fatalf("winner %d: expected %s, got %+v", i, id, w)
		}
	}
	if summary.Winners[0].DisplayName != "Bob" {
		t.Fatalf("expected display name, got %q", summary.Winners[0].DisplayName)
	}

	if _, err := env.service.CloseSession(ctx, summary.PeriodKey); !errors.Is(err, domain.ErrSessionEnded) {
		t.Fatalf("expected already ended on second close, got %v", err)
	}
	if _, err := env.service.CloseWindow(ctx); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no active session, got %v", err)
	}
}

func TestCloseWindowWithoutParticipants(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	mustOpen(t, env)

	summary, err := env.service.CloseWindow(ctx)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if summary.Winners == nil || len(summary.Winners) != 0 {
		t.Fatalf("expected empty winners list, got %#v", summary.Winners)
	}
}

func TestSnapshotIsolatedFromCatalogEdits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	mustOpen(t, env)

	edited := sampleQuestions()[0]
	edited.Correct = domain.ChoiceD
	_ = env.catalog.Upsert(ctx, edited)

	mustBegin(t, env, "p1")
	final := answerAll(t, env, "p1", []string{"A", "B", "C", "D"})
	if final.Result.Score != 4 {
		t.Fatalf("expected snapshot answers to score 4, got %d", final.Result.Score)
	}
}

func TestOpenWindowSnapshotsCurrentCatalogThroughCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvWith(nil, func(d *app.Dependencies) {
		d.Questions = memory.NewCachedCatalog(d.Questions, time.Hour)
	})
	mustOpen(t, env)
	if _, err := env.service.CloseWindow(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	retired := sampleQuestions()[0]
	retired.Active = false
	_ = env.catalog.Upsert(ctx, retired)
	_ = env.catalog.Upsert(ctx, domain.Question{
		ID: "q5", Prompt: "Smallest prime?", Options: [4]string{"2", "1", "3", "0"}, Correct: domain.ChoiceA, Active: true,
	})

	cached, err := env.service.ActiveQuestions(ctx)
	if err != nil || len(cached) != 4 || cached[0].ID != "q1" {
		t.Fatalf("expected the cached list before the next open, got %+v err=%v", cached, err)
	}

	env.clock.Advance(7 * 24 * time.Hour)
	w := mustOpen(t, env)
	if w.PeriodKey != "week_2026_43" || w.QuestionCount != 4 {
		t.Fatalf("unexpected window %+v", w)
	}
	view := mustBegin(t, env, "p1")
	if view.QuestionID != "q2" {
		t.Fatalf("expected retired q1 to be left out, got first %s", view.QuestionID)
	}
}

func mustOpen(t *testing.T, env *testEnv) domain.Window {
	t.Helper()
	w, err := env.service.OpenWindow(context.Background())
	if err != nil {
		t.Fatalf("open window: %v", err)
	}
	return w
}

func mustBegin(t *testing.T, env *testEnv, participantID string) domain.QuestionView {
	t.Helper()
	view, err := env.service.Begin(context.Background(), participantID)
	if err != nil {
		t.Fatalf("begin %s: %v", participantID, err)
	}
	return view
}

func answerAll(t *testing.T, env *testEnv, participantID string, choices []string) domain.SubmitOutcome {
	t.Helper()
	var outcome domain.SubmitOutcome
	for i, c := range choices {
		var err error
		outcome, err = env.service.SubmitAnswer(context.Background(), participantID, sampleQuestions()[i].ID, c)
		if err != nil {
			t.Fatalf("submit %s q%d: %v", participantID, i+1, err)
		}
	}
	return outcome
}

package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func newGameFixture(t *testing.T, resetRevealOnClear bool) (*app.GameController, *memory.StateRepository, *memory.QuestionRepository) {
	t.Helper()
	state := memory.NewStateRepository()
	questions := memory.NewQuestionRepository()
	if err := questions.Put(context.Background(), question("q1", 2)); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	if err := questions.Put(context.Background(), question("q2", 3)); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	now := func() time.Time { return time.Unix(1000, 0) }
	game := app.NewGameControllerWithClock(state, questions, resetRevealOnClear, now)
	return game, state, questions
}

func TestActivateSetsActiveAndHidesAnswer(t *testing.T) {
	ctx := context.Background()
	game, _, _ := newGameFixture(t, false)

	state, err := game.Activate(ctx, "q1")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if state.ActiveQuestionID != "q1" || state.AnswerRevealed {
		t.Fatalf("unexpected state after activate: %+v", state)
	}
	if !state.ActivatedAt.Equal(time.Unix(1000, 0)) {
		t.Fatalf("expected activation timestamp, got %v", state.ActivatedAt)
	}
}

func TestActivateResetsRevealWhenSwitchingQuestions(t *testing.T) {
	ctx := context.Background()
	game, _, _ := newGameFixture(t, false)

	if _, err := game.Activate(ctx, "q1"); err != nil {
		t.Fatalf("activate q1: %v", err)
	}
	state, err := game.ToggleReveal(ctx)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !state.AnswerRevealed {
		t.Fatalf("expected reveal on")
	}

	state, err = game.Activate(ctx, "q2")
	if err != nil {
		t.Fatalf("activate q2: %v", err)
	}
	if state.ActiveQuestionID != "q2" {
		t.Fatalf("expected q2 active, got %+v", state)
	}
	if state.AnswerRevealed {
		t.Fatalf("expected reveal forced off by activate, got %+v", state)
	}
}

func TestActivateUnknownQuestion(t *testing.T) {
	game, _, _ := newGameFixture(t, false)

	_, err := game.Activate(context.Background(), "missing")
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestClearKeepsRevealFlagByDefault(t *testing.T) {
	ctx := context.Background()
	game, _, _ := newGameFixture(t, false)

	_, _ = game.Activate(ctx, "q1")
	if _, err := game.ToggleReveal(ctx); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	state, err := game.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if state.Active() {
		t.Fatalf("expected paused state, got %+v", state)
	}
	if !state.AnswerRevealed {
		t.Fatalf("expected stale reveal flag preserved, got %+v", state)
	}
}

func TestClearResetsRevealWhenConfigured(t *testing.T) {
	ctx := context.Background()
	game, _, _ := newGameFixture(t, true)

	_, _ = game.Activate(ctx, "q1")
	if _, err := game.ToggleReveal(ctx); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	state, err := game.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if state.Active() || state.AnswerRevealed {
		t.Fatalf("expected paused hidden state, got %+v", state)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	game, _, _ := newGameFixture(t, false)

	for i := 0; i < 3; i++ {
		state, err := game.Clear(ctx)
		if err != nil {
			t.Fatalf("clear %d: %v", i, err)
		}
		if state.Active() {
			t.Fatalf("clear %d: expected paused, got %+v", i, state)
		}
	}
}

func TestToggleRevealWhilePaused(t *testing.T) {
	ctx := context.Background()
	game, _, _ := newGameFixture(t, false)

	state, err := game.ToggleReveal(ctx)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !state.AnswerRevealed || state.Active() {
		t.Fatalf("expected revealed paused state, got %+v", state)
	}

	state, err = game.ToggleReveal(ctx)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if state.AnswerRevealed {
		t.Fatalf("expected reveal off after second toggle, got %+v", state)
	}
}

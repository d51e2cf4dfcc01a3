package app

import (
	"context"
	"time"

	"live-quiz-service/internal/domain"
)

// GameController owns the game-state singleton: which question is open for
// submissions and whether its correct answer is publicly revealed.
type GameController struct {
	state     StateRepository
	questions QuestionRepository
	// resetRevealOnClear selects whether Clear also hides a previously
	// revealed answer. The reference behavior keeps the stale flag.
	resetRevealOnClear bool
	now                func() time.Time
}

func NewGameController(state StateRepository, questions QuestionRepository, resetRevealOnClear bool) *GameController {
	return NewGameControllerWithClock(state, questions, resetRevealOnClear, time.Now)
}

// NewGameControllerWithClock allows deterministic timestamps in tests.
func NewGameControllerWithClock(state StateRepository, questions QuestionRepository, resetRevealOnClear bool, now func() time.Time) *GameController {
	return &GameController{
		state:              state,
		questions:          questions,
		resetRevealOnClear: resetRevealOnClear,
		now:                now,
	}
}

// Activate opens the given question for submissions. Switching questions is
// always allowed; the reveal flag is forced back to hidden in the same write.
func (c *GameController) Activate(ctx context.Context, questionID string) (domain.GameState, error) {
	if _, err := c.questions.Get(ctx, questionID); err != nil {
		return domain.GameState{}, err
	}
	state := domain.GameState{
		ActiveQuestionID: questionID,
		AnswerRevealed:   false,
		ActivatedAt:      c.now(),
	}
	if err := c.state.Set(ctx, state); err != nil {
		return domain.GameState{}, err
	}
	return state, nil
}

// Clear pauses the game. Idempotent; the leaderboard stays visible and
// submissions are rejected until the next Activate.
func (c *GameController) Clear(ctx context.Context) (domain.GameState, error) {
	current, err := c.state.Get(ctx)
	if err != nil {
		return domain.GameState{}, err
	}
	state := domain.GameState{}
	if !c.resetRevealOnClear {
		state.AnswerRevealed = current.AnswerRevealed
	}
	if err := c.state.Set(ctx, state); err != nil {
		return domain.GameState{}, err
	}
	return state, nil
}

// ToggleReveal flips the public visibility of the correct answer. Permitted
// even while paused; it only affects what viewers see.
func (c *GameController) ToggleReveal(ctx context.Context) (domain.GameState, error) {
	current, err := c.state.Get(ctx)
	if err != nil {
		return domain.GameState{}, err
	}
	current.AnswerRevealed = !current.AnswerRevealed
	if err := c.state.Set(ctx, current); err != nil {
		return domain.GameState{}, err
	}
	return current, nil
}

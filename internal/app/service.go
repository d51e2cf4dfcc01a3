package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"live-quiz-service/internal/domain"
)

// QuizService contains the core quiz use cases: question authoring, game
// control, guarded answer submission, and leaderboard derivation.
type QuizService struct {
	questions QuestionRepository
	answers   AnswerRepository
	state     StateRepository
	game      *GameController
	archive   QuestionArchive // optional; nil disables durable mirroring
	now       func() time.Time
	newID     func() string
}

func NewQuizService(questions QuestionRepository, answers AnswerRepository, state StateRepository, game *GameController, archive QuestionArchive) *QuizService {
	return NewQuizServiceWithClock(questions, answers, state, game, archive, time.Now, uuid.NewString)
}

// NewQuizServiceWithClock allows deterministic timestamps and IDs in tests.
func NewQuizServiceWithClock(questions QuestionRepository, answers AnswerRepository, state StateRepository, game *GameController, archive QuestionArchive, now func() time.Time, newID func() string) *QuizService {
	return &QuizService{
		questions: questions,
		answers:   answers,
		state:     state,
		game:      game,
		archive:   archive,
		now:       now,
		newID:     newID,
	}
}

// CreateQuestion mints a new question from admin (or AI-drafted) content.
func (s *QuizService) CreateQuestion(ctx context.Context, text string, options []domain.Option, rightAnswerKey int) (domain.Question, error) {
	q := domain.Question{
		ID:             s.newID(),
		Text:           text,
		Options:        options,
		RightAnswerKey: rightAnswerKey,
		CreatedAt:      s.now(),
	}
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.questions.Put(ctx, q); err != nil {
		return domain.Question{}, err
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, q); err != nil {
			return domain.Question{}, err
		}
	}
	return q, nil
}

// UpdateQuestion replaces text, options, and right answer; the identifier and
// creation timestamp are immutable.
func (s *QuizService) UpdateQuestion(ctx context.Context, id, text string, options []domain.Option, rightAnswerKey int) (domain.Question, error) {
	existing, err := s.questions.Get(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	q := domain.Question{
		ID:             existing.ID,
		Text:           text,
		Options:        options,
		RightAnswerKey: rightAnswerKey,
		CreatedAt:      existing.CreatedAt,
	}
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.questions.Put(ctx, q); err != nil {
		return domain.Question{}, err
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, q); err != nil {
			return domain.Question{}, err
		}
	}
	return q, nil
}

// DeleteQuestion removes a question from the bank. Existing answer records
// for it are kept; the scorer simply stops counting them.
func (s *QuizService) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		return err
	}
	if s.archive != nil {
		return s.archive.Remove(ctx, id)
	}
	return nil
}

// Question fetches a single question by ID.
func (s *QuizService) Question(ctx context.Context, id string) (domain.Question, error) {
	return s.questions.Get(ctx, id)
}

// Questions lists the bank ordered by creation time for the admin picker.
func (s *QuizService) Questions(ctx context.Context) ([]domain.Question, error) {
	bank, err := s.questions.List(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		list = append(list, q)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// ActivateQuestion opens a question for submissions.
func (s *QuizService) ActivateQuestion(ctx context.Context, questionID string) (domain.GameState, error) {
	return s.game.Activate(ctx, questionID)
}

// ClearActiveQuestion pauses the game.
func (s *QuizService) ClearActiveQuestion(ctx context.Context) (domain.GameState, error) {
	return s.game.Clear(ctx)
}

// ToggleReveal flips public visibility of the correct answer.
func (s *QuizService) ToggleReveal(ctx context.Context) (domain.GameState, error) {
	return s.game.ToggleReveal(ctx)
}

// GameState returns the current game-state snapshot.
func (s *QuizService) GameState(ctx context.Context) (domain.GameState, error) {
	return s.state.Get(ctx)
}

// SubmitAnswer records one answer for the caller, enforcing at most one
// answer per participant per question. The read-check below races with a
// concurrent submission from the same participant; the create-only repository
// write closes that window and reports ErrAlreadyAnswered for the loser.
func (s *QuizService) SubmitAnswer(ctx context.Context, identity domain.Identity, questionID string, optionKey int) (domain.AnswerRecord, error) {
	if identity.ParticipantID == "" {
		return domain.AnswerRecord{}, domain.ErrAuthRequired
	}

	state, err := s.state.Get(ctx)
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	if !state.Active() || state.ActiveQuestionID != questionID {
		return domain.AnswerRecord{}, domain.ErrNoActiveQuestion
	}

	question, err := s.questions.Get(ctx, state.ActiveQuestionID)
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	if _, ok := question.Option(optionKey); !ok {
		return domain.AnswerRecord{}, domain.ErrInvalidOption
	}

	if _, exists, err := s.answers.Get(ctx, identity.ParticipantID, question.ID); err != nil {
		return domain.AnswerRecord{}, err
	} else if exists {
		return domain.AnswerRecord{}, domain.ErrAlreadyAnswered
	}

	rec := domain.AnswerRecord{
		ParticipantID: identity.ParticipantID,
		QuestionID:    question.ID,
		OptionKey:     optionKey,
		DisplayName:   identity.DisplayName,
		SubmittedAt:   s.now().UnixMilli(),
	}
	if err := s.answers.Put(ctx, rec); err != nil {
		return domain.AnswerRecord{}, err
	}
	return rec, nil
}

// ClearAnswers drops every answer record; the next recompute yields an empty
// leaderboard.
func (s *QuizService) ClearAnswers(ctx context.Context) error {
	return s.answers.Clear(ctx)
}

// Leaderboard derives the current ranking from scratch.
func (s *QuizService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	bank, err := s.questions.List(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	answers, err := s.answers.All(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{
		Entries:   ComputeLeaderboard(bank, answers),
		UpdatedAt: s.now(),
	}, nil
}

// WatchGameState streams game-state snapshots: the current value immediately,
// then every change. The caller must invoke cancel to avoid leaks.
func (s *QuizService) WatchGameState(ctx context.Context) (<-chan domain.GameState, func(), error) {
	return s.state.Watch(ctx)
}

// WatchLeaderboard streams a freshly recomputed leaderboard whenever the
// question bank or the answer set changes. The caller must invoke cancel.
func (s *QuizService) WatchLeaderboard(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	questionCh, cancelQuestions, err := s.questions.Watch(ctx)
	if err != nil {
		return nil, nil, err
	}
	answerCh, cancelAnswers, err := s.answers.Watch(ctx)
	if err != nil {
		cancelQuestions()
		return nil, nil, err
	}

	out := make(chan domain.Leaderboard, 8)
	stop := make(chan struct{})

	go func() {
		defer close(out)
		var (
			bank     map[string]domain.Question
			answers  map[string]map[string]domain.AnswerRecord
			haveBank bool
			haveAns  bool
		)
		for {
			select {
			case snapshot, ok := <-questionCh:
				if !ok {
					return
				}
				bank, haveBank = snapshot, true
			case snapshot, ok := <-answerCh:
				if !ok {
					return
				}
				answers, haveAns = snapshot, true
			case <-stop:
				return
			}
			if !haveBank || !haveAns {
				continue
			}
			lb := domain.Leaderboard{
				Entries:   ComputeLeaderboard(bank, answers),
				UpdatedAt: s.now(),
			}
			select {
			case out <- lb:
			default:
				// Drop the stale update so a slow consumer only sees the latest.
				select {
				case <-out:
				default:
				}
				out <- lb
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			cancelQuestions()
			cancelAnswers()
		})
	}
	return out, cancel, nil
}

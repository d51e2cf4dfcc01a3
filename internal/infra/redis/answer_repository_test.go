package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func sampleAnswer(participantID, questionID string) domain.AnswerRecord {
	return domain.AnswerRecord{
		ParticipantID: participantID,
		QuestionID:    questionID,
		OptionKey:     2,
		DisplayName:   "Name " + participantID,
		SubmittedAt:   1234,
	}
}

func TestAnswerRepositoryConditionalWrite(t *testing.T) {
	ctx := context.Background()
	repo := NewAnswerRepository(newTestClient(t))

	if err := repo.Put(ctx, sampleAnswer("p1", "q1")); err != nil {
		t.Fatalf("first put: %v", err)
	}

	dup := sampleAnswer("p1", "q1")
	dup.OptionKey = 4
	if err := repo.Put(ctx, dup); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	rec, ok, err := repo.Get(ctx, "p1", "q1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if rec.OptionKey != 2 {
		t.Fatalf("expected first write to win, got %+v", rec)
	}
}

func TestAnswerRepositoryAllAndClear(t *testing.T) {
	ctx := context.Background()
	repo := NewAnswerRepository(newTestClient(t))

	_ = repo.Put(ctx, sampleAnswer("p1", "q1"))
	_ = repo.Put(ctx, sampleAnswer("p1", "q2"))
	_ = repo.Put(ctx, sampleAnswer("p2", "q1"))

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 || len(all["p1"]) != 2 || len(all["p2"]) != 1 {
		t.Fatalf("unexpected answer set: %+v", all)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	all, err = repo.All(ctx)
	if err != nil {
		t.Fatalf("all after clear: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty set after clear, got %+v", all)
	}
}

func TestAnswerRepositoryWatch(t *testing.T) {
	ctx := context.Background()
	repo := NewAnswerRepository(newTestClient(t))

	updates, cancel, err := repo.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	initial := <-updates
	if len(initial) != 0 {
		t.Fatalf("expected empty initial set, got %+v", initial)
	}

	if err := repo.Put(ctx, sampleAnswer("p1", "q1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	select {
	case snapshot := <-updates:
		if _, ok := snapshot["p1"]["q1"]; !ok {
			t.Fatalf("expected p1/q1 in snapshot, got %+v", snapshot)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
}

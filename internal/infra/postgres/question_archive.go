package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// QuestionArchive is the durable question bank: one JSONB row per question.
// The server seeds the working repository from it at boot and mirrors admin
// mutations back into it.
type QuestionArchive struct {
	pool *pgxpool.Pool
}

func NewQuestionArchive(pool *pgxpool.Pool) *QuestionArchive {
	return &QuestionArchive{pool: pool}
}

// LoadQuestions implements the loader contract of the Redis repository.
func (a *QuestionArchive) LoadQuestions(ctx context.Context) (map[string]domain.Question, error) {
	rows, err := a.pool.Query(ctx, `SELECT id, data FROM questions`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	bank := make(map[string]domain.Question)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question %s: %w", id, err)
		}
		bank[id] = q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return bank, nil
}

func (a *QuestionArchive) Save(ctx context.Context, q domain.Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO questions (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		q.ID, data)
	if err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}

func (a *QuestionArchive) Remove(ctx context.Context, id string) error {
	if _, err := a.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("remove question: %w", err)
	}
	return nil
}

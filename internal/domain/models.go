package domain

import "time"

// OptionKeys are the four valid answer keys for every question.
var OptionKeys = [4]int{1, 2, 3, 4}

// Option is one of the four answer choices of a question.
type Option struct {
	Key  int    `json:"key"`
	Text string `json:"text"`
}

// Question models an MCQ question with exactly four keyed options.
type Question struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Options        []Option  `json:"options"`
	RightAnswerKey int       `json:"rightAnswerKey"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Option returns the option with the given key, if present.
func (q Question) Option(key int) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return Option{}, false
}

// Validate checks the structural invariants of a question: exactly four
// options keyed 1..4 and a right answer that is one of them.
func (q Question) Validate() error {
	if len(q.Options) != len(OptionKeys) {
		return ErrInvalidOption
	}
	seen := make(map[int]bool, len(OptionKeys))
	for _, opt := range q.Options {
		valid := false
		for _, key := range OptionKeys {
			if opt.Key == key {
				valid = true
			}
		}
		if !valid || seen[opt.Key] {
			return ErrInvalidOption
		}
		seen[opt.Key] = true
	}
	if !seen[q.RightAnswerKey] {
		return ErrInvalidOption
	}
	return nil
}

// GameState is the singleton controlling which question is open for
// submissions. An empty ActiveQuestionID means the game is paused.
type GameState struct {
	ActiveQuestionID string    `json:"activeQuestionId"`
	AnswerRevealed   bool      `json:"answerRevealed"`
	ActivatedAt      time.Time `json:"activatedAt"`
}

// Active reports whether a question is currently open for submissions.
func (g GameState) Active() bool {
	return g.ActiveQuestionID != ""
}

// AnswerRecord is one participant's recorded choice for one question.
// There is at most one record per (participant, question) pair.
type AnswerRecord struct {
	ParticipantID string `json:"participantId"`
	QuestionID    string `json:"questionId"`
	OptionKey     int    `json:"optionKey"`
	DisplayName   string `json:"displayName"`
	SubmittedAt   int64  `json:"submittedAt"` // unix milliseconds, server-assigned
}

// ParticipantScore is a derived leaderboard row; never persisted.
type ParticipantScore struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Score         int    `json:"score"`
	LastCorrectAt int64  `json:"lastCorrectAt"` // 0 if no correct answers
}

// Leaderboard captures the ordered scoreboard derived from the answer set.
type Leaderboard struct {
	Entries   []ParticipantScore `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Identity is the authenticated caller as reported by the token verifier.
type Identity struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Admin         bool   `json:"admin"`
}

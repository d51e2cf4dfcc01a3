package app

import (
	"sort"

	"live-quiz-service/internal/domain"
)

// ComputeLeaderboard derives the ranked scoreboard from the question bank and
// the full answer set. It is a pure function: identical inputs always produce
// an identically ordered result, regardless of map iteration order.
//
// Answers referencing questions no longer in the bank contribute nothing.
// Ranking is score descending, then last correct answer timestamp ascending
// (earlier ranks higher), then participant ID as a stable final tie-break.
func ComputeLeaderboard(questions map[string]domain.Question, answers map[string]map[string]domain.AnswerRecord) []domain.ParticipantScore {
	entries := make([]domain.ParticipantScore, 0, len(answers))

	for participantID, records := range answers {
		entry := domain.ParticipantScore{
			ParticipantID: participantID,
			DisplayName:   displayNameFor(participantID, records),
		}
		for questionID, rec := range records {
			question, ok := questions[questionID]
			if !ok {
				// Question was deleted; orphaned answers are tolerated.
				continue
			}
			if rec.OptionKey != question.RightAnswerKey {
				continue
			}
			entry.Score++
			ts := rec.SubmittedAt
			if ts < 0 {
				ts = 0
			}
			if ts > entry.LastCorrectAt {
				entry.LastCorrectAt = ts
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].LastCorrectAt != entries[j].LastCorrectAt {
			return entries[i].LastCorrectAt < entries[j].LastCorrectAt
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})

	return entries
}

// displayNameFor picks the name denormalized onto the participant's earliest
// answer record, so "first encountered" has a stable meaning. Submission
// timestamps break ties first, then question IDs.
func displayNameFor(participantID string, records map[string]domain.AnswerRecord) string {
	var (
		found        bool
		name         string
		bestTs       int64
		bestQuestion string
	)
	for questionID, rec := range records {
		if !found || rec.SubmittedAt < bestTs ||
			(rec.SubmittedAt == bestTs && questionID < bestQuestion) {
			found = true
			name = rec.DisplayName
			bestTs = rec.SubmittedAt
			bestQuestion = questionID
		}
	}
	if name == "" {
		return participantID
	}
	return name
}

package testsupport

import (
	"context"
	"fmt"
	"testing"

	"quizreel/internal/config"
	"quizreel/internal/questionbank"
)

// MustOpenStore opens a questionbank.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *questionbank.Store {
	t.Helper()

	store, err := questionbank.Open(cfg)
	if err != nil {
		t.Fatalf("questionbank.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewQuestion returns a valid question with a unique text derived from seq.
func NewQuestion(topic string, seq int) questionbank.Question {
	return questionbank.Question{
		Topic:        topic,
		Difficulty:   1 + seq%5,
		Text:         fmt.Sprintf("Which answer is correct for %s item %d?", topic, seq),
		Options:      []string{"Alpha", "Beta", "Gamma", "Delta"},
		CorrectIndex: seq % 4,
		Source:       "test",
	}
}

// SeedQuestions inserts count questions for the topic and returns their IDs.
func SeedQuestions(t testing.TB, store *questionbank.Store, topic string, count int) []int64 {
	t.Helper()

	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		q := NewQuestion(topic, i)
		id, err := store.Add(context.Background(), q)
		if err != nil {
			t.Fatalf("store.Add(%s #%d): %v", topic, i, err)
		}
		ids = append(ids, id)
	}
	return ids
}

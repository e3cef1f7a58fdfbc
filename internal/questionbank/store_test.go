package questionbank_test

import (
	"context"
	"errors"
	"testing"

	"quizreel/internal/questionbank"
	"quizreel/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	id, err := store.Add(ctx, testsupport.NewQuestion("History", 1))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected question, got nil")
	}
	if got.Topic != "History" {
		t.Fatalf("unexpected topic %q", got.Topic)
	}
	if got.TimesUsed != 0 {
		t.Fatalf("new question should be unused, got times_used=%d", got.TimesUsed)
	}
	if got.Reserved() {
		t.Fatal("new question should not be reserved")
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	got, err := store.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing id, got %+v", got)
	}
}

func TestAddRejectsInvalidQuestions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*questionbank.Question)
	}{
		{"too short", func(q *questionbank.Question) { q.Text = "Why?" }},
		{"no question mark", func(q *questionbank.Question) { q.Text = "This is a statement, not a question at all" }},
		{"contains url", func(q *questionbank.Question) { q.Text = "Which site is at http://example.com today?" }},
		{"contains markup", func(q *questionbank.Question) { q.Text = "What does [citation needed] refer to?" }},
		{"too few options", func(q *questionbank.Question) { q.Options = []string{"Only"} }},
		{"duplicate options", func(q *questionbank.Question) { q.Options = []string{"Same", "same", "Other", "More"} }},
		{"correct index out of range", func(q *questionbank.Question) { q.CorrectIndex = 4 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := testsupport.NewQuestion("Science", 0)
			tc.mutate(&q)
			if _, err := store.Add(ctx, q); !errors.Is(err, questionbank.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAddDetectsNormalizedDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	original := testsupport.NewQuestion("Geography", 0)
	original.Text = "Which river is the longest in the world?"
	if _, err := store.Add(ctx, original); err != nil {
		t.Fatalf("Add original: %v", err)
	}

	dup := testsupport.NewQuestion("Geography", 1)
	dup.Text = "  WHICH river is   the longest in the world?  "
	if _, err := store.Add(ctx, dup); !errors.Is(err, questionbank.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPoolStatsCountsStates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedQuestions(t, store, "Music", 4)
	batch, err := store.Reserve(ctx, questionbank.ReservePolicy{Count: 2, UsageCap: 1})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	stats, err := store.PoolStats(ctx, 1)
	if err != nil {
		t.Fatalf("PoolStats: %v", err)
	}
	if stats.Total != 4 || stats.Reserved != 2 || stats.Eligible != 2 || stats.Retired != 0 {
		t.Fatalf("unexpected stats after reserve: %+v", stats)
	}

	if _, err := store.Commit(ctx, batch); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	stats, err = store.PoolStats(ctx, 1)
	if err != nil {
		t.Fatalf("PoolStats: %v", err)
	}
	if stats.Total != 4 || stats.Reserved != 0 || stats.Eligible != 2 || stats.Retired != 2 {
		t.Fatalf("unexpected stats after commit: %+v", stats)
	}
}

func TestTopicStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedQuestions(t, store, "Art", 3)
	testsupport.SeedQuestions(t, store, "Film", 1)

	topics, err := store.TopicStats(ctx, 1)
	if err != nil {
		t.Fatalf("TopicStats: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}
	counts := make(map[string]int, len(topics))
	for _, tc := range topics {
		counts[tc.Topic] = tc.Total
	}
	if counts["Art"] != 3 || counts["Film"] != 1 {
		t.Fatalf("unexpected topic counts: %+v", counts)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, ok, err := store.Setting(ctx, "yt_refresh_token"); err != nil || ok {
		t.Fatalf("expected missing setting, ok=%v err=%v", ok, err)
	}
	if err := store.SetSetting(ctx, "yt_refresh_token", "first"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := store.SetSetting(ctx, "yt_refresh_token", "second"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	value, ok, err := store.Setting(ctx, "yt_refresh_token")
	if err != nil || !ok {
		t.Fatalf("Setting: ok=%v err=%v", ok, err)
	}
	if value != "second" {
		t.Fatalf("expected overwritten value, got %q", value)
	}
	if err := store.DeleteSetting(ctx, "yt_refresh_token"); err != nil {
		t.Fatalf("DeleteSetting: %v", err)
	}
	if _, ok, err := store.Setting(ctx, "yt_refresh_token"); err != nil || ok {
		t.Fatalf("expected deleted setting, ok=%v err=%v", ok, err)
	}
}

func TestVideosRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := &questionbank.Video{Title: "Quiz Short #1", Kind: "short", QuestionCount: 5, FilePath: "/tmp/short1.mp4"}
	if err := store.RecordVideo(ctx, first); err != nil {
		t.Fatalf("RecordVideo: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected assigned video id")
	}
	second := &questionbank.Video{Title: "Mega Quiz #1", Kind: "longform", QuestionCount: 50}
	if err := store.RecordVideo(ctx, second); err != nil {
		t.Fatalf("RecordVideo: %v", err)
	}

	if err := store.MarkVideoUploaded(ctx, first.ID, "yt-abc123"); err != nil {
		t.Fatalf("MarkVideoUploaded: %v", err)
	}
	if err := store.MarkVideoUploaded(ctx, 9999, "yt-nope"); err == nil {
		t.Fatal("expected error marking missing video uploaded")
	}

	videos, err := store.ListVideos(ctx, 0)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
	if videos[0].ID != second.ID {
		t.Fatalf("expected newest first, got id %d", videos[0].ID)
	}
	var uploaded *questionbank.Video
	for i := range videos {
		if videos[i].ID == first.ID {
			uploaded = &videos[i]
		}
	}
	if uploaded == nil || uploaded.YouTubeID != "yt-abc123" || uploaded.UploadedAt == nil {
		t.Fatalf("expected upload metadata on first video, got %+v", uploaded)
	}

	limited, err := store.ListVideos(ctx, 1)
	if err != nil {
		t.Fatalf("ListVideos limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 video with limit, got %d", len(limited))
	}

	if err := store.DeleteVideo(ctx, second.ID); err != nil {
		t.Fatalf("DeleteVideo: %v", err)
	}
	if err := store.DeleteVideo(ctx, second.ID); err != nil {
		t.Fatalf("DeleteVideo repeat: %v", err)
	}
	remaining, err := store.ListVideos(ctx, 0)
	if err != nil {
		t.Fatalf("ListVideos after delete: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != first.ID {
		t.Fatalf("expected only the uploaded video to remain, got %+v", remaining)
	}
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"heraldbot/internal/broadcast"
	logx "heraldbot/pkg/logx"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "herald")}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleJob(id string) Job {
	return Job{
		Target:    broadcast.ChannelTarget("chan-1"),
		JobID:     id,
		GuildID:   "guild-1",
		Payload:   broadcast.Payload{Embed: broadcast.EmbedData{Description: "hello"}},
		RunAt:     1700000000000,
		CreatedBy: "user-1",
		CreatedAt: 1699999000000,
		Status:    StatusScheduled,
	}
}

func TestLoadEmptyWhenAbsent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	jobs := s.LoadJobs(context.Background())
	if len(jobs) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(jobs))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	j := sampleJob("job-a")
	if err := s.UpsertJob(ctx, j); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got := s.LoadJobs(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 job, got %d", len(got))
	}
	loaded := got["job-a"]
	if loaded.Kind != broadcast.TargetChannel || loaded.ChannelID != "chan-1" {
		t.Fatalf("target not preserved: %+v", loaded.Target)
	}
	if loaded.Status != StatusScheduled || loaded.RunAt != j.RunAt {
		t.Fatalf("record not preserved: %+v", loaded)
	}
}

func TestUpsertMergesOneRecord(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertJob(ctx, sampleJob("a")); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertJob(ctx, sampleJob("b")); err != nil {
		t.Fatal(err)
	}

	done := sampleJob("a")
	done.Status = StatusSent
	done.SentAt = 1700000100000
	done.Result = &Result{Sent: 3, Failed: 1, Total: 4}
	if err := s.UpsertJob(ctx, done); err != nil {
		t.Fatal(err)
	}

	got := s.LoadJobs(ctx)
	if len(got) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(got))
	}
	if got["a"].Status != StatusSent || got["a"].Result == nil || got["a"].Result.Sent != 3 {
		t.Fatalf("terminal state not merged: %+v", got["a"])
	}
	if got["b"].Status != StatusScheduled {
		t.Fatalf("sibling record disturbed: %+v", got["b"])
	}
}

func TestCorruptDocumentDegradesToEmpty(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	prefix := filepath.Join(dir, "herald")
	if err := os.WriteFile(prefix+".jobs.json", []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Open(Config{Driver: "file", Path: prefix}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	jobs := s.LoadJobs(context.Background())
	if len(jobs) != 0 {
		t.Fatalf("corrupt document must read as empty, got %d entries", len(jobs))
	}

	// The store must stay writable afterwards.
	if err := s.UpsertJob(context.Background(), sampleJob("x")); err != nil {
		t.Fatalf("upsert after corruption: %v", err)
	}
	if got := s.LoadJobs(context.Background()); len(got) != 1 {
		t.Fatalf("expected 1 job after rewrite, got %d", len(got))
	}
}

func TestCompletedSaveSurvivesReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	prefix := filepath.Join(dir, "herald")
	ctx := context.Background()

	s1, err := Open(Config{Driver: "file", Path: prefix}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.UpsertJob(ctx, sampleJob("durable")); err != nil {
		t.Fatal(err)
	}
	// Simulated crash: drop the handle without any shutdown path.
	_ = s1.Close()

	s2, err := Open(Config{Driver: "file", Path: prefix}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if got := s2.LoadJobs(ctx); len(got) != 1 || got["durable"].JobID != "durable" {
		t.Fatalf("record written by a completed save was lost: %+v", got)
	}
}

func TestTemplates(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	p := broadcast.Payload{Embed: broadcast.EmbedData{Title: "Weekly", Description: "news"}}
	if err := s.SaveTemplate(ctx, "weekly", p); err != nil {
		t.Fatal(err)
	}
	got := s.LoadTemplates(ctx)
	if got["weekly"].Embed.Title != "Weekly" {
		t.Fatalf("template not persisted: %+v", got)
	}
	if err := s.DeleteTemplate(ctx, "weekly"); err != nil {
		t.Fatal(err)
	}
	if got := s.LoadTemplates(ctx); len(got) != 0 {
		t.Fatalf("template not deleted: %+v", got)
	}
}

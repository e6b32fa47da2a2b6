package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"heraldbot/internal/broadcast"
	logx "heraldbot/pkg/logx"
)

// fileStore keeps two flat JSON documents next to each other:
//
//   - <prefix>.jobs.json      (job id -> Job)
//   - <prefix>.templates.json (name -> Payload)
//
// Every mutation re-reads the document, applies the change, and rewrites the
// whole file via tmp+rename so readers never observe a partial write.
// Single-process, single-writer; s.mu serializes mutators.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	jobsPath      string
	templatesPath string
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &fileStore{
		log:           log,
		jobsPath:      prefix + ".jobs.json",
		templatesPath: prefix + ".templates.json",
	}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) LoadJobs(ctx context.Context) map[string]Job {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadJobsLocked()
}

func (s *fileStore) SaveJobs(ctx context.Context, jobs map[string]Job) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeDocument(s.jobsPath, jobs)
}

func (s *fileStore) UpsertJob(ctx context.Context, j Job) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-read before mutating so an out-of-band edit of the document is not
	// clobbered wholesale. Stale-write risk between load and write is
	// accepted (single-writer assumption).
	jobs := s.loadJobsLocked()
	jobs[j.JobID] = j
	return writeDocument(s.jobsPath, jobs)
}

func (s *fileStore) loadJobsLocked() map[string]Job {
	out := map[string]Job{}
	if err := readDocument(s.jobsPath, &out); err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("jobs document unreadable; starting empty", logx.String("path", s.jobsPath), logx.Err(err))
		}
		return map[string]Job{}
	}
	return out
}

func (s *fileStore) LoadTemplates(ctx context.Context) map[string]broadcast.Payload {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadTemplatesLocked()
}

func (s *fileStore) SaveTemplate(ctx context.Context, name string, p broadcast.Payload) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	tpls := s.loadTemplatesLocked()
	tpls[name] = p
	return writeDocument(s.templatesPath, tpls)
}

func (s *fileStore) DeleteTemplate(ctx context.Context, name string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	tpls := s.loadTemplatesLocked()
	delete(tpls, name)
	return writeDocument(s.templatesPath, tpls)
}

func (s *fileStore) loadTemplatesLocked() map[string]broadcast.Payload {
	out := map[string]broadcast.Payload{}
	if err := readDocument(s.templatesPath, &out); err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("templates document unreadable; starting empty", logx.String("path", s.templatesPath), logx.Err(err))
		}
		return map[string]broadcast.Payload{}
	}
	return out
}

func readDocument(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// writeDocument overwrites the document atomically from the reader's
// perspective: write a sibling tmp file, then rename over the target.
func writeDocument(path string, doc any) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

package service

import (
	"context"
	"sort"
	"strings"

	"heraldbot/internal/broadcast"
)

const maxTemplateName = 100

func validTemplateName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= maxTemplateName
}

// SaveTemplate persists a named payload for later reuse.
func (s *Service) SaveTemplate(ctx context.Context, name string, p broadcast.Payload) error {
	if !validTemplateName(name) {
		return ErrBadTemplateName
	}
	return s.store.SaveTemplate(ctx, strings.TrimSpace(name), p)
}

// LoadTemplate fetches a saved payload by name.
func (s *Service) LoadTemplate(ctx context.Context, name string) (broadcast.Payload, bool) {
	p, ok := s.store.LoadTemplates(ctx)[strings.TrimSpace(name)]
	return p, ok
}

// DeleteTemplate removes a saved payload. Deleting a missing name is a no-op.
func (s *Service) DeleteTemplate(ctx context.Context, name string) error {
	if !validTemplateName(name) {
		return ErrBadTemplateName
	}
	return s.store.DeleteTemplate(ctx, strings.TrimSpace(name))
}

// ListTemplates returns saved template names, sorted.
func (s *Service) ListTemplates(ctx context.Context) []string {
	tpls := s.store.LoadTemplates(ctx)
	names := make([]string, 0, len(tpls))
	for name := range tpls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

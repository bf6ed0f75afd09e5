package application

import (
	"context"
	"sync"

	"github.com/davicafu/rediscache/internal/cache/domain"
)

// SyncBackend serializa el acceso a un Backend que no es seguro entre goroutines.
// Lo usan los front-ends que comparten el adapter (HTTP, consumidor de Kafka).
type SyncBackend struct {
	mu    sync.Mutex
	inner domain.Backend
}

var _ domain.Backend = (*SyncBackend)(nil)

func NewSyncBackend(inner domain.Backend) *SyncBackend {
	return &SyncBackend{inner: inner}
}

func (s *SyncBackend) Load(ctx context.Context, id string, skipValidityCheck bool) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Load(ctx, id, skipValidityCheck)
}

func (s *SyncBackend) Test(ctx context.Context, id string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Test(ctx, id)
}

func (s *SyncBackend) Save(ctx context.Context, data []byte, id string, tags []string, lifetime int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Save(ctx, data, id, tags, lifetime)
}

func (s *SyncBackend) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Remove(ctx, id)
}

func (s *SyncBackend) Clean(ctx context.Context, mode domain.CleaningMode, tags []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Clean(ctx, mode, tags)
}

func (s *SyncBackend) IsAutomaticCleaningAvailable() bool {
	return s.inner.IsAutomaticCleaningAvailable()
}

func (s *SyncBackend) GetIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.GetIDs(ctx)
}

func (s *SyncBackend) GetTags(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.GetTags(ctx)
}

func (s *SyncBackend) GetIDsMatchingTags(ctx context.Context, tags []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.GetIDsMatchingTags(ctx, tags)
}

func (s *SyncBackend) GetIDsNotMatchingTags(ctx context.Context, tags []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.GetIDsNotMatchingTags(ctx, tags)
}

func (s *SyncBackend) GetIDsMatchingAnyTags(ctx context.Context, tags []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.GetIDsMatchingAnyTags(ctx, tags)
}

func (s *SyncBackend) GetFillingPercentage(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.GetFillingPercentage(ctx)
}

func (s *SyncBackend) GetMetadatas(ctx context.Context, id string) (domain.Metadata, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.GetMetadatas(ctx, id)
}

func (s *SyncBackend) Touch(ctx context.Context, id string, extraLifetime int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Touch(ctx, id, extraLifetime)
}

func (s *SyncBackend) GetCapabilities() domain.Capabilities {
	return s.inner.GetCapabilities()
}

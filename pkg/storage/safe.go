package storage

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
)

// Safe wraps a Store so that storage trouble (missing values, corrupt
// JSON, quota, unavailable backend) degrades to defaults and no-ops. Failures
// are logged at debug level only.
type Safe struct {
	Store Store
	Log   *zap.Logger
}

func NewSafe(store Store, log *zap.Logger) *Safe {
	if log == nil {
		log = zap.NewNop()
	}
	return &Safe{Store: store, Log: log}
}

// ReadJSON decodes the value of key into v and reports whether it did. v
// is left untouched on failure.
func (s *Safe) ReadJSON(ctx context.Context, key string, v any) bool {
	if s == nil || s.Store == nil {
		return false
	}
	b, err := s.Store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.Log.Debug("storage read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := jsoncompat.Unmarshal(b, v); err != nil {
		s.Log.Debug("storage value is not valid json", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// WriteJSON stores v under key and reports whether it was persisted.
func (s *Safe) WriteJSON(ctx context.Context, key string, v any) bool {
	if s == nil || s.Store == nil {
		return false
	}
	b, err := jsoncompat.Marshal(v)
	if err != nil {
		s.Log.Debug("storage encode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := s.Store.Set(ctx, key, b); err != nil {
		s.Log.Debug("storage write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Safe) Remove(ctx context.Context, key string) {
	if s == nil || s.Store == nil {
		return
	}
	if err := s.Store.Delete(ctx, key); err != nil {
		s.Log.Debug("storage delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Package tokenstore reads the current broker access token. The token row is
// rotated out-of-band by an external job; this service never writes it.
package tokenstore

import (
	"context"

	"go.uber.org/zap"
)

// Reader is the storage read path for the token row.
type Reader interface {
	GetToken(ctx context.Context, name string) (string, error)
}

// Store resolves the active access token, falling back to the bootstrap token
// when the store is unreachable or has no row.
type Store struct {
	reader    Reader
	name      string
	bootstrap string
	logger    *zap.Logger
}

func New(reader Reader, name, bootstrap string, logger *zap.Logger) *Store {
	return &Store{
		reader:    reader,
		name:      name,
		bootstrap: bootstrap,
		logger:    logger,
	}
}

// Current returns the token to authenticate with right now. It never fails:
// a missing or unreadable row degrades to the bootstrap token.
func (s *Store) Current(ctx context.Context) string {
	token, err := s.reader.GetToken(ctx, s.name)
	if err != nil {
		s.logger.Warn("token store unavailable, using bootstrap token",
			zap.String("name", s.name), zap.Error(err))
		return s.bootstrap
	}
	return token
}

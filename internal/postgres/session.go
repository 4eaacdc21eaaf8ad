package postgres

import (
	"context"
	"time"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/session"
)

// SessionStore keeps sessions in the sessions table. It is the default store
// when no Redis address is configured.
type SessionStore struct {
	db DBTX
}

var _ session.Store = (*SessionStore)(nil)

func NewSessionStore(db DBTX) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Load(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM sessions WHERE id = $1 AND expires_at > NOW()`, id,
	).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return nil, session.ErrNotFound
		}
		return nil, domain.Internal(err, "session.load", "failed to load session")
	}
	return data, nil
}

func (s *SessionStore) Save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sessions (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
		id, data, time.Now().Add(ttl),
	)
	if err != nil {
		return domain.Internal(err, "session.save", "failed to save session")
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return domain.Internal(err, "session.delete", "failed to delete session")
	}
	return nil
}

// DeleteExpired removes expired sessions and returns how many were deleted.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, domain.Internal(err, "session.delete_expired", "failed to delete expired sessions")
	}
	return tag.RowsAffected(), nil
}

// Package guest remembers registered wedding guests between visits and runs
// the registration and chat-start sequence that creates them.
//
// A remembered guest is never trusted blindly: every Load re-checks the
// record with the server and purges it when the server no longer knows the
// guest. Records older than the TTL are purged without asking the server.
package guest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/api"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/weddingkeeper/internal/logging"
)

// DefaultVerifyTimeout bounds the verification round-trip in Load.
const DefaultVerifyTimeout = 10 * time.Second

// Backend is the part of the API client the store needs.
type Backend interface {
	VerifyGuest(ctx context.Context, guestID string) (*api.GuestVerification, error)
	RegisterGuest(ctx context.Context, accessCode string, req api.RegistrationRequest) (*api.Registration, error)
	StartChat(ctx context.Context, accessCode, guestName string) (*api.ChatStart, error)
	SendMessage(ctx context.Context, sessionID, message string) (*api.ChatReply, error)
}

type Options struct {
	// TTL is the lifetime of a remembered guest, fixed from creation.
	TTL time.Duration
	// VerifyTimeout bounds the server check performed by Load.
	VerifyTimeout time.Duration
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.VerifyTimeout <= 0 {
		o.VerifyTimeout = DefaultVerifyTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Store persists guest sessions keyed by wedding access code.
type Store struct {
	repo    kv.Repository
	backend Backend
	logger  logging.Logger
	opts    Options
}

func NewStore(repo kv.Repository, backend Backend, logger logging.Logger, opts Options) *Store {
	return &Store{
		repo:    repo,
		backend: backend,
		logger:  logger,
		opts:    opts.withDefaults(),
	}
}

// Load returns the remembered guest for accessCode, or nil when there is
// none. The returned error is only ever a local storage failure: a guest the
// server cannot confirm, for whatever reason, is reported as absent.
func (s *Store) Load(ctx context.Context, accessCode string) (*Session, error) {
	code, err := normalizeCode(accessCode)
	if err != nil {
		return nil, err
	}
	key := sessionKey(code)
	log := s.logger.With("access_code", code)

	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load guest session: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	sess, err := decodeSession(raw)
	if err != nil {
		log.Warn(ctx, "discarding unreadable guest session", "error", err)
		return nil, s.purge(ctx, key)
	}

	if sess.Expired(s.opts.Now(), s.opts.TTL) {
		log.Info(ctx, "guest session expired", "guest_id", sess.GuestID, "created_at", sess.CreatedAt())
		return nil, s.purge(ctx, key)
	}

	vctx, cancel := context.WithTimeout(ctx, s.opts.VerifyTimeout)
	defer cancel()

	v, err := s.backend.VerifyGuest(vctx, sess.GuestID)
	switch {
	case errors.Is(err, api.ErrNotFound):
		log.Info(ctx, "guest no longer exists, forgetting", "guest_id", sess.GuestID, "reason", "not_found")
		return nil, s.purge(ctx, key)
	case err != nil:
		// Fail open: the guest sees the registration form but the record
		// survives so the next visit can try again.
		log.Warn(ctx, "could not verify guest, keeping record",
			"guest_id", sess.GuestID, "reason", "verification_unavailable",
			"error", fmt.Errorf("%w: %w", ErrVerification, err))
		return nil, nil
	case !v.Valid:
		log.Info(ctx, "guest rejected by server, forgetting", "guest_id", sess.GuestID, "reason", "invalid")
		return nil, s.purge(ctx, key)
	}

	if v.GuestName != "" && v.GuestName != sess.GuestName {
		sess.GuestName = v.GuestName
		if err := s.write(ctx, key, sess); err != nil {
			log.Warn(ctx, "could not refresh remembered guest name", "error", err)
		}
	}

	return &sess, nil
}

// Save remembers guestID for accessCode, replacing any previous record. The
// record's lifetime starts now.
func (s *Store) Save(ctx context.Context, accessCode, guestID, guestName string) error {
	code, err := normalizeCode(accessCode)
	if err != nil {
		return err
	}
	if guestID == "" {
		return errors.New("save guest session: empty guest id")
	}

	return s.write(ctx, sessionKey(code), Session{
		GuestID:   guestID,
		GuestName: guestName,
		Timestamp: s.opts.Now().UnixMilli(),
	})
}

// Clear forgets the guest remembered for accessCode ("Not you?").
func (s *Store) Clear(ctx context.Context, accessCode string) error {
	code, err := normalizeCode(accessCode)
	if err != nil {
		return err
	}
	return s.purge(ctx, sessionKey(code))
}

// Prune removes every expired or unreadable guest record and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	records, err := s.repo.List(ctx, KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("prune guest sessions: %w", err)
	}

	now := s.opts.Now()
	var stale []string
	for key, raw := range records {
		sess, err := decodeSession(raw)
		if err != nil || sess.Expired(now, s.opts.TTL) {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := s.repo.DeleteMany(ctx, stale); err != nil {
		return 0, fmt.Errorf("prune guest sessions: %w", err)
	}
	s.logger.Debug(ctx, "pruned guest sessions", "count", len(stale))
	return len(stale), nil
}

func (s *Store) write(ctx context.Context, key string, sess Session) error {
	b, err := encodeSession(sess)
	if err != nil {
		return err
	}
	if err := s.repo.Set(ctx, key, b); err != nil {
		return fmt.Errorf("save guest session: %w", err)
	}
	return nil
}

func (s *Store) purge(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete guest session: %w", err)
	}
	return nil
}

package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrStateNotFound = errors.New("auth state not found or expired")

const stateTTL = 10 * time.Minute

// StateRepository keeps OAuth state nonces between the login redirect and the callback.
type StateRepository interface {
	Store(ctx context.Context, nonce string, finalUrl string) error
	Consume(ctx context.Context, nonce string) (string, error)
}

type StateRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewStateRepository(db *pgxpool.Pool) *StateRepositoryImpl {
	return &StateRepositoryImpl{db: db}
}

func (s *StateRepositoryImpl) Store(ctx context.Context, nonce string, finalUrl string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM auth_state WHERE created_at < $1`, time.Now().Add(-stateTTL))
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO auth_state (nonce, final_url) VALUES ($1, $2)`, nonce, finalUrl)
	return err
}

// Consume deletes the nonce and returns the final url stored with it.
func (s *StateRepositoryImpl) Consume(ctx context.Context, nonce string) (string, error) {
	var finalUrl string
	err := s.db.QueryRow(ctx,
		`DELETE FROM auth_state WHERE nonce = $1 AND created_at >= $2 RETURNING final_url`,
		nonce, time.Now().Add(-stateTTL),
	).Scan(&finalUrl)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", err
	}
	return finalUrl, nil
}

type StateRepositoryStub struct {
	mu     sync.Mutex
	states map[string]string
}

func NewStateRepositoryStub() *StateRepositoryStub {
	return &StateRepositoryStub{states: map[string]string{}}
}

func (s *StateRepositoryStub) Store(ctx context.Context, nonce string, finalUrl string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[nonce] = finalUrl
	return nil
}

func (s *StateRepositoryStub) Consume(ctx context.Context, nonce string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	finalUrl, ok := s.states[nonce]
	if !ok {
		return "", ErrStateNotFound
	}
	delete(s.states, nonce)
	return finalUrl, nil
}

package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
	DeleteUser(ctx context.Context, id int) error
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, email, display_name, image_url, currency, timezone, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Uid,
		&u.Email,
		&u.DisplayName,
		&u.ImageUrl,
		&u.Settings.Currency,
		&u.Settings.Timezone,
		&u.CreatedAt,
	)
	return u, err
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (User, error) {
	// a concurrent first sign-in for the same uid gets the row that won the insert
	query := `INSERT INTO users (uid, email, display_name, image_url, currency, timezone)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (uid) DO UPDATE SET uid = EXCLUDED.uid
				RETURNING ` + userColumns
	created, err := scanUser(u.db.QueryRow(ctx, query,
		user.Uid,
		user.Email,
		user.DisplayName,
		user.ImageUrl,
		user.Settings.Currency,
		user.Settings.Timezone,
	))
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return User{}, err
	}
	return created, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	found, err := scanUser(u.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with id %d not found", id)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return found, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	found, err := scanUser(u.db.QueryRow(ctx, query, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with uid %s not found", uid)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return found, nil
}

func (u *UserRepoImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET email = $1, display_name = $2, image_url = $3, currency = $4, timezone = $5,
				updated_at = now() WHERE id = $6 RETURNING ` + userColumns
	updated, err := scanUser(u.db.QueryRow(ctx, query,
		user.Email,
		user.DisplayName,
		user.ImageUrl,
		user.Settings.Currency,
		user.Settings.Timezone,
		userId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Info("no rows affected of updating user")
		return User{}, fmt.Errorf("user with id %d: %w", userId, ErrUserNotFound)
	} else if err != nil {
		return User{}, err
	}
	return updated, nil
}

func (u *UserRepoImpl) DeleteUser(ctx context.Context, id int) error {
	result, err := u.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		log.Info("no rows affected of deleting user")
		return fmt.Errorf("user with id %d: %w", id, ErrUserNotFound)
	}
	return nil
}

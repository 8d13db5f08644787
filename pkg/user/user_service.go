package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrUserDataInvalid = errors.New("invalid user data")

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type Service interface {
	EnsureUser(ctx context.Context, identity Identity) (User, error)
	GetCurrentUser(ctx context.Context) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteCurrentUser(ctx context.Context) error
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

// EnsureUser returns the stored user for the identity, creating it on first sign-in. Email and
// image are refreshed when they changed; the display name is only filled in when empty so that
// names edited by the user are kept.
func (u *UserServiceImpl) EnsureUser(ctx context.Context, identity Identity) (User, error) {
	if strings.TrimSpace(identity.Uid) == "" {
		return User{}, fmt.Errorf("%w: missing subject", ErrUserDataInvalid)
	}

	existing, err := u.repo.GetUserByUid(ctx, identity.Uid)
	if errors.Is(err, ErrUserNotFound) {
		log.Infof("Creating user for identity %s", identity.Uid)
		displayName := identity.DisplayName
		if displayName == "" {
			displayName = identity.Email
		}
		return u.repo.CreateUser(ctx, User{
			Uid:         identity.Uid,
			Email:       identity.Email,
			DisplayName: displayName,
			ImageUrl:    identity.ImageUrl,
			Settings: Settings{
				Currency: DefaultCurrency,
				Timezone: DefaultTimezone,
			},
		})
	}
	if err != nil {
		return User{}, err
	}

	changed := false
	if identity.Email != "" && identity.Email != existing.Email {
		existing.Email = identity.Email
		changed = true
	}
	if identity.ImageUrl != "" && identity.ImageUrl != existing.ImageUrl {
		existing.ImageUrl = identity.ImageUrl
		changed = true
	}
	if identity.DisplayName != "" && existing.DisplayName == "" {
		existing.DisplayName = identity.DisplayName
		changed = true
	}
	if !changed {
		return existing, nil
	}
	log.Debugf("Refreshing profile of user %d", existing.Id)
	return u.repo.UpdateUser(ctx, existing.Id, existing)
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

// UpdateUser changes the display name and settings of the current user.
func (u *UserServiceImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	current, err := u.GetCurrentUser(ctx)
	if err != nil {
		return User{}, err
	}

	user.DisplayName = strings.TrimSpace(user.DisplayName)
	if user.DisplayName == "" {
		return User{}, fmt.Errorf("%w: display name is required", ErrUserDataInvalid)
	}
	if user.Settings.Currency == "" {
		user.Settings.Currency = current.Settings.Currency
	}
	user.Settings.Currency = strings.ToUpper(user.Settings.Currency)
	if !currencyPattern.MatchString(user.Settings.Currency) {
		return User{}, fmt.Errorf("%w: currency must be a 3-letter code", ErrUserDataInvalid)
	}
	if user.Settings.Timezone == "" {
		user.Settings.Timezone = current.Settings.Timezone
	}
	if _, err := time.LoadLocation(user.Settings.Timezone); err != nil {
		return User{}, fmt.Errorf("%w: unknown timezone %q", ErrUserDataInvalid, user.Settings.Timezone)
	}

	current.DisplayName = user.DisplayName
	current.Settings = user.Settings
	return u.repo.UpdateUser(ctx, current.Id, current)
}

func (u *UserServiceImpl) DeleteCurrentUser(ctx context.Context) error {
	userId, err := CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	log.Infof("Deleting user %d", userId)
	return u.repo.DeleteUser(ctx, userId)
}

package user

import (
	"context"
	"time"
)

type StubUserRepository struct {
	nextId int
	data   map[int]User
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{nextId: 0, data: map[int]User{}}
}

func (s *StubUserRepository) CreateUser(ctx context.Context, user User) (User, error) {
	for _, existing := range s.data {
		if existing.Uid == user.Uid {
			return existing, nil
		}
	}
	s.nextId++
	user.Id = s.nextId
	user.CreatedAt = time.Now()
	s.data[s.nextId] = user
	return user, nil
}

func (s *StubUserRepository) GetUser(ctx context.Context, id int) (User, error) {
	user, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *StubUserRepository) GetUserByUid(ctx context.Context, uid string) (User, error) {
	for _, user := range s.data {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *StubUserRepository) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	existing, ok := s.data[userId]
	if !ok {
		return User{}, ErrUserNotFound
	}
	user.Id = userId
	user.Uid = existing.Uid
	user.CreatedAt = existing.CreatedAt
	s.data[userId] = user
	return user, nil
}

func (s *StubUserRepository) DeleteUser(ctx context.Context, id int) error {
	if _, ok := s.data[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.data, id)
	return nil
}

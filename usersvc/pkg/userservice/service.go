package userservice

import (
	"context"
	"errors"
	"sync"

	"github.com/go-kit/log"
	"github.com/ichigozero/taskmgr/authsvc/pkg/authservice"
	"github.com/ichigozero/taskmgr/usersvc"
)

type Service interface {
	Register(ctx context.Context, r usersvc.Registration) (usersvc.Session, error)
	Login(ctx context.Context, c usersvc.Credentials) (usersvc.Session, error)
	User(ctx context.Context, id string) (usersvc.User, error)
	UpdateUser(ctx context.Context, id string, p usersvc.ProfilePatch) (usersvc.User, error)
	Users(ctx context.Context) ([]usersvc.User, error)
}

func New(users usersvc.UserRepository, hasher authservice.Hasher, tokens authservice.Tokenizer, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(users, hasher, tokens)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

func NewBasicService(users usersvc.UserRepository, hasher authservice.Hasher, tokens authservice.Tokenizer) Service {
	return &basicService{users: users, hasher: hasher, tokens: tokens}
}

type basicService struct {
	users  usersvc.UserRepository
	hasher authservice.Hasher
	tokens authservice.Tokenizer

	dummyOnce sync.Once
	dummyHash string
}

func (s *basicService) Register(ctx context.Context, r usersvc.Registration) (usersvc.Session, error) {
	_, err := s.users.FindByEmail(ctx, r.Email)
	switch {
	case err == nil:
		return usersvc.Session{}, usersvc.ErrEmailTaken
	case !errors.Is(err, usersvc.ErrUserNotFound):
		return usersvc.Session{}, err
	}

	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		return usersvc.Session{}, err
	}

	role := r.Role
	if role == "" {
		role = usersvc.DefaultRole
	}

	// A concurrent registration can still win the race; the unique index
	// then rejects this insert with ErrEmailTaken.
	u, err := s.users.Create(ctx, usersvc.User{Email: r.Email, PasswordHash: hash, Role: role})
	if err != nil {
		return usersvc.Session{}, err
	}

	return s.session(u)
}

func (s *basicService) Login(ctx context.Context, c usersvc.Credentials) (usersvc.Session, error) {
	u, err := s.users.FindByEmail(ctx, c.Email)
	if errors.Is(err, usersvc.ErrUserNotFound) {
		s.hasher.Compare(s.dummy(), c.Password)
		return usersvc.Session{}, usersvc.ErrInvalidCredentials
	}
	if err != nil {
		return usersvc.Session{}, err
	}

	if !s.hasher.Compare(u.PasswordHash, c.Password) {
		return usersvc.Session{}, usersvc.ErrInvalidCredentials
	}

	return s.session(u)
}

func (s *basicService) User(ctx context.Context, id string) (usersvc.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *basicService) UpdateUser(ctx context.Context, id string, p usersvc.ProfilePatch) (usersvc.User, error) {
	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return usersvc.User{}, err
	}

	var c usersvc.UserChanges
	if p.Email != nil && *p.Email != current.Email {
		other, err := s.users.FindByEmail(ctx, *p.Email)
		switch {
		case err == nil && other.ID != id:
			return usersvc.User{}, usersvc.ErrEmailTaken
		case err != nil && !errors.Is(err, usersvc.ErrUserNotFound):
			return usersvc.User{}, err
		}
		c.Email = p.Email
	}
	if p.Password != nil {
		hash, err := s.hasher.Hash(*p.Password)
		if err != nil {
			return usersvc.User{}, err
		}
		c.PasswordHash = &hash
	}

	if c.Email == nil && c.PasswordHash == nil {
		return current, nil
	}
	return s.users.Update(ctx, id, c)
}

func (s *basicService) Users(ctx context.Context) ([]usersvc.User, error) {
	return s.users.FindAll(ctx)
}

func (s *basicService) session(u usersvc.User) (usersvc.Session, error) {
	token, err := s.tokens.Generate(u.Identity())
	if err != nil {
		return usersvc.Session{}, err
	}
	return usersvc.Session{User: u, Token: token}, nil
}

// dummy is compared against when the email is unknown so that both login
// failures take about as long.
func (s *basicService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}

package memrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/google/uuid"
)

type UserRepository struct {
	acc accessor
}

func (u *UserRepository) CreateUser(_ context.Context, args repoargs.CreateUser) (*domain.User, error) {
	var user domain.User
	err := u.acc.write(func(st *state) error {
		if _, ok := findUserByEmail(st, args.Email); ok {
			return fmt.Errorf("[memrepo/creating user] %w: email %s", domain.ErrDuplicateKey, args.Email)
		}
		now := u.acc.now()
		user = domain.User{
			ID:                uuid.New(),
			CreatedAt:         now,
			UpdatedAt:         now,
			Email:             args.Email,
			FullName:          args.FullName,
			EncryptedPassword: args.Password,
		}
		st.users[user.ID] = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserRepository) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := u.acc.read(func(st *state) error {
		found, ok := findUserByEmail(st, email)
		if !ok {
			return notFound("finding user by email %s", email)
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserRepository) FindUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := u.acc.read(func(st *state) error {
		found, ok := st.users[id]
		if !ok {
			return notFound("finding user by id %s", id)
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func findUserByEmail(st *state, email string) (domain.User, bool) {
	for _, user := range st.users {
		if strings.EqualFold(user.Email, email) {
			return user, true
		}
	}
	return domain.User{}, false
}

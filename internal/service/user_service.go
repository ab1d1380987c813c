package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/internal/service/tokens"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

const JWTTokenExpire = 1 * time.Hour

type UserService struct {
	uow            uow.UOW
	userRepo       UserRepository
	psswd          PasswordHasher
	jwtTokenSecret []byte
	currency       string
}

func NewUserService(u uow.UOW, jwtTokenSecret []byte, psswd PasswordHasher, currency string) (*UserService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, fmt.Errorf("user service: %w", userRepoErr)
	}
	return &UserService{
		uow:            u,
		userRepo:       userRepo,
		psswd:          psswd,
		jwtTokenSecret: jwtTokenSecret,
		currency:       currency,
	}, nil
}

type RegisterUserArgs struct {
	Email    string
	Password string
	FullName string
}

// Register создает юзера и его счет с нулевым балансом в одной транзакции, после чего генерирует jwt token.
// Возвращает 3 значения: созданный юзер, токен и ошибку. Занятый email дает domain.ErrDuplicateKey.
func (s *UserService) Register(ctx context.Context, args RegisterUserArgs) (*domain.User, string, error) {
	password, hashErr := s.psswd.HashPassword(args.Password)
	if hashErr != nil {
		return nil, "", fmt.Errorf("registering user: %s", hashErr.Error())
	}

	var user *domain.User
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}
		accountRepo, accRepoErr := uow.GetAs[AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
		if accRepoErr != nil {
			return accRepoErr //nolint:wrapcheck
		}

		var userErr error
		user, userErr = userRepo.CreateUser(c, repoargs.CreateUser{
			Email:    strings.TrimSpace(args.Email),
			FullName: strings.TrimSpace(args.FullName),
			Password: password,
		})
		if userErr != nil {
			return userErr //nolint:wrapcheck
		}

		_, accErr := accountRepo.CreateAccount(c, repoargs.CreateAccount{
			UserID:   user.ID,
			Currency: s.currency,
		})
		return accErr //nolint:wrapcheck
	})
	if txErr != nil {
		return nil, "", storageErr("registering user", txErr)
	}

	token, tokenErr := tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("registering user: %w", tokenErr)
	}
	return user, token, nil
}

type LoginUserArgs struct {
	Email    string
	Password string
}

// Login аутентифицирует юзера по паре email/пароль. Возвращает domain.ErrRecordNotFound, если юзер не найден,
// и domain.ErrPasswordMissMatch при неверном пароле. Системный юзер войти не может.
func (s *UserService) Login(ctx context.Context, args LoginUserArgs) (*domain.User, string, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.TrimSpace(args.Email))
	if err != nil {
		return nil, "", fmt.Errorf("login user: %w", err)
	}
	if user.IsSystem {
		return nil, "", fmt.Errorf("login user: %w", domain.ErrRecordNotFound)
	}

	if !s.psswd.ComparePassword(args.Password, user.EncryptedPassword) {
		return nil, "", fmt.Errorf("login user: %w", domain.ErrPasswordMissMatch)
	}

	token, tokenErr := tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("login user: %w", tokenErr)
	}
	return user, token, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"plate-auction/internal/domain"
	"plate-auction/internal/repository"
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks plate-auction/internal/service BidService,PlateService,UserService

const minPasswordLength = 8

// TokenIssuer signs and verifies access tokens for a username.
type TokenIssuer interface {
	Issue(username string) (string, error)
	Parse(token string) (string, error)
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	IsStaff  bool
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	// Login authenticates the user and returns a signed access token.
	Login(ctx context.Context, username, password string) (string, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	store    repository.Store
	tokens   TokenIssuer
	validate *validator.Validate
	clock    Clock
	logger   logrus.FieldLogger
}

func NewUserService(store repository.Store, tokens TokenIssuer, clock Clock, logger logrus.FieldLogger) UserService {
	return &userService{
		store:    store,
		tokens:   tokens,
		validate: validator.New(),
		clock:    clock,
		logger:   loggerOrDefault(logger),
	}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	password := strings.TrimSpace(input.Password)
	fields := logrus.Fields{"username": username}

	if username == "" {
		return nil, logOutcome(s.logger, fields, "register", domain.ErrUsernameRequired)
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, logOutcome(s.logger, fields, "register", domain.ErrInvalidEmail)
	}
	if len(password) < minPasswordLength {
		return nil, logOutcome(s.logger, fields, "register", domain.ErrPasswordTooShort)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *domain.User
	err = s.store.InTx(ctx, func(tx repository.Repositories) error {
		if _, err := tx.Users().GetByUsername(ctx, username); err == nil {
			return domain.ErrUsernameTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := tx.Users().GetByEmail(ctx, email); err == nil {
			return domain.ErrEmailTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		user = &domain.User{
			Username:     username,
			Email:        email,
			PasswordHash: string(hash),
			Role:         domain.RoleFromStaffFlag(input.IsStaff),
			CreatedAt:    s.clock.Now(),
		}
		if _, err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.ErrUserExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, logOutcome(s.logger, fields, "register", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("user registered")
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", logOutcome(s.logger, logrus.Fields{"username": strings.TrimSpace(username)}, "login", err)
	}
	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", err
	}
	s.logger.WithField("user_id", user.ID).Debug("token issued")
	return token, nil
}

func (s *userService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	username, err := s.tokens.Parse(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

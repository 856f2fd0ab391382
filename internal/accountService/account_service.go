package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/metrics"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is a username and plain-text password pair
type Credentials struct {
	Username string `validate:"required,min=3,max=50,alphanum"`
	Password string `validate:"required,min=8,max=72"`
}

var credentialMessages = map[string]string{
	"Username.required": "Username should not be blank.",
	"Username.min":      "Username should be at least 3 chars long.",
	"Username.max":      "Username should not be longer than 50 chars.",
	"Username.alphanum": "Username may only contain letters and digits.",
	"Password.required": "Password should not be blank.",
	"Password.min":      "Password should be at least 8 chars long.",
	"Password.max":      "Password should not be longer than 72 bytes.",
}

// AccountService registers users and checks their passwords
type AccountService struct {
	repo     repository.UserDB
	validate *validator.Validate
	cost     int
}

// NewAccountService creates a new AccountService instance. cost is the bcrypt
// work factor; zero selects bcrypt.DefaultCost.
func NewAccountService(repo repository.UserDB, cost int) *AccountService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AccountService{
		repo:     repo,
		validate: validator.New(),
		cost:     cost,
	}
}

func (s *AccountService) check(c Credentials) error {
	err := s.validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate credentials: %w", err)
	}

	ve := &auctionerrors.ValidationError{}
	for _, fe := range fieldErrs {
		key := strings.ToLower(fe.Field())
		msg, ok := credentialMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid."
		}
		ve.Add(key, msg)
	}
	return ve
}

// Register creates an account with a bcrypt-hashed password
func (s *AccountService) Register(ctx context.Context, c Credentials) (models.User, error) {
	c.Username = strings.TrimSpace(c.Username)
	if err := s.check(c); err != nil {
		return models.User{}, fmt.Errorf("service: register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("service: hash password: %w", err)
	}

	user := models.User{
		ID:           utils.GenerateID(),
		Username:     c.Username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("service: failed to register user %s: %w", c.Username, err)
	}
	return user, nil
}

// Login returns the identity matching the credentials. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, c Credentials) (models.Identity, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(c.Username))
	if err != nil {
		if errors.Is(err, auctionerrors.ErrUserNotFound) {
			metrics.Logins.WithLabelValues("rejected").Inc()
			return models.Identity{}, fmt.Errorf("service: login: %w", auctionerrors.ErrInvalidCredentials)
		}
		return models.Identity{}, fmt.Errorf("service: failed to load user %s: %w", c.Username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)); err != nil {
		metrics.Logins.WithLabelValues("rejected").Inc()
		return models.Identity{}, fmt.Errorf("service: login: %w", auctionerrors.ErrInvalidCredentials)
	}

	metrics.Logins.WithLabelValues("accepted").Inc()
	return models.Identity{UserID: user.ID, Username: user.Username}, nil
}

// Identify resolves a session's user id. A deleted account yields the anonymous
// identity.
func (s *AccountService) Identify(ctx context.Context, userID string) (models.Identity, error) {
	if userID == "" {
		return models.Identity{}, nil
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, auctionerrors.ErrUserNotFound) {
		return models.Identity{}, nil
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("service: failed to identify user %s: %w", userID, err)
	}
	return models.Identity{UserID: user.ID, Username: user.Username}, nil
}

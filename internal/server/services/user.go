// Package services contains server-side business logic. This file implements
// UserService: account creation, credential checks, and issuing, resolving
// and revoking the bearer tokens callers present on protected requests.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/auth"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
)

const (
	MinPasswordLength = 5
	tokenKeyBytes     = 20

	msgEmailTaken    = "user with this email already exists."
	msgEmailInvalid  = "Enter a valid email address."
	msgPasswordShort = "Ensure this field has at least 5 characters."
)

// UserExtra holds optional account fields.
type UserExtra struct {
	Name string
}

// UserService provides identity operations.
type UserService struct {
	conn                        dbx.Conn
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(conn dbx.Conn, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		conn:                        conn,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// NormalizeEmail lower-cases the whole address. It is idempotent.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the public sign-up form and creates a regular user.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	v := &common.ValidationError{}

	if strings.TrimSpace(email) == "" {
		v.Add("email", common.MsgRequired)
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != strings.TrimSpace(email) {
		v.Add("email", msgEmailInvalid)
	}

	if password == "" {
		v.Add("password", common.MsgRequired)
	} else if utf8.RuneCountInString(password) < MinPasswordLength {
		v.Add("password", msgPasswordShort)
	}

	name = strings.TrimSpace(name)
	validateName(v, "name", name)

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	return s.CreateUser(ctx, email, password, UserExtra{Name: name})
}

// CreateUser stores a regular, active user. An empty email is rejected and
// the password is only ever stored hashed.
func (s *UserService) CreateUser(ctx context.Context, email, password string, extra UserExtra) (*models.User, error) {
	return s.create(ctx, email, password, extra, false)
}

// CreateSuperuser stores an active user with staff and superuser flags.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return s.create(ctx, email, password, UserExtra{}, true)
}

func (s *UserService) create(ctx context.Context, email, password string, extra UserExtra, super bool) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, common.NewValidationError("email", common.MsgRequired)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         extra.Name,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      super,
		IsSuperuser:  super,
	}

	u, err := s.repomanager.Users(s.conn.DB()).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// VerifyCredentials returns the active user owning email and password, or
// common.ErrorAuthentication. A missing user still costs one hash
// verification.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.conn.DB()).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.VerifyDummy(password)
			return nil, common.ErrorAuthentication
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok || !user.IsActive {
		return nil, common.ErrorAuthentication
	}
	return user, nil
}

// IssueToken checks credentials and returns a bearer string for the user's
// token, creating the token record on first use.
func (s *UserService) IssueToken(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", common.ErrorAuthentication
	}

	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return "", err
	}

	token, err := s.getOrCreateToken(ctx, user.ID)
	if err != nil {
		return "", err
	}

	signed, err := auth.GenerateToken(user.ID, token.Key, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

func (s *UserService) getOrCreateToken(ctx context.Context, userID int64) (*models.Token, error) {
	repo := s.repomanager.Tokens(s.conn.DB())

	token, err := repo.GetByUser(ctx, userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching token: %w", err)
	}

	key, err := common.MakeRandHexString(tokenKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating token key: %w", err)
	}

	token = &models.Token{Key: key, UserID: userID}
	if err := repo.Create(ctx, token); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			// a concurrent request won the race
			return repo.GetByUser(ctx, userID)
		}
		return nil, fmt.Errorf("error creating token: %w", err)
	}
	return token, nil
}

// ResolveCaller maps a bearer string to its active user. Every rejection is
// reported as common.ErrorUnauthenticated.
func (s *UserService) ResolveCaller(ctx context.Context, bearer string) (*models.User, error) {
	if bearer == "" {
		return nil, common.ErrorUnauthenticated
	}

	claims, err := auth.ParseToken(bearer, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, err)
	}

	token, err := s.repomanager.Tokens(s.conn.DB()).Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, fmt.Errorf("error searching token: %w", err)
	}
	if token.UserID != claims.UserID {
		return nil, common.ErrorUnauthenticated
	}

	user, err := s.repomanager.Users(s.conn.DB()).GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthenticated
	}
	return user, nil
}

// RevokeToken deletes the user's token; bearer strings issued for it stop
// resolving.
func (s *UserService) RevokeToken(ctx context.Context, userID int64) error {
	if err := s.repomanager.Tokens(s.conn.DB()).DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("error deleting token: %w", err)
	}
	return nil
}

func validateName(v *common.ValidationError, field, name string) {
	switch {
	case name == "":
		v.Add(field, common.MsgBlank)
	case utf8.RuneCountInString(name) > common.MaxNameLength:
		v.Add(field, msgTooLong)
	}
}

// Package accounts answers the user existence checks behind login and signup.
// Credentials are never verified.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/repository/document"
	"golang.org/x/crypto/bcrypt"
)

// Outcome is the literal answer sent to clients.
type Outcome string

const (
	Exist    Outcome = "exist"
	NotExist Outcome = "notexist"
	Fail     Outcome = "fail"
)

// Credentials is the login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the signup body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service looks users up by email.
type Service struct {
	executor   document.Executor
	collection string
	cost       int
	log        logger.Logger
}

// NewService creates the accounts service. collection defaults to "users".
func NewService(exec document.Executor, collection string, log logger.Logger) (*Service, error) {
	if exec == nil {
		return nil, errors.New("document executor is required")
	}
	if collection == "" {
		collection = "users"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		executor:   exec,
		collection: collection,
		cost:       bcrypt.DefaultCost,
		log:        log.With("component", "accounts"),
	}, nil
}

// Login reports whether a user with the email exists.
func (s *Service) Login(ctx context.Context, in Credentials) Outcome {
	exists, err := s.exists(ctx, in.Email)
	if err != nil {
		s.log.WithContext(ctx).Error("login lookup failed", "error", err)
		return Fail
	}
	if exists {
		return Exist
	}
	return NotExist
}

// Signup answers Exist for a known email. Otherwise it stores the user with
// a bcrypt hashed password and answers NotExist.
func (s *Service) Signup(ctx context.Context, in Registration) Outcome {
	log := s.log.WithContext(ctx)

	exists, err := s.exists(ctx, in.Email)
	if err != nil {
		log.Error("signup lookup failed", "error", err)
		return Fail
	}
	if exists {
		return Exist
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		log.Error("password hashing failed", "error", err)
		return Fail
	}
	_, err = s.executor.InsertOne(ctx, s.collection, document.Document{
		"name":      strings.TrimSpace(in.Name),
		"email":     normalizeEmail(in.Email),
		"password":  string(hash),
		"createdAt": time.Now().UTC(),
	})
	if err != nil {
		log.Error("user insert failed", "error", err)
		return Fail
	}
	log.Info("user registered")
	return NotExist
}

func (s *Service) exists(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, errors.New("email is required")
	}
	_, err := s.executor.FindOne(ctx, s.collection, document.Filter{"email": email})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, document.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("find user: %w", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

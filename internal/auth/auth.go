// Package auth authenticates admin accounts. Credentials live in the
// document store as bcrypt hashes; sessions are signed JWTs whose role is
// re-resolved from the admins collection on every request, so a demotion
// takes effect without waiting for token expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/digitalboostplus/dtxent/internal/admin"
	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/event"
)

const credentialsCollection = "authUsers"

// TokenTTL is the session lifetime.
const TokenTTL = 12 * time.Hour

var (
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized indicates an invalid or missing session.
	ErrUnauthorized = errors.New("unauthorized")

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

// Provider verifies credentials and issues session tokens.
type Provider struct {
	docs   docstore.Store
	users  *admin.Users
	secret []byte
	now    func() time.Time
}

// NewProvider wires a provider. The secret signs session tokens.
func NewProvider(docs docstore.Store, users *admin.Users, secret []byte) *Provider {
	return &Provider{docs: docs, users: users, secret: secret, now: time.Now}
}

// WithClock overrides the time source for tests.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// SetPassword stores a bcrypt hash for an email. Used at bootstrap and when
// an admin account is issued credentials.
func (p *Provider) SetPassword(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return p.docs.Set(ctx, credentialsCollection, email, map[string]any{
		"passwordHash": string(hash),
		"updatedAt":    docstore.ServerTimestamp,
	}, false)
}

// Login validates credentials against the stored hash and the admins
// collection, returning a signed session token. Unknown emails burn a bcrypt
// comparison so response timing does not reveal which accounts exist.
func (p *Provider) Login(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	doc, err := p.docs.Get(ctx, credentialsCollection, email)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup credentials: %w", err)
	}

	hash, _ := doc.Fields["passwordHash"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	// Only listed admin accounts may hold a session.
	user, err := p.users.Get(ctx, email)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup admin: %w", err)
	}

	now := p.now()
	claims := jwt.MapClaims{
		"sub":  user.Email,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a session token and resolves the actor's current role.
func (p *Provider) Verify(ctx context.Context, tokenString string) (admin.Actor, error) {
	if err := ctx.Err(); err != nil {
		return admin.Actor{}, err
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !token.Valid {
		return admin.Actor{}, ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return admin.Actor{}, ErrUnauthorized
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return admin.Actor{}, ErrUnauthorized
	}

	user, err := p.users.Get(ctx, email)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return admin.Actor{}, ErrUnauthorized
		}
		return admin.Actor{}, fmt.Errorf("lookup admin: %w", err)
	}
	return admin.Actor{Email: user.Email, Role: event.ParseRole(string(user.Role))}, nil
}

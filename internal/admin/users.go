package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/event"
)

const adminsCollection = "admins"

// ErrLastAdmin rejects a removal or demotion that would leave the system
// without anyone able to manage it.
var ErrLastAdmin = errors.New("cannot remove the last managing admin")

// ErrSelfRemoval rejects an actor deleting their own account.
var ErrSelfRemoval = errors.New("cannot remove your own admin account")

// Users manages the admins collection, keyed by lowercased email.
type Users struct {
	docs docstore.Store
}

// NewUsers wires the manager.
func NewUsers(docs docstore.Store) *Users {
	return &Users{docs: docs}
}

// List returns every admin account.
func (u *Users) List(ctx context.Context) ([]event.AdminUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := u.docs.List(ctx, adminsCollection, docstore.Query{OrderBy: "addedAt"})
	if err != nil {
		return nil, err
	}
	users := make([]event.AdminUser, 0, len(docs))
	for _, doc := range docs {
		users = append(users, userFromDoc(doc))
	}
	return users, nil
}

// Get looks up one admin account by email.
func (u *Users) Get(ctx context.Context, email string) (event.AdminUser, error) {
	if err := ctx.Err(); err != nil {
		return event.AdminUser{}, err
	}

	doc, err := u.docs.Get(ctx, adminsCollection, normalizeEmail(email))
	if err != nil {
		return event.AdminUser{}, err
	}
	return userFromDoc(doc), nil
}

// Add grants an email admin access. Editors may not manage accounts.
func (u *Users) Add(ctx context.Context, actor Actor, email string, role event.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !actor.Role.CanManageSettings() {
		return fmt.Errorf("add admin: %w", ErrForbidden)
	}

	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return &event.DataError{Field: "email", Reason: "a valid email address is required"}
	}

	return u.docs.Set(ctx, adminsCollection, email, map[string]any{
		"email":   email,
		"role":    string(event.ParseRole(string(role))),
		"addedBy": actor.Email,
		"addedAt": docstore.ServerTimestamp,
	}, false)
}

// SetRole changes an account's role. Demoting the last account with
// management rights is rejected.
func (u *Users) SetRole(ctx context.Context, actor Actor, email string, role event.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !actor.Role.CanManageSettings() {
		return fmt.Errorf("set admin role: %w", ErrForbidden)
	}

	email = normalizeEmail(email)
	role = event.ParseRole(string(role))
	if !role.CanManageSettings() {
		if err := u.ensureNotLastManager(ctx, email); err != nil {
			return err
		}
	}
	return u.docs.Update(ctx, adminsCollection, email, map[string]any{"role": string(role)})
}

// Remove deletes an admin account. Self-removal and removing the last
// managing admin are both rejected.
func (u *Users) Remove(ctx context.Context, actor Actor, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !actor.Role.CanManageSettings() {
		return fmt.Errorf("remove admin: %w", ErrForbidden)
	}

	email = normalizeEmail(email)
	if email == normalizeEmail(actor.Email) {
		return ErrSelfRemoval
	}
	if err := u.ensureNotLastManager(ctx, email); err != nil {
		return err
	}
	return u.docs.Delete(ctx, adminsCollection, email)
}

// ensureNotLastManager fails when email is the only remaining account whose
// role can manage the system.
func (u *Users) ensureNotLastManager(ctx context.Context, email string) error {
	users, err := u.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range users {
		if normalizeEmail(other.Email) == email {
			continue
		}
		if other.Role.CanManageSettings() {
			return nil
		}
	}
	return ErrLastAdmin
}

func userFromDoc(doc docstore.Document) event.AdminUser {
	user := event.AdminUser{
		Email:   doc.ID,
		Role:    event.ParseRole(stringField(doc.Fields, "role")),
		AddedBy: stringField(doc.Fields, "addedBy"),
	}
	if t, ok := doc.Fields["addedAt"].(time.Time); ok {
		user.AddedAt = t
	}
	return user
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/docstore/memory"
	"github.com/digitalboostplus/dtxent/internal/event"
)

func newTestUsers(t *testing.T) *Users {
	t.Helper()
	u := NewUsers(memory.New())
	ctx := context.Background()
	if err := u.Add(ctx, owner, "owner@dtxent.com", event.RoleOwner); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	return u
}

func TestUsersAddNormalizesEmail(t *testing.T) {
	u := newTestUsers(t)
	ctx := context.Background()

	if err := u.Add(ctx, owner, "  New.Admin@DTXent.COM ", event.RoleAdmin); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := u.Get(ctx, "new.admin@dtxent.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "new.admin@dtxent.com" || got.Role != event.RoleAdmin {
		t.Fatalf("unexpected account %+v", got)
	}
	if got.AddedBy != owner.Email {
		t.Fatalf("expected addedBy %q, got %q", owner.Email, got.AddedBy)
	}
}

func TestUsersAddRejectsInvalidEmail(t *testing.T) {
	u := newTestUsers(t)
	var dataErr *event.DataError
	if err := u.Add(context.Background(), owner, "not-an-email", event.RoleEditor); !errors.As(err, &dataErr) {
		t.Fatalf("expected *event.DataError, got %v", err)
	}
}

func TestUsersAddUnknownRoleDefaultsToEditor(t *testing.T) {
	u := newTestUsers(t)
	ctx := context.Background()
	if err := u.Add(ctx, owner, "x@dtxent.com", event.Role("superuser")); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := u.Get(ctx, "x@dtxent.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Role != event.RoleEditor {
		t.Fatalf("expected editor, got %q", got.Role)
	}
}

func TestUsersEditorCannotManage(t *testing.T) {
	u := newTestUsers(t)
	ctx := context.Background()

	if err := u.Add(ctx, editor, "x@dtxent.com", event.RoleEditor); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on add, got %v", err)
	}
	if err := u.SetRole(ctx, editor, "owner@dtxent.com", event.RoleEditor); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on set role, got %v", err)
	}
	if err := u.Remove(ctx, editor, "owner@dtxent.com"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on remove, got %v", err)
	}
}

func TestUsersSelfRemovalRejected(t *testing.T) {
	u := newTestUsers(t)
	if err := u.Remove(context.Background(), owner, "Owner@DTXent.com"); !errors.Is(err, ErrSelfRemoval) {
		t.Fatalf("expected ErrSelfRemoval, got %v", err)
	}
}

func TestUsersLastManagerGuard(t *testing.T) {
	u := newTestUsers(t)
	ctx := context.Background()
	admin := Actor{Email: "second@dtxent.com", Role: event.RoleAdmin}
	if err := u.Add(ctx, owner, admin.Email, event.RoleAdmin); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Two managers: removing one is fine.
	if err := u.Remove(ctx, admin, "owner@dtxent.com"); err != nil {
		t.Fatalf("remove with another manager present: %v", err)
	}

	// Now admin is the only manager left; demotion would orphan the system.
	if err := u.SetRole(ctx, admin, admin.Email, event.RoleEditor); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin on demotion, got %v", err)
	}

	// An editor account does not count as a manager for the guard.
	if err := u.Add(ctx, admin, "helper@dtxent.com", event.RoleEditor); err != nil {
		t.Fatalf("add editor: %v", err)
	}
	if err := u.Remove(ctx, owner, admin.Email); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin on removal, got %v", err)
	}
}

func TestUsersRemoveDeletesAccount(t *testing.T) {
	u := newTestUsers(t)
	ctx := context.Background()
	if err := u.Add(ctx, owner, "second@dtxent.com", event.RoleAdmin); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := u.Remove(ctx, owner, "second@dtxent.com"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := u.Get(ctx, "second@dtxent.com"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

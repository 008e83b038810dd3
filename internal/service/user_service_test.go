package service

import (
	"context"
	"errors"
	"testing"

	"github.com/errandly/errandly/internal/model"
)

func TestRegisterAndResolve(t *testing.T) {
	m := newMemStore()
	svc := NewUserService(m)

	id, err := svc.Register(context.Background(), "Ada", "auth0|ada")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	u, err := svc.Resolve(context.Background(), "auth0|ada")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u.ID != id || u.DisplayName != "Ada" {
		t.Fatalf("resolved wrong record: %+v", u)
	}
}

func TestRegisterValidation(t *testing.T) {
	m := newMemStore()
	svc := NewUserService(m)
	if _, err := svc.Register(context.Background(), "", "auth0|x"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "X", "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank identity, got %v", err)
	}
}

func TestResolveUnknownIdentity(t *testing.T) {
	m := newMemStore()
	svc := NewUserService(m)
	if _, err := svc.Resolve(context.Background(), "auth0|ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDisplayNameOwnerOnly(t *testing.T) {
	m := newMemStore()
	svc := NewUserService(m)
	owner := m.putUser(&model.User{Identity: "owner", DisplayName: "Old"})
	other := m.putUser(&model.User{Identity: "other"})

	if err := svc.UpdateDisplayName(context.Background(), other, owner.ID, "Hijacked"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.UpdateDisplayName(context.Background(), owner, owner.ID, "New"); err != nil {
		t.Fatalf("owner rename: %v", err)
	}
	u, _ := m.Get(context.Background(), owner.ID)
	if u.DisplayName != "New" {
		t.Fatalf("display name not updated: %q", u.DisplayName)
	}
}

func TestSetBlockedUsers(t *testing.T) {
	m := newMemStore()
	svc := NewUserService(m)
	caller := m.putUser(&model.User{Identity: "caller"})

	if err := svc.SetBlockedUsers(context.Background(), caller, []int64{3, 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for id 0, got %v", err)
	}
	if err := svc.SetBlockedUsers(context.Background(), caller, []int64{3, 7}); err != nil {
		t.Fatalf("set blocked: %v", err)
	}
	u, _ := m.Get(context.Background(), caller.ID)
	if !u.HasBlocked(3) || !u.HasBlocked(7) || u.HasBlocked(5) {
		t.Fatalf("blocked set not stored faithfully: %q", u.BlockedUserIDs)
	}

	// replacing with an empty list clears the set
	if err := svc.SetBlockedUsers(context.Background(), caller, nil); err != nil {
		t.Fatalf("clear blocked: %v", err)
	}
	u, _ = m.Get(context.Background(), caller.ID)
	if u.HasBlocked(3) {
		t.Fatal("blocked set not cleared")
	}
}

func TestSetMinTaskPrice(t *testing.T) {
	m := newMemStore()
	svc := NewUserService(m)
	caller := m.putUser(&model.User{Identity: "caller"})

	if err := svc.SetMinTaskPrice(context.Background(), caller, -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative price, got %v", err)
	}
	if err := svc.SetMinTaskPrice(context.Background(), caller, 25); err != nil {
		t.Fatalf("set min price: %v", err)
	}
	u, _ := m.Get(context.Background(), caller.ID)
	if u.MinTaskPrice != 25 {
		t.Fatalf("min price not updated: %d", u.MinTaskPrice)
	}
}

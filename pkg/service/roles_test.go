package service

import (
	"context"
	"testing"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
)

func TestRoleRequest_DuplicatePendingConflicts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("a@x.com", models.RoleUser)

	if _, err := h.svc.Roles.Request(ctx, "a@x.com", "Ann", models.RequestChef); err != nil {
		t.Fatalf("first Request() error = %v", err)
	}
	_, err := h.svc.Roles.Request(ctx, "a@x.com", "Ann", models.RequestChef)
	assertKind(t, err, apperr.KindConflict)

	if _, err := h.svc.Roles.Request(ctx, "a@x.com", "Ann", models.RequestAdmin); err != nil {
		t.Errorf("admin request alongside chef request: %v", err)
	}
}

func TestRoleRequest_AlreadyHasRole(t *testing.T) {
	h := newHarness(t)
	h.account("chef@x.com", models.RoleChef)
	_, err := h.svc.Roles.Request(context.Background(), "chef@x.com", "", models.RequestChef)
	assertKind(t, err, apperr.KindConflict)
}

func TestApprove_Chef(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("a@x.com", models.RoleUser)
	h.account("taken@x.com", models.RoleChef) // holds chef id 4242

	draws := []int{4242, 5151}
	h.svc.Roles.chefIDs = func() (int, error) {
		id := draws[0]
		draws = draws[1:]
		return id, nil
	}

	if _, err := h.svc.Roles.Request(ctx, "a@x.com", "Ann", models.RequestChef); err != nil {
		t.Fatal(err)
	}
	acc, err := h.svc.Roles.Approve(ctx, "admin@x.com", "a@x.com", models.RequestChef, models.RoleChef)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if acc.Role != models.RoleChef || acc.ChefID == nil || *acc.ChefID != 5151 {
		t.Errorf("approved account = %+v", acc)
	}

	stored, _ := h.store.Accounts.FindByEmail(ctx, "a@x.com")
	if stored.Role != models.RoleChef {
		t.Errorf("stored role = %q", stored.Role)
	}
	if _, err := h.store.Requests.FindPending(ctx, "a@x.com", models.RequestChef); err == nil {
		t.Error("pending request still present after approval")
	}

	_, err = h.svc.Roles.Approve(ctx, "admin@x.com", "a@x.com", models.RequestChef, models.RoleChef)
	assertKind(t, err, apperr.KindNotFound)
}

func TestApprove_RoleMustMatchType(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("a@x.com", models.RoleUser)
	if _, err := h.svc.Roles.Request(ctx, "a@x.com", "Ann", models.RequestChef); err != nil {
		t.Fatal(err)
	}
	_, err := h.svc.Roles.Approve(ctx, "admin@x.com", "a@x.com", models.RequestChef, models.RoleAdmin)
	assertKind(t, err, apperr.KindInvalid)
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.account("a@x.com", models.RoleUser)
	if _, err := h.svc.Roles.Request(ctx, "a@x.com", "Ann", models.RequestAdmin); err != nil {
		t.Fatal(err)
	}

	if err := h.svc.Roles.Reject(ctx, "admin@x.com", "a@x.com", models.RequestAdmin); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	reqs, _ := h.svc.Roles.List(ctx, models.RequestAdmin)
	if len(reqs) != 1 || reqs[0].RequestStatus != models.RequestRejected {
		t.Fatalf("requests = %+v", reqs)
	}
	acc, _ := h.store.Accounts.FindByEmail(ctx, "a@x.com")
	if acc.Role != models.RoleUser {
		t.Errorf("role changed on reject: %q", acc.Role)
	}

	assertKind(t, h.svc.Roles.Reject(ctx, "admin@x.com", "a@x.com", models.RequestAdmin), apperr.KindNotFound)

	// a rejected request does not block a new one
	if _, err := h.svc.Roles.Request(ctx, "a@x.com", "Ann", models.RequestAdmin); err != nil {
		t.Errorf("re-request after rejection: %v", err)
	}
}

func TestNewChefID_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		id, err := NewChefID()
		if err != nil {
			t.Fatal(err)
		}
		if id < 1000 || id > 9999 {
			t.Fatalf("chef id %d outside 4-digit range", id)
		}
	}
}

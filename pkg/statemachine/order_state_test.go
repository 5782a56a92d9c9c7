package statemachine

import (
	"testing"

	"github.com/example/chefbazaar/pkg/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		actor    Actor
		ok       bool
	}{
		{models.OrderPending, models.OrderConfirmed, ActorChef, true},
		{models.OrderPending, models.OrderConfirmed, ActorUser, false},
		{models.OrderPending, models.OrderCancelled, ActorUser, true},
		{models.OrderConfirmed, models.OrderDelivered, ActorAdmin, true},
		{models.OrderConfirmed, models.OrderCancelled, ActorUser, false},
		{models.OrderPending, models.OrderDelivered, ActorAdmin, false},
		{models.OrderDelivered, models.OrderPending, ActorAdmin, false},
		{models.OrderCancelled, models.OrderConfirmed, ActorChef, false},
	}

	for _, tt := range tests {
		err := CanTransition(tt.from, tt.to, tt.actor)
		if (err == nil) != tt.ok {
			t.Errorf("CanTransition(%s, %s, %s) error = %v, want ok=%v", tt.from, tt.to, tt.actor, err, tt.ok)
		}
	}
}

func TestNextStates_Terminal(t *testing.T) {
	for _, s := range []models.OrderStatus{models.OrderDelivered, models.OrderCancelled} {
		if got := NextStates(s); len(got) != 0 {
			t.Errorf("NextStates(%s) = %v, want none", s, got)
		}
	}
	if got := NextStates(models.OrderPending); len(got) != 2 {
		t.Errorf("NextStates(pending) = %v, want confirmed and cancelled", got)
	}
}

func TestActorFor(t *testing.T) {
	if ActorFor(models.RoleNone) != ActorUser {
		t.Error("missing role must act as a plain user")
	}
	if ActorFor(models.RoleAdmin) != ActorAdmin {
		t.Error("admin role must act as admin")
	}
}

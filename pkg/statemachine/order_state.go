// Package statemachine holds the order fulfilment transitions and who may
// perform them.
package statemachine

import (
	"fmt"
	"strings"

	"github.com/example/chefbazaar/pkg/models"
)

type Actor string

const (
	ActorUser  Actor = "user"
	ActorChef  Actor = "chef"
	ActorAdmin Actor = "admin"
)

// ActorFor maps an account role to the actor it transitions as.
func ActorFor(role models.Role) Actor {
	switch role {
	case models.RoleChef:
		return ActorChef
	case models.RoleAdmin:
		return ActorAdmin
	default:
		return ActorUser
	}
}

type Transition struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

var validTransitions = []Transition{
	{From: models.OrderPending, To: models.OrderConfirmed, Actor: ActorChef},
	{From: models.OrderPending, To: models.OrderConfirmed, Actor: ActorAdmin},
	{From: models.OrderPending, To: models.OrderCancelled, Actor: ActorChef},
	{From: models.OrderPending, To: models.OrderCancelled, Actor: ActorAdmin},
	{From: models.OrderPending, To: models.OrderCancelled, Actor: ActorUser},
	{From: models.OrderConfirmed, To: models.OrderDelivered, Actor: ActorChef},
	{From: models.OrderConfirmed, To: models.OrderDelivered, Actor: ActorAdmin},
	{From: models.OrderConfirmed, To: models.OrderCancelled, Actor: ActorChef},
	{From: models.OrderConfirmed, To: models.OrderCancelled, Actor: ActorAdmin},
}

var transitionSet = func() map[Transition]bool {
	m := make(map[Transition]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// NextStates returns the distinct states reachable from status by any actor.
func NextStates(status models.OrderStatus) []models.OrderStatus {
	var next []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			next = append(next, t.To)
			seen[t.To] = true
		}
	}
	return next
}

// CanTransition reports whether actor may move an order from one status to
// another.
func CanTransition(from, to models.OrderStatus, actor Actor) error {
	if transitionSet[Transition{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("cannot move order from %s to %s as %s (allowed next: %s)",
		from, to, actor, describe(NextStates(from)))
}

func describe(states []models.OrderStatus) string {
	if len(states) == 0 {
		return "none, terminal state"
	}
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

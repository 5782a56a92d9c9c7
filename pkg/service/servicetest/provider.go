package servicetest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/example/chefbazaar/pkg/payment"
)

var ErrUnknownSession = errors.New("no such checkout session")

// Provider is a scripted checkout provider. Sessions start unpaid; call Pay
// to simulate the buyer completing checkout.
type Provider struct {
	mu        sync.Mutex
	sessions  map[string]*payment.Session
	next      int
	CreateErr error
	Created   []payment.SessionRequest
}

func NewProvider() *Provider {
	return &Provider{sessions: map[string]*payment.Session{}}
}

func (p *Provider) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	p.next++
	id := fmt.Sprintf("cs_test_%d", p.next)
	s := &payment.Session{
		ID:            id,
		URL:           "https://checkout.example.com/pay/" + id,
		PaymentStatus: "unpaid",
		Metadata: map[string]string{
			payment.MetaFoodID:   req.MealID,
			payment.MetaOrderID:  req.OrderID,
			payment.MetaQuantity: strconv.FormatInt(req.Quantity, 10),
		},
		AmountTotal:   req.UnitPrice * float64(req.Quantity),
		Currency:      "usd",
		CustomerEmail: req.CustomerEmail,
	}
	p.sessions[id] = s
	p.Created = append(p.Created, req)
	cp := *s
	return &cp, nil
}

func (p *Provider) RetrieveSession(_ context.Context, id string) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	cp := *s
	return &cp, nil
}

// Pay marks the session paid under the given payment intent id.
func (p *Provider) Pay(sessionID, transactionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[sessionID]; ok {
		s.PaymentStatus = payment.StatusPaid
		s.PaymentIntentID = transactionID
	}
}

// AddSession registers a pre-built session, e.g. one that shares a
// transaction id with another.
func (p *Provider) AddSession(s payment.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[s.ID] = &s
}

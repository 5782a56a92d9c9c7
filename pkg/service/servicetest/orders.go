package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Requests struct {
	mu   sync.Mutex
	rows []models.RoleRequest
}

func (s *Requests) Insert(_ context.Context, req *models.RoleRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.RequestStatus == models.RequestPending && s.pendingIndex(req.UserEmail, req.RequestType) >= 0 {
		return repository.ErrDuplicate
	}
	req.ID = primitive.NewObjectID()
	s.rows = append(s.rows, *req)
	return nil
}

func (s *Requests) pendingIndex(email string, typ models.RequestType) int {
	for i, r := range s.rows {
		if r.UserEmail == email && r.RequestType == typ && r.RequestStatus == models.RequestPending {
			return i
		}
	}
	return -1
}

func (s *Requests) FindPending(_ context.Context, email string, typ models.RequestType) (*models.RoleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.pendingIndex(email, typ)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	r := s.rows[i]
	return &r, nil
}

func (s *Requests) ListByType(_ context.Context, typ models.RequestType) ([]models.RoleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.RoleRequest{}
	for _, r := range s.rows {
		if r.RequestType == typ {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Requests) DeletePending(_ context.Context, email string, typ models.RequestType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.pendingIndex(email, typ)
	if i < 0 {
		return repository.ErrNotFound
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}

func (s *Requests) Reject(_ context.Context, email string, typ models.RequestType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.pendingIndex(email, typ)
	if i < 0 {
		return repository.ErrNotFound
	}
	s.rows[i].RequestStatus = models.RequestRejected
	return nil
}

// All returns a copy of every stored request.
func (s *Requests) All() []models.RoleRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.RoleRequest(nil), s.rows...)
}

type Orders struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Order
	Err  error
}

func (s *Orders) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = primitive.NewObjectID()
	s.byID[order.ID] = *order
	return nil
}

func (s *Orders) FindByID(_ context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (s *Orders) list(match func(models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.byID {
		if match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[j].ID, out[i].ID) })
	return out
}

func (s *Orders) ListByUser(_ context.Context, email string) ([]models.Order, error) {
	return s.list(func(o models.Order) bool { return o.UserEmail == email }), nil
}

func (s *Orders) ListByChef(_ context.Context, chefEmail string) ([]models.Order, error) {
	return s.list(func(o models.Order) bool { return o.ChefEmail == chefEmail }), nil
}

func (s *Orders) AttachCheckout(_ context.Context, id, sessionID string, now time.Time) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[oid]
	if !ok || o.PaymentStatus == models.PaymentPaid {
		return repository.ErrNotFound
	}
	o.CheckoutSessionID = sessionID
	o.PaymentStatus = models.PaymentPending
	o.UpdatedAt = now
	s.byID[oid] = o
	return nil
}

func (s *Orders) MarkPaid(_ context.Context, id, transactionID, trackingID string, now time.Time) (*models.Order, bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[oid]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if o.PaymentStatus == models.PaymentPaid {
		return &o, false, nil
	}
	for _, other := range s.byID {
		if other.ID != oid && other.TrackingID == trackingID {
			return nil, false, repository.ErrDuplicate
		}
	}
	paidAt := now
	o.PaymentStatus = models.PaymentPaid
	o.TransactionID = transactionID
	o.TrackingID = trackingID
	o.PaidAt = &paidAt
	o.UpdatedAt = now
	s.byID[oid] = o
	return &o, true, nil
}

func (s *Orders) TransitionStatus(_ context.Context, id string, from, to models.OrderStatus, now time.Time) (*models.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[oid]
	if !ok || o.OrderStatus != from {
		return nil, repository.ErrNotFound
	}
	o.OrderStatus = to
	o.UpdatedAt = now
	s.byID[oid] = o
	return &o, nil
}

func (s *Orders) CountByStatus(context.Context) (map[models.OrderStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := map[models.OrderStatus]int64{}
	for _, o := range s.byID {
		out[o.OrderStatus]++
	}
	return out, nil
}

type Payments struct {
	mu   sync.Mutex
	rows []models.Payment
	Err  error
}

func (s *Payments) FindByTransaction(_ context.Context, transactionID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.TransactionID == transactionID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Payments) Insert(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.TransactionID == p.TransactionID {
			return repository.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	s.rows = append(s.rows, *p)
	return nil
}

func (s *Payments) ListByCustomer(_ context.Context, email string) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Payment{}
	for _, p := range s.rows {
		if p.CustomerEmail == email {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Payments) TotalRevenue(context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var total float64
	for _, p := range s.rows {
		total += p.Price
	}
	return total, nil
}

// Len reports how many payments are stored.
func (s *Payments) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Package servicetest provides in-memory stores and a scripted checkout
// provider for service and gateway tests. The stores enforce the same
// uniqueness rules as the Mongo indexes.
package servicetest

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store groups one in-memory collection per entity.
type Store struct {
	Accounts  *Accounts
	Meals     *Meals
	Requests  *Requests
	Orders    *Orders
	Payments  *Payments
	Reviews   *Reviews
	Favorites *Favorites
	AuditLogs *AuditLogs
}

func NewStore() *Store {
	return &Store{
		Accounts:  &Accounts{byEmail: map[string]models.Account{}},
		Meals:     &Meals{byID: map[primitive.ObjectID]models.Meal{}},
		Requests:  &Requests{},
		Orders:    &Orders{byID: map[primitive.ObjectID]models.Order{}},
		Payments:  &Payments{},
		Reviews:   &Reviews{byID: map[primitive.ObjectID]models.Review{}},
		Favorites: &Favorites{byID: map[primitive.ObjectID]models.Favorite{}},
		AuditLogs: &AuditLogs{},
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return oid, nil
}

func idLess(a, b primitive.ObjectID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

type Accounts struct {
	mu      sync.Mutex
	byEmail map[string]models.Account
	Err     error
}

// Put stores acc as is, for test setup.
func (s *Accounts) Put(acc models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.ID.IsZero() {
		acc.ID = primitive.NewObjectID()
	}
	if acc.Status == "" {
		acc.Status = models.StatusActive
	}
	s.byEmail[acc.Email] = acc
}

func (s *Accounts) UpsertLogin(_ context.Context, email, name, photo string, now time.Time) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	acc, ok := s.byEmail[email]
	if !ok {
		acc = models.Account{
			ID:        primitive.NewObjectID(),
			Email:     email,
			Role:      models.RoleUser,
			Status:    models.StatusActive,
			CreatedAt: now,
		}
	}
	if name != "" {
		acc.Name = name
	}
	if photo != "" {
		acc.Photo = photo
	}
	acc.LastLoggedIn = now
	s.byEmail[email] = acc
	return &acc, nil
}

func (s *Accounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	acc, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &acc, nil
}

func (s *Accounts) List(context.Context) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Account, 0, len(s.byEmail))
	for _, a := range s.byEmail {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Accounts) SetRole(_ context.Context, email string, role models.Role, chefID *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byEmail[email]
	if !ok {
		return repository.ErrNotFound
	}
	if chefID != nil {
		for _, other := range s.byEmail {
			if other.Email != email && other.ChefID != nil && *other.ChefID == *chefID {
				return repository.ErrDuplicate
			}
		}
		id := *chefID
		acc.ChefID = &id
	}
	acc.Role = role
	s.byEmail[email] = acc
	return nil
}

func (s *Accounts) SetStatus(_ context.Context, email string, status models.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byEmail[email]
	if !ok {
		return repository.ErrNotFound
	}
	acc.Status = status
	s.byEmail[email] = acc
	return nil
}

func (s *Accounts) ChefIDTaken(_ context.Context, chefID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byEmail {
		if a.ChefID != nil && *a.ChefID == chefID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Accounts) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.byEmail)), nil
}

type Meals struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Meal
}

func (s *Meals) Home(_ context.Context, n int64) ([]models.Meal, error) {
	all := s.sorted(func(a, b models.Meal) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if int64(len(all)) > n {
		all = all[:n]
	}
	return all, nil
}

func (s *Meals) List(_ context.Context, q models.MealQuery) ([]models.Meal, int64, error) {
	all := s.sorted(func(a, b models.Meal) int {
		c := compareField(a, b, q.Sort)
		if !q.Asc {
			c = -c
		}
		return c
	})
	total := int64(len(all))
	start := int(q.Skip())
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func compareField(a, b models.Meal, f models.MealSortField) int {
	switch f {
	case models.SortByRating:
		return cmpFloat(a.Rating, b.Rating)
	case models.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return cmpFloat(a.Price, b.Price)
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// sorted returns every meal ordered by cmp, ties broken by ascending id.
func (s *Meals) sorted(cmp func(a, b models.Meal) int) []models.Meal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Meal, 0, len(s.byID))
	for _, m := range s.byID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := cmp(out[i], out[j]); c != 0 {
			return c < 0
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out
}

func (s *Meals) ListByOwner(_ context.Context, email string) ([]models.Meal, error) {
	out := []models.Meal{}
	for _, m := range s.sorted(func(a, b models.Meal) int { return b.CreatedAt.Compare(a.CreatedAt) }) {
		if m.UserEmail == email {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Meals) FindByID(_ context.Context, id string) (*models.Meal, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Meals) Insert(_ context.Context, meal *models.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meal.ID = primitive.NewObjectID()
	s.byID[meal.ID] = *meal
	return nil
}

func (s *Meals) Update(_ context.Context, id, owner string, in models.MealInput, now time.Time) (*models.Meal, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[oid]
	if !ok || m.UserEmail != owner {
		return nil, repository.ErrNotFound
	}
	m.FoodName = in.FoodName
	m.ChefName = in.ChefName
	m.FoodImage = in.FoodImage
	m.Price = in.Price
	m.Rating = in.Rating
	m.Ingredients = in.Ingredients
	if m.Ingredients == nil {
		m.Ingredients = []string{}
	}
	m.EstimatedDeliveryTime = in.EstimatedDeliveryTime
	m.ChefExperience = in.ChefExperience
	m.UpdatedAt = now
	s.byID[oid] = m
	return &m, nil
}

func (s *Meals) Delete(_ context.Context, id, owner string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[oid]
	if !ok || m.UserEmail != owner {
		return repository.ErrNotFound
	}
	delete(s.byID, oid)
	return nil
}

// Len reports how many meals are stored.
func (s *Meals) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

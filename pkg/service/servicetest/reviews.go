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

type Reviews struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Review
}

func (s *Reviews) Replace(_ context.Context, r *models.Review) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.byID {
		if existing.FoodID == r.FoodID && existing.ReviewerEmail == r.ReviewerEmail {
			out := *r
			out.ID = id
			s.byID[id] = out
			return &out, nil
		}
	}
	out := *r
	out.ID = primitive.NewObjectID()
	s.byID[out.ID] = out
	return &out, nil
}

func (s *Reviews) list(match func(models.Review) bool) []models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Review{}
	for _, r := range s.byID {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (s *Reviews) ListByFood(_ context.Context, foodID string) ([]models.Review, error) {
	return s.list(func(r models.Review) bool { return r.FoodID == foodID }), nil
}

func (s *Reviews) ListByReviewer(_ context.Context, email string) ([]models.Review, error) {
	return s.list(func(r models.Review) bool { return r.ReviewerEmail == email }), nil
}

func (s *Reviews) Update(_ context.Context, id, reviewer string, rating int, comment string, now time.Time) (*models.Review, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[oid]
	if !ok || r.ReviewerEmail != reviewer {
		return nil, repository.ErrNotFound
	}
	r.Rating = rating
	r.Comment = comment
	r.Date = now
	s.byID[oid] = r
	return &r, nil
}

func (s *Reviews) Delete(_ context.Context, id, reviewer string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[oid]
	if !ok || r.ReviewerEmail != reviewer {
		return repository.ErrNotFound
	}
	delete(s.byID, oid)
	return nil
}

// Len reports how many reviews are stored.
func (s *Reviews) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type Favorites struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Favorite
}

func (s *Favorites) Upsert(_ context.Context, f *models.Favorite) (*models.Favorite, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.byID {
		if existing.MealID == f.MealID && existing.UserEmail == f.UserEmail {
			existing.AddedTime = f.AddedTime
			s.byID[id] = existing
			return &existing, false, nil
		}
	}
	out := *f
	out.ID = primitive.NewObjectID()
	s.byID[out.ID] = out
	return &out, true, nil
}

func (s *Favorites) ListByUser(_ context.Context, email string) ([]models.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Favorite{}
	for _, f := range s.byID {
		if f.UserEmail == email {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedTime.After(out[j].AddedTime) })
	return out, nil
}

func (s *Favorites) Delete(_ context.Context, id, email string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[oid]
	if !ok || f.UserEmail != email {
		return repository.ErrNotFound
	}
	delete(s.byID, oid)
	return nil
}

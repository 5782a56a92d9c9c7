package service

import (
	"context"
	"time"

	"github.com/example/chefbazaar/pkg/models"
)

type FavoriteService struct {
	favorites FavoriteRepository
	meals     MealRepository
	now       func() time.Time
}

func NewFavoriteService(favorites FavoriteRepository, meals MealRepository) *FavoriteService {
	return &FavoriteService{favorites: favorites, meals: meals, now: time.Now}
}

// Add saves a meal to the caller's favorites. Adding it again refreshes the
// timestamp; created reports whether a new entry was made.
func (s *FavoriteService) Add(ctx context.Context, email, mealID string) (*models.Favorite, bool, error) {
	meal, err := s.meals.FindByID(ctx, mealID)
	if err != nil {
		return nil, false, storeErr(err, "meal not found")
	}
	fav, created, err := s.favorites.Upsert(ctx, &models.Favorite{
		MealID:    meal.ID.Hex(),
		MealName:  meal.FoodName,
		ChefID:    meal.ChefID,
		Price:     meal.Price,
		UserEmail: normalizeEmail(email),
		AddedTime: s.now().UTC(),
	})
	if err != nil {
		return nil, false, storeErr(err, "favorite not found")
	}
	return fav, created, nil
}

func (s *FavoriteService) Mine(ctx context.Context, email string) ([]models.Favorite, error) {
	favs, err := s.favorites.ListByUser(ctx, normalizeEmail(email))
	if err != nil {
		return nil, storeErr(err, "favorites not found")
	}
	return favs, nil
}

func (s *FavoriteService) Remove(ctx context.Context, id, email string) error {
	if err := s.favorites.Delete(ctx, id, normalizeEmail(email)); err != nil {
		return storeErr(err, "favorite not found")
	}
	return nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
)

const (
	HomeMealCount = 6

	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type CatalogService struct {
	meals    MealRepository
	accounts AccountRepository
	audit    Auditor
	now      func() time.Time
}

func NewCatalogService(meals MealRepository, accounts AccountRepository, audit Auditor) *CatalogService {
	return &CatalogService{meals: meals, accounts: accounts, audit: audit, now: time.Now}
}

// NormalizeMealQuery turns raw listing parameters into a valid query.
// Unknown sort fields fall back to price, unknown orders to descending.
func NormalizeMealQuery(sort, order string, page, limit int) models.MealQuery {
	q := models.MealQuery{Sort: models.SortByPrice, Page: page, Limit: limit}
	switch f := models.MealSortField(sort); f {
	case models.SortByPrice, models.SortByRating, models.SortByCreatedAt:
		q.Sort = f
	}
	q.Asc = strings.EqualFold(order, "asc")
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

func (s *CatalogService) Home(ctx context.Context) ([]models.Meal, error) {
	meals, err := s.meals.Home(ctx, HomeMealCount)
	if err != nil {
		return nil, storeErr(err, "meals not found")
	}
	return meals, nil
}

func (s *CatalogService) List(ctx context.Context, q models.MealQuery) (*models.MealPage, error) {
	meals, total, err := s.meals.List(ctx, q)
	if err != nil {
		return nil, storeErr(err, "meals not found")
	}
	limit := int64(q.Limit)
	return &models.MealPage{
		Meals:       meals,
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: q.Page,
	}, nil
}

func (s *CatalogService) Mine(ctx context.Context, owner string) ([]models.Meal, error) {
	meals, err := s.meals.ListByOwner(ctx, owner)
	if err != nil {
		return nil, storeErr(err, "meals not found")
	}
	return meals, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Meal, error) {
	meal, err := s.meals.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "meal not found")
	}
	return meal, nil
}

// Create adds a meal owned by the calling chef. The chef id is taken from
// the account, never from the payload.
func (s *CatalogService) Create(ctx context.Context, owner string, in models.MealInput) (*models.Meal, error) {
	acc, err := activeAccount(ctx, s.accounts, owner)
	if err != nil {
		return nil, err
	}
	if !acc.HasRole(models.RoleChef) {
		return nil, apperr.Forbidden("only chefs can add meals")
	}

	now := s.now().UTC()
	meal := &models.Meal{
		FoodName:              in.FoodName,
		ChefName:              in.ChefName,
		FoodImage:             in.FoodImage,
		Price:                 in.Price,
		Rating:                in.Rating,
		Ingredients:           in.Ingredients,
		EstimatedDeliveryTime: in.EstimatedDeliveryTime,
		ChefExperience:        in.ChefExperience,
		UserEmail:             acc.Email,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if meal.Ingredients == nil {
		meal.Ingredients = []string{}
	}
	if acc.ChefID != nil {
		meal.ChefID = *acc.ChefID
	}
	if err := s.meals.Insert(ctx, meal); err != nil {
		return nil, storeErr(err, "meal not found")
	}
	s.audit.Record("meal.created", meal.ID.Hex(), acc.Email, map[string]any{"foodName": meal.FoodName})
	return meal, nil
}

func (s *CatalogService) Update(ctx context.Context, id, owner string, in models.MealInput) (*models.Meal, error) {
	meal, err := s.meals.Update(ctx, id, owner, in, s.now().UTC())
	if err != nil {
		return nil, storeErr(err, "meal not found")
	}
	s.audit.Record("meal.updated", id, owner, nil)
	return meal, nil
}

func (s *CatalogService) Delete(ctx context.Context, id, owner string) error {
	if err := s.meals.Delete(ctx, id, owner); err != nil {
		return storeErr(err, "meal not found")
	}
	s.audit.Record("meal.deleted", id, owner, nil)
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewInput struct {
	FoodID        string
	Rating        int
	Comment       string
	ReviewerName  string
	ReviewerImage string
}

type ReviewService struct {
	reviews ReviewRepository
	meals   MealRepository
	audit   Auditor
	now     func() time.Time
}

func NewReviewService(reviews ReviewRepository, meals MealRepository, audit Auditor) *ReviewService {
	return &ReviewService{reviews: reviews, meals: meals, audit: audit, now: time.Now}
}

// Submit creates the caller's review of a meal, or replaces it if one
// already exists.
func (s *ReviewService) Submit(ctx context.Context, reviewer string, in ReviewInput) (*models.Review, error) {
	if err := validRating(in.Rating); err != nil {
		return nil, err
	}
	meal, err := s.meals.FindByID(ctx, in.FoodID)
	if err != nil {
		return nil, storeErr(err, "meal not found")
	}
	foodID := meal.ID.Hex()
	r, err := s.reviews.Replace(ctx, &models.Review{
		FoodID:        foodID,
		ReviewerEmail: normalizeEmail(reviewer),
		ReviewerName:  in.ReviewerName,
		ReviewerImage: in.ReviewerImage,
		Rating:        in.Rating,
		Comment:       in.Comment,
		Date:          s.now().UTC(),
	})
	if err != nil {
		return nil, storeErr(err, "review not found")
	}
	s.audit.Record("review.submitted", foodID, r.ReviewerEmail, map[string]any{"rating": in.Rating})
	return r, nil
}

// ListForMeal lists a meal's reviews. foodID is matched in canonical
// lowercase hex form.
func (s *ReviewService) ListForMeal(ctx context.Context, foodID string) ([]models.Review, error) {
	if oid, err := primitive.ObjectIDFromHex(foodID); err == nil {
		foodID = oid.Hex()
	}
	reviews, err := s.reviews.ListByFood(ctx, foodID)
	if err != nil {
		return nil, storeErr(err, "reviews not found")
	}
	return reviews, nil
}

func (s *ReviewService) Mine(ctx context.Context, reviewer string) ([]models.Review, error) {
	reviews, err := s.reviews.ListByReviewer(ctx, normalizeEmail(reviewer))
	if err != nil {
		return nil, storeErr(err, "reviews not found")
	}
	return reviews, nil
}

// Update edits an existing review. It never creates one.
func (s *ReviewService) Update(ctx context.Context, id, reviewer string, rating int, comment string) (*models.Review, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}
	r, err := s.reviews.Update(ctx, id, normalizeEmail(reviewer), rating, comment, s.now().UTC())
	if err != nil {
		return nil, storeErr(err, "review not found")
	}
	return r, nil
}

func (s *ReviewService) Delete(ctx context.Context, id, reviewer string) error {
	if err := s.reviews.Delete(ctx, id, normalizeEmail(reviewer)); err != nil {
		return storeErr(err, "review not found")
	}
	return nil
}

func validRating(r int) error {
	if r < 1 || r > 5 {
		return apperr.Invalid("rating must be between 1 and 5")
	}
	return nil
}

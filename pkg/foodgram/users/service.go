package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/auth"
	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/metrics"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/pagination"
)

// Service implements user profiles and author subscriptions
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) getUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

// Profile returns a user as seen by viewerID.
func (s *Service) Profile(ctx context.Context, viewerID, userID uint) (UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return UserResponse{}, err
	}
	subscribed, err := SubscribedSet(s.db.WithContext(ctx), viewerID, []uint{user.ID})
	if err != nil {
		return UserResponse{}, err
	}
	return NewUserResponse(*user, subscribed[user.ID]), nil
}

// List returns one page of users ordered by id.
func (s *Service) List(ctx context.Context, viewerID uint, p pagination.Params) ([]UserResponse, int64, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := db.Scopes(p.Scope).Order("id").Find(&users).Error; err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := SubscribedSet(db, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = NewUserResponse(u, subscribed[u.ID])
	}
	return out, count, nil
}

// SetPassword replaces the password after verifying the current one.
func (s *Service) SetPassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return apperrors.NewValidationError("current_password", "Invalid password")
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error
}

// Follow subscribes subscriberID to authorID's recipes.
func (s *Service) Follow(ctx context.Context, subscriberID, authorID uint) (*models.User, error) {
	if subscriberID == authorID {
		return nil, apperrors.NewValidationError("author", "cannot follow yourself")
	}
	author, err := s.getUser(ctx, authorID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.Following{}).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, apperrors.NewValidationError("author", "already following")
	}

	if err := db.Create(&models.Following{SubscriberID: subscriberID, AuthorID: authorID}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflictf("Already following this author")
		}
		return nil, fmt.Errorf("create following: %w", err)
	}

	metrics.RecordToggle("subscription", "add")
	logging.Ctx(ctx).Info().Uint("subscriber_id", subscriberID).Uint("author_id", authorID).Msg("Author followed")
	return author, nil
}

// Unfollow removes the subscription. Removing an absent subscription is a no-op.
func (s *Service) Unfollow(ctx context.Context, subscriberID, authorID uint) error {
	if _, err := s.getUser(ctx, authorID); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Delete(&models.Following{})
	if result.Error != nil {
		return fmt.Errorf("delete following: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.RecordToggle("subscription", "remove")
	}
	return nil
}

// Subscriptions returns one page of authors followed by userID, each with
// up to recipesLimit of their newest recipes (all when recipesLimit <= 0).
func (s *Service) Subscriptions(ctx context.Context, userID uint, p pagination.Params, recipesLimit int) ([]SubscriptionResponse, int64, error) {
	db := s.db.WithContext(ctx)
	followed := db.Model(&models.Following{}).Select("author_id").Where("subscriber_id = ?", userID)

	var count int64
	if err := db.Model(&models.User{}).Where("id IN (?)", followed).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	if err := db.Where("id IN (?)", followed).Order("username").Scopes(p.Scope).Find(&authors).Error; err != nil {
		return nil, 0, err
	}

	out, err := s.withRecipes(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

// Subscription builds the subscription view of a single author.
func (s *Service) Subscription(ctx context.Context, author models.User, recipesLimit int) (SubscriptionResponse, error) {
	out, err := s.withRecipes(ctx, []models.User{author}, recipesLimit)
	if err != nil {
		return SubscriptionResponse{}, err
	}
	return out[0], nil
}

func (s *Service) withRecipes(ctx context.Context, authors []models.User, recipesLimit int) ([]SubscriptionResponse, error) {
	if len(authors) == 0 {
		return []SubscriptionResponse{}, nil
	}
	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}

	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).
		Where("author_id IN ?", ids).
		Order("pub_date DESC, id DESC").
		Find(&recipes).Error; err != nil {
		return nil, err
	}

	byAuthor := make(map[uint][]models.Recipe, len(authors))
	for _, r := range recipes {
		byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], r)
	}

	out := make([]SubscriptionResponse, len(authors))
	for i, a := range authors {
		own := byAuthor[a.ID]
		shown := own
		if recipesLimit > 0 && len(shown) > recipesLimit {
			shown = shown[:recipesLimit]
		}
		short := make([]ShortRecipeResponse, len(shown))
		for j, r := range shown {
			short[j] = NewShortRecipeResponse(r)
		}
		out[i] = SubscriptionResponse{
			UserResponse: NewUserResponse(a, true),
			Recipes:      short,
			RecipesCount: int64(len(own)),
		}
	}
	return out, nil
}

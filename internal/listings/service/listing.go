package service

import (
	"context"
	"errors"
	"fmt"

	listingserrors "staybook/internal/listings/errors"
	"staybook/internal/listings/repository"
	reservationserrors "staybook/internal/reservations/errors"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

type ListingService interface {
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	Search(ctx context.Context, criteria model.ListingCriteria) ([]*model.Listing, error)
	// Lookup resolves the listing a reservation targets. Unknown or malformed
	// ids are reported as reservationserrors.ErrResourceNotFound.
	Lookup(ctx context.Context, resourceID string) (*model.Listing, error)
}

type listingService struct {
	repo repository.ListingRepository
	log  *logger.Logger
}

func NewListingService(repo repository.ListingRepository, log *logger.Logger) ListingService {
	return &listingService{
		repo: repo,
		log:  log,
	}
}

func (s *listingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	id = sanitizer.NormalizeIdentifier(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Listing", id)
		}
		if errors.Is(err, listingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid listing ID format")
		}
		s.log.FromContext(ctx).Error("Failed to get listing by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve listing", err)
	}
	return listing, nil
}

func (s *listingService) Search(ctx context.Context, criteria model.ListingCriteria) ([]*model.Listing, error) {
	if err := validateCriteria(criteria); err != nil {
		return nil, err
	}

	listings, err := s.repo.Search(ctx, criteria)
	if err != nil {
		s.log.FromContext(ctx).Error("Failed to search listings", "error", err)
		return nil, apperrors.Internal("Failed to search listings", err)
	}
	return listings, nil
}

func (s *listingService) Lookup(ctx context.Context, resourceID string) (*model.Listing, error) {
	listing, err := s.repo.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) || errors.Is(err, listingserrors.ErrInvalidID) {
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrResourceNotFound, resourceID)
		}
		return nil, err
	}
	return listing, nil
}

func validateCriteria(c model.ListingCriteria) error {
	var problems []string
	if c.MinPrice != nil && *c.MinPrice < 0 {
		problems = append(problems, "min_price must not be negative")
	}
	if c.MaxPrice != nil && *c.MaxPrice < 0 {
		problems = append(problems, "max_price must not be negative")
	}
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		problems = append(problems, "min_price must not exceed max_price")
	}
	if c.MinBedrooms != nil && *c.MinBedrooms < 0 {
		problems = append(problems, "bedrooms must not be negative")
	}
	if len(problems) > 0 {
		return apperrors.Validation("Invalid listing search criteria", map[string]any{
			"errors": problems,
		})
	}
	return nil
}

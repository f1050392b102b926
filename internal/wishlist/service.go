package wishlist

import (
	"context"
	"strings"

	"github.com/jirivrbic-boss/extroworld/internal/catalog"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

type productLookup interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
	Catalog      productLookup
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlistIDs(ctx context.Context, userID string) (WishlistIDsDTO, error)
	Contains(ctx context.Context, userID, productID string) (WishlistStatusDTO, error)
	AddItem(ctx context.Context, userID, productID string) error
	RemoveItem(ctx context.Context, userID, productID string) error
}

type service struct {
	wishlistRepo *Repository
	catalog      productLookup
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog is required")
	}
	return &service{
		wishlistRepo: params.WishlistRepo,
		catalog:      params.Catalog,
	}, nil
}

// GetWishlistIDs returns all liked product IDs for the user.
func (s *service) GetWishlistIDs(ctx context.Context, userID string) (WishlistIDsDTO, error) {
	if err := requireUser(userID); err != nil {
		return WishlistIDsDTO{}, err
	}
	ids, err := s.wishlistRepo.ListProductIDs(ctx, userID)
	if err != nil {
		return WishlistIDsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return WishlistIDsDTO{ProductIDs: ids}, nil
}

// Contains reports whether the product is on the user's wishlist.
func (s *service) Contains(ctx context.Context, userID, productID string) (WishlistStatusDTO, error) {
	productID = strings.TrimSpace(productID)
	if err := requireUser(userID); err != nil {
		return WishlistStatusDTO{}, err
	}
	if productID == "" {
		return WishlistStatusDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	liked, err := s.wishlistRepo.Exists(ctx, userID, productID)
	if err != nil {
		return WishlistStatusDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist item")
	}
	return WishlistStatusDTO{ProductID: productID, Liked: liked}, nil
}

// AddItem ensures the product exists and adds it to the wishlist.
func (s *service) AddItem(ctx context.Context, userID, productID string) error {
	productID = strings.TrimSpace(productID)
	if err := requireUser(userID); err != nil {
		return err
	}
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.wishlistRepo.AddItem(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return nil
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, productID string) error {
	productID = strings.TrimSpace(productID)
	if err := requireUser(userID); err != nil {
		return err
	}
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.wishlistRepo.RemoveItem(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	return nil
}

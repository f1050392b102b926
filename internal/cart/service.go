package cart

import (
	"context"
	"strings"

	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

// Service owns the per-user cart document.
type Service interface {
	Get(ctx context.Context, userID string) (State, error)
	Apply(ctx context.Context, userID string, action Action) (State, error)
	Clear(ctx context.Context, userID string) error
}

type service struct {
	store Store
	logg  *logger.Logger
}

// NewService builds a cart service on the injected store.
func NewService(store Store, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart store is required")
	}
	return &service{store: store, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, userID string) (State, error) {
	if strings.TrimSpace(userID) == "" {
		return State{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return state, nil
}

// Apply runs the action through the reducer and persists the result.
func (s *service) Apply(ctx context.Context, userID string, action Action) (State, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return State{}, err
	}
	next, err := Reduce(current, action)
	if err != nil {
		return State{}, err
	}
	if err := s.store.Save(ctx, userID, next); err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return next, nil
}

// Clear empties items and discount, keeping the shipping choice.
func (s *service) Clear(ctx context.Context, userID string) error {
	if _, err := s.Apply(ctx, userID, Clear{}); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "user_id", userID), "cart clear failed")
		}
		return err
	}
	return nil
}

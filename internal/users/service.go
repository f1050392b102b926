package users

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/db"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox/payloads"
	"github.com/jirivrbic-boss/extroworld/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams groups dependencies for the user service.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Outbox outboxEmitter
}

// Service manages storefront user records and their loyalty balance.
type Service interface {
	Ensure(ctx context.Context, userID, email string) (UserDTO, error)
	Get(ctx context.Context, userID string) (UserDTO, error)
	AdjustPoints(ctx context.Context, userID string, delta int64) (UserDTO, error)
	List(ctx context.Context, limit, offset int) (UserListDTO, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxEmitter
}

// NewService wires the user service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox is required")
	}
	return &service{repo: params.Repo, tx: params.Tx, outbox: params.Outbox}, nil
}

// Ensure creates the user record on first authenticated use.
func (s *service) Ensure(ctx context.Context, userID, email string) (UserDTO, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	user, err := s.repo.Ensure(ctx, userID, email)
	if err != nil {
		return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure user")
	}
	return FromModel(*user), nil
}

func (s *service) Get(ctx context.Context, userID string) (UserDTO, error) {
	user, err := s.repo.FindByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		if db.IsNotFound(err) {
			return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(*user), nil
}

// AdjustPoints is the back-office correction. The balance never drops below zero.
func (s *service) AdjustPoints(ctx context.Context, userID string, delta int64) (UserDTO, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if delta == 0 {
		return UserDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}

	var out UserDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		balance, err := repo.AddPoints(ctx, userID, delta)
		if err != nil {
			return err
		}
		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		out = FromModel(*user)
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLoyaltyPointsMoved,
			AggregateType: enums.AggregateUser,
			AggregateID:   userID,
			Actor:         outbox.Admin(),
			Data: payloads.LoyaltyPointsAdjustedEvent{
				UserID: userID,
				Delta:  delta,
				Points: balance,
			},
		})
	})
	if err != nil {
		if db.IsNotFound(err) {
			return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust points")
	}
	return out, nil
}

func (s *service) List(ctx context.Context, limit, offset int) (UserListDTO, error) {
	limit = pagination.NormalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return UserListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return UserListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	items := make([]UserDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromModel(row))
	}
	return UserListDTO{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

package loyalty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/db"
	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox/payloads"
	"github.com/jirivrbic-boss/extroworld/pkg/security"
)

const (
	codeSuffixLength = 6
	maxCodeAttempts  = 5
	// ThresholdPercent is the discount of codes earned by spend.
	ThresholdPercent = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type codeIssuedRecorder interface {
	IncCodeIssued(origin string, n int)
}

// ServiceParams groups dependencies for the loyalty service.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Outbox     outboxEmitter
	CodePrefix string
	Metrics    codeIssuedRecorder
	Logger     *logger.Logger
	Now        func() time.Time
}

// Service manages loyalty code issuance and administration.
type Service interface {
	GenerateBulk(ctx context.Context, input GenerateInput) ([]CodeDTO, error)
	SetUsed(ctx context.Context, id uuid.UUID, used bool) (CodeDTO, error)
	ListForUser(ctx context.Context, ownerUserID string, onlyUnused bool) ([]CodeDTO, error)
	List(ctx context.Context, filter ListFilter) ([]CodeDTO, error)
	IssueThresholdCode(ctx context.Context, tx *gorm.DB, ownerUserID string, intentID uuid.UUID, points int64) (*models.LoyaltyCode, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxEmitter
	prefix  string
	metrics codeIssuedRecorder
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the loyalty service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loyalty repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox is required")
	}
	prefix := strings.ToUpper(strings.TrimSpace(params.CodePrefix))
	if prefix == "" {
		prefix = "EXTRO"
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		prefix:  prefix,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// GenerateBulk issues count codes of the given percent to one user.
func (s *service) GenerateBulk(ctx context.Context, input GenerateInput) ([]CodeDTO, error) {
	owner := strings.TrimSpace(input.OwnerUserID)
	if owner == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Count < 1 || input.Count > 50 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "count must be between 1 and 50")
	}
	if input.Percent < 1 || input.Percent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 1 and 100")
	}

	created := make([]models.LoyaltyCode, 0, input.Count)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for i := 0; i < input.Count; i++ {
			code, err := s.insertCode(ctx, tx, owner, input.Percent, nil)
			if err != nil {
				return err
			}
			if err := s.emitIssued(ctx, tx, code, 0, outbox.ActorAdmin); err != nil {
				return err
			}
			created = append(created, *code)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate loyalty codes")
	}
	if s.metrics != nil {
		s.metrics.IncCodeIssued("admin", len(created))
	}
	return fromModels(created), nil
}

// SetUsed is the back-office toggle.
func (s *service) SetUsed(ctx context.Context, id uuid.UUID, used bool) (CodeDTO, error) {
	if id == uuid.Nil {
		return CodeDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "code id is required")
	}
	if err := s.repo.SetUsed(ctx, id, used, s.now().UTC()); err != nil {
		if db.IsNotFound(err) {
			return CodeDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "loyalty code not found")
		}
		return CodeDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update loyalty code")
	}
	code, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return CodeDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty code")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"code_id": id.String(), "used": used}), "loyalty code toggled")
	}
	return FromModel(*code), nil
}

func (s *service) ListForUser(ctx context.Context, ownerUserID string, onlyUnused bool) ([]CodeDTO, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	filter := ListFilter{OwnerUserID: ownerUserID}
	if onlyUnused {
		unused := false
		filter.Used = &unused
	}
	return s.List(ctx, filter)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]CodeDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list loyalty codes")
	}
	return fromModels(rows), nil
}

// IssueThresholdCode issues the spend-earned code inside the caller's
// transaction. It is keyed by intent, so replays return the code issued the
// first time. Returns nil when the user already holds an unused code.
func (s *service) IssueThresholdCode(ctx context.Context, tx *gorm.DB, ownerUserID string, intentID uuid.UUID, points int64) (*models.LoyaltyCode, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := s.repo.WithTx(tx)

	existing, err := repo.FindByIssuingIntent(ctx, intentID)
	if err == nil {
		return existing, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	outstanding, err := repo.HasUnused(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if outstanding {
		return nil, nil
	}

	code, err := s.insertCode(ctx, tx, ownerUserID, ThresholdPercent, &intentID)
	if err != nil {
		return nil, err
	}
	if err := s.emitIssued(ctx, tx, code, points, outbox.ActorSystem); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncCodeIssued("threshold", 1)
	}
	return code, nil
}

func (s *service) insertCode(ctx context.Context, tx *gorm.DB, owner string, percent int, intentID *uuid.UUID) (*models.LoyaltyCode, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		value, err := s.newCode(percent)
		if err != nil {
			return nil, err
		}
		var taken int64
		if err := tx.WithContext(ctx).Model(&models.LoyaltyCode{}).Where("code = ?", value).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			continue
		}
		code := &models.LoyaltyCode{
			OwnerUserID:     owner,
			Code:            value,
			DiscountPercent: percent,
			IssuedByIntent:  intentID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, code); err != nil {
			return nil, err
		}
		return code, nil
	}
	return nil, fmt.Errorf("could not allocate a unique loyalty code after %d attempts", maxCodeAttempts)
}

func (s *service) newCode(percent int) (string, error) {
	suffix, err := security.RandomString(security.CodeCharset, codeSuffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d-%s", s.prefix, percent, suffix), nil
}

func (s *service) emitIssued(ctx context.Context, tx *gorm.DB, code *models.LoyaltyCode, points int64, role string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventLoyaltyCodeIssued,
		AggregateType: enums.AggregateLoyaltyCode,
		AggregateID:   code.ID.String(),
		Actor:         outbox.ActorFor(role, ""),
		Data: payloads.LoyaltyCodeIssuedEvent{
			CodeID:          code.ID,
			OwnerUserID:     code.OwnerUserID,
			DiscountPercent: code.DiscountPercent,
			IntentID:        code.IssuedByIntent,
			Points:          points,
		},
	})
}

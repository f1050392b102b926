package newsletter

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
	defaultSource    = "web"
)

// Service records signups and lists them for the back office.
type Service interface {
	Subscribe(ctx context.Context, input SubscribeInput) (SubscriptionDTO, error)
	List(ctx context.Context, limit, offset int) (ListDTO, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
	logg     *logger.Logger
}

// NewService builds the newsletter service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "newsletter repo is required")
	}
	return &service{repo: repo, validate: validator.New(), logg: logg}, nil
}

// Subscribe validates and stores a signup. Both consents and at least one
// segment are mandatory; repeated signups are kept as separate rows.
func (s *service) Subscribe(ctx context.Context, input SubscribeInput) (SubscriptionDTO, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	input.Source = strings.TrimSpace(input.Source)

	fields := map[string]string{}
	if err := s.validate.Var(input.Email, "required,email,max=254"); err != nil {
		fields["email"] = "a valid email is required"
	}
	if !input.ConsentMarketing || !input.ConsentProfiling {
		fields["consent"] = "both consents are required"
	}
	segments, err := normalizeSegments(input.Segments)
	if err != nil {
		fields["segments"] = err.Error()
	}
	if len(fields) > 0 {
		return SubscriptionDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid newsletter signup").WithDetails(fields)
	}

	source := input.Source
	if source == "" {
		source = defaultSource
	}
	sub := &models.NewsletterSubscription{
		Email:            input.Email,
		Name:             input.Name,
		Source:           source,
		Segments:         segments,
		ConsentMarketing: true,
		ConsentProfiling: true,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return SubscriptionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store newsletter signup")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"subscription_id": sub.ID.String(),
			"source":          source,
			"segments":        segments,
		}), "newsletter signup stored")
	}
	return fromModel(*sub), nil
}

// List returns signups newest first.
func (s *service) List(ctx context.Context, limit, offset int) (ListDTO, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return ListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list newsletter signups")
	}
	items := make([]SubscriptionDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromModel(row))
	}
	return ListDTO{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func normalizeSegments(raw []string) ([]string, error) {
	seen := make(map[enums.NewsletterSegment]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, value := range raw {
		segment, err := enums.ParseNewsletterSegment(strings.ToLower(strings.TrimSpace(value)))
		if err != nil {
			return nil, err
		}
		if seen[segment] {
			continue
		}
		seen[segment] = true
		out = append(out, string(segment))
	}
	if len(out) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pick at least one segment")
	}
	return out, nil
}

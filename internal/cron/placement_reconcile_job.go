package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jirivrbic-boss/extroworld/internal/orders"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

const defaultReconcileAfter = 5 * time.Minute

// PlacementReconcileJobParams configure the placement reconciliation job.
type PlacementReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler placementReconciler
	OlderThan  time.Duration
}

type placementReconciler interface {
	Reconcile(ctx context.Context, olderThan time.Duration) (orders.ReconcileResult, error)
}

// NewPlacementReconcileJob builds the job that finishes order placements left
// in progress by a crashed or interrupted request.
func NewPlacementReconcileJob(params PlacementReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("placement reconciler required")
	}
	olderThan := params.OlderThan
	if olderThan <= 0 {
		olderThan = defaultReconcileAfter
	}
	return &placementReconcileJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
		olderThan:  olderThan,
	}, nil
}

type placementReconcileJob struct {
	logg       *logger.Logger
	reconciler placementReconciler
	olderThan  time.Duration
}

func (j *placementReconcileJob) Name() string { return "placement-reconcile" }

func (j *placementReconcileJob) Run(ctx context.Context) error {
	result, err := j.reconciler.Reconcile(ctx, j.olderThan)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"older_than": j.olderThan.String(),
		"scanned":    result.Scanned,
		"completed":  result.Completed,
		"abandoned":  result.Abandoned,
		"failed":     result.Failed,
	})
	if err != nil {
		return fmt.Errorf("placement reconcile: %w", err)
	}
	j.logg.Info(logCtx, "placement reconciliation complete")
	return nil
}

package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/db/dbtest"
	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox"
)

func TestOutboxRetentionJobPrunesDeliveredRows(t *testing.T) {
	client := dbtest.Client(t)
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	seed := func(published, terminal *time.Time, attempts int) {
		t.Helper()
		row := models.OutboxEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   "order-1",
			Payload:       json.RawMessage(`{}`),
			PublishedAt:   published,
			TerminalAt:    terminal,
			AttemptCount:  attempts,
		}
		if err := client.DB().Create(&row).Error; err != nil {
			t.Fatalf("seed outbox row: %v", err)
		}
	}
	seed(&old, nil, 1)    // delivered long ago
	seed(&recent, nil, 1) // delivered recently
	seed(nil, &old, 10)   // dead after all attempts
	seed(nil, nil, 0)     // still pending

	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		DB:          client,
		Repository:  outbox.NewRepository(client.DB()),
		MaxAttempts: 10,
		Now:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var remaining int64
	if err := client.DB().Model(&models.OutboxEvent{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected 2 rows kept, got %d", remaining)
	}
}

type failingPruner struct{}

func (failingPruner) DeletePublishedBefore(context.Context, *gorm.DB, time.Time, int) (int64, error) {
	return 0, errors.New("boom")
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         passthroughTx{},
		Repository: failingPruner{},
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

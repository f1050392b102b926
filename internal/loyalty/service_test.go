package loyalty

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/db"
	"github.com/jirivrbic-boss/extroworld/pkg/db/dbtest"
	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox"
)

var codePattern = regexp.MustCompile(`^EXTRO(\d{1,3})-[A-Z0-9]{6}$`)

type fixture struct {
	svc    Service
	repo   Repository
	client *db.Client
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Client(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Tx:     client,
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), nil),
		Now:    func() time.Time { return time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, client: client}
}

func (f fixture) events(t *testing.T, eventType enums.OutboxEventType) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.client.DB().Where("event_type = ?", eventType).Find(&rows).Error)
	return rows
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGenerateBulkIssuesFormattedCodes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	codes, err := f.svc.GenerateBulk(ctx, GenerateInput{OwnerUserID: "uid-1", Count: 3, Percent: 25})
	require.NoError(t, err)
	require.Len(t, codes, 3)

	seen := map[string]bool{}
	for _, c := range codes {
		m := codePattern.FindStringSubmatch(c.Code)
		require.NotNil(t, m, "code %q", c.Code)
		assert.Equal(t, "25", m[1])
		assert.Equal(t, 25, c.DiscountPercent)
		assert.False(t, c.Used)
		assert.False(t, seen[c.Code])
		seen[c.Code] = true
	}
	assert.Len(t, f.events(t, enums.EventLoyaltyCodeIssued), 3)
}

func TestGenerateBulkValidatesBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []GenerateInput{
		{OwnerUserID: "", Count: 1, Percent: 10},
		{OwnerUserID: "uid", Count: 0, Percent: 10},
		{OwnerUserID: "uid", Count: 51, Percent: 10},
		{OwnerUserID: "uid", Count: 1, Percent: 0},
		{OwnerUserID: "uid", Count: 1, Percent: 101},
	}
	for _, in := range cases {
		_, err := f.svc.GenerateBulk(ctx, in)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "%+v: %v", in, err)
	}
}

func TestRedeemIsSingleUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	codes, err := f.svc.GenerateBulk(ctx, GenerateInput{OwnerUserID: "uid-1", Count: 1, Percent: 100})
	require.NoError(t, err)
	id := codes[0].ID
	at := time.Now().UTC()

	ok, err := f.repo.Redeem(ctx, id, "uid-2", uuid.New(), at)
	require.NoError(t, err)
	assert.False(t, ok, "foreign owner must not redeem")

	ok, err = f.repo.Redeem(ctx, id, "uid-1", uuid.New(), at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.repo.Redeem(ctx, id, "uid-1", uuid.New(), at)
	require.NoError(t, err)
	assert.False(t, ok, "second redemption must lose")

	_, err = f.repo.FindUnusedByCode(ctx, "uid-1", codes[0].Code)
	assert.True(t, db.IsNotFound(err))
}

func TestSetUsedTogglesAndReportsMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	codes, err := f.svc.GenerateBulk(ctx, GenerateInput{OwnerUserID: "uid-1", Count: 1, Percent: 50})
	require.NoError(t, err)

	used, err := f.svc.SetUsed(ctx, codes[0].ID, true)
	require.NoError(t, err)
	assert.True(t, used.Used)
	require.NotNil(t, used.UsedAt)

	back, err := f.svc.SetUsed(ctx, codes[0].ID, false)
	require.NoError(t, err)
	assert.False(t, back.Used)
	assert.Nil(t, back.UsedAt)

	_, err = f.svc.SetUsed(ctx, uuid.New(), true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListForUserFiltersUnused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	codes, err := f.svc.GenerateBulk(ctx, GenerateInput{OwnerUserID: "uid-1", Count: 2, Percent: 10})
	require.NoError(t, err)
	_, err = f.svc.GenerateBulk(ctx, GenerateInput{OwnerUserID: "uid-2", Count: 1, Percent: 10})
	require.NoError(t, err)
	_, err = f.svc.SetUsed(ctx, codes[0].ID, true)
	require.NoError(t, err)

	all, err := f.svc.ListForUser(ctx, "uid-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unused, err := f.svc.ListForUser(ctx, "uid-1", true)
	require.NoError(t, err)
	require.Len(t, unused, 1)
	assert.Equal(t, codes[1].ID, unused[0].ID)

	_, err = f.svc.ListForUser(ctx, "", false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestIssueThresholdCodeIsKeyedByIntent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	intentID := uuid.New()

	var first, replay *models.LoyaltyCode
	require.NoError(t, f.client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		first, err = f.svc.IssueThresholdCode(ctx, tx, "uid-1", intentID, 5200)
		return err
	}))
	require.NotNil(t, first)
	m := codePattern.FindStringSubmatch(first.Code)
	require.NotNil(t, m)
	assert.Equal(t, "100", m[1])

	require.NoError(t, f.client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		replay, err = f.svc.IssueThresholdCode(ctx, tx, "uid-1", intentID, 5200)
		return err
	}))
	require.NotNil(t, replay)
	assert.Equal(t, first.ID, replay.ID)
	assert.Len(t, f.events(t, enums.EventLoyaltyCodeIssued), 1)
}

func TestIssueThresholdCodeSkipsWhenUnusedCodeHeld(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.GenerateBulk(ctx, GenerateInput{OwnerUserID: "uid-1", Count: 1, Percent: 20})
	require.NoError(t, err)

	var issued *models.LoyaltyCode
	require.NoError(t, f.client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		issued, err = f.svc.IssueThresholdCode(ctx, tx, "uid-1", uuid.New(), 6000)
		return err
	}))
	assert.Nil(t, issued)
}

package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens an isolated sqlite database migrated with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "billing.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// billingFixture wires the full billing service stack over one test database
type billingFixture struct {
	db         *gorm.DB
	billSvc    BillService
	tariffSvc  TariffService
	billRepo   repository.BillRepository
	meterRepo  repository.MeterRepository
	tariffRepo repository.TariffRepository
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	db := newTestDB(t)
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	tariffRepo := repository.NewTariffRepository(db)
	billRepo := repository.NewBillRepository(db)
	meterRepo := repository.NewMeterRepository(db)

	tariffSvc := NewTariffService(tariffRepo, auditRepo, txManager)
	billSvc := NewBillService(billRepo, meterRepo, tariffSvc, auditRepo, txManager, nil, decimal.RequireFromString("0.15"))

	return &billingFixture{
		db:         db,
		billSvc:    billSvc,
		tariffSvc:  tariffSvc,
		billRepo:   billRepo,
		meterRepo:  meterRepo,
		tariffRepo: tariffRepo,
	}
}

// seedTariff persists the three-band tariff effective 2024-01-01
func (f *billingFixture) seedTariff(t *testing.T) *model.Tariff {
	t.Helper()

	tariff := threeBandTariff()
	tariff.SanitationFee = decimal.Zero
	tariff.EffectiveDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Create(tariff).Error)
	return tariff
}

// seedMeter persists a sewerage-connected half-inch individual meter
func (f *billingFixture) seedMeter(t *testing.T, key string) *model.Meter {
	t.Helper()

	meter := &model.Meter{
		CustomerKeyNumber: key,
		Category:          model.CategoryIndividual,
		MeterSize:         "1/2",
		SewerageConnected: true,
		PreviousReading:   decimal.Zero,
		CurrentReading:    decimal.Zero,
	}
	require.NoError(t, f.db.Create(meter).Error)
	return meter
}

var (
	clerkCaps = model.NewCapabilitySet(
		model.CapBillCreate, model.CapBillViewDrafts, model.CapBillSubmit, model.CapBillRework,
	)
	approverCaps = model.NewCapabilitySet(model.CapBillApprove, model.CapBillPost)
	adminCaps    = model.NewCapabilitySet(model.CapBillManageAll)
)

func testCtx() context.Context {
	return context.Background()
}

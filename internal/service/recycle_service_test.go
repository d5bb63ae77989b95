package service

import (
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recycleFixture struct {
	db  *gorm.DB
	svc RecycleService
}

func newRecycleFixture(t *testing.T) *recycleFixture {
	t.Helper()

	db := newTestDB(t)
	txManager := repository.NewTransactionManager(db)
	svc := NewRecycleService(
		db,
		repository.NewRecycleBinRepository(db),
		repository.NewTariffRepository(db),
		repository.NewAuditRepository(db),
		txManager,
	)
	return &recycleFixture{db: db, svc: svc}
}

var binCaps = model.NewCapabilitySet(
	model.CapRecycleDelete, model.CapRecycleRestore, model.CapRecyclePurge,
)

func TestSoftDeleteAndRestore(t *testing.T) {
	f := newRecycleFixture(t)
	actor := uuid.New().String()

	branch := &model.Branch{Name: "Central", Address: "Main St"}
	require.NoError(t, f.db.Create(branch).Error)

	entry, err := f.svc.SoftDelete(testCtx(), model.EntityBranch, branch.ID.String(), actor, binCaps)
	require.NoError(t, err)

	assert.Equal(t, model.EntityBranch, entry.EntityType)
	assert.Equal(t, branch.ID, entry.EntityID)
	assert.Equal(t, "Central", entry.EntityName)
	assert.Contains(t, entry.OriginalData, `"Central"`)
	require.NotNil(t, entry.DeletedBy)
	assert.Equal(t, actor, entry.DeletedBy.String())

	// Soft-deleted rows vanish from scoped queries but survive unscoped
	err = f.db.First(&model.Branch{}, "id = ?", branch.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var shadow model.Branch
	require.NoError(t, f.db.Unscoped().First(&shadow, "id = ?", branch.ID).Error)
	assert.True(t, shadow.DeletedAt.Valid)
	require.NotNil(t, shadow.DeletedBy)

	// Restore clears the markers and empties the bin
	require.NoError(t, f.svc.Restore(testCtx(), entry.ID.String(), actor, binCaps))

	var restored model.Branch
	require.NoError(t, f.db.First(&restored, "id = ?", branch.ID).Error)
	assert.False(t, restored.DeletedAt.Valid)
	assert.Nil(t, restored.DeletedBy)

	entries, total, err := f.svc.List(testCtx(), "", 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
}

func TestPurgeRemovesTheRowForGood(t *testing.T) {
	f := newRecycleFixture(t)
	actor := uuid.New().String()

	route := &model.Route{Name: "Round 7"}
	require.NoError(t, f.db.Create(route).Error)

	entry, err := f.svc.SoftDelete(testCtx(), model.EntityRoute, route.ID.String(), actor, binCaps)
	require.NoError(t, err)

	require.NoError(t, f.svc.Purge(testCtx(), entry.ID.String(), actor, binCaps))

	err = f.db.Unscoped().First(&model.Route{}, "id = ?", route.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, _, listErr := f.svc.List(testCtx(), model.EntityRoute, 1, 20)
	require.NoError(t, listErr)
	err = f.db.First(&model.RecycleBinEntry{}, "id = ?", entry.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecycleBinGuards(t *testing.T) {
	f := newRecycleFixture(t)
	actor := uuid.New().String()
	noCaps := model.NewCapabilitySet()

	customer := &model.Customer{Name: "A. Bekele"}
	require.NoError(t, f.db.Create(customer).Error)

	t.Run("delete requires the delete capability", func(t *testing.T) {
		_, err := f.svc.SoftDelete(testCtx(), model.EntityCustomer, customer.ID.String(), actor, noCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrPermissionDenied))
	})

	t.Run("restore requires the restore capability", func(t *testing.T) {
		err := f.svc.Restore(testCtx(), uuid.New().String(), actor, noCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrPermissionDenied))
	})

	t.Run("purge requires the purge capability even with manage_all", func(t *testing.T) {
		err := f.svc.Purge(testCtx(), uuid.New().String(), actor, adminCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrPermissionDenied))
	})

	t.Run("unknown entity type", func(t *testing.T) {
		_, err := f.svc.SoftDelete(testCtx(), "invoice", customer.ID.String(), actor, binCaps)
		require.Error(t, err)
		assert.Equal(t, "UNKNOWN_ENTITY_TYPE", apperror.CodeOf(err))
	})

	t.Run("missing source entity", func(t *testing.T) {
		_, err := f.svc.SoftDelete(testCtx(), model.EntityCustomer, uuid.New().String(), actor, binCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrNotFound))
	})

	t.Run("missing bin entry", func(t *testing.T) {
		err := f.svc.Restore(testCtx(), uuid.New().String(), actor, binCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrNotFound))
	})
}

func TestRestoreDetectsMissingSourceRow(t *testing.T) {
	f := newRecycleFixture(t)
	actor := uuid.New().String()

	faultCode := &model.FaultCode{Code: "F01", Description: "stuck register"}
	require.NoError(t, f.db.Create(faultCode).Error)

	entry, err := f.svc.SoftDelete(testCtx(), model.EntityFaultCode, faultCode.ID.String(), actor, binCaps)
	require.NoError(t, err)

	// Hard-delete behind the manager's back
	require.NoError(t, f.db.Unscoped().Where("id = ?", faultCode.ID).Delete(&model.FaultCode{}).Error)

	err = f.svc.Restore(testCtx(), entry.ID.String(), actor, binCaps)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ErrConsistencyViolation))

	// The failed restore leaves the bin entry in place
	var kept model.RecycleBinEntry
	require.NoError(t, f.db.First(&kept, "id = ?", entry.ID).Error)
}

func TestSoftDeleteTariffInUse(t *testing.T) {
	f := newRecycleFixture(t)
	actor := uuid.New().String()

	tariff := threeBandTariff()
	tariff.EffectiveDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Create(tariff).Error)

	bill := &model.Bill{
		MeterID:         uuid.New(),
		TariffID:        tariff.ID,
		MonthYear:       "2024-03",
		PreviousReading: decimal.Zero,
		CurrentReading:  decimal.NewFromInt(10),
		Consumption:     decimal.NewFromInt(10),
		ThisMonthAmount: decimal.NewFromInt(100),
		TotalPayable:    decimal.NewFromInt(100),
		AmountPaid:      decimal.Zero,
		Status:          model.BillDraft,
	}
	require.NoError(t, f.db.Create(bill).Error)

	_, err := f.svc.SoftDelete(testCtx(), model.EntityTariff, tariff.ID.String(), actor, binCaps)
	require.Error(t, err)
	assert.Equal(t, "TARIFF_IN_USE", apperror.CodeOf(err))

	// The tariff stays visible
	require.NoError(t, f.db.First(&model.Tariff{}, "id = ?", tariff.ID).Error)
}

func TestRecycleBinListFilters(t *testing.T) {
	f := newRecycleFixture(t)
	actor := uuid.New().String()

	branch := &model.Branch{Name: "North"}
	route := &model.Route{Name: "Round 1"}
	require.NoError(t, f.db.Create(branch).Error)
	require.NoError(t, f.db.Create(route).Error)

	_, err := f.svc.SoftDelete(testCtx(), model.EntityBranch, branch.ID.String(), actor, binCaps)
	require.NoError(t, err)
	_, err = f.svc.SoftDelete(testCtx(), model.EntityRoute, route.ID.String(), actor, binCaps)
	require.NoError(t, err)

	all, total, err := f.svc.List(testCtx(), "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	routesOnly, total, err := f.svc.List(testCtx(), model.EntityRoute, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, routesOnly, 1)
	assert.Equal(t, "Round 1", routesOnly[0].EntityName)
}

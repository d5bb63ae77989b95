package service

import (
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMeterService(t *testing.T) (MeterService, *billingFixture) {
	t.Helper()

	f := newBillingFixture(t)
	svc := NewMeterService(f.meterRepo, repository.NewAuditRepository(f.db))
	return svc, f
}

func TestRegisterMeter(t *testing.T) {
	svc, _ := newMeterService(t)
	actor := uuid.New().String()

	meter, err := svc.RegisterMeter(testCtx(), RegisterMeterRequest{
		CustomerKeyNumber: "10001",
		Category:          model.CategoryIndividual,
		MeterSize:         "1/2",
		SewerageConnected: true,
		InitialReading:    "120.5",
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, "10001", meter.CustomerKeyNumber)
	assert.True(t, meter.SewerageConnected)
	// Both readings start at the installation reading
	assertDecimal(t, "120.5", meter.PreviousReading)
	assertDecimal(t, "120.5", meter.CurrentReading)

	found, err := svc.GetMeterByKey(testCtx(), "10001")
	require.NoError(t, err)
	assert.Equal(t, meter.ID, found.ID)
}

func TestRegisterMeterRejectsBadReadings(t *testing.T) {
	svc, _ := newMeterService(t)
	actor := uuid.New().String()

	for name, reading := range map[string]string{
		"negative":      "-3",
		"unparseable":   "12a.5",
		"empty decimal": "..",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.RegisterMeter(testCtx(), RegisterMeterRequest{
				CustomerKeyNumber: "20001",
				Category:          model.CategoryBulk,
				MeterSize:         "2",
				InitialReading:    reading,
			}, actor)
			require.Error(t, err)
			assert.Equal(t, apperror.ErrInvalidReading.Code, apperror.CodeOf(err))
		})
	}
}

func TestUpdateMeter(t *testing.T) {
	svc, _ := newMeterService(t)
	actor := uuid.New().String()

	meter, err := svc.RegisterMeter(testCtx(), RegisterMeterRequest{
		CustomerKeyNumber: "10001",
		Category:          model.CategoryIndividual,
		MeterSize:         "1/2",
	}, actor)
	require.NoError(t, err)

	connected := true
	updated, err := svc.UpdateMeter(testCtx(), meter.ID.String(), UpdateMeterRequest{
		MeterSize:         "3/4",
		SewerageConnected: &connected,
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, "3/4", updated.MeterSize)
	assert.True(t, updated.SewerageConnected)
	// Readings are untouched by registry edits
	assertDecimal(t, "0", updated.PreviousReading)

	_, err = svc.UpdateMeter(testCtx(), uuid.New().String(), UpdateMeterRequest{MeterSize: "1"}, actor)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recycleTarget describes one deletable entity type: how to allocate its
// record and how to derive a display name for the bin listing
type recycleTarget struct {
	newRecord   func() interface{}
	displayName func(record interface{}) string
}

// recycleRegistry is the extensible set of entity types the recycle bin
// manages. Every destructive operation on these goes through SoftDelete;
// nothing else writes deleted_at.
var recycleRegistry = map[string]recycleTarget{
	model.EntityStaff: {
		newRecord:   func() interface{} { return &model.User{} },
		displayName: func(r interface{}) string { return r.(*model.User).Username },
	},
	model.EntityBranch: {
		newRecord:   func() interface{} { return &model.Branch{} },
		displayName: func(r interface{}) string { return r.(*model.Branch).Name },
	},
	model.EntityCustomer: {
		newRecord:   func() interface{} { return &model.Customer{} },
		displayName: func(r interface{}) string { return r.(*model.Customer).Name },
	},
	model.EntityMeter: {
		newRecord:   func() interface{} { return &model.Meter{} },
		displayName: func(r interface{}) string { return r.(*model.Meter).CustomerKeyNumber },
	},
	model.EntityBulkMeter: {
		newRecord:   func() interface{} { return &model.Meter{} },
		displayName: func(r interface{}) string { return r.(*model.Meter).CustomerKeyNumber },
	},
	model.EntityRoute: {
		newRecord:   func() interface{} { return &model.Route{} },
		displayName: func(r interface{}) string { return r.(*model.Route).Name },
	},
	model.EntityFaultCode: {
		newRecord:   func() interface{} { return &model.FaultCode{} },
		displayName: func(r interface{}) string { return r.(*model.FaultCode).Code },
	},
	model.EntityBill: {
		newRecord:   func() interface{} { return &model.Bill{} },
		displayName: func(r interface{}) string { b := r.(*model.Bill); return BillKey(b.ID.String()) + " " + b.MonthYear },
	},
	model.EntityTariff: {
		newRecord:   func() interface{} { return &model.Tariff{} },
		displayName: func(r interface{}) string { t := r.(*model.Tariff); return t.Category + " " + t.EffectiveDate.Format("2006-01-02") },
	},
}

// --- Interface ---

type RecycleService interface {
	SoftDelete(ctx context.Context, entityType, entityID, actorID string, caps model.CapabilitySet) (*model.RecycleBinEntry, error)
	Restore(ctx context.Context, entryID, actorID string, caps model.CapabilitySet) error
	Purge(ctx context.Context, entryID, actorID string, caps model.CapabilitySet) error
	List(ctx context.Context, entityType string, page, limit int) ([]model.RecycleBinEntry, int64, error)
}

type recycleService struct {
	db          *gorm.DB
	recycleRepo repository.RecycleBinRepository
	tariffRepo  repository.TariffRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewRecycleService(
	db *gorm.DB,
	recycleRepo repository.RecycleBinRepository,
	tariffRepo repository.TariffRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) RecycleService {
	return &recycleService{
		db:          db,
		recycleRepo: recycleRepo,
		tariffRepo:  tariffRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *recycleService) SoftDelete(ctx context.Context, entityType, entityID, actorID string, caps model.CapabilitySet) (*model.RecycleBinEntry, error) {
	if !caps.Has(model.CapRecycleDelete) && !caps.Has(model.CapBillManageAll) {
		return nil, fmt.Errorf("%w: %s required", apperror.ErrPermissionDenied, model.CapRecycleDelete)
	}

	target, ok := recycleRegistry[entityType]
	if !ok {
		return nil, apperror.Newf("UNKNOWN_ENTITY_TYPE", "entity type %q is not deletable", entityType)
	}
	id, err := uuid.Parse(entityID)
	if err != nil {
		return nil, fmt.Errorf("invalid entity id: %w", err)
	}

	var entry *model.RecycleBinEntry
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		record := target.newRecord()
		if findErr := db.First(record, "id = ?", id).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s %s", apperror.ErrNotFound, entityType, entityID)
			}
			return fmt.Errorf("failed to fetch %s: %w", entityType, findErr)
		}

		if entityType == model.EntityTariff {
			referencing, countErr := s.tariffRepo.CountBillsReferencing(txCtx, id)
			if countErr != nil {
				return fmt.Errorf("failed to check tariff references: %w", countErr)
			}
			if referencing > 0 {
				return apperror.Newf("TARIFF_IN_USE", "tariff is referenced by %d bills and cannot be deleted", referencing)
			}
		}

		snapshot, marshalErr := json.Marshal(record)
		if marshalErr != nil {
			return fmt.Errorf("failed to snapshot %s: %w", entityType, marshalErr)
		}

		if updateErr := db.Model(record).Where("id = ?", id).Update("deleted_by", parseActor(actorID)).Error; updateErr != nil {
			return fmt.Errorf("failed to mark deleter: %w", updateErr)
		}
		if deleteErr := db.Delete(record).Error; deleteErr != nil {
			return fmt.Errorf("failed to soft-delete %s: %w", entityType, deleteErr)
		}

		entry = &model.RecycleBinEntry{
			EntityType:   entityType,
			EntityID:     id,
			EntityName:   target.displayName(record),
			OriginalData: string(snapshot),
			DeletedBy:    parseActor(actorID),
			DeletedAt:    time.Now(),
		}
		if createErr := s.recycleRepo.Create(txCtx, entry); createErr != nil {
			return fmt.Errorf("failed to create recycle bin entry: %w", createErr)
		}

		s.writeAudit(txCtx, actorID, model.ActionSoftDelete, entityID, entry.EntityName,
			map[string]string{"entity_type": entityType})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *recycleService) Restore(ctx context.Context, entryID, actorID string, caps model.CapabilitySet) error {
	if !caps.Has(model.CapRecycleRestore) && !caps.Has(model.CapBillManageAll) {
		return fmt.Errorf("%w: %s required", apperror.ErrPermissionDenied, model.CapRecycleRestore)
	}

	id, err := uuid.Parse(entryID)
	if err != nil {
		return fmt.Errorf("invalid recycle bin entry id: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry, findErr := s.recycleRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: recycle bin entry %s", apperror.ErrNotFound, entryID)
			}
			return fmt.Errorf("failed to fetch recycle bin entry: %w", findErr)
		}

		target, ok := recycleRegistry[entry.EntityType]
		if !ok {
			return apperror.Newf("UNKNOWN_ENTITY_TYPE", "entity type %q is not restorable", entry.EntityType)
		}

		db := repository.GetDB(txCtx, s.db)
		record := target.newRecord()
		if findErr := db.Unscoped().First(record, "id = ?", entry.EntityID).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				// The snapshot exists but the row is gone: someone bypassed
				// the manager. Never partially restore.
				return fmt.Errorf("%w: source row for %s %s is missing",
					apperror.ErrConsistencyViolation, entry.EntityType, entry.EntityID)
			}
			return fmt.Errorf("failed to fetch source row: %w", findErr)
		}

		if updateErr := db.Unscoped().Model(record).Where("id = ?", entry.EntityID).
			Updates(map[string]interface{}{"deleted_at": nil, "deleted_by": nil}).Error; updateErr != nil {
			return fmt.Errorf("failed to clear delete markers: %w", updateErr)
		}

		if deleteErr := s.recycleRepo.Delete(txCtx, entry.ID); deleteErr != nil {
			return fmt.Errorf("failed to remove recycle bin entry: %w", deleteErr)
		}

		s.writeAudit(txCtx, actorID, model.ActionRestore, entry.EntityID.String(), entry.EntityName,
			map[string]string{"entity_type": entry.EntityType})
		return nil
	})
}

func (s *recycleService) Purge(ctx context.Context, entryID, actorID string, caps model.CapabilitySet) error {
	if !caps.Has(model.CapRecyclePurge) {
		return fmt.Errorf("%w: %s required", apperror.ErrPermissionDenied, model.CapRecyclePurge)
	}

	id, err := uuid.Parse(entryID)
	if err != nil {
		return fmt.Errorf("invalid recycle bin entry id: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry, findErr := s.recycleRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: recycle bin entry %s", apperror.ErrNotFound, entryID)
			}
			return fmt.Errorf("failed to fetch recycle bin entry: %w", findErr)
		}

		target, ok := recycleRegistry[entry.EntityType]
		if !ok {
			return apperror.Newf("UNKNOWN_ENTITY_TYPE", "entity type %q is not purgeable", entry.EntityType)
		}

		db := repository.GetDB(txCtx, s.db)
		record := target.newRecord()
		if deleteErr := db.Unscoped().Where("id = ?", entry.EntityID).Delete(record).Error; deleteErr != nil {
			return fmt.Errorf("failed to purge source row: %w", deleteErr)
		}

		if deleteErr := s.recycleRepo.Delete(txCtx, entry.ID); deleteErr != nil {
			return fmt.Errorf("failed to remove recycle bin entry: %w", deleteErr)
		}

		s.writeAudit(txCtx, actorID, model.ActionPurge, entry.EntityID.String(), entry.EntityName,
			map[string]string{"entity_type": entry.EntityType})
		return nil
	})
}

func (s *recycleService) List(ctx context.Context, entityType string, page, limit int) ([]model.RecycleBinEntry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.recycleRepo.List(ctx, entityType, page, limit)
}

func (s *recycleService) writeAudit(ctx context.Context, actorID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
		UserID:     parseActor(actorID),
	}

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.auditRepo.Log(ctx, &entry)
}

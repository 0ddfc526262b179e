// internal/services/deal_workflow.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/database"
	"github.com/tubetrade/dealdesk/internal/models"
)

// DealWorkflow is the single write path for deal state changes: lock the
// deal, run Transition, persist with a version check, append history, then
// notify after commit.
type DealWorkflow struct {
	db            *gorm.DB
	locker        DealLocker
	notifications *NotificationService
	lockWait      time.Duration
	now           func() time.Time
}

func NewDealWorkflow(db *gorm.DB, locker DealLocker, notifications *NotificationService, lockWait time.Duration) *DealWorkflow {
	if lockWait <= 0 {
		lockWait = 5 * time.Second
	}
	return &DealWorkflow{
		db:            db,
		locker:        locker,
		notifications: notifications,
		lockWait:      lockWait,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type transitionRequest struct {
	dealID  uint
	action  models.DealAction
	actorID uint

	// notFound and conflict replace ErrDealNotFound and
	// ErrConcurrentModification for callers with their own contract.
	notFound error
	conflict error

	// guard runs on the loaded deal before Transition.
	guard func(deal *models.Deal) error
	// extra returns additional columns to write with the transition.
	extra    func(deal *models.Deal) map[string]interface{}
	metadata datatypes.JSONMap
}

func (w *DealWorkflow) apply(ctx context.Context, req transitionRequest) (*models.Deal, error) {
	if req.notFound == nil {
		req.notFound = ErrDealNotFound
	}
	if req.conflict == nil {
		req.conflict = ErrConcurrentModification
	}

	lockCtx, cancel := context.WithTimeout(ctx, w.lockWait)
	unlock, err := w.locker.Lock(lockCtx, req.dealID)
	cancel()
	if err != nil {
		return nil, err
	}
	defer unlock()

	var deal models.Deal
	err = database.WithTransaction(w.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Preload("Buyer").Preload("Seller").First(&deal, req.dealID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return req.notFound
			}
			return fmt.Errorf("failed to load deal: %w", err)
		}

		if req.guard != nil {
			if err := req.guard(&deal); err != nil {
				return err
			}
		}

		stored := deal.WorkflowStage
		version := deal.Version

		// Flags edited outside the workflow win over a stale stage column.
		if !stored.IsTerminal() {
			if derived := models.DeriveStage(&deal); derived != stored {
				logrus.WithFields(logrus.Fields{
					"deal_id": deal.ID,
					"stored":  stored,
					"derived": derived,
				}).Warn("Deal stage out of sync with flags")
				deal.WorkflowStage = derived
			}
		}
		from := deal.WorkflowStage

		changes, err := Transition(&deal, req.action, w.now())
		if err != nil {
			return err
		}
		if req.extra != nil {
			for column, value := range req.extra(&deal) {
				changes[column] = value
			}
		}

		if err := updateDealVersioned(tx, deal.ID, version, stored, changes); err != nil {
			if errors.Is(err, ErrConcurrentModification) {
				return req.conflict
			}
			return err
		}

		history := &models.DealHistory{
			DealID:            deal.ID,
			ActionType:        req.action,
			ActionBy:          req.actorID,
			ActionDescription: dealActionDescription(req.action),
			FromStage:         from,
			ToStage:           deal.WorkflowStage,
			Metadata:          req.metadata,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record deal history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"deal_id":  deal.ID,
		"action":   req.action,
		"actor_id": req.actorID,
		"stage":    deal.WorkflowStage,
	}).Info("Deal transition applied")

	w.notifications.Notify(ctx, &deal, req.action, req.actorID)

	deal.FillUsernames()
	return &deal, nil
}

// updateDealVersioned writes changes only if the row still has the version
// and stage the caller read.
func updateDealVersioned(tx *gorm.DB, dealID uint, version int, stage models.WorkflowStage, changes map[string]interface{}) error {
	res := tx.Model(&models.Deal{}).
		Where("id = ? AND version = ? AND workflow_stage = ?", dealID, version, stage).
		Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("failed to update deal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	return nil
}

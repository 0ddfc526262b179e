// internal/services/notification_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tubetrade/dealdesk/internal/config"
	"github.com/tubetrade/dealdesk/internal/models"
)

// NotificationService owns the deal_notifications outbox. Rows are written
// after a transition commits and delivered at least once into the deal's chat
// thread, optionally with an e-mail to the buyer.
type NotificationService struct {
	db          *gorm.DB
	chats       *ChatService
	mailer      Mailer
	cfg         config.NotificationConfig
	frontendURL string
	now         func() time.Time
}

func NewNotificationService(db *gorm.DB, chats *ChatService, mailer Mailer, cfg *config.Config) *NotificationService {
	return &NotificationService{
		db:          db,
		chats:       chats,
		mailer:      mailer,
		cfg:         cfg.Notification,
		frontendURL: cfg.Frontend.BaseURL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue records the event for the deal. The second enqueue of the same
// (deal, event) pair returns the existing row and created=false.
func (s *NotificationService) Enqueue(ctx context.Context, deal *models.Deal, event models.DealAction, actorID uint) (*models.DealNotification, bool, error) {
	n := &models.DealNotification{
		DealID:         deal.ID,
		EventType:      event,
		IdempotencyKey: models.NotificationKey(deal.ID, event),
		Payload: datatypes.JSONMap{
			"transaction_id": deal.TransactionID,
			"stage":          string(deal.WorkflowStage),
			"actor_id":       actorID,
		},
		Status:        models.NotificationStatusPending,
		NextAttemptAt: s.now(),
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "idempotency_key"}}, DoNothing: true}).
		Create(n)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to enqueue notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing models.DealNotification
		if err := s.db.WithContext(ctx).Where("idempotency_key = ?", n.IdempotencyKey).First(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("failed to load existing notification: %w", err)
		}
		return &existing, false, nil
	}
	return n, true, nil
}

// Notify enqueues the event and attempts delivery right away. Failures are
// logged only; the dispatcher retries pending rows.
func (s *NotificationService) Notify(ctx context.Context, deal *models.Deal, event models.DealAction, actorID uint) {
	log := logrus.WithFields(logrus.Fields{"deal_id": deal.ID, "event": event})

	n, created, err := s.Enqueue(ctx, deal, event, actorID)
	if err != nil {
		log.WithError(err).Error("Failed to enqueue deal notification")
		return
	}
	if !created {
		log.Debug("Deal notification already enqueued")
		return
	}
	if err := s.Dispatch(ctx, n); err != nil {
		log.WithError(err).Warn("Deal notification not delivered, will retry")
	}
}

// Dispatch delivers one pending notification. It never re-runs the deal
// transition that produced it.
func (s *NotificationService) Dispatch(ctx context.Context, n *models.DealNotification) error {
	if n.Status != models.NotificationStatusPending {
		return nil
	}

	claimed, err := s.claim(ctx, n)
	if err != nil || !claimed {
		return err
	}

	if err := s.deliver(ctx, n); err != nil {
		s.recordFailure(ctx, n, err)
		return err
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(&models.DealNotification{}).Where("id = ?", n.ID).
		Updates(map[string]interface{}{
			"status":       models.NotificationStatusDelivered,
			"delivered_at": now,
			"last_error":   "",
			"updated_at":   now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification delivered: %w", err)
	}
	n.Status = models.NotificationStatusDelivered
	n.DeliveredAt = &now
	n.LastError = ""
	return nil
}

// claim counts the attempt and leases the row so that concurrent dispatchers
// skip it.
func (s *NotificationService) claim(ctx context.Context, n *models.DealNotification) (bool, error) {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.DealNotification{}).
		Where("id = ? AND status = ? AND attempts = ?", n.ID, models.NotificationStatusPending, n.Attempts).
		Updates(map[string]interface{}{
			"attempts":        n.Attempts + 1,
			"next_attempt_at": now.Add(s.cfg.BaseBackoff),
			"updated_at":      now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	n.Attempts++
	return true, nil
}

func (s *NotificationService) deliver(ctx context.Context, n *models.DealNotification) error {
	var deal models.Deal
	if err := s.db.WithContext(ctx).Preload("Buyer").First(&deal, n.DealID).Error; err != nil {
		return fmt.Errorf("failed to load deal: %w", err)
	}

	chat, err := s.chats.FindThread(ctx, deal.AdID, deal.BuyerID, deal.SellerID)
	if err != nil {
		return err
	}

	body := dealEventMessage(&deal, n.EventType)
	if err := s.chats.PostSystemMessage(ctx, chat.ID, body); err != nil {
		return err
	}

	if s.cfg.EmailBuyer && s.mailer != nil {
		s.emailBuyer(&deal, body)
	}
	return nil
}

func (s *NotificationService) emailBuyer(deal *models.Deal, message string) {
	status, progress := deal.WorkflowStatus()
	name := deal.BuyerName
	if name == "" && deal.Buyer != nil {
		name = deal.Buyer.DisplayName()
	}

	html, err := renderDealEmail(dealEmailData{
		TransactionID: deal.TransactionID,
		BuyerName:     name,
		Message:       message,
		ChannelTitle:  deal.ChannelTitle,
		Status:        status,
		Progress:      progress,
		DealURL:       fmt.Sprintf("%s/deals/%d", s.frontendURL, deal.ID),
	})
	if err != nil {
		logrus.WithError(err).WithField("deal_id", deal.ID).Error("Failed to render deal email")
		return
	}

	subject := fmt.Sprintf("Deal %s: %s", deal.TransactionID, status)
	if err := s.mailer.Send(deal.BuyerEmail, subject, html); err != nil {
		logrus.WithError(err).WithField("deal_id", deal.ID).Warn("Failed to e-mail buyer")
	}
}

func (s *NotificationService) recordFailure(ctx context.Context, n *models.DealNotification, cause error) {
	now := s.now()
	updates := map[string]interface{}{
		"last_error": cause.Error(),
		"updated_at": now,
	}

	if n.Attempts >= s.cfg.MaxAttempts {
		n.Status = models.NotificationStatusFailed
		updates["status"] = n.Status
	} else {
		n.NextAttemptAt = now.Add(s.backoff(n.Attempts))
		updates["next_attempt_at"] = n.NextAttemptAt
	}
	n.LastError = cause.Error()

	if err := s.db.WithContext(ctx).Model(&models.DealNotification{}).Where("id = ?", n.ID).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("notification_id", n.ID).Error("Failed to record notification failure")
	}
}

// backoff doubles from BaseBackoff per attempt, capped at MaxBackoff.
func (s *NotificationService) backoff(attempts int) time.Duration {
	d := s.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if s.cfg.MaxBackoff > 0 && d >= s.cfg.MaxBackoff {
			return s.cfg.MaxBackoff
		}
	}
	return d
}

// DispatchPending delivers due notifications and returns how many were
// delivered.
func (s *NotificationService) DispatchPending(ctx context.Context) (int, error) {
	return s.dispatch(ctx, true)
}

// RetryPending reopens failed notifications with a fresh attempt budget and
// delivers every pending one regardless of its backoff.
func (s *NotificationService) RetryPending(ctx context.Context) (int, error) {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.DealNotification{}).
		Where("status = ?", models.NotificationStatusFailed).
		Updates(map[string]interface{}{
			"status":          models.NotificationStatusPending,
			"attempts":        0,
			"next_attempt_at": now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reopen failed notifications: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		logrus.WithField("count", res.RowsAffected).Info("Reopened failed deal notifications")
	}
	return s.dispatch(ctx, false)
}

func (s *NotificationService) dispatch(ctx context.Context, dueOnly bool) (int, error) {
	query := s.db.WithContext(ctx).Where("status = ?", models.NotificationStatusPending)
	if dueOnly {
		query = query.Where("next_attempt_at <= ?", s.now())
	}

	var pending []models.DealNotification
	if err := query.Order("id ASC").Limit(s.cfg.BatchSize).Find(&pending).Error; err != nil {
		return 0, fmt.Errorf("failed to load pending notifications: %w", err)
	}

	delivered := 0
	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		n := &pending[i]
		if err := s.Dispatch(ctx, n); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"notification_id": n.ID,
				"deal_id":         n.DealID,
				"attempts":        n.Attempts,
			}).Warn("Deal notification delivery failed")
			continue
		}
		if n.Status == models.NotificationStatusDelivered {
			delivered++
		}
	}
	return delivered, nil
}

func (s *NotificationService) ListForDeal(dealID uint) ([]models.DealNotification, error) {
	var rows []models.DealNotification
	if err := s.db.Where("deal_id = ?", dealID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return rows, nil
}

// Dispatcher polls the outbox until its context is cancelled.
type Dispatcher struct {
	notifications *NotificationService
	interval      time.Duration
}

func NewDispatcher(notifications *NotificationService, interval time.Duration) *Dispatcher {
	return &Dispatcher{notifications: notifications, interval: interval}
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	logrus.WithField("interval", d.interval).Info("Notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Notification dispatcher stopped")
			return
		case <-ticker.C:
			delivered, err := d.notifications.DispatchPending(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("Notification dispatch run failed")
				continue
			}
			if delivered > 0 {
				logrus.WithField("delivered", delivered).Info("Delivered deal notifications")
			}
		}
	}
}

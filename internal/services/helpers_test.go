package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/config"
	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/testutil"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeFeeGateway struct {
	mu      sync.Mutex
	seq     int
	intents map[string]*FeeIntent
}

func newFakeFeeGateway() *fakeFeeGateway {
	return &fakeFeeGateway{intents: make(map[string]*FeeIntent)}
}

func (g *fakeFeeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*FeeIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	intent := &FeeIntent{
		ID:           fmt.Sprintf("pi_test_%d", g.seq),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", g.seq),
		Status:       "requires_payment_method",
		Amount:       amountCents,
		Currency:     currency,
	}
	g.intents[intent.ID] = intent
	copied := *intent
	return &copied, nil
}

func (g *fakeFeeGateway) GetIntent(ctx context.Context, id string) (*FeeIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	copied := *intent
	return &copied, nil
}

func (g *fakeFeeGateway) succeed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = "succeeded"
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1},
		Admin:       config.AdminConfig{Email: "ops@tubetrade.io"},
		Payment:     config.PaymentConfig{Currency: "usd"},
		Notification: config.NotificationConfig{
			PollInterval: 10 * time.Millisecond,
			BaseBackoff:  30 * time.Second,
			MaxBackoff:   time.Hour,
			MaxAttempts:  5,
			BatchSize:    50,
			EmailBuyer:   true,
		},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}
}

// testEnv wires the deal services against a fresh in-memory database.
type testEnv struct {
	db            *gorm.DB
	cfg           *config.Config
	mailer        *fakeMailer
	gateway       *fakeFeeGateway
	chats         *ChatService
	notifications *NotificationService
	workflow      *DealWorkflow
	deals         *DealService
	admin         *AdminDealService
	fees          *FeeService

	buyer     *models.User
	seller    *models.User
	adminUser *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	env := &testEnv{
		db:      db,
		cfg:     cfg,
		mailer:  &fakeMailer{},
		gateway: newFakeFeeGateway(),
	}
	env.chats = NewChatService(db)
	env.notifications = NewNotificationService(db, env.chats, env.mailer, cfg)
	env.workflow = NewDealWorkflow(db, NewLocalDealLocker(), env.notifications, time.Second)
	env.deals = NewDealService(db, env.workflow)
	env.admin = NewAdminDealService(db, env.workflow, env.notifications)
	env.fees = NewFeeService(db, env.workflow, env.gateway, cfg.Payment.Currency)

	env.buyer = testutil.CreateUser(t, db, "buyer")
	env.seller = testutil.CreateUser(t, db, "seller")
	env.adminUser = testutil.CreateAdmin(t, db, "admin")
	return env
}

func dealRequest(seller *models.User, ad *models.Ad, transactionID string, methods ...models.PaymentMethod) *CreateDealRequest {
	if len(methods) == 0 {
		methods = []models.PaymentMethod{{ID: "pm1", Name: "PayPal"}, {ID: "pm2", Name: "Bank Transfer"}}
	}
	price := decimal.NewFromInt(500)
	fee := decimal.RequireFromString("25.50")
	return &CreateDealRequest{
		SellerID:        seller.ID,
		AdID:            ad.ID,
		TransactionID:   transactionID,
		ChannelTitle:    ad.Title,
		ChannelPrice:    &price,
		EscrowFee:       &fee,
		BuyerEmail:      "buyer@example.com",
		PaymentMethods:  methods,
		TransactionType: models.TransactionTypeSafest,
	}
}

// openDeal creates a pending deal from the env's buyer on a fresh ad of the
// env's seller.
func (e *testEnv) openDeal(t *testing.T, platform models.Platform, transactionID string) (*models.Deal, *models.Ad) {
	t.Helper()

	ad := testutil.CreateAd(t, e.db, e.seller, platform)
	deal, err := e.deals.CreateDeal(testutil.Caller(e.buyer), dealRequest(e.seller, ad, transactionID))
	require.NoError(t, err)
	return deal, ad
}

func (e *testEnv) agree(t *testing.T, deal *models.Deal) *models.Deal {
	t.Helper()

	agreed, err := e.deals.AgreeToDeal(context.Background(), testutil.Caller(e.seller), &AgreeToDealRequest{
		DealID:              deal.ID,
		AgreedPaymentMethod: "pm1",
	})
	require.NoError(t, err)
	return agreed
}

func (e *testEnv) reload(t *testing.T, dealID uint) *models.Deal {
	t.Helper()

	var deal models.Deal
	require.NoError(t, e.db.First(&deal, dealID).Error)
	return &deal
}

func (e *testEnv) historyCount(t *testing.T, dealID uint, action models.DealAction) int64 {
	t.Helper()

	var count int64
	query := e.db.Model(&models.DealHistory{}).Where("deal_id = ?", dealID)
	if action != "" {
		query = query.Where("action_type = ?", action)
	}
	require.NoError(t, query.Count(&count).Error)
	return count
}

func (e *testEnv) systemMessages(t *testing.T, chatID uint) []models.Message {
	t.Helper()

	var messages []models.Message
	require.NoError(t, e.db.Where("chat_id = ? AND is_system = ?", chatID, true).Order("id ASC").Find(&messages).Error)
	return messages
}

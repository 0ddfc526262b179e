package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/testutil"
)

type DealServiceTestSuite struct {
	suite.Suite
	env *testEnv
	ad  *models.Ad
}

func (s *DealServiceTestSuite) SetupTest() {
	s.env = newTestEnv(s.T())
	s.ad = testutil.CreateAd(s.T(), s.env.db, s.env.seller, models.PlatformYouTube)
}

func (s *DealServiceTestSuite) dealCount() int64 {
	var count int64
	s.Require().NoError(s.env.db.Model(&models.Deal{}).Count(&count).Error)
	return count
}

func (s *DealServiceTestSuite) TestCreateDeal() {
	deal, err := s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), dealRequest(s.env.seller, s.ad, "TX-001"))
	s.Require().NoError(err)

	s.Equal(models.DealStatusPending, deal.Status)
	s.Equal(models.StagePendingAgreement, deal.WorkflowStage)
	s.Equal(models.PlatformYouTube, deal.PlatformType)
	s.Equal(1, deal.Version)
	s.Equal(s.env.buyer.ID, deal.BuyerID)
	s.Equal("buyer", deal.BuyerUsername)
	s.Equal("seller", deal.SellerUsername)
	s.Equal("buyer Tester", deal.BuyerName)
	s.Equal("25.5", deal.EscrowFee.String())
	s.Require().Len(deal.PaymentMethods, 2)
	s.Equal("PayPal", deal.PaymentMethods[0].Name)
}

func (s *DealServiceTestSuite) TestCreateDeal_UsesSuppliedBuyerName() {
	req := dealRequest(s.env.seller, s.ad, "TX-002")
	req.BuyerName = "  Jordan  "

	deal, err := s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), req)
	s.Require().NoError(err)
	s.Equal("Jordan", deal.BuyerName)
}

func (s *DealServiceTestSuite) TestCreateDeal_DuplicateTransactionID() {
	_, err := s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), dealRequest(s.env.seller, s.ad, "TX-001"))
	s.Require().NoError(err)

	_, err = s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), dealRequest(s.env.seller, s.ad, "TX-001"))
	s.ErrorIs(err, ErrDuplicateTransactionID)
	s.Equal(KindValidation, KindOf(err))
	s.Equal(int64(1), s.dealCount())
}

func (s *DealServiceTestSuite) TestCreateDeal_SelfDealRejected() {
	ownAd := testutil.CreateAd(s.T(), s.env.db, s.env.buyer, models.PlatformTikTok)

	_, err := s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), dealRequest(s.env.buyer, ownAd, "TX-SELF"))
	s.ErrorIs(err, ErrSelfDealNotAllowed)
	s.Equal(int64(0), s.dealCount())
}

func (s *DealServiceTestSuite) TestCreateDeal_AdOwnershipMismatch() {
	other := testutil.CreateUser(s.T(), s.env.db, "other")
	otherAd := testutil.CreateAd(s.T(), s.env.db, other, models.PlatformYouTube)

	_, err := s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), dealRequest(s.env.seller, otherAd, "TX-003"))
	s.ErrorIs(err, ErrAdOwnershipMismatch)

	req := dealRequest(s.env.seller, s.ad, "TX-004")
	req.AdID = 9999
	_, err = s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), req)
	s.ErrorIs(err, ErrAdOwnershipMismatch)
	s.Equal(int64(0), s.dealCount())
}

func (s *DealServiceTestSuite) TestCreateDeal_MissingFields() {
	tests := []struct {
		name   string
		mutate func(*CreateDealRequest)
		field  string
	}{
		{"seller", func(r *CreateDealRequest) { r.SellerID = 0 }, "sellerId"},
		{"transaction id", func(r *CreateDealRequest) { r.TransactionID = "   " }, "transactionId"},
		{"escrow fee", func(r *CreateDealRequest) { r.EscrowFee = nil }, "escrowFee"},
		{"payment methods", func(r *CreateDealRequest) { r.PaymentMethods = []models.PaymentMethod{} }, "paymentMethods"},
		{"payment method name", func(r *CreateDealRequest) { r.PaymentMethods[0].Name = "" }, "paymentMethods[0].name"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := dealRequest(s.env.seller, s.ad, "TX-MISSING")
			tt.mutate(req)

			_, err := s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), req)
			s.Require().ErrorIs(err, ErrMissingField)

			var se *ServiceError
			s.Require().True(errors.As(err, &se))
			s.Equal(tt.field, se.Field)
			s.Contains(se.Message, tt.field)
		})
	}
	s.Equal(int64(0), s.dealCount())
}

func (s *DealServiceTestSuite) TestCreateDeal_InvalidFields() {
	req := dealRequest(s.env.seller, s.ad, "TX-INVALID")
	req.TransactionType = "cheapest"
	_, err := s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), req)
	s.ErrorIs(err, ErrInvalidField)

	req = dealRequest(s.env.seller, s.ad, "TX-INVALID",
		models.PaymentMethod{ID: "a", Name: "Wise"},
		models.PaymentMethod{ID: "a", Name: "PayPal"},
	)
	_, err = s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), req)
	s.ErrorIs(err, ErrInvalidField)

	req = dealRequest(s.env.seller, s.ad, "TX-INVALID")
	req.BuyerEmail = "not-an-email"
	_, err = s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), req)
	s.ErrorIs(err, ErrInvalidField)
}

func (s *DealServiceTestSuite) TestCreateDeal_MissingFieldReportedBeforeInvalid() {
	price := decimal.RequireFromString("-5")
	req := dealRequest(s.env.seller, s.ad, "TX-ORDER")
	req.ChannelPrice = &price
	req.BuyerEmail = ""

	_, err := s.env.deals.CreateDeal(testutil.Caller(s.env.buyer), req)
	s.Require().ErrorIs(err, ErrMissingField)

	var se *ServiceError
	s.Require().True(errors.As(err, &se))
	s.Equal("buyerEmail", se.Field)
	s.Equal(int64(0), s.dealCount())
}

func (s *DealServiceTestSuite) TestGetDeals_AnnotatesRole() {
	first, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-A")
	second, _ := s.env.openDeal(s.T(), models.PlatformTikTok, "TX-B")

	buyerDeals, err := s.env.deals.GetDeals(testutil.Caller(s.env.buyer))
	s.Require().NoError(err)
	s.Require().Len(buyerDeals, 2)
	s.Equal(second.ID, buyerDeals[0].ID, "newest first")
	s.Equal(first.ID, buyerDeals[1].ID)
	for _, d := range buyerDeals {
		s.Equal("buyer", d.UserRole)
		s.Len(d.PaymentMethods, 2)
	}

	sellerDeals, err := s.env.deals.GetDeals(testutil.Caller(s.env.seller))
	s.Require().NoError(err)
	s.Require().Len(sellerDeals, 2)
	s.Equal("seller", sellerDeals[0].UserRole)

	outsider := testutil.CreateUser(s.T(), s.env.db, "outsider")
	none, err := s.env.deals.GetDeals(testutil.Caller(outsider))
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *DealServiceTestSuite) TestGetDeal_OnlyParticipants() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-A")

	view, err := s.env.deals.GetDeal(testutil.Caller(s.env.seller), deal.ID)
	s.Require().NoError(err)
	s.Equal("seller", view.UserRole)

	outsider := testutil.CreateUser(s.T(), s.env.db, "outsider")
	_, err = s.env.deals.GetDeal(testutil.Caller(outsider), deal.ID)
	s.ErrorIs(err, ErrNotParticipant)

	_, err = s.env.deals.GetDeal(testutil.Caller(s.env.buyer), 424242)
	s.ErrorIs(err, ErrNotParticipant)
}

func (s *DealServiceTestSuite) TestAgreeToDeal_NormalizesPaymentMethod() {
	for i, input := range []string{"pm1", "PayPal", " paypal "} {
		deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-PM-"+string(rune('A'+i)))

		agreed, err := s.env.deals.AgreeToDeal(context.Background(), testutil.Caller(s.env.seller), &AgreeToDealRequest{
			DealID:              deal.ID,
			AgreedPaymentMethod: input,
		})
		s.Require().NoError(err, input)
		s.Equal("PayPal", agreed.SellerAgreedPaymentMethod)
		s.Equal("PayPal", s.env.reload(s.T(), deal.ID).SellerAgreedPaymentMethod)
	}
}

func (s *DealServiceTestSuite) TestAgreeToDeal_TransitionsAndRecordsHistory() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-001")

	agreed := s.env.agree(s.T(), deal)
	s.Equal(models.DealStatusSellerAgreed, agreed.Status)
	s.Equal(models.StageAwaitingFee, agreed.WorkflowStage)
	s.NotNil(agreed.SellerAgreedAt)
	s.Equal("seller", agreed.SellerUsername)

	stored := s.env.reload(s.T(), deal.ID)
	s.Equal(models.DeriveStage(stored), stored.WorkflowStage)
	s.Equal(2, stored.Version)
	s.Equal(int64(1), s.env.historyCount(s.T(), deal.ID, models.ActionSellerAgreed))
}

func (s *DealServiceTestSuite) TestAgreeToDeal_SecondCallRejected() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-001")
	s.env.agree(s.T(), deal)
	first := s.env.reload(s.T(), deal.ID)

	_, err := s.env.deals.AgreeToDeal(context.Background(), testutil.Caller(s.env.seller), &AgreeToDealRequest{
		DealID:              deal.ID,
		AgreedPaymentMethod: "pm2",
	})
	s.ErrorIs(err, ErrInvalidStateForTransition)

	second := s.env.reload(s.T(), deal.ID)
	s.Require().NotNil(second.SellerAgreedAt)
	s.True(first.SellerAgreedAt.Equal(*second.SellerAgreedAt))
	s.Equal("PayPal", second.SellerAgreedPaymentMethod)
	s.Equal(first.Version, second.Version)
}

func (s *DealServiceTestSuite) TestAgreeToDeal_NotSellerOrNotFound() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-001")

	_, err := s.env.deals.AgreeToDeal(context.Background(), testutil.Caller(s.env.buyer), &AgreeToDealRequest{
		DealID:              deal.ID,
		AgreedPaymentMethod: "pm1",
	})
	s.ErrorIs(err, ErrNotSellerOrNotFound)

	_, err = s.env.deals.AgreeToDeal(context.Background(), testutil.Caller(s.env.seller), &AgreeToDealRequest{
		DealID:              999,
		AgreedPaymentMethod: "pm1",
	})
	s.ErrorIs(err, ErrNotSellerOrNotFound)
	s.Equal(KindValidation, KindOf(err))
}

func (s *DealServiceTestSuite) TestAgreeToDeal_PaymentMethodNotOffered() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-001")

	_, err := s.env.deals.AgreeToDeal(context.Background(), testutil.Caller(s.env.seller), &AgreeToDealRequest{
		DealID:              deal.ID,
		AgreedPaymentMethod: "Crypto",
	})
	s.ErrorIs(err, ErrPaymentMethodNotOffered)
	s.Equal(models.DealStatusPending, s.env.reload(s.T(), deal.ID).Status)
}

func (s *DealServiceTestSuite) TestAgreeToDeal_ConcurrentCallsSerialize() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-RACE")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.env.deals.AgreeToDeal(context.Background(), testutil.Caller(s.env.seller), &AgreeToDealRequest{
				DealID:              deal.ID,
				AgreedPaymentMethod: "pm1",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, ErrInvalidStateForTransition)
	}
	s.Equal(1, succeeded)
	s.Equal(int64(1), s.env.historyCount(s.T(), deal.ID, models.ActionSellerAgreed))
	s.Equal(2, s.env.reload(s.T(), deal.ID).Version)
}

func (s *DealServiceTestSuite) TestRaiseDispute() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-001")

	_, err := s.env.deals.RaiseDispute(context.Background(), testutil.Caller(s.env.buyer), deal.ID, &DisputeRequest{Reason: "too early"})
	s.ErrorIs(err, ErrInvalidStateForTransition)

	s.env.agree(s.T(), deal)

	outsider := testutil.CreateUser(s.T(), s.env.db, "outsider")
	_, err = s.env.deals.RaiseDispute(context.Background(), testutil.Caller(outsider), deal.ID, &DisputeRequest{Reason: "spam"})
	s.ErrorIs(err, ErrNotParticipant)

	_, err = s.env.deals.RaiseDispute(context.Background(), testutil.Caller(s.env.buyer), deal.ID, &DisputeRequest{Reason: " "})
	s.ErrorIs(err, ErrMissingField)

	disputed, err := s.env.deals.RaiseDispute(context.Background(), testutil.Caller(s.env.buyer), deal.ID, &DisputeRequest{Reason: "Seller stopped responding"})
	s.Require().NoError(err)
	s.Equal(models.StageDisputed, disputed.WorkflowStage)
	s.Equal(models.DealStatusDisputed, disputed.Status)
	s.Equal("Seller stopped responding", s.env.reload(s.T(), deal.ID).DisputeReason)
}

func TestDealServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DealServiceTestSuite))
}

func TestStaleVersionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	deal, _ := env.openDeal(t, models.PlatformYouTube, "TX-STALE")
	env.agree(t, deal)

	// The caller still holds the version it read before the agreement.
	err := updateDealVersioned(env.db, deal.ID, deal.Version, models.StageAwaitingFee, map[string]interface{}{
		"transaction_fee_paid": true,
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.Equal(t, KindConflict, KindOf(err))

	current := env.reload(t, deal.ID)
	require.False(t, current.TransactionFeePaid)

	err = updateDealVersioned(env.db, deal.ID, current.Version, current.WorkflowStage, map[string]interface{}{
		"cancel_reason": "checked",
	})
	assert.NoError(t, err)
}

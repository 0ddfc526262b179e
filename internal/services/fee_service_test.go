package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/testutil"
)

type FeeServiceTestSuite struct {
	suite.Suite
	env *testEnv
	ctx context.Context
}

func (s *FeeServiceTestSuite) SetupTest() {
	s.env = newTestEnv(s.T())
	s.ctx = context.Background()
}

func (s *FeeServiceTestSuite) TestDisabledWithoutGateway() {
	fees := NewFeeService(s.env.db, s.env.workflow, nil, "")
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-NOFEE")

	_, err := fees.CreateFeeIntent(s.ctx, testutil.Caller(s.env.buyer), deal.ID)
	s.ErrorIs(err, ErrFeePaymentsDisabled)

	_, err = fees.ConfirmFee(s.ctx, testutil.Caller(s.env.buyer), deal.ID)
	s.ErrorIs(err, ErrFeePaymentsDisabled)
}

func (s *FeeServiceTestSuite) TestOnlyBuyerMayPay() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-FEE-ROLE")
	s.env.agree(s.T(), deal)

	_, err := s.env.fees.CreateFeeIntent(s.ctx, testutil.Caller(s.env.seller), deal.ID)
	s.ErrorIs(err, ErrNotParticipant)

	_, err = s.env.fees.CreateFeeIntent(s.ctx, testutil.Caller(s.env.buyer), 9999)
	s.ErrorIs(err, ErrNotParticipant)
}

func (s *FeeServiceTestSuite) TestIntentRequiresAgreement() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-FEE-EARLY")

	_, err := s.env.fees.CreateFeeIntent(s.ctx, testutil.Caller(s.env.buyer), deal.ID)
	s.ErrorIs(err, ErrInvalidStateForTransition)
}

func (s *FeeServiceTestSuite) TestPayAndConfirm() {
	buyer := testutil.Caller(s.env.buyer)
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-FEE")
	s.env.agree(s.T(), deal)

	intent, err := s.env.fees.CreateFeeIntent(s.ctx, buyer, deal.ID)
	s.Require().NoError(err)
	s.Equal(int64(2550), intent.Amount)
	s.Equal("usd", intent.Currency)
	s.NotEmpty(intent.ClientSecret)
	s.Equal(intent.ID, s.env.reload(s.T(), deal.ID).FeePaymentReference)

	_, err = s.env.fees.ConfirmFee(s.ctx, buyer, deal.ID)
	s.ErrorIs(err, ErrFeeNotPaid)
	s.Equal(models.StageAwaitingFee, s.env.reload(s.T(), deal.ID).WorkflowStage)

	s.env.gateway.succeed(intent.ID)

	paid, err := s.env.fees.ConfirmFee(s.ctx, buyer, deal.ID)
	s.Require().NoError(err)
	s.Equal(models.StageFeePaid, paid.WorkflowStage)
	s.True(paid.TransactionFeePaid)
	s.Equal(models.DealStatusInProgress, paid.Status)

	var history models.DealHistory
	s.Require().NoError(s.env.db.Where("deal_id = ? AND action_type = ?", deal.ID, models.ActionFeePaid).First(&history).Error)
	s.Equal(s.env.buyer.ID, history.ActionBy)
	s.Equal(intent.ID, history.Metadata["payment_id"])

	_, err = s.env.fees.ConfirmFee(s.ctx, buyer, deal.ID)
	s.ErrorIs(err, ErrInvalidStateForTransition)
}

func (s *FeeServiceTestSuite) TestConfirmWithoutIntent() {
	deal, _ := s.env.openDeal(s.T(), models.PlatformYouTube, "TX-FEE-NONE")
	s.env.agree(s.T(), deal)

	_, err := s.env.fees.ConfirmFee(s.ctx, testutil.Caller(s.env.buyer), deal.ID)
	s.ErrorIs(err, ErrFeeNotPaid)
}

func TestFeeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FeeServiceTestSuite))
}

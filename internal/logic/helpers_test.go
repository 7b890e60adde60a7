package logic_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic/mocks"
	"github.com/CalistoMango/TheShipyard-sub001/internal/testutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const day = 24 * time.Hour

func calculatorConfig() logic.CalculatorConfig {
	return logic.CalculatorConfig{
		RefundDelay:    30 * day,
		BuilderShare:   decimal.RequireFromString("0.85"),
		SubmitterShare: decimal.RequireFromString("0.05"),
	}
}

func newCalculator(db *gorm.DB, clock clockwork.Clock) *logic.ClaimCalculator {
	return logic.NewClaimCalculator(db, clock, calculatorConfig())
}

func newSigner(t *testing.T) *chain.Signer {
	t.Helper()
	signer, err := chain.NewSigner(testutil.SignerKey, "ShipyardVault", "1", 31337, testutil.VaultAddress)
	require.NoError(t, err)
	return signer
}

// staticReader 固定的链上已领取金额
func staticReader(claimed map[chain.ClaimType]int64) *mocks.ClaimStateReaderMock {
	return &mocks.ClaimStateReaderMock{
		ReadClaimedFunc: func(_ context.Context, _, _ int64, claimType chain.ClaimType) (*big.Int, error) {
			return big.NewInt(claimed[claimType]), nil
		},
	}
}

func claimEvent(kind chain.EventKind, projectId, userId, amount int64, txId string) *chain.VaultEvent {
	return &chain.VaultEvent{
		Kind:      kind,
		ProjectID: chain.ProjectIDToBytes32(projectId),
		UserID:    big.NewInt(userId),
		Account:   testutil.Recipient,
		Amount:    big.NewInt(amount),
		TxHash:    common.HexToHash(txId),
	}
}

type claimFixture struct {
	db       *gorm.DB
	clock    *clockwork.FakeClock
	reader   *mocks.ClaimStateReaderMock
	verifier *mocks.TxVerifierMock
	sut      *logic.ClaimLogic
}

func newClaimFixture(t *testing.T, verifier *mocks.TxVerifierMock) *claimFixture {
	t.Helper()
	if verifier == nil {
		verifier = &mocks.TxVerifierMock{}
	}
	db := testutil.NewDB(t)
	clock := clockwork.NewFakeClockAt(testutil.Now)
	calculator := newCalculator(db, clock)
	reader := staticReader(nil)
	issuer := logic.NewSignatureIssuer(reader, calculator, newSigner(t), clock)
	reconciler := logic.NewLedgerReconciler(db, calculator, logic.NewReconciliationSink(db), clock, 1)

	return &claimFixture{
		db:       db,
		clock:    clock,
		reader:   reader,
		verifier: verifier,
		sut:      logic.NewClaimLogic(db, issuer, verifier, logic.NewReplayGuard(db), reconciler),
	}
}

func requireKind(t *testing.T, err error, kind logic.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, logic.KindOf(err), "unexpected error: %v", err)
}

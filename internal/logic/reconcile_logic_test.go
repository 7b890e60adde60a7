package logic_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic/mocks"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/CalistoMango/TheShipyard-sub001/internal/retry"
	"github.com/CalistoMango/TheShipyard-sub001/internal/testutil"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type reconcileFixture struct {
	db      *gorm.DB
	claimed map[chain.ClaimType]int64
	readErr error
	claims  *logic.ClaimLogic
	sut     *logic.ReconcileLogic
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := clockwork.NewFakeClockAt(testutil.Now)
	calculator := newCalculator(db, clock)
	sink := logic.NewReconciliationSink(db)

	f := &reconcileFixture{db: db, claimed: map[chain.ClaimType]int64{}}
	reader := &mocks.ClaimStateReaderMock{
		ReadClaimedFunc: func(_ context.Context, _, _ int64, claimType chain.ClaimType) (*big.Int, error) {
			if f.readErr != nil {
				return nil, f.readErr
			}
			return big.NewInt(f.claimed[claimType]), nil
		},
	}
	reconciler := logic.NewLedgerReconciler(db, calculator, sink, clock, 1)
	reports := logic.NewReportLogic(db, sink, retry.Policy{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}, clock)

	f.claims = logic.NewClaimLogic(db, nil, &mocks.TxVerifierMock{}, logic.NewReplayGuard(db), reconciler)
	f.sut = logic.NewReconcileLogic(db, reader, calculator, reports, 1)
	return f
}

func TestReconcileRefund(t *testing.T) {
	// given
	f := newReconcileFixture(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, f.db, model.ProjectModel{PoolAmount: 50})
	testutil.SeedFunding(t, f.db, project.Id, 7, 30, testutil.Now.Add(-40*day))
	testutil.SeedFunding(t, f.db, project.Id, 7, 20, testutil.Now.Add(-39*day))
	applied, err := f.claims.ApplyObservedClaim(ctx, claimEvent(chain.EventRefundClaimed, project.Id, 7, 50, testutil.TxHash(1)))
	require.NoError(t, err)
	require.True(t, applied)
	f.claimed[chain.ClaimTypeRefund] = 50

	task := model.ReconciliationTaskModel{
		Kind:      model.ReconciliationKindLedgerDrift,
		ProjectId: project.Id,
		UserId:    7,
		ClaimType: model.ClaimTypeRefund,
	}

	t.Run("ledger matches chain", func(t *testing.T) {
		// when
		result, err := f.sut.Resolve(ctx, task)

		// then
		require.NoError(t, err)
		require.True(t, result.Resolved, result.Detail)
	})

	t.Run("chain ahead of ledger", func(t *testing.T) {
		// given
		f.claimed[chain.ClaimTypeRefund] = 60
		t.Cleanup(func() { f.claimed[chain.ClaimTypeRefund] = 50 })

		// when
		result, err := f.sut.Resolve(ctx, task)

		// then
		require.NoError(t, err)
		require.False(t, result.Resolved)
		require.Contains(t, result.Detail, "refund on-chain 60")
	})

	t.Run("pool decrement lost", func(t *testing.T) {
		// given
		require.NoError(t, f.db.Model(&model.ProjectModel{}).Where("id = ?", project.Id).Update("pool_amount", 50).Error)
		t.Cleanup(func() {
			require.NoError(t, f.db.Model(&model.ProjectModel{}).Where("id = ?", project.Id).Update("pool_amount", 0).Error)
		})

		// when
		result, err := f.sut.Resolve(ctx, task)

		// then
		require.NoError(t, err)
		require.False(t, result.Resolved)
		require.Contains(t, result.Detail, "pool 50 (expected 0)")
	})

	t.Run("account credit lost", func(t *testing.T) {
		// given
		require.NoError(t, f.db.Model(&model.UserAccountModel{}).Where("user_id = ?", 7).Update("claimed_refunds_total", 0).Error)
		t.Cleanup(func() {
			require.NoError(t, f.db.Model(&model.UserAccountModel{}).Where("user_id = ?", 7).Update("claimed_refunds_total", 50).Error)
		})

		// when
		result, err := f.sut.Resolve(ctx, task)

		// then
		require.NoError(t, err)
		require.False(t, result.Resolved)
		require.Contains(t, result.Detail, "account 0 (expected 50)")
	})

	t.Run("chain unavailable", func(t *testing.T) {
		// given
		f.readErr = chain.ErrChainUnavailable
		t.Cleanup(func() { f.readErr = nil })

		// when
		_, err := f.sut.Resolve(ctx, task)

		// then
		require.True(t, errors.Is(err, chain.ErrChainUnavailable))
	})
}

func TestReconcileRepairsFailedRefundSteps(t *testing.T) {
	// given a refund whose reservation landed but whose ledger steps all failed
	f := newReconcileFixture(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, f.db, model.ProjectModel{PoolAmount: 50})
	testutil.SeedFunding(t, f.db, project.Id, 7, 30, testutil.Now.Add(-40*day))
	testutil.SeedFunding(t, f.db, project.Id, 7, 20, testutil.Now.Add(-39*day))
	reserved := logic.NewReplayGuard(f.db).Reserve(ctx, model.ClaimTxModel{
		TxId:      testutil.TxHash(1),
		UserId:    7,
		ClaimType: model.ClaimTypeRefund,
		Amount:    50,
		ProjectId: project.Id,
	})
	require.IsType(t, logic.Reserved{}, reserved)
	f.claimed[chain.ClaimTypeRefund] = 50

	task := model.ReconciliationTaskModel{
		Kind:      model.ReconciliationKindMutationFailed,
		ProjectId: project.Id,
		UserId:    7,
		ClaimType: model.ClaimTypeRefund,
		TxId:      reserved.(logic.Reserved).Record.TxId,
	}

	// when
	result, err := f.sut.Resolve(ctx, task)

	// then
	require.NoError(t, err)
	require.True(t, result.Resolved, result.Detail)
	require.Equal(t, int64(0), testutil.ReloadProject(t, f.db, project.Id).PoolAmount)

	var marked int64
	require.NoError(t, f.db.Model(&model.FundingRecordModel{}).Where("refund_tx_id = ?", task.TxId).Count(&marked).Error)
	require.Equal(t, int64(2), marked)

	account, err := f.claims.GetUserAccount(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(50), account.ClaimedRefundsTotal)

	t.Run("repair is idempotent", func(t *testing.T) {
		// when
		result, err := f.sut.Resolve(ctx, task)

		// then
		require.NoError(t, err)
		require.True(t, result.Resolved, result.Detail)
		require.Equal(t, int64(0), testutil.ReloadProject(t, f.db, project.Id).PoolAmount)
		account, err := f.claims.GetUserAccount(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, int64(50), account.ClaimedRefundsTotal)
	})
}

func TestReconcileRepairsRewardCredit(t *testing.T) {
	// given
	f := newReconcileFixture(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, f.db, model.ProjectModel{Status: model.ProjectStatusCompleted, PoolAmount: 100, SubmitterId: 5})
	testutil.SeedBuild(t, f.db, project.Id, 3, model.BuildStatusApproved)
	applied, err := f.claims.ApplyObservedClaim(ctx, claimEvent(chain.EventRewardClaimed, project.Id, 3, 85, testutil.TxHash(2)))
	require.NoError(t, err)
	require.True(t, applied)
	require.NoError(t, f.db.Model(&model.UserAccountModel{}).Where("user_id = ?", 3).Update("claimed_rewards_total", 0).Error)
	f.claimed[chain.ClaimTypeReward] = 85

	// when
	result, err := f.sut.Resolve(ctx, model.ReconciliationTaskModel{
		Kind:      model.ReconciliationKindMutationFailed,
		ProjectId: project.Id,
		UserId:    3,
		ClaimType: model.ClaimTypeReward,
	})

	// then
	require.NoError(t, err)
	require.True(t, result.Resolved, result.Detail)
	account, err := f.claims.GetUserAccount(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, int64(85), account.ClaimedRewardsTotal)
	require.Equal(t, int64(100), testutil.ReloadProject(t, f.db, project.Id).PoolAmount)
}

func TestReconcileReward(t *testing.T) {
	// given
	f := newReconcileFixture(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, f.db, model.ProjectModel{Status: model.ProjectStatusCompleted, PoolAmount: 100, SubmitterId: 5})
	testutil.SeedBuild(t, f.db, project.Id, 3, model.BuildStatusApproved)

	applied, err := f.claims.ApplyObservedClaim(ctx, claimEvent(chain.EventRewardClaimed, project.Id, 3, 85, testutil.TxHash(2)))
	require.NoError(t, err)
	require.True(t, applied)

	task := model.ReconciliationTaskModel{
		Kind:      model.ReconciliationKindLedgerDrift,
		ProjectId: project.Id,
		UserId:    3,
		ClaimType: model.ClaimTypeReward,
	}

	tt := []struct {
		name         string
		onChain      int64
		wantResolved bool
	}{
		{name: "builder share settled", onChain: 85, wantResolved: true},
		{name: "within tolerance", onChain: 86, wantResolved: true},
		{name: "chain claimed more", onChain: 90},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f.claimed[chain.ClaimTypeReward] = tc.onChain

			// when
			result, err := f.sut.Resolve(ctx, task)

			// then
			require.NoError(t, err)
			require.Equal(t, tc.wantResolved, result.Resolved, result.Detail)
		})
	}
}

func TestReconcileReportStatus(t *testing.T) {
	// given
	f := newReconcileFixture(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, f.db, model.ProjectModel{Status: model.ProjectStatusAlreadyExists})
	report := testutil.SeedReport(t, f.db, project.Id, 5)

	// when
	result, err := f.sut.Resolve(ctx, model.ReconciliationTaskModel{
		Kind:      model.ReconciliationKindReportStatus,
		ProjectId: project.Id,
		ReportId:  report.Id,
	})

	// then
	require.NoError(t, err)
	require.True(t, result.Resolved)
	var stored model.SolutionReportModel
	require.NoError(t, f.db.First(&stored, report.Id).Error)
	require.Equal(t, model.ReportStatusApproved, stored.Status)
}

func TestReconcileUnknownClaimType(t *testing.T) {
	f := newReconcileFixture(t)

	_, err := f.sut.Resolve(context.Background(), model.ReconciliationTaskModel{
		Id:   9,
		Kind: model.ReconciliationKindLedgerDrift,
	})

	require.Error(t, err)
}

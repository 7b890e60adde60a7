package logic_test

import (
	"context"
	"testing"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/CalistoMango/TheShipyard-sub001/internal/testutil"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAllocateRefundRows(t *testing.T) {
	rows := func(amounts ...int64) []model.FundingRecordModel {
		out := make([]model.FundingRecordModel, len(amounts))
		for i, a := range amounts {
			out[i] = model.FundingRecordModel{Id: int64(i + 1), Amount: a}
		}
		return out
	}

	tt := []struct {
		name          string
		rows          []model.FundingRecordModel
		amount        int64
		wantIds       []int64
		wantRemaining int64
	}{
		{name: "exact match", rows: rows(30, 20), amount: 50, wantIds: []int64{1, 2}},
		{name: "rows never split", rows: rows(10, 10, 10), amount: 25, wantIds: []int64{1, 2}, wantRemaining: 5},
		{name: "later funding untouched", rows: rows(30, 20, 30), amount: 50, wantIds: []int64{1, 2}},
		{name: "oversized row skipped", rows: rows(30, 20), amount: 20, wantIds: []int64{2}},
		{name: "greedy in creation order", rows: rows(20, 30), amount: 30, wantIds: []int64{1}, wantRemaining: 10},
		{name: "no rows", amount: 15, wantRemaining: 15},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// when
			selected, remaining := logic.AllocateRefundRows(tc.rows, tc.amount)

			// then
			var ids []int64
			for _, row := range selected {
				ids = append(ids, row.Id)
			}
			require.Equal(t, tc.wantIds, ids)
			require.Equal(t, tc.wantRemaining, remaining)
		})
	}
}

type reconcilerFixture struct {
	db  *gorm.DB
	sut *logic.LedgerReconciler
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	db := testutil.NewDB(t)
	clock := clockwork.NewFakeClockAt(testutil.Now)
	return &reconcilerFixture{
		db:  db,
		sut: logic.NewLedgerReconciler(db, newCalculator(db, clock), logic.NewReconciliationSink(db), clock, 1),
	}
}

func (f *reconcilerFixture) account(t *testing.T, userId int64) model.UserAccountModel {
	t.Helper()
	var account model.UserAccountModel
	require.NoError(t, f.db.First(&account, "user_id = ?", userId).Error)
	return account
}

func (f *reconcilerFixture) refundedIds(t *testing.T, projectId int64) []int64 {
	t.Helper()
	var ids []int64
	require.NoError(t, f.db.Model(&model.FundingRecordModel{}).
		Where("project_id = ? AND refunded_at IS NOT NULL", projectId).
		Order("id").Pluck("id", &ids).Error)
	return ids
}

func refundClaim(projectId, userId, amount int64, tx int64) *model.ClaimTxModel {
	return &model.ClaimTxModel{
		TxId:      testutil.TxHash(tx),
		UserId:    userId,
		ClaimType: model.ClaimTypeRefund,
		Amount:    amount,
		ProjectId: projectId,
	}
}

func TestLedgerReconcilerApplyRefund(t *testing.T) {
	// given
	f := newReconcilerFixture(t)
	project := testutil.SeedProject(t, f.db, model.ProjectModel{PoolAmount: 50})
	first := testutil.SeedFunding(t, f.db, project.Id, 7, 30, testutil.Now.Add(-40*day))
	second := testutil.SeedFunding(t, f.db, project.Id, 7, 20, testutil.Now.Add(-39*day))

	// when
	app := f.sut.ApplyRefund(context.Background(), refundClaim(project.Id, 7, 50, 1))

	// then
	require.True(t, app.Reconciled())
	require.Equal(t, 2, app.RefundedRowCount)
	require.Equal(t, int64(50), app.TotalRefunded)
	require.Equal(t, []int64{first.Id, second.Id}, f.refundedIds(t, project.Id))
	require.Equal(t, int64(0), testutil.ReloadProject(t, f.db, project.Id).PoolAmount)

	account := f.account(t, 7)
	require.Equal(t, int64(50), account.ClaimedRefundsTotal)
	require.NotNil(t, account.LastRefundTxId)
	require.Equal(t, testutil.TxHash(1), *account.LastRefundTxId)
	require.Empty(t, testutil.Tasks(t, f.db, model.ReconciliationKindLedgerDrift))
}

func TestLedgerReconcilerFundingAfterSignature(t *testing.T) {
	// given signature for 50 was issued, then 30 more was funded before confirming
	f := newReconcilerFixture(t)
	project := testutil.SeedProject(t, f.db, model.ProjectModel{PoolAmount: 80})
	first := testutil.SeedFunding(t, f.db, project.Id, 7, 30, testutil.Now.Add(-40*day))
	second := testutil.SeedFunding(t, f.db, project.Id, 7, 20, testutil.Now.Add(-39*day))
	testutil.SeedFunding(t, f.db, project.Id, 7, 30, testutil.Now.Add(-time.Hour))

	// when
	app := f.sut.ApplyRefund(context.Background(), refundClaim(project.Id, 7, 50, 1))

	// then
	require.True(t, app.Reconciled())
	require.Equal(t, []int64{first.Id, second.Id}, f.refundedIds(t, project.Id))
	require.Equal(t, int64(30), testutil.ReloadProject(t, f.db, project.Id).PoolAmount)
	require.Equal(t, int64(50), f.account(t, 7).ClaimedRefundsTotal)
}

func TestLedgerReconcilerRefundDrift(t *testing.T) {
	// given
	f := newReconcilerFixture(t)
	project := testutil.SeedProject(t, f.db, model.ProjectModel{PoolAmount: 30})
	for i := 0; i < 3; i++ {
		testutil.SeedFunding(t, f.db, project.Id, 7, 10, testutil.Now.Add(-40*day).Add(time.Duration(i)*time.Minute))
	}

	// when
	app := f.sut.ApplyRefund(context.Background(), refundClaim(project.Id, 7, 25, 1))

	// then
	require.False(t, app.Reconciled())
	require.Equal(t, int64(5), app.Drift)
	require.Equal(t, int64(20), app.AllocatedAmount)
	require.Len(t, f.refundedIds(t, project.Id), 2)
	require.Equal(t, int64(5), testutil.ReloadProject(t, f.db, project.Id).PoolAmount)
	require.Equal(t, int64(25), f.account(t, 7).ClaimedRefundsTotal)

	tasks := testutil.Tasks(t, f.db, model.ReconciliationKindLedgerDrift)
	require.Len(t, tasks, 1)
	require.Equal(t, testutil.TxHash(1), tasks[0].TxId)
	require.Equal(t, model.ReconciliationStatusPending, tasks[0].Status)
}

func TestLedgerReconcilerRefundStepsAreIndependent(t *testing.T) {
	// given a claim for a project row that no longer exists
	f := newReconcilerFixture(t)

	// when
	app := f.sut.ApplyRefund(context.Background(), refundClaim(99, 7, 10, 1))

	// then
	require.False(t, app.Reconciled())
	var failed []logic.MutationStep
	for _, o := range app.Outcomes {
		if !o.OK() {
			failed = append(failed, o.Step)
		}
	}
	require.Equal(t, []logic.MutationStep{logic.StepDecrementPool}, failed)
	require.Equal(t, int64(10), f.account(t, 7).ClaimedRefundsTotal)
	require.Len(t, testutil.Tasks(t, f.db, model.ReconciliationKindMutationFailed), 1)
}

func TestLedgerReconcilerRefundAccumulates(t *testing.T) {
	// given
	f := newReconcilerFixture(t)
	projectA := testutil.SeedProject(t, f.db, model.ProjectModel{PoolAmount: 30})
	projectB := testutil.SeedProject(t, f.db, model.ProjectModel{PoolAmount: 20})
	testutil.SeedFunding(t, f.db, projectA.Id, 7, 30, testutil.Now.Add(-40*day))
	testutil.SeedFunding(t, f.db, projectB.Id, 7, 20, testutil.Now.Add(-40*day))

	// when
	f.sut.ApplyRefund(context.Background(), refundClaim(projectA.Id, 7, 30, 1))
	f.sut.ApplyRefund(context.Background(), refundClaim(projectB.Id, 7, 20, 2))

	// then
	account := f.account(t, 7)
	require.Equal(t, int64(50), account.ClaimedRefundsTotal)
	require.Equal(t, testutil.TxHash(2), *account.LastRefundTxId)
}

func TestLedgerReconcilerApplyReward(t *testing.T) {
	const (
		submitter = int64(2)
		builder   = int64(3)
	)

	tt := []struct {
		name          string
		project       model.ProjectModel
		user          int64
		amount        int64
		wantMatched   bool
		wantBuilder   bool
		wantSubmitter bool
	}{
		{
			name:        "builder share",
			project:     model.ProjectModel{SubmitterId: submitter},
			user:        builder,
			amount:      85,
			wantMatched: true,
			wantBuilder: true,
		},
		{
			name:          "submitter share",
			project:       model.ProjectModel{SubmitterId: submitter},
			user:          submitter,
			amount:        5,
			wantMatched:   true,
			wantSubmitter: true,
		},
		{
			name:          "both roles at once",
			project:       model.ProjectModel{SubmitterId: builder},
			user:          builder,
			amount:        90,
			wantMatched:   true,
			wantBuilder:   true,
			wantSubmitter: true,
		},
		{
			name:          "one of two roles",
			project:       model.ProjectModel{SubmitterId: builder},
			user:          builder,
			amount:        5,
			wantMatched:   true,
			wantSubmitter: true,
		},
		{
			name:    "amount matches no share",
			project: model.ProjectModel{SubmitterId: submitter},
			user:    builder,
			amount:  42,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newReconcilerFixture(t)
			tc.project.Status = model.ProjectStatusCompleted
			tc.project.PoolAmount = 100
			project := testutil.SeedProject(t, f.db, tc.project)
			testutil.SeedBuild(t, f.db, project.Id, builder, model.BuildStatusApproved)
			claim := &model.ClaimTxModel{
				TxId:      testutil.TxHash(1),
				UserId:    tc.user,
				ClaimType: model.ClaimTypeReward,
				Amount:    tc.amount,
				ProjectId: project.Id,
			}

			// when
			app := f.sut.ApplyReward(context.Background(), claim)

			// then
			require.Equal(t, tc.wantMatched, app.Matched)
			require.Equal(t, tc.wantMatched, app.Reconciled())

			reloaded := testutil.ReloadProject(t, f.db, project.Id)
			require.Equal(t, tc.wantBuilder, reloaded.BuilderClaimed)
			require.Equal(t, tc.wantSubmitter, reloaded.SubmitterClaimed)
			require.Equal(t, int64(100), reloaded.PoolAmount)
			require.Equal(t, tc.amount, f.account(t, tc.user).ClaimedRewardsTotal)

			drift := testutil.Tasks(t, f.db, model.ReconciliationKindLedgerDrift)
			if tc.wantMatched {
				require.Empty(t, drift)
			} else {
				require.Len(t, drift, 1)
			}
		})
	}
}

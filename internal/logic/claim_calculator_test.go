package logic_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/CalistoMango/TheShipyard-sub001/internal/testutil"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestClaimCalculatorShares(t *testing.T) {
	sut := newCalculator(nil, clockwork.NewFakeClockAt(testutil.Now))

	tt := []struct {
		name string
		pool int64
		want logic.RewardShares
	}{
		{name: "round pool", pool: 100, want: logic.RewardShares{Builder: 85, Submitter: 5}},
		{name: "fractional shares floor", pool: 7, want: logic.RewardShares{Builder: 5, Submitter: 0}},
		{name: "empty pool", pool: 0, want: logic.RewardShares{}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, sut.Shares(tc.pool))
		})
	}
}

func TestClaimCalculatorRefund(t *testing.T) {
	const user = int64(7)

	tt := []struct {
		name         string
		project      model.ProjectModel
		fundings     []int64
		refundedRows int
		onChain      int64
		wantKind     logic.ErrorKind
		wantMsg      string
		wantCum      int64
		wantDelta    int64
	}{
		{
			name:      "two fundings refunded together",
			project:   model.ProjectModel{LastActivityAt: testutil.Now.Add(-31 * day)},
			fundings:  []int64{30, 20},
			wantCum:   50,
			wantDelta: 50,
		},
		{
			name:      "partially claimed on chain",
			project:   model.ProjectModel{LastActivityAt: testutil.Now.Add(-31 * day)},
			fundings:  []int64{30, 20},
			onChain:   30,
			wantCum:   50,
			wantDelta: 20,
		},
		{
			name:         "refunded rows still count towards cumulative",
			project:      model.ProjectModel{LastActivityAt: testutil.Now.Add(-31 * day)},
			fundings:     []int64{30, 20},
			refundedRows: 1,
			onChain:      30,
			wantCum:      50,
			wantDelta:    20,
		},
		{
			name:     "inactivity window not met",
			project:  model.ProjectModel{LastActivityAt: testutil.Now.Add(-10*day - 1)},
			fundings: []int64{30},
			wantKind: logic.KindEligibility,
			wantMsg:  "还需等待 20 天",
		},
		{
			name:     "project not open",
			project:  model.ProjectModel{Status: model.ProjectStatusCompleted, LastActivityAt: testutil.Now.Add(-31 * day)},
			fundings: []int64{30},
			wantKind: logic.KindEligibility,
		},
		{
			name:     "never funded",
			project:  model.ProjectModel{LastActivityAt: testutil.Now.Add(-31 * day)},
			wantKind: logic.KindEligibility,
		},
		{
			name:     "fully claimed on chain",
			project:  model.ProjectModel{LastActivityAt: testutil.Now.Add(-31 * day)},
			fundings: []int64{30, 20},
			onChain:  50,
			wantKind: logic.KindEligibility,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			db := testutil.NewDB(t)
			project := testutil.SeedProject(t, db, tc.project)
			for i, amount := range tc.fundings {
				row := testutil.SeedFunding(t, db, project.Id, user, amount, testutil.Now.Add(-40*day).Add(time.Duration(i)*time.Minute))
				if i < tc.refundedRows {
					require.NoError(t, db.Model(row).Update("refunded_at", testutil.Now).Error)
				}
			}
			sut := newCalculator(db, clockwork.NewFakeClockAt(testutil.Now))

			// when
			ent, err := sut.Refund(context.Background(), project.Id, user, big.NewInt(tc.onChain))

			// then
			if tc.wantKind != logic.KindInternal {
				requireKind(t, err, tc.wantKind)
				if tc.wantMsg != "" {
					require.Contains(t, err.Error(), tc.wantMsg)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantCum, ent.CumulativeAmount)
			require.Equal(t, tc.wantDelta, ent.Delta)
			require.Equal(t, tc.onChain, ent.OnChainClaimed)
		})
	}
}

func TestClaimCalculatorRefundUnknownProject(t *testing.T) {
	sut := newCalculator(testutil.NewDB(t), clockwork.NewFakeClockAt(testutil.Now))

	_, err := sut.Refund(context.Background(), 404, 7, big.NewInt(0))

	requireKind(t, err, logic.KindNotFound)
}

func TestClaimCalculatorReward(t *testing.T) {
	const (
		submitter = int64(2)
		builder   = int64(3)
		outsider  = int64(4)
	)

	tt := []struct {
		name      string
		project   model.ProjectModel
		user      int64
		onChain   int64
		wantKind  logic.ErrorKind
		wantCum   int64
		wantDelta int64
	}{
		{
			name:      "builder share",
			project:   model.ProjectModel{Status: model.ProjectStatusCompleted, PoolAmount: 100, SubmitterId: submitter},
			user:      builder,
			wantCum:   85,
			wantDelta: 85,
		},
		{
			name:      "submitter share",
			project:   model.ProjectModel{Status: model.ProjectStatusCompleted, PoolAmount: 100, SubmitterId: submitter},
			user:      submitter,
			wantCum:   5,
			wantDelta: 5,
		},
		{
			name:      "builder who is also submitter",
			project:   model.ProjectModel{Status: model.ProjectStatusCompleted, PoolAmount: 100, SubmitterId: builder},
			user:      builder,
			wantCum:   90,
			wantDelta: 90,
		},
		{
			name:      "second role after first was claimed",
			project:   model.ProjectModel{Status: model.ProjectStatusCompleted, PoolAmount: 100, SubmitterId: builder, BuilderClaimed: true},
			user:      builder,
			onChain:   85,
			wantCum:   90,
			wantDelta: 5,
		},
		{
			name:     "ledger flag lagging chain",
			project:  model.ProjectModel{Status: model.ProjectStatusCompleted, PoolAmount: 100, SubmitterId: submitter},
			user:     builder,
			onChain:  85,
			wantKind: logic.KindEligibility,
		},
		{
			name:     "already claimed",
			project:  model.ProjectModel{Status: model.ProjectStatusCompleted, PoolAmount: 100, SubmitterId: submitter, BuilderClaimed: true},
			user:     builder,
			onChain:  85,
			wantKind: logic.KindEligibility,
		},
		{
			name:     "project not completed",
			project:  model.ProjectModel{Status: model.ProjectStatusOpen, PoolAmount: 100, SubmitterId: submitter},
			user:     builder,
			wantKind: logic.KindEligibility,
		},
		{
			name:     "no role",
			project:  model.ProjectModel{Status: model.ProjectStatusCompleted, PoolAmount: 100, SubmitterId: submitter},
			user:     outsider,
			wantKind: logic.KindForbidden,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			db := testutil.NewDB(t)
			project := testutil.SeedProject(t, db, tc.project)
			testutil.SeedBuild(t, db, project.Id, builder, model.BuildStatusApproved)
			testutil.SeedBuild(t, db, project.Id, outsider, model.BuildStatusRejected)
			sut := newCalculator(db, clockwork.NewFakeClockAt(testutil.Now))

			// when
			ent, err := sut.Reward(context.Background(), project.Id, tc.user, big.NewInt(tc.onChain))

			// then
			if tc.wantKind != logic.KindInternal {
				requireKind(t, err, tc.wantKind)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantCum, ent.CumulativeAmount)
			require.Equal(t, tc.wantDelta, ent.Delta)
			require.Equal(t, int64(100), project.PoolAmount)
		})
	}
}

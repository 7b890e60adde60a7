package task_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	chainmocks "github.com/CalistoMango/TheShipyard-sub001/internal/chain/mocks"
	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic/mocks"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/CalistoMango/TheShipyard-sub001/internal/task"
	"github.com/CalistoMango/TheShipyard-sub001/internal/testutil"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type syncFixture struct {
	db      *gorm.DB
	vault   *chain.Vault
	mu      sync.Mutex
	head    uint64
	logs    []types.Log
	ranges  [][2]int64
	failAt  int64
	project *model.ProjectModel
	sut     *task.VaultSyncJob
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := clockwork.NewFakeClockAt(testutil.Now)
	vault, err := chain.NewVault(testutil.VaultAddress)
	require.NoError(t, err)

	f := &syncFixture{db: db, vault: vault, failAt: -1}
	backend := &chainmocks.BackendMock{
		BlockNumberFunc: func(ctx context.Context) (uint64, error) {
			return f.head, nil
		},
		FilterLogsFunc: func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			from, to := q.FromBlock.Int64(), q.ToBlock.Int64()
			f.ranges = append(f.ranges, [2]int64{from, to})
			if f.failAt >= from && f.failAt <= to {
				return nil, errors.New("429 too many requests")
			}
			var out []types.Log
			for _, l := range f.logs {
				if int64(l.BlockNumber) >= from && int64(l.BlockNumber) <= to {
					out = append(out, l)
				}
			}
			return out, nil
		},
	}

	calculator := logic.NewClaimCalculator(db, clock, logic.CalculatorConfig{
		BuilderShare:   decimal.RequireFromString("0.85"),
		SubmitterShare: decimal.RequireFromString("0.05"),
	})
	sink := logic.NewReconciliationSink(db)
	claims := logic.NewClaimLogic(db, nil, &mocks.TxVerifierMock{}, logic.NewReplayGuard(db),
		logic.NewLedgerReconciler(db, calculator, sink, clock, 1))
	funding := logic.NewFundingLogic(db, &mocks.TxVerifierMock{}, clock)

	cfg := &config.Config{
		Chain: config.ChainConfig{DeployBlock: 100, Confirmations: 2},
		Task:  config.TaskConfig{Interval: 60, SyncBatchSize: 5},
	}
	f.sut = task.NewVaultSyncJob(db, cfg, chain.NewBlock(backend), vault, funding, claims)
	f.project = testutil.SeedProject(t, db, model.ProjectModel{})
	return f
}

func (f *syncFixture) emit(kind chain.EventKind, block uint64, userId, amount, tx int64) {
	l := testutil.VaultLog(f.vault, kind, f.project.Id, userId, testutil.Recipient, amount)
	l.BlockNumber = block
	l.TxHash = common.BigToHash(big.NewInt(tx))
	f.logs = append(f.logs, *l)
}

func (f *syncFixture) cursor(t *testing.T) int64 {
	t.Helper()
	var cursor model.ChainCursorModel
	require.NoError(t, f.db.First(&cursor, "name = ?", task.VaultSyncCursor).Error)
	return cursor.BlockNum
}

func TestVaultSync(t *testing.T) {
	// given
	f := newSyncFixture(t)
	f.head = 120
	f.emit(chain.EventFunded, 101, 7, 30, 1)
	f.emit(chain.EventFunded, 103, 7, 20, 2)
	f.emit(chain.EventRefundClaimed, 110, 7, 50, 3)
	f.emit(chain.EventFunded, 119, 8, 40, 4)

	// when
	err := f.sut.Sync(context.Background())

	// then only confirmed blocks are scanned, in batches
	require.NoError(t, err)
	require.Equal(t, [][2]int64{{100, 104}, {105, 109}, {110, 114}, {115, 118}}, f.ranges)
	require.Equal(t, int64(119), f.cursor(t))

	project := testutil.ReloadProject(t, f.db, f.project.Id)
	require.Equal(t, int64(0), project.PoolAmount)
	var refunded int64
	require.NoError(t, f.db.Model(&model.FundingRecordModel{}).Where("refunded_at IS NOT NULL").Count(&refunded).Error)
	require.Equal(t, int64(2), refunded)

	t.Run("resumes from cursor", func(t *testing.T) {
		// given
		f.head = 121
		f.ranges = nil

		// when
		err := f.sut.Sync(context.Background())

		// then
		require.NoError(t, err)
		require.Equal(t, [][2]int64{{119, 119}}, f.ranges)
		require.Equal(t, int64(40), testutil.ReloadProject(t, f.db, f.project.Id).PoolAmount)
	})

	t.Run("rescan is idempotent", func(t *testing.T) {
		// given
		require.NoError(t, f.db.Delete(&model.ChainCursorModel{Name: task.VaultSyncCursor}).Error)

		// when
		err := f.sut.Sync(context.Background())

		// then
		require.NoError(t, err)
		require.Equal(t, int64(40), testutil.ReloadProject(t, f.db, f.project.Id).PoolAmount)
		var fundings, claims int64
		require.NoError(t, f.db.Model(&model.FundingRecordModel{}).Count(&fundings).Error)
		require.NoError(t, f.db.Model(&model.ClaimTxModel{}).Count(&claims).Error)
		require.Equal(t, int64(3), fundings)
		require.Equal(t, int64(1), claims)
	})
}

func TestVaultSyncStopsOnLogError(t *testing.T) {
	// given
	f := newSyncFixture(t)
	f.head = 120
	f.failAt = 107
	f.emit(chain.EventFunded, 101, 7, 30, 1)

	// when
	err := f.sut.Sync(context.Background())

	// then the failed batch is retried next run
	require.Error(t, err)
	require.Equal(t, int64(105), f.cursor(t))
	require.Equal(t, int64(30), testutil.ReloadProject(t, f.db, f.project.Id).PoolAmount)
}

func TestVaultSyncSkipsUnknownProject(t *testing.T) {
	// given
	f := newSyncFixture(t)
	f.head = 110
	l := testutil.VaultLog(f.vault, chain.EventFunded, f.project.Id+100, 7, testutil.Recipient, 30)
	l.BlockNumber = 102
	l.TxHash = common.BigToHash(big.NewInt(9))
	f.logs = append(f.logs, *l)
	claim := testutil.VaultLog(f.vault, chain.EventRefundClaimed, f.project.Id+100, 7, testutil.Recipient, 30)
	claim.BlockNumber = 103
	claim.TxHash = common.BigToHash(big.NewInt(11))
	f.logs = append(f.logs, *claim)
	f.emit(chain.EventFunded, 104, 7, 25, 10)

	// when
	err := f.sut.Sync(context.Background())

	// then
	require.NoError(t, err)
	require.Equal(t, int64(25), testutil.ReloadProject(t, f.db, f.project.Id).PoolAmount)
	require.Equal(t, int64(109), f.cursor(t))

	var claims, tasks int64
	require.NoError(t, f.db.Model(&model.ClaimTxModel{}).Count(&claims).Error)
	require.NoError(t, f.db.Model(&model.ReconciliationTaskModel{}).Count(&tasks).Error)
	require.Zero(t, claims)
	require.Zero(t, tasks)
}

func TestVaultSyncUpToDate(t *testing.T) {
	// given
	f := newSyncFixture(t)
	f.head = 101

	// when
	err := f.sut.Sync(context.Background())

	// then
	require.NoError(t, err)
	require.Empty(t, f.ranges)
}

package logic_test

import (
	"context"
	"strings"
	"testing"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/CalistoMango/TheShipyard-sub001/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestReplayGuardReserve(t *testing.T) {
	txId := testutil.TxHash(0xabc)

	tt := []struct {
		name   string
		second model.ClaimTxModel
	}{
		{
			name:   "same tx twice",
			second: model.ClaimTxModel{TxId: txId, UserId: 7, ClaimType: model.ClaimTypeRefund, Amount: 50, ProjectId: 1},
		},
		{
			name:   "uppercase hex of same tx",
			second: model.ClaimTxModel{TxId: "0x" + strings.ToUpper(txId[2:]), UserId: 7, ClaimType: model.ClaimTypeRefund, Amount: 50, ProjectId: 1},
		},
		{
			name:   "same tx for other user and claim type",
			second: model.ClaimTxModel{TxId: txId, UserId: 8, ClaimType: model.ClaimTypeReward, Amount: 85, ProjectId: 2},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			db := testutil.NewDB(t)
			sut := logic.NewReplayGuard(db)
			first := sut.Reserve(context.Background(), model.ClaimTxModel{TxId: txId, UserId: 7, ClaimType: model.ClaimTypeRefund, Amount: 50, ProjectId: 1})
			reserved, ok := first.(logic.Reserved)
			require.True(t, ok, "first reserve: %#v", first)
			require.NotZero(t, reserved.Record.Id)

			// when
			outcome := sut.Reserve(context.Background(), tc.second)

			// then
			used, ok := outcome.(logic.AlreadyUsed)
			require.True(t, ok, "second reserve: %#v", outcome)
			require.Equal(t, txId, used.TxId)

			var count int64
			require.NoError(t, db.Model(&model.ClaimTxModel{}).Count(&count).Error)
			require.Equal(t, int64(1), count)
		})
	}
}

func TestReplayGuardIsConsumed(t *testing.T) {
	// given
	db := testutil.NewDB(t)
	sut := logic.NewReplayGuard(db)
	txId := testutil.TxHash(1)

	// when
	before, err := sut.IsConsumed(context.Background(), txId)
	require.NoError(t, err)
	sut.Reserve(context.Background(), model.ClaimTxModel{TxId: txId, UserId: 7, ClaimType: model.ClaimTypeRefund, Amount: 10, ProjectId: 1})
	after, err := sut.IsConsumed(context.Background(), strings.ToUpper(txId))

	// then
	require.NoError(t, err)
	require.False(t, before)
	require.True(t, after)
}

func TestReplayGuardReserveStorageFailure(t *testing.T) {
	// given
	db := testutil.NewDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	sut := logic.NewReplayGuard(db)

	// when
	outcome := sut.Reserve(context.Background(), model.ClaimTxModel{TxId: testutil.TxHash(2), UserId: 7, ClaimType: model.ClaimTypeRefund, Amount: 10, ProjectId: 1})

	// then
	fatal, ok := outcome.(logic.ReserveFatal)
	require.True(t, ok, "reserve: %#v", outcome)
	require.Error(t, fatal.Err)
}

package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestInitSqlite(t *testing.T) {
	// given
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db"), MaxOpenConns: 1}

	// when
	db, err := Init(cfg)

	// then
	require.NoError(t, err)
	require.True(t, db.Migrator().HasTable(&model.ClaimTxModel{}))
	require.True(t, db.Migrator().HasTable("funding_record"))

	txId := "0x01"
	require.NoError(t, db.Create(&model.ClaimTxModel{TxId: txId, UserId: 1, ClaimType: model.ClaimTypeRefund, Amount: 1, ProjectId: 1}).Error)
	err = db.Create(&model.ClaimTxModel{TxId: txId, UserId: 2, ClaimType: model.ClaimTypeReward, Amount: 1, ProjectId: 1}).Error
	require.True(t, IsDuplicateKey(err))
}

func TestInitUnsupportedDriver(t *testing.T) {
	_, err := Init(config.DatabaseConfig{Driver: "oracle"})
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestIsDuplicateKey(t *testing.T) {
	tt := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm duplicated key", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "pg unique violation", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "pg other", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "other", err: errors.New("connection reset"), want: false},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsDuplicateKey(tc.err))
		})
	}
}

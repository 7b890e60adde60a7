package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrChainUnavailable   = errors.New("chain unavailable")
	ErrVerificationFailed = errors.New("transaction verification failed")
	ErrTxNotFound         = errors.New("transaction not found")
	ErrTxFailed           = errors.New("transaction reverted")
	ErrTxNotFinal         = errors.New("transaction not final")
)

// Expectation 期望在交易中看到的资金库事件
type Expectation struct {
	Event     EventKind
	ProjectID int64
	UserID    int64
}

// Verifier 链上状态读取与交易校验
type Verifier struct {
	backend       Backend
	vault         *Vault
	readTimeout   time.Duration
	confirmations uint64
}

// NewVerifier 创建校验器，confirmations 为 0 时不检查确认数
func NewVerifier(backend Backend, vault *Vault, readTimeout time.Duration, confirmations uint64) *Verifier {
	return &Verifier{
		backend:       backend,
		vault:         vault,
		readTimeout:   readTimeout,
		confirmations: confirmations,
	}
}

// ReadClaimed 读取链上累计已领取金额，任何失败都返回 ErrChainUnavailable
func (v *Verifier) ReadClaimed(ctx context.Context, projectID, userID int64, claimType ClaimType) (*big.Int, error) {
	input, err := v.vault.PackClaimed(ProjectIDToBytes32(projectID), UserIDToBig(userID), claimType)
	if err != nil {
		return nil, fmt.Errorf("failed to pack claimed call: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, v.readTimeout)
	defer cancel()

	to := v.vault.Address()
	out, err := v.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: claimed(%d, %d, %s): %v", ErrChainUnavailable, projectID, userID, claimType, err)
	}

	claimed, err := v.vault.UnpackClaimed(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	return claimed, nil
}

// VerifyTx 校验交易成功且包含来自资金库、用户和项目均匹配的期望事件
func (v *Verifier) VerifyTx(ctx context.Context, txHash string, exp Expectation) (*VaultEvent, error) {
	if !IsTxHash(txHash) {
		return nil, fmt.Errorf("%w: malformed tx hash", ErrVerificationFailed)
	}
	hash := common.HexToHash(txHash)

	ctx, cancel := context.WithTimeout(ctx, v.readTimeout)
	defer cancel()

	receipt, err := v.backend.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrTxNotFound
		}
		return nil, fmt.Errorf("%w: receipt %s: %v", ErrChainUnavailable, txHash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, ErrTxFailed
	}

	if v.confirmations > 0 && receipt.BlockNumber != nil {
		head, err := v.backend.BlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: block number: %v", ErrChainUnavailable, err)
		}
		if head+1 < receipt.BlockNumber.Uint64()+v.confirmations {
			return nil, ErrTxNotFinal
		}
	}

	wantProject := ProjectIDToBytes32(exp.ProjectID)
	wantUser := UserIDToBig(exp.UserID)
	for _, l := range receipt.Logs {
		if l == nil {
			continue
		}
		event, err := v.vault.ParseLog(*l)
		if err != nil {
			continue
		}
		if event.Kind != exp.Event {
			continue
		}
		if event.ProjectID != wantProject || event.UserID.Cmp(wantUser) != 0 {
			continue
		}
		return event, nil
	}

	return nil, ErrVerificationFailed
}

// IsTxHash 0x 开头的 32 字节十六进制
func IsTxHash(s string) bool {
	if len(s) != 2+2*common.HashLength || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hexutil.Decode(s)
	return err == nil
}

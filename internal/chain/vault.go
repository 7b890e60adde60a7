package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrUnknownEvent = errors.New("unknown vault event")
	ErrForeignLog   = errors.New("log not emitted by vault")
)

// 资金库合约ABI（仅包含本服务使用的部分）
const vaultABI = `[
	{
		"inputs": [
			{"internalType": "bytes32", "name": "projectId", "type": "bytes32"},
			{"internalType": "uint256", "name": "userId", "type": "uint256"},
			{"internalType": "uint8", "name": "claimType", "type": "uint8"}
		],
		"name": "claimed",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "userId", "type": "uint256"},
			{"indexed": true, "name": "funder", "type": "address"},
			{"indexed": true, "name": "projectId", "type": "bytes32"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "Funded",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "projectId", "type": "bytes32"},
			{"indexed": true, "name": "userId", "type": "uint256"},
			{"indexed": true, "name": "recipient", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "RefundClaimed",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "projectId", "type": "bytes32"},
			{"indexed": true, "name": "userId", "type": "uint256"},
			{"indexed": true, "name": "recipient", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "RewardClaimed",
		"type": "event"
	}
]`

// ClaimType 链上领取类型，与合约 uint8 取值一致
type ClaimType uint8

const (
	ClaimTypeRefund ClaimType = 0 // 退款
	ClaimTypeReward ClaimType = 1 // 奖励
)

func (c ClaimType) String() string {
	switch c {
	case ClaimTypeRefund:
		return "refund"
	case ClaimTypeReward:
		return "reward"
	default:
		return fmt.Sprintf("claim_type(%d)", uint8(c))
	}
}

// EventKind 资金库事件名
type EventKind string

const (
	EventFunded        EventKind = "Funded"
	EventRefundClaimed EventKind = "RefundClaimed"
	EventRewardClaimed EventKind = "RewardClaimed"
)

// ClaimEvent 领取类型对应的事件
func (c ClaimType) ClaimEvent() EventKind {
	if c == ClaimTypeReward {
		return EventRewardClaimed
	}
	return EventRefundClaimed
}

// VaultEvent 解析后的资金库事件
type VaultEvent struct {
	Kind        EventKind
	ProjectID   common.Hash    // bytes32
	UserID      *big.Int       // uint256
	Account     common.Address // Funded 为出资地址，其他为收款地址
	Amount      *big.Int
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint
}

// Vault 资金库合约
type Vault struct {
	address common.Address
	abi     abi.ABI
}

// NewVault 创建资金库合约实例
func NewVault(address common.Address) (*Vault, error) {
	parsedABI, err := abi.JSON(strings.NewReader(vaultABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse vault ABI: %w", err)
	}
	return &Vault{address: address, abi: parsedABI}, nil
}

// Address 合约地址
func (v *Vault) Address() common.Address {
	return v.address
}

// EventID 事件签名哈希
func (v *Vault) EventID(kind EventKind) common.Hash {
	return v.abi.Events[string(kind)].ID
}

// EventTopics 本服务关心的全部事件签名
func (v *Vault) EventTopics() []common.Hash {
	return []common.Hash{
		v.EventID(EventFunded),
		v.EventID(EventRefundClaimed),
		v.EventID(EventRewardClaimed),
	}
}

// PackClaimed 编码 claimed(projectId, userId, claimType) 调用
func (v *Vault) PackClaimed(projectID common.Hash, userID *big.Int, claimType ClaimType) ([]byte, error) {
	return v.abi.Pack("claimed", [32]byte(projectID), userID, uint8(claimType))
}

// UnpackClaimed 解码 claimed 返回值
func (v *Vault) UnpackClaimed(data []byte) (*big.Int, error) {
	out, err := v.abi.Unpack("claimed", data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack claimed: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected claimed output length %d", len(out))
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected claimed output type %T", out[0])
	}
	return amount, nil
}

// ParseLog 解析资金库日志，地址必须与合约地址完全一致
func (v *Vault) ParseLog(log types.Log) (*VaultEvent, error) {
	if log.Address != v.address {
		return nil, ErrForeignLog
	}
	if len(log.Topics) == 0 {
		return nil, ErrUnknownEvent
	}

	var kind EventKind
	for _, k := range []EventKind{EventFunded, EventRefundClaimed, EventRewardClaimed} {
		if log.Topics[0] == v.EventID(k) {
			kind = k
			break
		}
	}
	if kind == "" {
		return nil, ErrUnknownEvent
	}

	event := v.abi.Events[string(kind)]
	out := make(map[string]interface{})

	// 解析非索引参数
	if len(log.Data) > 0 {
		if err := v.abi.UnpackIntoMap(out, event.Name, log.Data); err != nil {
			return nil, fmt.Errorf("failed to unpack %s data: %w", kind, err)
		}
	}

	// 解析索引参数
	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(out, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse %s topics: %w", kind, err)
	}

	parsed := &VaultEvent{
		Kind:        kind,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
	}

	projectID, ok := out["projectId"].([32]byte)
	if !ok {
		return nil, fmt.Errorf("%s: missing projectId", kind)
	}
	parsed.ProjectID = common.Hash(projectID)

	if parsed.UserID, ok = out["userId"].(*big.Int); !ok {
		return nil, fmt.Errorf("%s: missing userId", kind)
	}
	if parsed.Amount, ok = out["amount"].(*big.Int); !ok {
		return nil, fmt.Errorf("%s: missing amount", kind)
	}

	accountKey := "recipient"
	if kind == EventFunded {
		accountKey = "funder"
	}
	if parsed.Account, ok = out[accountKey].(common.Address); !ok {
		return nil, fmt.Errorf("%s: missing %s", kind, accountKey)
	}

	return parsed, nil
}

package testutil

import (
	"math/big"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SignerKey anvil 默认账户 #0
const SignerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	VaultAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	Recipient    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

// TxHash 确定性的交易哈希
func TxHash(n int64) string {
	return common.BigToHash(big.NewInt(n)).Hex()
}

// Uint256 abi 编码的 uint256
func Uint256(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

// VaultLog 构造资金库事件日志
func VaultLog(vault *chain.Vault, kind chain.EventKind, projectID, userID int64, account common.Address, amount int64) *types.Log {
	project := chain.ProjectIDToBytes32(projectID)
	user := common.BigToHash(big.NewInt(userID))
	acct := common.BytesToHash(account.Bytes())

	var topics []common.Hash
	if kind == chain.EventFunded {
		topics = []common.Hash{vault.EventID(kind), user, acct, project}
	} else {
		topics = []common.Hash{vault.EventID(kind), project, user, acct}
	}

	return &types.Log{
		Address: vault.Address(),
		Topics:  topics,
		Data:    Uint256(amount),
	}
}

// Receipt 构造交易回执
func Receipt(status uint64, blockNumber int64, logs ...*types.Log) *types.Receipt {
	for i, l := range logs {
		l.BlockNumber = uint64(blockNumber)
		l.Index = uint(i)
	}
	return &types.Receipt{
		Status:      status,
		BlockNumber: big.NewInt(blockNumber),
		Logs:        logs,
	}
}

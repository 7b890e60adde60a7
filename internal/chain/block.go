package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block 区块操作工具类
type Block struct {
	backend Backend
}

// NewBlock 创建区块工具类实例
func NewBlock(backend Backend) *Block {
	return &Block{backend: backend}
}

// GetBatchBlockLogs 批量获取区块范围内指定合约与事件的日志
func (b *Block) GetBatchBlockLogs(ctx context.Context, contractAddresses []common.Address, topics []common.Hash, fromBlock, toBlock int64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(fromBlock),
		ToBlock:   big.NewInt(toBlock),
		Addresses: contractAddresses,
	}
	if len(topics) > 0 {
		query.Topics = [][]common.Hash{topics}
	}

	return b.backend.FilterLogs(ctx, query)
}

// GetCurrentBlockNumber 获取当前最新区块号
func (b *Block) GetCurrentBlockNumber(ctx context.Context) (int64, error) {
	n, err := b.backend.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

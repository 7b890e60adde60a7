package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

var supportedChainTypes = []string{"ethereum", "polygon", "bsc", "arbitrum", "optimism", "base", "anvil"}

// Manager 单链管理器
type Manager struct {
	mu     sync.RWMutex
	client *ethclient.Client  // 链客户端
	vault  *Vault             // 资金库合约
	config config.ChainConfig // 存储链配置
}

// NewManager 创建单链管理器
func NewManager(ctx context.Context, cfg config.ChainConfig) (*Manager, error) {
	if !common.IsHexAddress(cfg.VaultAddress) {
		return nil, fmt.Errorf("invalid vault address: %q", cfg.VaultAddress)
	}

	vault, err := NewVault(common.HexToAddress(cfg.VaultAddress))
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		vault:  vault,
		config: cfg,
	}

	// 初始化客户端
	if err := manager.initClient(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}

	return manager, nil
}

// initClient 初始化客户端
func (m *Manager) initClient(ctx context.Context, cfg config.ChainConfig) error {
	logger.Info("Initializing chain client (type: %s, id: %d)", cfg.ChainType, cfg.ChainId)

	if cfg.RpcUrl == "" {
		return fmt.Errorf("no RPC URL configured")
	}

	// 验证链类型
	isSupported := false
	for _, supportedType := range supportedChainTypes {
		if cfg.ChainType == supportedType {
			isSupported = true
			break
		}
	}
	if !isSupported {
		return fmt.Errorf("unsupported chain type %s, supported types: %v", cfg.ChainType, supportedChainTypes)
	}

	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}

	// 测试连接并核对链ID
	testCtx, cancel := context.WithTimeout(ctx, cfg.ReadTimeout)
	defer cancel()
	chainID, err := client.ChainID(testCtx)
	if err != nil {
		client.Close()
		return fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}
	if chainID.Int64() != cfg.ChainId {
		client.Close()
		return fmt.Errorf("chain id mismatch: configured %d, node reports %s", cfg.ChainId, chainID)
	}

	m.client = client
	logger.Info("Successfully created %s client, vault %s", cfg.ChainType, m.vault.Address().Hex())
	return nil
}

// GetClient 获取客户端
func (m *Manager) GetClient() *ethclient.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// GetVault 获取资金库合约
func (m *Manager) GetVault() *Vault {
	return m.vault
}

// GetConfig 获取链配置
func (m *Manager) GetConfig() config.ChainConfig {
	return m.config
}

// GetHealthStatus 获取健康状态
func (m *Manager) GetHealthStatus(ctx context.Context) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health := map[string]interface{}{
		"chain_type":    m.config.ChainType,
		"chain_id":      m.config.ChainId,
		"vault":         m.vault.Address().Hex(),
		"client_status": "connected",
	}

	if m.client == nil {
		health["client_status"] = "not_initialized"
		return health
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	head, err := m.client.BlockNumber(ctx)
	if err != nil {
		health["client_status"] = "disconnected"
		return health
	}
	health["head_block"] = head

	return health
}

// Close 关闭管理器
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Close()
		m.client = nil
	}

	logger.Info("Chain manager closed")
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Claims    ClaimsConfig    `mapstructure:"claims"`
	Task      TaskConfig      `mapstructure:"task"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置，driver 支持 postgres、mysql、sqlite
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	Path         string `mapstructure:"path"` // sqlite 文件路径
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// ChainConfig 单链配置
type ChainConfig struct {
	ChainType     string        `mapstructure:"chain_type"`    // 链类型 (ethereum, polygon, etc.)
	ChainId       int64         `mapstructure:"chain_id"`      // 链ID
	RpcUrl        string        `mapstructure:"rpc_url"`       // RPC节点URL
	PrivateKey    string        `mapstructure:"private_key"`   // 签名私钥
	VaultAddress  string        `mapstructure:"vault_address"` // 资金库合约地址
	DeployBlock   int64         `mapstructure:"deploy_block"`  // 合约部署区块号
	Confirmations uint64        `mapstructure:"confirmations"` // 交易确认数
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`  // 链上读取超时
	Domain        DomainConfig  `mapstructure:"domain"`        // 签名域
}

// DomainConfig 类型化签名的域信息
type DomainConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ClaimsConfig 领取规则配置
type ClaimsConfig struct {
	RefundDelay        time.Duration `mapstructure:"refund_delay"`        // 无活动多久后可退款
	BuilderSharePct    string        `mapstructure:"builder_share_pct"`   // 构建者分成百分比
	SubmitterSharePct  string        `mapstructure:"submitter_share_pct"` // 提交者分成百分比
	ReconcileTolerance int64         `mapstructure:"reconcile_tolerance"` // 对账容差（最小单位）
	StatusRetry        RetryConfig   `mapstructure:"status_retry"`        // 状态写入重试策略
}

// RetryConfig 重试策略配置
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// BuilderShare 构建者分成比例（0-1）
func (c ClaimsConfig) BuilderShare() decimal.Decimal {
	return pctToShare(c.BuilderSharePct)
}

// SubmitterShare 提交者分成比例（0-1）
func (c ClaimsConfig) SubmitterShare() decimal.Decimal {
	return pctToShare(c.SubmitterSharePct)
}

func pctToShare(pct string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(pct))
	if err != nil {
		return decimal.Zero
	}
	return d.Div(decimal.NewFromInt(100))
}

type TaskConfig struct {
	Interval       int   `mapstructure:"interval"`        // 秒
	SyncBatchSize  int64 `mapstructure:"sync_batch_size"` // 每批扫描区块数
	PoolSize       int   `mapstructure:"pool_size"`       // 协程池大小
	ReconcileBatch int   `mapstructure:"reconcile_batch"` // 每次处理的对账任务数
	MaxAttempts    int   `mapstructure:"max_attempts"`    // 对账任务最大尝试次数
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// AuthConfig 调用方身份配置，身份由上游网关校验后通过请求头传入
type AuthConfig struct {
	CallerHeader string  `mapstructure:"caller_header"`
	AdminUserIds []int64 `mapstructure:"admin_user_ids"`
}

// IsAdmin 是否为管理员
func (a AuthConfig) IsAdmin(userId int64) bool {
	for _, id := range a.AdminUserIds {
		if id == userId {
			return true
		}
	}
	return false
}

// RateLimitConfig 签名接口限流配置
type RateLimitConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "shipyard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "shipyard.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("chain.chain_type", "ethereum")
	v.SetDefault("chain.chain_id", 1)
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.private_key", "")
	v.SetDefault("chain.vault_address", "")
	v.SetDefault("chain.deploy_block", 0)
	v.SetDefault("chain.confirmations", 0)
	v.SetDefault("chain.read_timeout", "10s")
	v.SetDefault("chain.domain.name", "ShipyardVault")
	v.SetDefault("chain.domain.version", "1")
	v.SetDefault("claims.refund_delay", "720h")
	v.SetDefault("claims.builder_share_pct", "85")
	v.SetDefault("claims.submitter_share_pct", "5")
	v.SetDefault("claims.reconcile_tolerance", 1)
	v.SetDefault("claims.status_retry.max_attempts", 3)
	v.SetDefault("claims.status_retry.initial_interval", "200ms")
	v.SetDefault("claims.status_retry.max_interval", "2s")
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.sync_batch_size", 500)
	v.SetDefault("task.pool_size", 8)
	v.SetDefault("task.reconcile_batch", 100)
	v.SetDefault("task.max_attempts", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("auth.caller_header", "X-Caller-Id")
	v.SetDefault("auth.admin_user_ids", []int64{})
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.idle_ttl", "10m")
}

// Load 从默认路径加载配置
func Load() (*Config, error) {
	return LoadFrom(".", "./config", "/etc/shipyard")
}

// LoadFrom 从指定目录加载 config.yaml，环境变量 SHIPYARD_* 覆盖文件配置
func LoadFrom(configPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix("SHIPYARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验配置之间的约束
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Chain.VaultAddress != "" && !common.IsHexAddress(c.Chain.VaultAddress) {
		return fmt.Errorf("%w: chain.vault_address %q is not a valid address", ErrInvalidConfig, c.Chain.VaultAddress)
	}
	if c.Chain.PrivateKey != "" {
		if _, err := crypto.HexToECDSA(strings.TrimPrefix(c.Chain.PrivateKey, "0x")); err != nil {
			return fmt.Errorf("%w: chain.private_key is not a valid secp256k1 key", ErrInvalidConfig)
		}
	}
	if c.Chain.ReadTimeout <= 0 {
		return fmt.Errorf("%w: chain.read_timeout must be positive", ErrInvalidConfig)
	}

	if c.Claims.RefundDelay <= 0 {
		return fmt.Errorf("%w: claims.refund_delay must be positive", ErrInvalidConfig)
	}
	for key, pct := range map[string]string{
		"claims.builder_share_pct":   c.Claims.BuilderSharePct,
		"claims.submitter_share_pct": c.Claims.SubmitterSharePct,
	} {
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, key)
		}
	}
	if c.Claims.BuilderShare().Add(c.Claims.SubmitterShare()).GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: builder and submitter shares exceed 100%%", ErrInvalidConfig)
	}
	if c.Claims.ReconcileTolerance < 0 {
		return fmt.Errorf("%w: claims.reconcile_tolerance must not be negative", ErrInvalidConfig)
	}
	if c.Claims.StatusRetry.MaxAttempts < 1 {
		return fmt.Errorf("%w: claims.status_retry.max_attempts must be at least 1", ErrInvalidConfig)
	}

	if c.RateLimit.RequestsPerMinute < 1 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("%w: rate_limit.requests_per_minute and rate_limit.burst must be at least 1", ErrInvalidConfig)
	}
	if c.RateLimit.IdleTTL <= 0 {
		return fmt.Errorf("%w: rate_limit.idle_ttl must be positive", ErrInvalidConfig)
	}
	if c.Task.Interval < 1 || c.Task.SyncBatchSize < 1 || c.Task.PoolSize < 1 {
		return fmt.Errorf("%w: task.interval, task.sync_batch_size and task.pool_size must be at least 1", ErrInvalidConfig)
	}
	if c.Task.ReconcileBatch < 1 || c.Task.MaxAttempts < 1 {
		return fmt.Errorf("%w: task.reconcile_batch and task.max_attempts must be at least 1", ErrInvalidConfig)
	}

	return nil
}

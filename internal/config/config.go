package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/hbulgarini/imbue/internal/logger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
	Genesis  GenesisConfig  `mapstructure:"genesis"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 读模型数据库，Enabled 为 false 时不启动读模型
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// StoreConfig 状态存储
type StoreConfig struct {
	Path     string `mapstructure:"path"`      // leveldb 目录
	InMemory bool   `mapstructure:"in_memory"` // 使用内存存储
}

// ChainConfig 区块高度来源，RpcUrl 为空时使用本地出块
type ChainConfig struct {
	ChainType     string `mapstructure:"chain_type"`     // 链类型 (ethereum, polygon, etc.)
	ChainId       int64  `mapstructure:"chain_id"`       // 链ID
	RpcUrl        string `mapstructure:"rpc_url"`        // RPC节点URL
	BlockInterval int    `mapstructure:"block_interval"` // 出块或同步间隔（秒）
	StartHeight   uint64 `mapstructure:"start_height"`   // 本地出块起始高度
}

// EngineConfig 引擎常量
type EngineConfig struct {
	PalletID                 string `mapstructure:"pallet_id"`                  // 托管账户派生前缀
	Authority                string `mapstructure:"authority"`                  // 管理员账户
	Treasury                 string `mapstructure:"treasury"`                   // 手续费接收账户
	FeePercent               uint64 `mapstructure:"fee_percent"`                // 提款手续费百分比
	MilestoneVotingWindow    uint64 `mapstructure:"milestone_voting_window"`    // 里程碑投票窗口（区块）
	NoConfidenceTimeLimit    uint64 `mapstructure:"no_confidence_time_limit"`   // 不信任投票窗口（区块）
	MilestoneApprovalPercent uint64 `mapstructure:"milestone_approval_percent"` // 赞成票需超过的百分比
	MilestoneQuorumPercent   uint64 `mapstructure:"milestone_quorum_percent"`   // 最低参与率
	NoConfidencePassPercent  uint64 `mapstructure:"no_confidence_pass_percent"` // 不信任通过百分比
	MaxProjectsPerRound      uint32 `mapstructure:"max_projects_per_round"`     // 每轮项目上限初始值
}

// TaskConfig 定时任务
type TaskConfig struct {
	KeeperInterval int    `mapstructure:"keeper_interval"` // 秒
	KeeperAccount  string `mapstructure:"keeper_account"`  // 执行不信任投票结算的账户
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

// GenesisConfig 初始状态文件
type GenesisConfig struct {
	File string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "imbue")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("store.path", "data/state")
	v.SetDefault("store.in_memory", false)
	v.SetDefault("chain.chain_type", "ethereum")
	v.SetDefault("chain.block_interval", 6)
	v.SetDefault("chain.start_height", 1)
	v.SetDefault("engine.pallet_id", "imbue/pr")
	v.SetDefault("engine.fee_percent", 5)
	v.SetDefault("engine.milestone_voting_window", 100)
	v.SetDefault("engine.no_confidence_time_limit", 100)
	v.SetDefault("engine.milestone_approval_percent", 50)
	v.SetDefault("engine.milestone_quorum_percent", 0)
	v.SetDefault("engine.no_confidence_pass_percent", 75)
	v.SetDefault("engine.max_projects_per_round", 5)
	v.SetDefault("task.keeper_interval", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Load 读取配置，path 为空时按默认目录查找 config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/imbue")
	}

	setDefaults(v)

	// 环境变量 IMBUE_ENGINE_FEE_PERCENT 覆盖 engine.fee_percent
	v.SetEnvPrefix("imbue")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unable to decode config into struct")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 校验百分比类参数
func (c *Config) Validate() error {
	e := c.Engine
	switch {
	case e.FeePercent > 100:
		return errors.Errorf("engine.fee_percent %d exceeds 100", e.FeePercent)
	case e.MilestoneApprovalPercent > 100:
		return errors.Errorf("engine.milestone_approval_percent %d exceeds 100", e.MilestoneApprovalPercent)
	case e.MilestoneQuorumPercent > 100:
		return errors.Errorf("engine.milestone_quorum_percent %d exceeds 100", e.MilestoneQuorumPercent)
	case e.NoConfidencePassPercent == 0 || e.NoConfidencePassPercent > 100:
		return errors.Errorf("engine.no_confidence_pass_percent %d must be within 1..100", e.NoConfidencePassPercent)
	case e.MilestoneVotingWindow == 0 || e.NoConfidenceTimeLimit == 0:
		return errors.New("engine voting windows must be positive")
	}
	return nil
}

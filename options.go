package vitalchain

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/txscript"
)

// Version 当前程序版本，配置文件中的版本不能比它新
const Version = "0.1.0"

const (
	dbDir      = "db"       // 数据库目录
	logsDir    = "logs"     // 日志目录
	ledgerDir  = "ledger"   // 账本 badger 目录
	indexDir   = "business" // 业务 sqlite 目录
	optionFile = "vitalchain.yaml"
)

var (
	ErrInstanceOpened   = fault.InvalidError("instance already opened")
	ErrRelativeRootPath = fault.InvalidError("root path must be absolute")
	ErrUnknownNetwork   = fault.InvalidError("unknown network")
	ErrNewerOptions     = fault.InvalidError("options file written by a newer version")
	ErrProgramLimits    = fault.InvalidError("program limits must be positive")
)

// Options 运行实例的参数
type Options struct {
	IsOpened bool `yaml:"-"` // 实例是否已打开

	InstanceId string `yaml:"instance_id"` // 实例标识符，用于区分账本与日志文件
	Version    string `yaml:"version"`     // 写入配置文件的程序版本
	RootPath   string `yaml:"root_path"`   // 数据与日志的根路径
	Network    string `yaml:"network"`     // mainnet、testnet3、regtest、signet
	LogLevel   string `yaml:"log_level"`   // logrus 日志级别

	// MaxProgramSize 单个程序的最大字节数
	MaxProgramSize int `yaml:"max_program_size"`
	// MaxInstructions 单个程序的最大指令数
	MaxInstructions int `yaml:"max_instructions"`
	// DecodeWorkers 并行解码程序的协程数
	DecodeWorkers int `yaml:"decode_workers"`

	RequireCommit bool `yaml:"require_commit"` // 是否要求提供承诺交易并校验其输出
	IndexEnabled  bool `yaml:"index_enabled"`  // 是否写入 sqlite 业务索引
	InMemory      bool `yaml:"in_memory"`      // 账本只保存在内存中
}

// DefaultOptions 设置一个推荐选项列表
func DefaultOptions() *Options {
	return &Options{
		Version:         Version,
		RootPath:        filepath.Join(".", "vitalchain"),
		Network:         chaincfg.MainNetParams.Name,
		LogLevel:        logrus.InfoLevel.String(),
		MaxProgramSize:  txscript.MaxPayloadSize,
		MaxInstructions: 64,
		DecodeWorkers:   runtime.NumCPU(),
		RequireCommit:   false,
		IndexEnabled:    true,
	}
}

// BuildInstanceId 设置实例ID，未指定时使用主网卡的 MAC 地址
func (opt *Options) BuildInstanceId(instanceId ...string) {
	if opt.IsOpened {
		return
	}

	if len(instanceId) > 0 && instanceId[0] != "" {
		opt.InstanceId = instanceId[0]
		return
	}
	mac, err := GetPrimaryMACAddress()
	if err != nil {
		// 生成随机字符串作为替代值
		mac, _ = generateRandomString(12)
	}
	opt.InstanceId = mac
}

// BuildRootPath 设置根路径，路径不存在时创建
func (opt *Options) BuildRootPath(fs afero.Fs, path string) error {
	if opt.IsOpened {
		return ErrInstanceOpened
	}
	if path == "" {
		return nil
	}
	if !filepath.IsAbs(path) {
		return ErrRelativeRootPath
	}
	if err := fs.MkdirAll(path, 0755); err != nil {
		return err
	}
	opt.RootPath = path
	return nil
}

// BuildNetwork 设置比特币网络
func (opt *Options) BuildNetwork(network string) error {
	if _, err := paramsByName(network); err != nil {
		return err
	}
	opt.Network = network
	return nil
}

// BuildLogLevel 设置日志级别
func (opt *Options) BuildLogLevel(level string) error {
	if _, err := logrus.ParseLevel(level); err != nil {
		return err
	}
	opt.LogLevel = level
	return nil
}

// BuildInMemory 账本只保存在内存中，用于测试与一次性回放
func (opt *Options) BuildInMemory() {
	if opt.IsOpened {
		return
	}
	opt.InMemory = true
}

// CheckAndSetOptions 检查并补全选项
func (opt *Options) CheckAndSetOptions() error {
	if opt.IsOpened {
		return fmt.Errorf("'%s': %w", opt.InstanceId, ErrInstanceOpened)
	}
	if opt.MaxProgramSize <= 0 || opt.MaxInstructions <= 0 {
		return ErrProgramLimits
	}
	if opt.MaxProgramSize > txscript.MaxPayloadSize {
		opt.MaxProgramSize = txscript.MaxPayloadSize
	}
	if opt.DecodeWorkers <= 0 {
		opt.DecodeWorkers = 1
	}
	if _, err := paramsByName(opt.Network); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(opt.LogLevel); err != nil {
		return err
	}
	return nil
}

// ChainParams 返回所选网络的参数
func (opt *Options) ChainParams() *chaincfg.Params {
	params, err := paramsByName(opt.Network)
	if err != nil {
		return &chaincfg.MainNetParams
	}
	return params
}

// LedgerPath 账本数据库路径，每个实例一个目录
func (opt *Options) LedgerPath() string {
	if opt.InstanceId == "" {
		return filepath.Join(opt.RootPath, dbDir, ledgerDir)
	}
	return filepath.Join(opt.RootPath, dbDir, fmt.Sprintf("%s_%s", ledgerDir, opt.InstanceId))
}

// IndexPath 业务索引数据库目录
func (opt *Options) IndexPath() string {
	return filepath.Join(opt.RootPath, dbDir, indexDir)
}

// LogsPath 日志目录
func (opt *Options) LogsPath() string {
	return filepath.Join(opt.RootPath, logsDir)
}

// OptionsPath 根路径下的默认配置文件
func (opt *Options) OptionsPath() string {
	return filepath.Join(opt.RootPath, optionFile)
}

// LoadOptions 从 YAML 文件读取选项，未出现的字段保持默认值
func LoadOptions(fs afero.Fs, path string) (*Options, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		logrus.Errorf("[LoadOptions] 读取配置失败:\t%v", err)
		return nil, err
	}

	opt := DefaultOptions()
	if err := yaml.Unmarshal(raw, opt); err != nil {
		logrus.Errorf("[LoadOptions] 解析配置失败:\t%v", err)
		return nil, err
	}
	if opt.Version != "" && CompareVersions(opt.Version, Version) > 0 {
		return nil, fmt.Errorf("%s > %s: %w", opt.Version, Version, ErrNewerOptions)
	}
	return opt, nil
}

// SaveOptions 将选项写入 YAML 文件
func SaveOptions(fs afero.Fs, path string, opt *Options) error {
	out := *opt
	out.Version = Version
	raw, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, raw, 0644)
}

// paramsByName 按名称查找网络参数
func paramsByName(network string) (*chaincfg.Params, error) {
	for _, params := range []*chaincfg.Params{
		&chaincfg.MainNetParams,
		&chaincfg.TestNet3Params,
		&chaincfg.RegressionNetParams,
		&chaincfg.SigNetParams,
	} {
		if params.Name == network {
			return params, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", network, ErrUnknownNetwork)
}

package vitalchain

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"github.com/qinglongcn/vitalchain/ledger"
)

// App 提供了处理区块所需的各种服务
type App struct {
	ctx      context.Context      // 全局上下文
	opt      *Options             // 选项配置
	ledger   *ledger.BadgerLedger // 资源账本
	db       *SqliteDB            // 业务索引，未启用时为 nil
	registry *prometheus.Registry // 统计注册表
	runner   *Runner              // 区块执行器

	app *fx.App
}

// Open 打开账本与索引并返回一个新的实例
func Open(opt *Options) (*App, error) {
	// 1. 检查并设置选项
	if err := opt.CheckAndSetOptions(); err != nil {
		return nil, err
	}
	// 2. 日志
	if err := SetLog(opt.LogsPath(), opt.InstanceId, opt.LogLevel); err != nil {
		return nil, err
	}

	a := &App{
		ctx:      context.Background(),
		opt:      opt,
		registry: prometheus.NewRegistry(),
	}

	// fx 配置项
	opts := []fx.Option{
		fx.NopLogger,
		a.globalInit(),
		fx.Provide(
			NewLedger,      // 资源账本
			NewIndex,       // 业务索引
			NewMetrics,     // 统计
			NewBlockRunner, // 区块执行器
		),
		fx.Populate(
			&a.ledger,
			&a.db,
			&a.runner,
		),
	}
	a.app = fx.New(opts...)
	if err := a.app.Err(); err != nil {
		logrus.Errorf("[Open] 依赖注入失败:\t%v", err)
		return nil, err
	}
	if err := a.app.Start(a.ctx); err != nil {
		logrus.Errorf("[Open] 启动失败:\t%v", err)
		return nil, err
	}

	opt.IsOpened = true
	logrus.WithFields(logrus.Fields{
		"instance": opt.InstanceId,
		"network":  opt.Network,
		"ledger":   opt.LedgerPath(),
	}).Info("[Open] 实例已打开")
	return a, nil
}

// 全局初始化
func (a *App) globalInit() fx.Option {
	return fx.Provide(
		func() context.Context {
			return a.ctx
		},
		func() *Options {
			return a.opt
		},
		func() prometheus.Registerer {
			return a.registry
		},
	)
}

// Close 停止全部服务并关闭数据库
func (a *App) Close() error {
	defer func() { a.opt.IsOpened = false }()
	return a.app.Stop(a.ctx)
}

// ProcessBlock 处理一个区块
func (a *App) ProcessBlock(ctx context.Context, height int32, reveals []Reveal) ([]TxStatus, error) {
	return a.runner.ProcessBlock(ctx, height, reveals)
}

// Ledger 返回资源账本
func (a *App) Ledger() *ledger.BadgerLedger { return a.ledger }

// Index 返回业务索引，未启用时为 nil
func (a *App) Index() *SqliteDB { return a.db }

// Gatherer 返回统计数据的采集接口
func (a *App) Gatherer() prometheus.Gatherer { return a.registry }

type NewLedgerInput struct {
	fx.In

	Opt *Options
}

type NewLedgerOutput struct {
	fx.Out

	Ledger *ledger.BadgerLedger
}

// NewLedger 打开资源账本，停止时关闭
func NewLedger(lc fx.Lifecycle, input NewLedgerInput) (out NewLedgerOutput, err error) {
	var l *ledger.BadgerLedger
	if input.Opt.InMemory {
		l, err = ledger.OpenInMemoryLedger()
	} else {
		l, err = ledger.OpenBadgerLedger(input.Opt.LedgerPath())
	}
	if err != nil {
		logrus.Errorf("[NewLedger] 打开账本失败:\t%v", err)
		return out, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return l.Close()
		},
	})
	out.Ledger = l
	return out, nil
}

type NewIndexInput struct {
	fx.In

	Opt *Options
}

type NewIndexOutput struct {
	fx.Out

	DB *SqliteDB
}

// NewIndex 打开业务索引并建表，未启用时提供 nil
func NewIndex(lc fx.Lifecycle, input NewIndexInput) (out NewIndexOutput, err error) {
	if !input.Opt.IndexEnabled {
		return out, nil
	}
	db, err := NewSqliteDB(input.Opt.IndexPath(), DbFile)
	if err != nil {
		return out, err
	}
	if err := db.InitDBTable(); err != nil {
		db.Close()
		return out, fmt.Errorf("init index tables: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return db.Close()
		},
	})
	out.DB = db
	return out, nil
}

type NewBlockRunnerInput struct {
	fx.In

	Opt     *Options
	Ledger  *ledger.BadgerLedger
	DB      *SqliteDB
	Metrics *Metrics
}

// NewBlockRunner 组装区块执行器
func NewBlockRunner(input NewBlockRunnerInput) *Runner {
	return NewRunner(input.Opt, input.Ledger, input.DB, input.Metrics)
}

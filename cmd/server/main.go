package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/hbulgarini/imbue/internal/chain"
	"github.com/hbulgarini/imbue/internal/config"
	"github.com/hbulgarini/imbue/internal/database"
	"github.com/hbulgarini/imbue/internal/engine"
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/genesis"
	"github.com/hbulgarini/imbue/internal/identity"
	"github.com/hbulgarini/imbue/internal/ledger"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
	"github.com/hbulgarini/imbue/internal/router"
	"github.com/hbulgarini/imbue/internal/scheduler"
	"github.com/hbulgarini/imbue/internal/store"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file")
	pflag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := logger.Setup(cfg.Log); err != nil {
		logger.Fatal("Failed to setup logger: %v", err)
	}
	defer logger.Sync()

	// 初始化状态存储
	var st *store.Store
	if cfg.Store.InMemory {
		st, err = store.OpenMemory()
	} else {
		st, err = store.Open(cfg.Store.Path)
	}
	if err != nil {
		logger.Fatal("Failed to open store: %v", err)
	}
	defer st.Close()

	// 账本与身份
	l := ledger.NewMemory()
	registry := identity.NewRegistry()
	if cfg.Genesis.File != "" {
		g, err := genesis.Load(cfg.Genesis.File)
		if err != nil {
			logger.Fatal("Failed to load genesis: %v", err)
		}
		if err := g.Apply(l, registry); err != nil {
			logger.Fatal("Failed to apply genesis: %v", err)
		}
	}

	// 区块高度来源
	var source chain.Source
	if cfg.Chain.RpcUrl != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		ethClock, err := chain.NewEthClock(ctx, cfg.Chain)
		cancel()
		if err != nil {
			logger.Fatal("Failed to initialize chain clock: %v", err)
		}
		defer ethClock.Close()
		source = ethClock
	} else {
		source = chain.NewLocalClock(model.BlockNumber(cfg.Chain.StartHeight))
	}

	engineCfg, err := engine.NewConfig(cfg.Engine)
	if err != nil {
		logger.Fatal("Invalid engine config: %v", err)
	}

	// 读模型
	var (
		db        *gorm.DB
		publisher event.Publisher
	)
	if cfg.Database.Enabled {
		db, err = database.Init(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to initialize database: %v", err)
		}
		bus, err := event.NewBus(event.NewReadModelManager(db), 8, 256)
		if err != nil {
			logger.Fatal("Failed to create event bus: %v", err)
		}
		bus.Start()
		defer bus.Stop()
		publisher = bus
	}

	e, err := engine.New(engineCfg, st, l, registry, source, publisher)
	if err != nil {
		logger.Fatal("Failed to create engine: %v", err)
	}

	// 启动定时任务
	tasks, err := scheduler.NewManager()
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	interval := time.Duration(cfg.Chain.BlockInterval) * time.Second
	if err := tasks.Register(scheduler.NewBlockProducerJob(source, interval)); err != nil {
		logger.Fatal("%v", err)
	}
	if cfg.Task.KeeperAccount != "" {
		keeper, err := model.ParseAccount(cfg.Task.KeeperAccount)
		if err != nil {
			logger.Fatal("Invalid task.keeper_account: %v", err)
		}
		keeperInterval := time.Duration(cfg.Task.KeeperInterval) * time.Second
		if err := tasks.Register(scheduler.NewNoConfidenceKeeperJob(e, keeper, keeperInterval)); err != nil {
			logger.Fatal("%v", err)
		}
	}
	tasks.Start()
	defer tasks.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Setup(e, db),
	}
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
}

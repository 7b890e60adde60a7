package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/CalistoMango/TheShipyard-sub001/internal/database"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/retry"
	"github.com/CalistoMango/TheShipyard-sub001/internal/router"
	"github.com/CalistoMango/TheShipyard-sub001/internal/task"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Setup(cfg.Log); err != nil {
		logger.Fatal("Failed to setup logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化链客户端
	chainManager, err := chain.NewManager(ctx, cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize chain manager: %v", err)
	}
	defer chainManager.Close()

	vault := chainManager.GetVault()
	verifier := chain.NewVerifier(chainManager.GetClient(), vault, cfg.Chain.ReadTimeout, cfg.Chain.Confirmations)
	signer, err := chain.NewSigner(cfg.Chain.PrivateKey, cfg.Chain.Domain.Name, cfg.Chain.Domain.Version, cfg.Chain.ChainId, vault.Address())
	if err != nil {
		logger.Fatal("Failed to initialize signer: %v", err)
	}
	logger.Info("Claim signer %s, vault %s", signer.Address().Hex(), vault.Address().Hex())

	// 业务逻辑
	clock := clockwork.NewRealClock()
	calculator := logic.NewClaimCalculator(db, clock, logic.NewCalculatorConfig(cfg.Claims))
	sink := logic.NewReconciliationSink(db)
	reconciler := logic.NewLedgerReconciler(db, calculator, sink, clock, cfg.Claims.ReconcileTolerance)
	claims := logic.NewClaimLogic(db,
		logic.NewSignatureIssuer(verifier, calculator, signer, clock),
		verifier,
		logic.NewReplayGuard(db),
		reconciler,
	)
	funding := logic.NewFundingLogic(db, verifier, clock)
	reports := logic.NewReportLogic(db, sink, retry.NewPolicy(cfg.Claims.StatusRetry), clock)
	reconcile := logic.NewReconcileLogic(db, verifier, calculator, reports, cfg.Claims.ReconcileTolerance)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(cfg, router.Services{
		Claims:  claims,
		Funding: funding,
		Reports: reports,
		Health:  chainManager,
	})

	// 启动定时任务
	tasks, err := task.NewTaskManager(
		task.NewVaultSyncJob(db, cfg, chain.NewBlock(chainManager.GetClient()), vault, funding, claims),
		task.NewReconcileJob(db, cfg, reconcile),
	)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	if err := tasks.Start(); err != nil {
		logger.Fatal("Failed to start task manager: %v", err)
	}

	// 启动服务器
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
	tasks.Stop()

	logger.Info("Server exited")
}

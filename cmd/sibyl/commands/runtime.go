package commands

import (
	"fmt"

	"github.com/jmoretti/sibyl/internal/api/handlers"
	"github.com/jmoretti/sibyl/internal/backtest"
	"github.com/jmoretti/sibyl/internal/brain"
	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/internal/data"
	"github.com/jmoretti/sibyl/internal/features"
	"github.com/jmoretti/sibyl/internal/marketdata"
	"github.com/jmoretti/sibyl/internal/predict"
	"github.com/jmoretti/sibyl/internal/quality"
	"github.com/jmoretti/sibyl/pkg/config"
	"github.com/jmoretti/sibyl/pkg/database"
	"github.com/jmoretti/sibyl/pkg/logger"
	"github.com/jmoretti/sibyl/pkg/redis"
)

// runtime holds the wired application graph shared by all commands.
type runtime struct {
	cfg          *config.Config
	log          *logger.Logger
	db           *database.DB
	redis        *redis.Client
	orchestrator *brain.Orchestrator
}

// newRuntime loads config and wires every collaborator. The caller
// must Close the runtime when done.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(level, cfg.LogFormat, cfg.Env)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	market := marketdata.NewClient(cfg.Provider, log)

	priceRepo := data.NewPriceRepository(db.Pool)
	priceStore := data.NewPriceStore(priceRepo, redis.NewCache(redisClient, "sibyl"), log)
	qualityRepo := data.NewQualityRepository(db.Pool)
	resultRepo := data.NewResultRepository(db.Pool)

	qualityPipeline := quality.New(quality.DefaultConfig(), log)
	engineer := features.New(log)
	predictor := predict.New(predict.Config{
		WindowSize:            cfg.Engine.WindowSize,
		UncertaintyIterations: cfg.Engine.UncertaintyIterations,
	}, log)
	backtester := backtest.New(backtest.Config{
		WindowSize:      cfg.Engine.WindowSize,
		Horizon:         cfg.Engine.Horizon,
		InitialCapital:  cfg.Engine.InitialCapital,
		TransactionCost: cfg.Engine.TransactionCost,
		Thresholds: contracts.SignalThresholds{
			BuyThreshold:  cfg.Engine.BuyThreshold,
			SellThreshold: cfg.Engine.SellThreshold,
			MinConfidence: cfg.Engine.MinConfidence,
		},
	}, predictor, log)

	orchestrator := brain.New(
		market, priceStore, qualityPipeline, qualityRepo, resultRepo,
		engineer, predictor, backtester, cfg.Engine, log,
	)

	return &runtime{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        redisClient,
		orchestrator: orchestrator,
	}, nil
}

func (rt *runtime) Close() {
	_ = rt.redis.Close()
	rt.db.Close()
}

func (rt *runtime) handlers() (*handlers.HealthHandler, *handlers.QualityHandler, *handlers.ForecastHandler, *handlers.BacktestHandler) {
	return handlers.NewHealthHandler(rt.db, rt.log),
		handlers.NewQualityHandler(rt.orchestrator, rt.log),
		handlers.NewForecastHandler(rt.orchestrator, rt.log),
		handlers.NewBacktestHandler(rt.orchestrator, rt.log)
}

package app

import (
	"context"
	"sync"

	"github.com/alphaduel/arena/internal/debate"
	"github.com/alphaduel/arena/internal/marketdata"
	"github.com/alphaduel/arena/internal/settlement"
	"github.com/alphaduel/arena/internal/storage"
	"github.com/alphaduel/arena/pkg/config"
	"github.com/alphaduel/arena/pkg/healthprobe"
	"github.com/alphaduel/arena/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator for serve mode.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	engine        *debate.Engine
	provider      *marketdata.CachedProvider
	guard         *settlement.StakeGuard
	store         storage.Storage
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

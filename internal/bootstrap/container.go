package bootstrap

import (
	"context"

	"literature-search-be/internal/config"
	"literature-search-be/internal/controller"
	"literature-search-be/internal/handler"
	"literature-search-be/internal/metrics"
	"literature-search-be/internal/pkg/logger"
	"literature-search-be/internal/repository/memory"
	"literature-search-be/internal/repository/unitofwork"
	"literature-search-be/internal/service"
	"literature-search-be/internal/websocket"
	"literature-search-be/pkg/smartsearch/remote"

	pktNats "literature-search-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	SmartSearchController controller.ISmartSearchController

	// Background Services (Exposed for main.go to run)
	EventRelayService service.IEventRelayService

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub

	// Metrics
	Registry *prometheus.Registry

	closers []func()
}

// Close releases broker connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to Redis, progress stays local", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		rdb = nil
	} else {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	wsLogger := logger.NewIsolatedLogger("logs/progress.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 4. Smart Search
	gateway := remote.NewClient(cfg.SmartSearch.GatewayURL, cfg.SmartSearch.GatewayToken, cfg.SmartSearch.GatewayTimeout)
	workflows := memory.NewWorkflowRepository(cfg.SmartSearch.WorkflowTTL)

	c.Registry = prometheus.NewRegistry()
	recorder := metrics.NewRecorder(c.Registry, func() float64 { return float64(workflows.Count()) })

	publisherService := service.NewPublisherService(pubSub, cfg.SmartSearch.EventsTopic)
	smartSearchService := service.NewSmartSearchService(
		gateway,
		workflows,
		uowFactory,
		publisherService,
		recorder,
		sysLogger,
		cfg.SmartSearch.DefaultSources,
	)

	c.EventRelayService = service.NewEventRelayService(
		pubSub,
		cfg.SmartSearch.EventsTopic,
		c.WebSocketHub, // Hub implements ProgressDelivery
		eventPublisher,
		sysLogger,
	)

	// 5. Controllers
	c.SmartSearchController = controller.NewSmartSearchController(smartSearchService)
	c.ProgressHandler = handler.NewProgressHandler(c.WebSocketHub, wsLogger)

	return c
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"telematics/internal/alarm"
	"telematics/internal/api/router"
	"telematics/internal/api/util"
	"telematics/internal/cache"
	"telematics/internal/config"
	"telematics/internal/core/model"
	"telematics/internal/core/repository"
	"telematics/internal/core/service"
	coreutil "telematics/internal/core/util"
	"telematics/internal/events"
	"telematics/internal/protocol"
	"telematics/internal/protocol/gt06"
	"telematics/internal/protocol/h02"
	"telematics/internal/protocol/server"
	"telematics/internal/protocol/xtakip"
	"telematics/internal/state"
)

const deviceIdleTimeout = 10 * time.Minute

type repositories struct {
	positions repository.PositionRepository
	states    repository.StateRepository
	alerts    repository.AlertRepository
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	config.SetupLogging(cfg.Log)

	var db *mongo.Database
	repos := repositories{
		positions: repository.NewInMemoryPositionRepository(),
		states:    repository.NewInMemoryStateRepository(),
		alerts:    repository.NewInMemoryAlertRepository(),
	}
	if cfg.Mongo.Enabled() {
		db, err = config.ConnectMongoDB(cfg.Mongo)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		defer config.DisconnectMongoDB(db)
		repos = repositories{
			positions: repository.NewMongoPositionRepository(db),
			states:    repository.NewMongoStateRepository(db),
			alerts:    repository.NewMongoAlertRepository(db),
		}
	} else {
		log.Warn().Msg("MongoDB URI not provided, keeping data in memory")
	}

	catalog, err := loadCatalog(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load alarm catalog")
	}
	log.Info().Int("codes", catalog.Len()).Msg("alarm catalog loaded")
	log.Debug().Ints("codes", catalog.Codes()).Msg("alarm catalog codes")

	redisClient := cache.New(cfg.Redis.URL)
	defer redisClient.Close()
	var queue service.CommandQueue = redisClient
	if !redisClient.Enabled() {
		queue = cache.NewMemoryQueue()
	}

	publisher, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
	if err != nil {
		log.Warn().Err(err).Msg("continuing without event publishing")
		publisher = events.NewPublisher(nil, cfg.NATS.SubjectPrefix)
	}
	defer publisher.Close()

	registry, err := protocol.NewRegistry(
		gt06.Family(gt06.Options{VerifyChecksum: cfg.Protocol.VerifyChecksum}),
		xtakip.Family(),
		h02.Family(),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build protocol registry")
	}
	for _, d := range registry.Decoders() {
		log.Debug().Str("decoder", d.Name()).Int("type", d.Type()).Msg("decoder registered")
	}

	deriver := state.NewDeriver(state.Options{
		IgnitionOnAlarm:  cfg.Protocol.IgnitionOnAlarm,
		IgnitionOffAlarm: cfg.Protocol.IgnitionOffAlarm,
	})

	ingestService, err := service.NewIngestService(service.IngestDeps{
		Registry:  registry,
		Deriver:   deriver,
		Catalog:   catalog,
		Positions: repos.positions,
		States:    repos.states,
		Alerts:    repos.alerts,
		Cache:     redisClient,
		StateTTL:  cfg.Redis.StateTTL,
		Queue:     queue,
		Events:    publisher,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build ingest service")
	}
	deviceService := service.NewDeviceService(repos.states, repos.alerts, redisClient, queue)
	positionService := service.NewPositionService(repos.positions)

	if _, err := publisher.SubscribeCommands(func(cmd model.Command) {
		if cmd.ID == "" {
			cmd.ID = coreutil.GenerateID()
		}
		if cmd.CreatedAt.IsZero() {
			cmd.CreatedAt = time.Now().UTC()
		}
		if err := queue.PushCommand(context.Background(), cmd); err != nil {
			log.Error().Err(err).Str("device", cmd.DeviceID).Msg("failed to queue command")
		}
	}); err != nil {
		log.Warn().Err(err).Msg("failed to subscribe to commands")
	}

	tcpServer := server.NewTCPServer(cfg.TCPAddr(), ingestService, server.Options{
		IdleTimeout: deviceIdleTimeout,
		SessionTTL:  deviceIdleTimeout,
		Sessions:    redisClient,
	})
	if err := tcpServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start TCP server")
	}
	defer tcpServer.Stop()

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = coreutil.GenerateID()
		log.Warn().Msg("JWT secret not provided, using a random secret for this process")
	}
	tokens, err := util.NewTokenManager(jwtSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token manager")
	}

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: router.NewRouter(router.Deps{
			DeviceService:   deviceService,
			PositionService: positionService,
			Tokens:          tokens,
			APIKey:          cfg.Auth.APIKey,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received signal, shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shut down HTTP server")
	}
}

// loadCatalog prefers the configured file, then the alarm_catalog collection.
// Without either every alarm code goes unmatched.
func loadCatalog(cfg *config.Config, db *mongo.Database) (*alarm.Catalog, error) {
	if cfg.AlarmCatalog != "" {
		return alarm.LoadFile(cfg.AlarmCatalog)
	}
	if db != nil {
		return repository.NewMongoAlarmCatalogRepository(db).LoadCatalog()
	}
	log.Warn().Msg("no alarm catalog configured, alerts disabled")
	return alarm.NewCatalog(nil)
}

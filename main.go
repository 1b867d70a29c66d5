package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messaging-service/internal/auth"
	"messaging-service/internal/cache"
	"messaging-service/internal/config"
	"messaging-service/internal/db"
	"messaging-service/internal/handlers"
	"messaging-service/internal/logger"
	"messaging-service/internal/middleware"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/rabbitmq"
	"messaging-service/internal/repositories"
	"messaging-service/internal/repositories/memory"
	"messaging-service/internal/services"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/ws"
)

const serviceName = "messaging-service"

type storage struct {
	messages      repositories.MessageRepository
	conversations repositories.ConversationRepository
	users         repositories.UserRepository
	close         func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.SetDebug(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer func() { _ = store.close() }()

	rdb := connectRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	logger.Info("event publisher mode=%s %s", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	observability.SetPublisher(publisher)
	events := telemetry.NewChatEvents(publisher, serviceName, cfg.Environment)

	userDirectory := cache.NewUserDirectory(store.users, rdb, time.Duration(cfg.ProfileCacheTTL)*time.Second)
	messageLog := services.NewMessageLog(store.messages, userDirectory)
	assembler := services.NewChatListAssembler(store.conversations, messageLog, userDirectory)

	hub := ws.NewHub()
	var frameRouter ws.Router = hub
	if rdb != nil {
		relay := ws.NewRedisRelay(rdb, hub)
		frameRouter = relay
		go relay.Run(ctx)
	}
	dispatcher := ws.NewDispatcher(frameRouter)

	chatService := services.NewChatService(messageLog, store.conversations, assembler, userDirectory, dispatcher, events)
	authenticator := auth.NewAuthenticator(cfg.JWTSecret, userDirectory)

	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageLog)
	chatWS := ws.NewChatWebSocketHandler(hub, authenticator, chatService, cfg.WSSendBuffer)

	router := gin.Default()

	// middlewares
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(authenticator, cfg.RESTAuth)
	handlers.RegisterRoutes(router.Group("/", authMiddleware), chatHandler, messageHandler)
	handlers.RegisterRoutes(router.Group("/api", authMiddleware), chatHandler, messageHandler)

	router.GET("/ws", chatWS.Handle)
	handlers.RegisterDebugRoutes(router, authenticator, cfg.DebugRoutes)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		logger.Info("messaging service listening port=%s storage=%s", cfg.Port, cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown: %v", err)
	}
}

func openStorage(cfg *config.Config) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		mem := memory.NewStore()
		for _, user := range demoUsers {
			mem.AddUser(user)
		}
		logger.Warn("using in-memory storage with %d demo users; data is lost on restart", len(demoUsers))
		return &storage{
			messages:      mem.Messages(),
			conversations: mem.Conversations(),
			users:         mem.Users(),
			close:         func() error { return nil },
		}, nil
	}

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	return &storage{
		messages:      repositories.NewMessageRepo(database),
		conversations: repositories.NewConversationRepo(database),
		users:         repositories.NewUserRepo(database),
		close:         database.Close,
	}, nil
}

var demoUsers = []models.UserProfile{
	{ID: 1, FirstName: "Ann", LastName: "Lee", Nickname: "ann", Email: "ann@example.com"},
	{ID: 2, FirstName: "Bob", LastName: "Kim", Nickname: "bob", Email: "bob@example.com"},
	{ID: 3, FirstName: "Cy", LastName: "Ng", Nickname: "cy", Email: "cy@example.com"},
}

func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Info("redis disabled: profile cache and cross-instance relay off")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable at %s, continuing without it: %v", cfg.RedisAddr, err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

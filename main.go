package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"community-chat/internal/db"
	"community-chat/internal/handlers"
	"community-chat/internal/middleware"
	"community-chat/internal/notify"
	"community-chat/internal/observability"
	"community-chat/internal/rabbitmq"
	"community-chat/internal/repositories"
	"community-chat/internal/telemetry"
	"community-chat/internal/ws"
)

func main() {
	ctx := context.Background()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	if err := db.SeedCompanies(database); err != nil {
		log.Printf("company seed skipped: %v", err)
	}

	serviceName := getEnv("SERVICE_NAME", "community-chat")
	environment := getEnv("ENVIRONMENT", "dev")

	shutdownTracing := telemetry.InitTracing(ctx, serviceName, getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""))
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	amqpURL := getEnv("AMQP_URL", "")
	exchange := getEnv("AMQP_EXCHANGE", "chat.events")

	publisher := rabbitmq.NewPublisher(amqpURL, exchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(publisher))

	if eventPublisher, err := observability.NewAMQPPublisher(amqpURL, exchange); err != nil {
		log.Printf("ws event publishing disabled: %v", err)
	} else {
		defer eventPublisher.Close()
		observability.SetPublisher(eventPublisher)
	}

	audit := telemetry.NewAuditEmitter(publisher, getEnv("AUDIT_ROUTING_KEY", "audit.chat"), serviceName, environment)

	messageRepo := repositories.NewMessageRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	groupMessageRepo := repositories.NewGroupMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)
	companyRepo := repositories.NewCompanyRepo(database)

	registry := ws.NewRegistry()
	hub := ws.NewHub(registry)
	notifier := notify.NewRouter(userRepo, companyRepo, registry, hub)
	session := ws.NewSession(hub, registry, messageRepo, groupMessageRepo, userRepo, notifier)
	wsHandler := ws.NewHandler(hub, registry, session)

	messageHandler := handlers.NewMessageHandler(messageRepo, groupMessageRepo, hub, audit)
	groupHandler := handlers.NewGroupHandler(groupRepo, groupMessageRepo, userRepo, hub, audit)
	companyHandler := handlers.NewCompanyHandler(companyRepo, func() error {
		return db.SeedCompanies(database)
	})
	userHandler := handlers.NewUserHandler(userRepo)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	handlers.RegisterHealthRoutes(router, database)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api/companies", companyHandler.ListCompanies)
	router.POST("/api/companies/init", companyHandler.InitCompanies)
	router.GET("/api/users", userHandler.ListUsers)

	router.GET("/api/messages/:company_id", messageHandler.ListMessages)
	router.POST("/api/messages", messageHandler.PostMessage)
	router.PUT("/api/messages/:message_id", messageHandler.EditMessage)
	router.DELETE("/api/messages/:message_id", messageHandler.DeleteMessage)
	router.DELETE("/api/messages/clear/:company_id", messageHandler.ClearCompanyMessages)
	router.DELETE("/api/messages/clear/group/:group_id", messageHandler.ClearGroupMessages)

	authMiddleware := middleware.AuthMiddleware()

	groups := router.Group("/api/groups", authMiddleware)
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("/user", groupHandler.ListUserGroups)
	groups.GET("/:group_id", groupHandler.GetGroup)
	groups.PUT("/:group_id", groupHandler.RenameGroup)
	groups.POST("/:group_id/members", groupHandler.AddMembers)
	groups.POST("/:group_id/leave", groupHandler.LeaveGroup)
	groups.GET("/:group_id/messages", groupHandler.GetGroupMessages)
	groups.POST("/:group_id/messages", groupHandler.PostGroupMessage)
	groups.DELETE("/:group_id/messages", messageHandler.ClearGroupMessages)

	router.GET("/ws", wsHandler.Handle)

	handlers.RegisterDebugRoutes(router, audit, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

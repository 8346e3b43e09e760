package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"gopkg.in/natefinch/lumberjack.v2"

	"hotel-reservations-service/common/messaging"
	natsmsg "hotel-reservations-service/common/messaging/nats"
	"hotel-reservations-service/config"
	"hotel-reservations-service/handlers"
	"hotel-reservations-service/repository"
	"hotel-reservations-service/routes"
	"hotel-reservations-service/services"
	"hotel-reservations-service/utils"
)

var (
	server      *gin.Engine
	ctx         context.Context
	mongoclient *mongo.Client

	eventRepo *repository.EventRepo

	reservedSubscriber messaging.Subscriber
	updatedSubscriber  messaging.Subscriber

	registry *services.CoordinatorRegistry

	ReservationRouteHandler routes.ReservationRouteHandler
)

func init() {
	ctx = context.TODO()

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, reading configuration from environment")
	}

	//logging
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	lumberjackLog := &lumberjack.Logger{
		Filename:  "/hotel-reservations-service/logs/logfile.log",
		MaxSize:   1,
		LocalTime: true,
	}
	logger.SetOutput(lumberjackLog)
	logger.WithFields(logrus.Fields{"path": "reservations/main"}).Info("Service starting")
	//logging

	storeLogger := log.New(os.Stdout, "[reservation-store] ", log.LstdFlags)
	serviceLogger := log.New(os.Stdout, "[reservation-service] ", log.LstdFlags)

	cfg := config.GetConfig()

	mongoconn := options.Client().ApplyURI(os.Getenv("MONGO_DB_URI"))
	var err error
	mongoclient, err = mongo.Connect(ctx, mongoconn)
	if err != nil {
		panic(err)
	}
	if err := mongoclient.Ping(ctx, readpref.Primary()); err != nil {
		panic(err)
	}
	logger.Info("MongoDB successfully connected...")

	tracerProvider, err := NewTracerProvider(cfg.ServiceName, cfg.JaegerAddress)
	if err != nil {
		log.Fatal("JaegerTraceProvider failed to Initialize", err)
	}
	tracer := tracerProvider.Tracer(cfg.ServiceName)

	reservationCollection := mongoclient.Database("hotel").Collection("reservations")
	roomCollection := mongoclient.Database("hotel").Collection("rooms")

	eventRepo, err = repository.NewEventRepo(storeLogger, tracer)
	if err != nil {
		logger.WithFields(logrus.Fields{"path": "reservations/main"}).Fatal("Cassandra event store failed to initialize: ", err)
	}
	eventRepo.CreateTable()

	roomCache := repository.NewRoomCache(storeLogger, tracer)
	roomCache.Ping()

	reservationRepo := repository.NewReservationRepo(reservationCollection, storeLogger, tracer)
	roomRepo := repository.NewRoomRepo(roomCollection, roomCache, storeLogger, tracer)

	localTime := utils.NewLocalTime(cfg.HotelUTCOffsetMinutes, cfg.DefaultCheckInTime, cfg.DefaultCheckOutTime)
	clock := services.RealClock{}

	availabilityService := services.NewAvailabilityServiceImpl(reservationRepo, roomRepo, serviceLogger, tracer)

	reservedPublisher := InitPublisher(cfg, cfg.RoomReservedSubject)
	updatedPublisher := InitPublisher(cfg, cfg.RoomReservationUpdatedSubject)

	reservationService := services.NewReservationServiceImpl(reservationRepo, availabilityService, eventRepo,
		localTime, clock, reservedPublisher, updatedPublisher, serviceLogger, tracer)

	registry = services.NewCoordinatorRegistry(availabilityService, clock, cfg.CheckDebounce, serviceLogger)

	reservedSubscriber = InitSubscriber(cfg, cfg.RoomReservedSubject)
	updatedSubscriber = InitSubscriber(cfg, cfg.RoomReservationUpdatedSubject)
	if err := reservedSubscriber.Subscribe(registry.HandleMessage); err != nil {
		log.Fatal(err)
	}
	if err := updatedSubscriber.Subscribe(registry.HandleMessage); err != nil {
		log.Fatal(err)
	}

	reservationsHandler := handlers.NewReservationsHandler(reservationService, tracer)
	availabilityHandler := handlers.NewAvailabilityHandler(registry, localTime, tracer)
	ReservationRouteHandler = routes.NewReservationRouteHandler(reservationsHandler, availabilityHandler)

	server = gin.Default()
}

func main() {
	defer mongoclient.Disconnect(ctx)
	defer eventRepo.CloseSession()
	defer func() {
		reservedSubscriber.Unsubscribe()
		updatedSubscriber.Unsubscribe()
		registry.Close()
	}()

	port := os.Getenv("PORT")
	if len(port) == 0 {
		port = "8082"
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"https://localhost:4200"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Session-Id")

	server.Use(cors.New(corsConfig))

	router := server.Group("/api")
	router.GET("/healthchecker", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "Message"})
	})

	ReservationRouteHandler.ReservationRoute(router)
	ReservationRouteHandler.AvailabilityRoute(router)

	err := server.Run(":" + port)
	if err != nil {
		fmt.Println(err)
		return
	}
}

func NewTracerProvider(serviceName, collectorEndpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(collectorEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize exporter due: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String("development"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}

func InitPublisher(cfg config.Config, subject string) messaging.Publisher {
	publisher, err := natsmsg.NewNATSPublisher(
		cfg.NatsHost, cfg.NatsPort,
		cfg.NatsUser, cfg.NatsPass, subject)
	if err != nil {
		log.Fatal(err)
	}
	return publisher
}

func InitSubscriber(cfg config.Config, subject string) messaging.Subscriber {
	subscriber, err := natsmsg.NewNATSSubscriber(
		cfg.NatsHost, cfg.NatsPort,
		cfg.NatsUser, cfg.NatsPass, subject, "")
	if err != nil {
		log.Fatal(err)
	}
	return subscriber
}

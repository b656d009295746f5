package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"tradepost/internal/adapter/api"
	"tradepost/internal/adapter/api/handler"
	apimiddleware "tradepost/internal/adapter/api/middleware"
	"tradepost/internal/adapter/api/router"
	"tradepost/internal/adapter/repository"
	domainrepo "tradepost/internal/domain/repository"
	"tradepost/internal/infrastructure/websocket"
	"tradepost/internal/usecase"
	"tradepost/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if path := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", path)
		}
		opts = append(opts, option.WithCredentialsFile(path))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	offerRepo := repository.NewFirestoreOfferRepository(firestoreClient)
	inventoryRepo := repository.NewFirestoreInventoryRepository(firestoreClient)
	settlementRepo := repository.NewFirestoreSettlementRepository(firestoreClient)
	historyRepo := repository.NewFirestoreHistoryRepository(firestoreClient)

	clock := domainrepo.SystemClock{}

	feedManager := websocket.NewManager()
	feedManager.Start(ctx)

	offerUseCase := usecase.NewOfferUseCase(offerRepo, inventoryRepo, clock, feedManager)
	settlementUseCase := usecase.NewSettlementUseCase(settlementRepo, offerRepo, clock, feedManager)
	historyUseCase := usecase.NewHistoryUseCase(historyRepo)

	handler.Setup(offerUseCase, settlementUseCase, historyUseCase)
	handler.SetupHealthHandler()

	offerUseCase.StartExpirySweeper(ctx, time.Duration(cfg.SweepIntervalMins)*time.Minute)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	feedHandler := handler.NewMarketFeedHandler(feedManager, authMiddleware)

	router.Setup(e, authMiddleware)
	router.SetupMarketFeedRouter(e, feedHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}

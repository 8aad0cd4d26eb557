package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/config"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/handlers/accounts"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/handlers/deposits"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/handlers/ledger"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/handlers/webhooks"
	appmiddleware "github.com/brokerage-labs/deposit-reconciliation/pkg/middleware"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/notify"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/provider/coinpay"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/reconcile"
	dydbstore "github.com/brokerage-labs/deposit-reconciliation/pkg/storage/dynamodb"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// AWS Session
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(awsCfg)
	store := dydbstore.New(dbClient, cfg.DepositsTable, cfg.AccountsTable, cfg.WebhookEventsTable, cfg.LedgerTable)

	// Settlement events go to SQS when a queue is configured; local runs
	// without one fall back to a no-op publisher.
	var publisher notify.Publisher = &notify.NoOpPublisher{}
	if cfg.SettlementQueueURL != "" {
		sqsClient := sqs.NewFromConfig(awsCfg)
		publisher = notify.NewSQSPublisher(sqsClient, cfg.SettlementQueueURL)
	}

	providerClient := coinpay.NewClient(cfg.CoinpayAPIKey, cfg.CoinpayBaseURL)
	reconciler := reconcile.New(store, publisher, cfg.ConfirmationThreshold, logger)

	depositsHandler := deposits.NewDepositsHandler(store, providerClient, reconciler, cfg.CallbackBaseURL, cfg.PollStaleness)
	webhooksHandler := webhooks.NewWebhooksHandler(store, store, reconciler, logger)
	accountsHandler := accounts.NewAccountsHandler(store)
	ledgerHandler := ledger.NewLedgerHandler(store)

	router := chi.NewRouter()
	router.Use(appmiddleware.NewStructuredLogger(logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Post("/deposits", depositsHandler.CreateDeposit)
	router.Get("/deposits", depositsHandler.ListDeposits)
	router.Get("/deposits/{depositId}", func(w http.ResponseWriter, r *http.Request) {
		depositsHandler.GetDepositById(w, r, chi.URLParam(r, "depositId"))
	})
	router.Get("/deposits/{depositId}/status", func(w http.ResponseWriter, r *http.Request) {
		depositsHandler.GetDepositStatus(w, r, chi.URLParam(r, "depositId"))
	})
	router.Post("/deposits/{depositId}/cancel", func(w http.ResponseWriter, r *http.Request) {
		depositsHandler.CancelDepositById(w, r, chi.URLParam(r, "depositId"))
	})

	// The provider delivers callbacks as both POST and GET.
	callback := func(w http.ResponseWriter, r *http.Request) {
		webhooksHandler.HandleDepositCallback(w, r, chi.URLParam(r, "token"))
	}
	router.Post("/callbacks/deposits/{token}", callback)
	router.Get("/callbacks/deposits/{token}", callback)

	router.Post("/accounts", accountsHandler.CreateAccount)
	router.Get("/accounts/{userId}", func(w http.ResponseWriter, r *http.Request) {
		accountsHandler.ListAccountsByUserId(w, r, chi.URLParam(r, "userId"))
	})
	router.Get("/accounts/{userId}/{accountId}", func(w http.ResponseWriter, r *http.Request) {
		accountsHandler.GetAccountById(w, r, chi.URLParam(r, "userId"), chi.URLParam(r, "accountId"))
	})

	router.Get("/ledger", ledgerHandler.ListLedgerEntries)

	log.Printf("Starting server on port %s", cfg.HTTPPort)

	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

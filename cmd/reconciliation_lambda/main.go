package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
	dydbstore "github.com/brokerage-labs/deposit-reconciliation/pkg/storage/dynamodb"
)

var store storage.Storage

// A deposit that has held the settlement lock this long had its credit
// transaction interrupted and the releasing update lost as well.
const stuckDepositThreshold = 20 * time.Minute

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)

	depositsTable := os.Getenv("DYNAMODB_DEPOSITS_TABLE_NAME")
	accountsTable := os.Getenv("DYNAMODB_ACCOUNTS_TABLE_NAME")
	webhookEventsTable := os.Getenv("DYNAMODB_WEBHOOK_EVENTS_TABLE_NAME")
	ledgerTable := os.Getenv("DYNAMODB_LEDGER_TABLE_NAME")

	store = dydbstore.New(dbClient, depositsTable, accountsTable, webhookEventsTable, ledgerTable)
}

// HandleRequest is triggered by an EventBridge Schedule.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting reconciliation sweep for stuck deposits...")

	stuckDeps, err := store.GetStuckDeposits(ctx, stuckDepositThreshold)
	if err != nil {
		log.Printf("ERROR: failed to get stuck deposits: %v", err)
		return err
	}

	if len(stuckDeps) == 0 {
		log.Println("No stuck deposits found.")
		return nil
	}

	log.Printf("Found %d stuck deposits. Releasing their settlement locks...", len(stuckDeps))

	for _, dep := range stuckDeps {
		if err := store.ReleaseCreditLock(ctx, dep.Id); err != nil {
			log.Printf("ERROR: failed to release settlement lock for deposit %s: %v", dep.Id, err)
			// Continue to the next deposit, don't let one failure stop the whole batch.
			continue
		}
		log.Printf("Released settlement lock for deposit %s; next provider signal will settle it", dep.Id)
	}

	log.Println("Reconciliation sweep finished.")
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}

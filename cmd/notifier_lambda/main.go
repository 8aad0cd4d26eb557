package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/notify"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
	dydbstore "github.com/brokerage-labs/deposit-reconciliation/pkg/storage/dynamodb"
)

var store storage.NotificationStore

func init() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize dependencies once.
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	depositsTable := os.Getenv("DYNAMODB_DEPOSITS_TABLE_NAME")
	if depositsTable == "" {
		log.Fatal("DYNAMODB_DEPOSITS_TABLE_NAME environment variable is not set")
	}

	store = dydbstore.New(dbClient, depositsTable, "", "", "")
}

// HandleRequest processes SQS settlement events and stamps the notification
// time on each deposit.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var event notify.SettlementEvent
		if err := json.Unmarshal([]byte(message.Body), &event); err != nil {
			log.Printf("ERROR: failed to unmarshal settlement event from SQS message %s: %v", message.MessageId, err)
			// Returning an error will cause SQS to retry the message, which is appropriate here.
			return err
		}

		log.Printf("Notifying settlement of deposit %s (account %s, %d cents)",
			event.DepositId, event.AccountId, event.AmountCents)

		if err := store.MarkDepositNotified(ctx, event.DepositId); err != nil {
			log.Printf("ERROR: failed to mark deposit %s notified: %v", event.DepositId, err)
			return err
		}

		log.Printf("Successfully recorded notification for deposit %s", event.DepositId)
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}

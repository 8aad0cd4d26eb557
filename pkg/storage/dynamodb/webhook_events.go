package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
)

// RecordWebhookEvent durably records an inbound callback in the dedup ledger.
// The conditional put doubles as the duplicate check: an exact replay carries
// the same event ID and fails the condition.
func (s *Store) RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) error {
	event.ReceivedAt = time.Now()

	eventAV, err := attributevalue.MarshalMap(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.WebhookEventsTableName),
		Item:                eventAV,
		ConditionExpression: aws.String("attribute_not_exists(event_id)"),
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrDuplicateWebhookEvent
		}
		return fmt.Errorf("failed to record webhook event: %w", err)
	}

	return nil
}

// MarkWebhookEventProcessed flips the event's processed flag, recording any
// error encountered while acting on it.
func (s *Store) MarkWebhookEventProcessed(ctx context.Context, eventID string, processingErr error) error {
	now, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for webhook event: %w", err)
	}

	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.WebhookEventsTableName),
		Key: map[string]types.AttributeValue{
			"event_id": &types.AttributeValueMemberS{Value: eventID},
		},
		UpdateExpression: aws.String("SET processed = :processed, processed_at = :now, processing_error = :err"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":processed": &types.AttributeValueMemberBOOL{Value: true},
			":now":       now,
			":err":       &types.AttributeValueMemberS{Value: errMsg},
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to mark webhook event processed: %w", err)
	}

	return nil
}

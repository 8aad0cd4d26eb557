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

// UpdateDepositProgress records confirmations and paid amount observed by the
// provider before the settlement threshold is reached, advancing PENDING to
// PROCESSING. Terminal deposits are never touched.
func (s *Store) UpdateDepositProgress(ctx context.Context, depositID string, confirmations int32, paidAmount string) error {
	now, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for progress update: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.DepositsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: depositID},
		},
		UpdateExpression:    aws.String("SET #status = :processing_status, confirmations = :confirmations, paid_amount = :paid_amount, updated_at = :now"),
		ConditionExpression: aws.String("#status IN (:pending_status, :processing_status)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":processing_status": &types.AttributeValueMemberS{Value: string(models.PROCESSING)},
			":pending_status":    &types.AttributeValueMemberS{Value: string(models.PENDING)},
			":confirmations":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", confirmations)},
			":paid_amount":       &types.AttributeValueMemberS{Value: paidAmount},
			":now":               now,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrDepositTerminal
		}
		return fmt.Errorf("failed to update deposit progress: %w", err)
	}

	return nil
}

// FailDeposit transitions a non-terminal deposit to FAILED after the
// provider reports an error or expiry.
func (s *Store) FailDeposit(ctx context.Context, depositID string) error {
	now, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for failure update: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.DepositsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: depositID},
		},
		UpdateExpression:    aws.String("SET #status = :failed_status, processed_at = :now, updated_at = :now"),
		ConditionExpression: aws.String("#status IN (:pending_status, :processing_status)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed_status":     &types.AttributeValueMemberS{Value: string(models.FAILED)},
			":pending_status":    &types.AttributeValueMemberS{Value: string(models.PENDING)},
			":processing_status": &types.AttributeValueMemberS{Value: string(models.PROCESSING)},
			":now":               now,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrDepositTerminal
		}
		return fmt.Errorf("failed to mark deposit failed: %w", err)
	}

	return nil
}

// MarkDepositNotified stamps the time the settlement notification was delivered.
func (s *Store) MarkDepositNotified(ctx context.Context, depositID string) error {
	now, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for notification: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.DepositsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: depositID},
		},
		UpdateExpression:    aws.String("SET notified_at = :now"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": now,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrDepositNotFound
		}
		return fmt.Errorf("failed to mark deposit notified: %w", err)
	}

	return nil
}

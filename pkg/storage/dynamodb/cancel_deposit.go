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

// CancelDeposit moves a deposit to CANCELLED. Only PENDING deposits are
// cancellable: once the provider has observed a payment the record must run
// its course through the reconciliation path.
func (s *Store) CancelDeposit(ctx context.Context, depositID string) error {
	dep, err := s.GetDeposit(ctx, depositID)
	if err != nil {
		return fmt.Errorf("failed to get deposit for cancellation: %w", err)
	}

	if dep.Status != models.PENDING {
		return storage.ErrDepositNotCancellable
	}

	now, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for cancellation: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.DepositsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: dep.Id},
		},
		UpdateExpression:    aws.String("SET #status = :cancelled_status, updated_at = :now"),
		ConditionExpression: aws.String("#status = :pending_status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cancelled_status": &types.AttributeValueMemberS{Value: string(models.CANCELLED)},
			":pending_status":   &types.AttributeValueMemberS{Value: string(models.PENDING)},
			":now":              now,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			// Raced with an inbound payment signal between the read and the write.
			return storage.ErrDepositNotCancellable
		}
		return fmt.Errorf("failed to execute cancellation update: %w", err)
	}

	return nil
}

package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
)

// CreateDeposit persists a new PENDING deposit record. The caller must have
// already obtained a deposit address from the provider; nothing is written
// on provider failure, so no unusable record is ever left pending.
func (s *Store) CreateDeposit(ctx context.Context, dep *models.Deposit) (*models.Deposit, error) {
	// 1. Complete the deposit object with server-side details.
	now := time.Now()
	dep.Id = uuid.New().String()
	dep.Status = models.PENDING
	dep.Confirmations = 0
	dep.CreatedAt = now
	dep.UpdatedAt = now

	slog.Log(ctx, slog.LevelDebug, "creating deposit", "deposit_id", dep.Id, "token", dep.Token)

	// 2. Marshal the deposit for the Put operation.
	depAV, err := attributevalue.MarshalMap(dep)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deposit: %w", err)
	}

	// 3. Execute a conditional put so a retried create can never overwrite.
	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.DepositsTableName),
		Item:                depAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, fmt.Errorf("deposit with ID %s already exists", dep.Id)
		}
		return nil, fmt.Errorf("failed to create deposit in DynamoDB: %w", err)
	}

	return dep, nil
}

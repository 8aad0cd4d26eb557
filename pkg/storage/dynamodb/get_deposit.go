package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
)

// GetDeposit retrieves a deposit from DynamoDB by its ID.
func (s *Store) GetDeposit(ctx context.Context, depositID string) (*models.Deposit, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": depositID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deposit ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.DepositsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, storage.ErrDepositNotFound
	}

	var dep models.Deposit
	if err := attributevalue.UnmarshalMap(result.Item, &dep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deposit: %w", err)
	}

	return &dep, nil
}

// GetDepositByToken retrieves a deposit by its provider correlation token
// using the token GSI. Tokens are generated uniquely per deposit, so at most
// one item can match.
func (s *Store) GetDepositByToken(ctx context.Context, token string) (*models.Deposit, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.DepositsTableName),
		IndexName:              aws.String(tokenIndex),
		KeyConditionExpression: aws.String("#token = :token"),
		ExpressionAttributeNames: map[string]string{
			"#token": "token",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token": &types.AttributeValueMemberS{Value: token},
		},
		Limit: aws.Int32(1),
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposit by token: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, storage.ErrDepositNotFound
	}

	var dep models.Deposit
	if err := attributevalue.UnmarshalMap(result.Items[0], &dep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deposit: %w", err)
	}

	return &dep, nil
}

// ListDepositsByUserID retrieves all deposits for a user, newest first.
func (s *Store) ListDepositsByUserID(ctx context.Context, userID string) ([]models.Deposit, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.DepositsTableName),
		IndexName:              aws.String(userDepositsIndex),
		KeyConditionExpression: aws.String("user_id = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits for user %s: %w", userID, err)
	}

	var deposits []models.Deposit
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &deposits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deposits: %w", err)
	}

	return deposits, nil
}

// GetStuckDeposits retrieves deposits that have held the CREDITING lock for
// longer than the specified duration. These are rows where the credit
// transaction was interrupted after the lock was acquired.
func (s *Store) GetStuckDeposits(ctx context.Context, maxAge time.Duration) ([]models.Deposit, error) {
	cutoffTime := time.Now().Add(-maxAge)
	cutoffTimeStr, err := cutoffTime.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.DepositsTableName),
		IndexName:              aws.String(statusUpdatedIndex),
		KeyConditionExpression: aws.String("#status = :status AND updated_at < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(models.CREDITING)},
			":cutoff": &types.AttributeValueMemberS{Value: string(cutoffTimeStr)},
		},
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query for stuck deposits: %w", err)
	}

	var deposits []models.Deposit
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &deposits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stuck deposits: %w", err)
	}

	return deposits, nil
}

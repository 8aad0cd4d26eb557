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
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
)

// CompleteDeposit performs the final atomic settlement of a deposit.
// It uses a two-step process to ensure the credit is applied at most once.
//  1. Attempt to acquire the settlement lock by moving the deposit from a
//     non-terminal state to CREDITING. Only one concurrent handler (webhook
//     or poll) can win this conditional update.
//  2. If the lock is acquired, apply the credit and flip the deposit to
//     COMPLETED in a single DynamoDB transaction.
//
// If step 2 fails, the lock is released back to PROCESSING so a later
// provider signal can retry; the deposit is never left half-settled.
func (s *Store) CompleteDeposit(ctx context.Context, dep *models.Deposit, confirmations int32, paidAmount string) (bool, error) {
	// Step 1: Attempt to acquire the settlement lock.
	if err := s.acquireCreditLock(ctx, dep.Id); err != nil {
		if errors.Is(err, storage.ErrDepositAlreadyCrediting) {
			// Another handler won the transition (or the deposit is already
			// terminal), so no credit must be applied here.
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire settlement lock: %w", err)
	}

	// Step 2: Apply the credit.
	if err := s.executeCredit(ctx, dep, confirmations, paidAmount); err != nil {
		if releaseErr := s.ReleaseCreditLock(ctx, dep.Id); releaseErr != nil {
			slog.Error("failed to release settlement lock after credit failure",
				"deposit_id", dep.Id, "error", releaseErr)
		}
		return false, err
	}

	return true, nil
}

// acquireCreditLock atomically updates the deposit status from a non-terminal
// state to CREDITING.
func (s *Store) acquireCreditLock(ctx context.Context, depositID string) error {
	now, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for lock: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.DepositsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: depositID},
		},
		UpdateExpression:    aws.String("SET #status = :crediting_status, processed_at = :now, updated_at = :now"),
		ConditionExpression: aws.String("#status IN (:pending_status, :processing_status)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":crediting_status":  &types.AttributeValueMemberS{Value: string(models.CREDITING)},
			":pending_status":    &types.AttributeValueMemberS{Value: string(models.PENDING)},
			":processing_status": &types.AttributeValueMemberS{Value: string(models.PROCESSING)},
			":now":               now,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrDepositAlreadyCrediting
		}
		return fmt.Errorf("failed to update deposit status to CREDITING: %w", err)
	}

	return nil
}

// executeCredit applies the financial side effects of a settled deposit.
// The account is credited the originally requested fiat amount; the raw
// paid crypto amount is recorded for audit only.
func (s *Store) executeCredit(ctx context.Context, dep *models.Deposit, confirmations int32, paidAmount string) error {
	// 1. Get the current state of the target account for optimistic locking.
	account, err := s.GetAccount(ctx, dep.UserId, dep.AccountId)
	if err != nil {
		return fmt.Errorf("failed to get account for settlement: %w", err)
	}

	// 2. Prepare common values.
	now := time.Now()
	amountAV, err := attributevalue.Marshal(dep.AmountCents)
	if err != nil {
		return fmt.Errorf("failed to marshal amount for settlement: %w", err)
	}

	// 3. Prepare the audit ledger entry.
	creditEntry := models.LedgerEntry{
		EntryID:     uuid.New().String(),
		DepositID:   dep.Id,
		AccountID:   dep.AccountId,
		CreditCents: dep.AmountCents,
		Description: fmt.Sprintf("Deposit %s settled, paid %s %s", dep.Id, paidAmount, dep.Ticker),
		Timestamp:   now,
		GSI1PK:      "LEDGER_ENTRIES",
	}
	creditAV, err := attributevalue.MarshalMap(creditEntry)
	if err != nil {
		return fmt.Errorf("failed to marshal credit entry: %w", err)
	}

	completedStatusAV, err := attributevalue.Marshal(models.COMPLETED)
	if err != nil {
		return fmt.Errorf("failed to marshal completed status: %w", err)
	}
	creditingStatusAV, err := attributevalue.Marshal(models.CREDITING)
	if err != nil {
		return fmt.Errorf("failed to marshal crediting status: %w", err)
	}
	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for status update: %w", err)
	}

	// 4. Construct the TransactWriteItems input.
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: Credit the trading account.
				Update: &types.Update{
					TableName: aws.String(s.AccountsTableName),
					Key: map[string]types.AttributeValue{
						"user_id": &types.AttributeValueMemberS{Value: dep.UserId},
						"id":      &types.AttributeValueMemberS{Value: dep.AccountId},
					},
					UpdateExpression:    aws.String("SET balance_cents = balance_cents + :amount, equity_cents = equity_cents + :amount, free_margin_cents = free_margin_cents + :amount, version = version + :inc"),
					ConditionExpression: aws.String("version = :version"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":amount":  amountAV,
						":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", account.Version)},
						":inc":     &types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
			{
				// Operation 2: Create the credit ledger entry.
				Put: &types.Put{
					TableName:           aws.String(s.LedgerTableName),
					Item:                creditAV,
					ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
				},
			},
			{
				// Operation 3: Update the deposit status to COMPLETED.
				Update: &types.Update{
					TableName: aws.String(s.DepositsTableName),
					Key:       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: dep.Id}},
					UpdateExpression:    aws.String("SET #status = :completed_status, confirmations = :confirmations, paid_amount = :paid_amount, completed_at = :now, updated_at = :now"),
					ConditionExpression: aws.String("#status = :crediting_status"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":completed_status": completedStatusAV,
						":crediting_status": creditingStatusAV,
						":confirmations":    &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", confirmations)},
						":paid_amount":      &types.AttributeValueMemberS{Value: paidAmount},
						":now":              nowAV,
					},
				},
			},
		},
	}

	// 5. Execute the transaction.
	_, err = s.Client.TransactWriteItems(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to execute settlement transaction: %w", err)
	}

	// After success, the deposit status is now COMPLETED.
	return nil
}

// ReleaseCreditLock returns a deposit from CREDITING to PROCESSING.
func (s *Store) ReleaseCreditLock(ctx context.Context, depositID string) error {
	now, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for lock release: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.DepositsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: depositID},
		},
		UpdateExpression:    aws.String("SET #status = :processing_status, updated_at = :now"),
		ConditionExpression: aws.String("#status = :crediting_status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":processing_status": &types.AttributeValueMemberS{Value: string(models.PROCESSING)},
			":crediting_status":  &types.AttributeValueMemberS{Value: string(models.CREDITING)},
			":now":               now,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			// The lock is no longer held; nothing to release.
			return nil
		}
		return fmt.Errorf("failed to release settlement lock: %w", err)
	}

	return nil
}

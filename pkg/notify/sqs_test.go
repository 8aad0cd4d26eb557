package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSQSAPI struct {
	mock.Mock
}

func (m *mockSQSAPI) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

func TestPublishSettlement(t *testing.T) {
	event := &SettlementEvent{
		DepositId:   "dep1",
		AccountId:   "acct1",
		UserId:      "user1",
		AmountCents: 10000,
		Currency:    "USD",
		CompletedAt: time.Now(),
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mockSQSAPI)
		publisher := NewSQSPublisher(mockClient, "https://sqs.example.com/queue")

		mockClient.On("SendMessage", mock.Anything, mock.MatchedBy(func(input *sqs.SendMessageInput) bool {
			if *input.QueueUrl != "https://sqs.example.com/queue" {
				return false
			}
			var got SettlementEvent
			if err := json.Unmarshal([]byte(*input.MessageBody), &got); err != nil {
				return false
			}
			return got.DepositId == "dep1" && got.AmountCents == 10000
		})).Return(&sqs.SendMessageOutput{}, nil).Once()

		err := publisher.PublishSettlement(context.Background(), event)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Send Fails", func(t *testing.T) {
		mockClient := new(mockSQSAPI)
		publisher := NewSQSPublisher(mockClient, "https://sqs.example.com/queue")

		mockClient.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("queue unavailable")).Once()

		err := publisher.PublishSettlement(context.Background(), event)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send settlement event")
	})
}

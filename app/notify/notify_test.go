package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yx-elite/social-media-content-generator/app/models"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSPublish(t *testing.T) {
	fake := &fakeSQS{}
	n := &SQS{client: fake, queueURL: "https://sqs.example/queue"}

	msg := models.QueueMessage{
		Kind:      models.QueueWelcomeEmail,
		UserID:    "user_1",
		Email:     "a@example.com",
		Name:      "Ada",
		CreatedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, n.Publish(context.Background(), msg))
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	assert.Equal(t, "https://sqs.example/queue", aws.ToString(in.QueueUrl))
	assert.Equal(t, "welcome_email", aws.ToString(in.MessageAttributes["kind"].StringValue))

	var got models.QueueMessage
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &got))
	assert.Equal(t, msg, got)
}

func TestSQSPublishError(t *testing.T) {
	fake := &fakeSQS{err: errors.New("throttled")}
	n := &SQS{client: fake, queueURL: "q"}
	err := n.Publish(context.Background(), models.QueueMessage{Kind: models.QueuePointsReconciliation})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "points_reconciliation")
}

func TestLogPublishNeverFails(t *testing.T) {
	assert.NoError(t, Log{}.Publish(context.Background(), models.QueueMessage{Kind: models.QueueWelcomeEmail}))
}

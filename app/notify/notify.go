// Package notify hands jobs (welcome mail, unpaid-generation reconciliation)
// to out-of-process consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/yx-elite/social-media-content-generator/app/logging"
	"github.com/yx-elite/social-media-content-generator/app/models"
)

// Notifier is constructed once at startup and shared by all requests.
type Notifier interface {
	Publish(ctx context.Context, msg models.QueueMessage) error
}

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SQS struct {
	client   sqsAPI
	queueURL string
}

// NewSQS loads the default AWS config (env, shared config or the Lambda role).
func NewSQS(ctx context.Context, queueURL string) (*SQS, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config for SQS: %w", err)
	}
	return &SQS{client: sqs.NewFromConfig(awsCfg), queueURL: queueURL}, nil
}

func (s *SQS) Publish(ctx context.Context, msg models.QueueMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Kind, err)
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(string(msg.Kind))},
		},
	})
	if err != nil {
		return fmt.Errorf("send %s message: %w", msg.Kind, err)
	}
	return nil
}

// Log is used when no queue is configured; jobs are only logged.
type Log struct{}

func (Log) Publish(ctx context.Context, msg models.QueueMessage) error {
	logging.FromContext(ctx).Info().
		Str("kind", string(msg.Kind)).
		Str("user_id", msg.UserID).
		Str("content_id", msg.ContentID).
		Str("reason", msg.Reason).
		Msg("queue not configured; dropping job")
	return nil
}

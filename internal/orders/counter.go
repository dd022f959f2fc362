package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/aws"
)

// counterKey is the singleton record holding the order sequence.
const counterKey = "order_counter"

// Counter allocates sequential order labels ("A1", "A2", ...) from an atomic
// counter record. When the store misbehaves it degrades to a timestamp-derived
// label instead of blocking order creation: availability over strict
// sequencing.
type Counter struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
	logger    *zap.Logger
}

// NewCounter creates a Counter over the given table.
func NewCounter(client aws.DynamoDBAPI, tableName string, logger *zap.Logger) *Counter {
	return &Counter{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		logger:    logger,
	}
}

// Next returns the next order label. The increment is a single atomic ADD so
// concurrent creations cannot share a sequence number. A missing record is
// bootstrapped with a conditional put; any other failure falls back to a
// timestamp label.
func (c *Counter) Next(ctx context.Context) string {
	now := c.nowFunc().UTC()

	out, err := c.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &c.tableName,
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: counterKey},
		},
		UpdateExpression:         strPtr("ADD #c :incr SET updated_at = :now"),
		ExpressionAttributeNames: map[string]string{"#c": "count"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":incr": &types.AttributeValueMemberN{Value: "1"},
			":now":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err == nil {
		if n, ok := out.Attributes["count"].(*types.AttributeValueMemberN); ok {
			return "A" + n.Value
		}
		c.logger.Warn("counter update returned no count attribute")
		return c.fallback(now)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException", "ValidationException":
			return c.bootstrap(ctx, now)
		}
	}

	c.logger.Warn("counter increment failed, using timestamp label", zap.Error(err))
	return c.fallback(now)
}

// bootstrap creates the counter record at 1. The conditional put keeps two
// racing creators from both claiming A1; the loser falls back.
func (c *Counter) bootstrap(ctx context.Context, now time.Time) string {
	_, err := c.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &c.tableName,
		Item: map[string]types.AttributeValue{
			"id":         &types.AttributeValueMemberS{Value: counterKey},
			"count":      &types.AttributeValueMemberN{Value: "1"},
			"updated_at": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: strPtr("attribute_not_exists(id)"),
	})
	if err != nil {
		c.logger.Warn("counter bootstrap failed, using timestamp label", zap.Error(err))
		return c.fallback(now)
	}
	return "A1"
}

func (c *Counter) fallback(now time.Time) string {
	return fmt.Sprintf("A%d", now.UnixMilli())
}

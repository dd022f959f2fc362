package views

import (
	"context"
	"fmt"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/snapit/avatar-orderflow/internal/aws"
)

// Visit is the metadata captured when a user opens their avatar gallery.
type Visit struct {
	RequestID  string `json:"requestId"`
	Language   string `json:"language,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	ScreenSize string `json:"screenSize,omitempty"`
	VisitTime  string `json:"visitTime,omitempty"`
}

// Store tracks per-request view counts in the avatar views table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new views Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Record atomically increments the view counter for the request and stores
// the latest visit metadata. ADD creates the record on first view.
func (s *Store) Record(ctx context.Context, v Visit) error {
	visitTime := v.VisitTime
	if visitTime == "" {
		visitTime = s.nowFunc().UTC().Format(time.RFC3339)
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: v.RequestID},
		},
		UpdateExpression: strPtr("ADD #v :incr SET last_visit = :t, lang = :l, user_agent = :ua, tz = :tz, screen_size = :sc"),
		ExpressionAttributeNames: map[string]string{
			"#v": "views",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":incr": &types.AttributeValueMemberN{Value: "1"},
			":t":    &types.AttributeValueMemberS{Value: visitTime},
			":l":    &types.AttributeValueMemberS{Value: v.Language},
			":ua":   &types.AttributeValueMemberS{Value: v.UserAgent},
			":tz":   &types.AttributeValueMemberS{Value: v.Timezone},
			":sc":   &types.AttributeValueMemberS{Value: v.ScreenSize},
		},
	})
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

func strPtr(s string) *string { return &s }

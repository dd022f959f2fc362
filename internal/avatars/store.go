package avatars

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/snapit/avatar-orderflow/internal/aws"
)

// batchGetLimit is DynamoDB's per-call cap on BatchGetItem keys.
const batchGetLimit = 100

// requestIndex is the GSI keyed by request_id. Lookups fall back to a
// filtered scan when the index is unavailable.
const requestIndex = "RequestIdIndex"

// Store encapsulates operations on the avatars table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new avatars Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a new avatar record. Status defaults to PENDING and the
// creation date to now (UTC) when unset.
func (s *Store) Create(ctx context.Context, a Avatar) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.CreationDate == "" {
		a.CreationDate = s.nowFunc().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal avatar: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put avatar: %w", err)
	}
	return nil
}

// Get fetches an avatar by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, id string) (*Avatar, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get avatar: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var a Avatar
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal avatar: %w", err)
	}
	return &a, nil
}

// BatchGet fetches avatars for the given ids, chunking requests to the
// 100-key batch cap. Results come back in the order the ids were requested;
// ids with no record are skipped, not errors.
func (s *Store) BatchGet(ctx context.Context, ids []string) ([]Avatar, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	byID := make(map[string]Avatar, len(ids))
	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		keys := make([]map[string]types.AttributeValue, 0, len(chunk))
		for _, id := range chunk {
			keys = append(keys, map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: id},
			})
		}

		out, err := s.client.BatchGetItem(ctx, &dyn.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				s.tableName: {Keys: keys},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("batch get avatars: %w", err)
		}

		for _, item := range out.Responses[s.tableName] {
			var a Avatar
			if err := attributevalue.UnmarshalMap(item, &a); err != nil {
				return nil, fmt.Errorf("unmarshal avatar: %w", err)
			}
			byID[a.ID] = a
		}
	}

	result := make([]Avatar, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			result = append(result, a)
		}
	}
	return result, nil
}

// ListByRequestID returns all avatars generated for a user request. It
// queries the request-id index and falls back to a filtered scan if the
// index cannot be queried.
func (s *Store) ListByRequestID(ctx context.Context, requestID string) ([]Avatar, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              strPtr(requestIndex),
		KeyConditionExpression: strPtr("request_id = :rid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rid": &types.AttributeValueMemberS{Value: requestID},
		},
	})
	if err == nil {
		return unmarshalAvatars(out.Items)
	}

	scanOut, scanErr := s.client.Scan(ctx, &dyn.ScanInput{
		TableName:        &s.tableName,
		FilterExpression: strPtr("request_id = :rid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rid": &types.AttributeValueMemberS{Value: requestID},
		},
	})
	if scanErr != nil {
		return nil, fmt.Errorf("list avatars (query: %v): %w", err, scanErr)
	}
	return unmarshalAvatars(scanOut.Items)
}

// AttachOutput records the generated image URL and flips the avatar to READY.
func (s *Store) AttachOutput(ctx context.Context, id, outputURL string) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:         strPtr("SET output_url = :out, #s = :ready"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":out":   &types.AttributeValueMemberS{Value: outputURL},
			":ready": &types.AttributeValueMemberS{Value: StatusReady},
		},
	})
	if err != nil {
		return fmt.Errorf("attach output: %w", err)
	}
	return nil
}

func unmarshalAvatars(items []map[string]types.AttributeValue) ([]Avatar, error) {
	result := make([]Avatar, 0, len(items))
	for _, item := range items {
		var a Avatar
		if err := attributevalue.UnmarshalMap(item, &a); err != nil {
			return nil, fmt.Errorf("unmarshal avatar: %w", err)
		}
		result = append(result, a)
	}
	return result, nil
}

func strPtr(s string) *string { return &s }

package filters

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/snapit/avatar-orderflow/internal/aws"
)

// Filter is a style template: a reference image plus a prompt, scoped to a
// city and gender.
type Filter struct {
	ID         string `dynamodbav:"id"` // PK
	CityID     string `dynamodbav:"city_id"`
	Gender     string `dynamodbav:"gender,omitempty"`
	ImageStyle string `dynamodbav:"image_style"`
	Prompt     string `dynamodbav:"prompt"`
}

// Store encapsulates operations on the filters table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewStore creates a new filters Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// Get fetches a filter by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, id string) (*Filter, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get filter: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var f Filter
	if err := attributevalue.UnmarshalMap(out.Item, &f); err != nil {
		return nil, fmt.Errorf("unmarshal filter: %w", err)
	}
	return &f, nil
}

// ListByCity returns the filters for a city, optionally narrowed by gender.
// The filters table is small; a filtered scan is how it has always been read.
func (s *Store) ListByCity(ctx context.Context, cityID, gender string) ([]Filter, error) {
	filterExpr := "city_id = :cid"
	values := map[string]types.AttributeValue{
		":cid": &types.AttributeValueMemberS{Value: cityID},
	}
	if gender != "" {
		filterExpr += " AND gender = :g"
		values[":g"] = &types.AttributeValueMemberS{Value: gender}
	}

	out, err := s.client.Scan(ctx, &dyn.ScanInput{
		TableName:                 &s.tableName,
		FilterExpression:          &filterExpr,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return nil, fmt.Errorf("scan filters: %w", err)
	}

	result := make([]Filter, 0, len(out.Items))
	for _, item := range out.Items {
		var f Filter
		if err := attributevalue.UnmarshalMap(item, &f); err != nil {
			return nil, fmt.Errorf("unmarshal filter: %w", err)
		}
		result = append(result, f)
	}
	return result, nil
}

package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/snapit/avatar-orderflow/internal/apperr"
	"github.com/snapit/avatar-orderflow/internal/avatars"
	"github.com/snapit/avatar-orderflow/internal/aws"
)

// dateStatusIndex is the GSI keyed by (date, status). Listings fall back to a
// filtered scan when the index cannot be queried.
const dateStatusIndex = "DateStatusIndex"

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	avatars   *avatars.Store
	counter   *Counter
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string, avatarStore *avatars.Store, counter *Counter) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		avatars:   avatarStore,
		counter:   counter,
		nowFunc:   time.Now,
	}
}

// Create persists a new order. No idempotency is enforced: a duplicate
// submission creates a duplicate order. The image URL mirrors the first
// avatar's output at creation time; a missing avatar record leaves it empty.
func (s *Store) Create(ctx context.Context, requestID, cityID string, price float64, avatarIDs []string) (*Order, error) {
	fields := map[string]string{}
	if requestID == "" {
		fields["requestId"] = "required"
	}
	if cityID == "" {
		fields["cityId"] = "required"
	}
	if price < 0 {
		fields["price"] = "must not be negative"
	}
	if len(avatarIDs) == 0 {
		fields["avatarIds"] = "must be a non-empty array"
	}
	if len(fields) > 0 {
		return nil, apperr.InvalidErr("invalid order", fields)
	}

	imageURL, err := s.firstAvatarOutput(ctx, avatarIDs)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	order := Order{
		ID:               uuid.NewString(),
		OrderID:          s.counter.Next(ctx),
		Date:             now.Format("2006-01-02"),
		Status:           StatusActive,
		Price:            price,
		CaptureTimestamp: now.Format(time.RFC3339),
		CityID:           cityID,
		RequestID:        requestID,
		ImageURL:         imageURL,
		AvatarIDs:        avatarIDs,
	}

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("put order: %w", err)
	}
	return &order, nil
}

// Get fetches an order by its label. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"orderId": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// GetEnriched fetches an order with its avatar records resolved.
func (s *Store) GetEnriched(ctx context.Context, orderID string) (*Enriched, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFoundErr(fmt.Sprintf("order %s not found", orderID))
	}
	return s.enrich(ctx, *o)
}

// List returns the orders for a calendar date, defaulting to today (UTC)
// when none is given. With a status it queries that (date, status) pair;
// without one it unions all three statuses, deduplicated by order label.
// Every returned order carries its resolved avatars.
func (s *Store) List(ctx context.Context, date, status string) ([]Enriched, error) {
	if date == "" {
		date = s.nowFunc().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperr.InvalidErr("invalid date format, use YYYY-MM-DD", nil)
	}

	statuses := AllStatuses
	if status != "" {
		if !ValidStatus(status) {
			return nil, apperr.InvalidErr("invalid status, must be 'active', 'paid', or 'cancelled'", nil)
		}
		statuses = []string{status}
	}

	seen := map[string]bool{}
	result := []Enriched{}
	for _, st := range statuses {
		items, err := s.listByDateStatus(ctx, date, st)
		if err != nil {
			return nil, err
		}
		for _, o := range items {
			if seen[o.OrderID] {
				continue
			}
			seen[o.OrderID] = true
			enriched, err := s.enrich(ctx, o)
			if err != nil {
				return nil, err
			}
			result = append(result, *enriched)
		}
	}
	return result, nil
}

// UpdateStatus moves an order between active/paid/cancelled. Entering paid
// stamps paidTimestamp; leaving paid clears it; other transitions leave it
// alone.
func (s *Store) UpdateStatus(ctx context.Context, orderID, newStatus string) (*Order, error) {
	if !ValidStatus(newStatus) {
		return nil, apperr.InvalidErr("invalid status, must be 'active', 'paid', or 'cancelled'", nil)
	}

	current, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFoundErr(fmt.Sprintf("order %s not found", orderID))
	}

	updateExpr := "SET #s = :s"
	values := map[string]types.AttributeValue{
		":s": &types.AttributeValueMemberS{Value: newStatus},
	}
	switch {
	case newStatus == StatusPaid:
		updateExpr += ", paidTimestamp = :pt"
		values[":pt"] = &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)}
	case current.Status == StatusPaid:
		updateExpr += " REMOVE paidTimestamp"
	}

	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"orderId": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	var updated Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("unmarshal updated order: %w", err)
	}
	return &updated, nil
}

// UpdateAvatars replaces an order's avatar set. Every id must resolve to an
// existing avatar record; the missing set is reported and nothing is written.
// The image URL is recomputed from the new first avatar.
func (s *Store) UpdateAvatars(ctx context.Context, orderID string, avatarIDs []string) (*Enriched, error) {
	if len(avatarIDs) == 0 {
		return nil, apperr.InvalidErr("avatarIds must be a non-empty array", nil)
	}

	resolved, err := s.avatars.BatchGet(ctx, avatarIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve avatars: %w", err)
	}
	if len(resolved) != len(avatarIDs) {
		found := map[string]bool{}
		for _, a := range resolved {
			found[a.ID] = true
		}
		var missing []string
		for _, id := range avatarIDs {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, apperr.InvalidErr(
			fmt.Sprintf("some avatar ids do not exist: %s", strings.Join(missing, ", ")),
			map[string]string{"missingAvatarIds": strings.Join(missing, ",")},
		)
	}

	current, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFoundErr(fmt.Sprintf("order %s not found", orderID))
	}

	ids, err := attributevalue.Marshal(avatarIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal avatar ids: %w", err)
	}
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"orderId": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: strPtr("SET avatarIds = :ids, imageUrl = :url"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ids": ids,
			":url": &types.AttributeValueMemberS{Value: resolved[0].OutputURL},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("update order avatars: %w", err)
	}

	var updated Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("unmarshal updated order: %w", err)
	}

	rendered := make([]avatars.Rendered, 0, len(resolved))
	for _, a := range resolved {
		rendered = append(rendered, avatars.Render(a))
	}
	return &Enriched{Order: updated, Avatars: rendered}, nil
}

func (s *Store) listByDateStatus(ctx context.Context, date, status string) ([]Order, error) {
	keyCond := "#d = :d AND #s = :s"
	names := map[string]string{"#d": "date", "#s": "status"}
	values := map[string]types.AttributeValue{
		":d": &types.AttributeValueMemberS{Value: date},
		":s": &types.AttributeValueMemberS{Value: status},
	}

	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:                 &s.tableName,
		IndexName:                 strPtr(dateStatusIndex),
		KeyConditionExpression:    &keyCond,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err == nil {
		return unmarshalOrders(out.Items)
	}

	scanOut, scanErr := s.client.Scan(ctx, &dyn.ScanInput{
		TableName:                 &s.tableName,
		FilterExpression:          &keyCond,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if scanErr != nil {
		return nil, fmt.Errorf("list orders (query: %v): %w", err, scanErr)
	}
	return unmarshalOrders(scanOut.Items)
}

func (s *Store) enrich(ctx context.Context, o Order) (*Enriched, error) {
	resolved, err := s.avatars.BatchGet(ctx, o.AvatarIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve avatars: %w", err)
	}
	rendered := make([]avatars.Rendered, 0, len(resolved))
	for _, a := range resolved {
		rendered = append(rendered, avatars.Render(a))
	}
	return &Enriched{Order: o, Avatars: rendered}, nil
}

func (s *Store) firstAvatarOutput(ctx context.Context, avatarIDs []string) (string, error) {
	resolved, err := s.avatars.BatchGet(ctx, avatarIDs[:1])
	if err != nil {
		return "", fmt.Errorf("resolve first avatar: %w", err)
	}
	if len(resolved) == 0 {
		return "", nil
	}
	return resolved[0].OutputURL, nil
}

func unmarshalOrders(items []map[string]types.AttributeValue) ([]Order, error) {
	result := make([]Order, 0, len(items))
	for _, item := range items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		result = append(result, o)
	}
	return result, nil
}

func strPtr(s string) *string { return &s }

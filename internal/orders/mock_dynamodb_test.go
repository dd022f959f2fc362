package orders

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo backs the orders, avatars and counter tables in memory:
// table -> pkValue -> item. Items are keyed by "orderId" or "id", whichever
// the item carries. It applies just the expressions the stores issue.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	failQuery        bool
	counterUpdateErr error
	scanCalls        int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) ensureTable(tbl string) map[string]map[string]types.AttributeValue {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
	return m.tables[tbl]
}

func pkOf(attrs map[string]types.AttributeValue) (string, error) {
	for _, name := range []string{"orderId", "id"} {
		if v, ok := attrs[name]; ok {
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				return s.Value, nil
			}
		}
	}
	return "", errors.New("no primary key attribute")
}

func (m *mockDynamo) seed(tbl, pk string, item map[string]types.AttributeValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureTable(tbl)[pk] = item
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.ensureTable(*params.TableName)
	pk, err := pkOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(id)" {
		if _, exists := table[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	table[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.ensureTable(*params.TableName)
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := table[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expr := ""
	if params.UpdateExpression != nil {
		expr = *params.UpdateExpression
	}
	table := m.ensureTable(*params.TableName)
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}

	// counter increment
	if strings.HasPrefix(expr, "ADD #c") {
		if m.counterUpdateErr != nil {
			return nil, m.counterUpdateErr
		}
		item, ok := table[pk]
		if !ok {
			item = map[string]types.AttributeValue{
				"id":    &types.AttributeValueMemberS{Value: pk},
				"count": &types.AttributeValueMemberN{Value: "0"},
			}
		}
		count := 0
		if n, ok := item["count"].(*types.AttributeValueMemberN); ok {
			count, _ = strconv.Atoi(n.Value)
		}
		count++
		item["count"] = &types.AttributeValueMemberN{Value: strconv.Itoa(count)}
		if v, ok := params.ExpressionAttributeValues[":now"]; ok {
			item["updated_at"] = v
		}
		table[pk] = item
		return &dyn.UpdateItemOutput{Attributes: item}, nil
	}

	item, ok := table[pk]
	if !ok {
		return nil, errors.New("item not found")
	}
	if v, ok := params.ExpressionAttributeValues[":s"]; ok {
		item["status"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":pt"]; ok {
		item["paidTimestamp"] = v
	}
	if strings.Contains(expr, "REMOVE paidTimestamp") {
		delete(item, "paidTimestamp")
	}
	if v, ok := params.ExpressionAttributeValues[":ids"]; ok {
		item["avatarIds"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":url"]; ok {
		item["imageUrl"] = v
	}
	table[pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func strValue(attrs map[string]types.AttributeValue, key string) string {
	if v, ok := attrs[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *mockDynamo) matchDateStatus(tbl string, values map[string]types.AttributeValue) []map[string]types.AttributeValue {
	date := strValue(values, ":d")
	status := strValue(values, ":s")
	var out []map[string]types.AttributeValue
	for _, item := range m.tables[tbl] {
		if strValue(item, "date") == date && strValue(item, "status") == status {
			out = append(out, item)
		}
	}
	return out
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failQuery {
		return nil, errors.New("index not available")
	}
	m.ensureTable(*params.TableName)
	return &dyn.QueryOutput{Items: m.matchDateStatus(*params.TableName, params.ExpressionAttributeValues)}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCalls++
	m.ensureTable(*params.TableName)
	return &dyn.ScanOutput{Items: m.matchDateStatus(*params.TableName, params.ExpressionAttributeValues)}, nil
}

func (m *mockDynamo) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	responses := map[string][]map[string]types.AttributeValue{}
	for tbl, ka := range params.RequestItems {
		if len(ka.Keys) > 100 {
			return nil, errors.New("too many keys in batch get")
		}
		table := m.ensureTable(tbl)
		for _, key := range ka.Keys {
			pk, err := pkOf(key)
			if err != nil {
				return nil, err
			}
			if item, ok := table[pk]; ok {
				responses[tbl] = append(responses[tbl], item)
			}
		}
	}
	return &dyn.BatchGetItemOutput{Responses: responses}, nil
}

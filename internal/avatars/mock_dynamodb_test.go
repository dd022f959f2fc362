package avatars

import (
	"context"
	"errors"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory stand-in for the avatars table. It keys items by
// the "id" attribute and implements just enough of the expression surface the
// store uses.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	failQuery     bool
	batchGetCalls int
	queryCalls    int
	scanCalls     int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) pkOf(item map[string]types.AttributeValue) (string, error) {
	v, ok := item["id"]
	if !ok {
		return "", errors.New("no id attribute")
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("id is not a string")
	}
	return s.Value, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := m.pkOf(params.Item)
	if err != nil {
		return nil, err
	}
	m.items[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := m.pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := m.pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[pk]
	if !ok {
		return nil, errors.New("item not found")
	}
	// naive apply for "SET output_url = :out, #s = :ready"
	if v, ok := params.ExpressionAttributeValues[":out"]; ok {
		item["output_url"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":ready"]; ok {
		item["status"] = v
	}
	m.items[pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) matchRequestID(params map[string]types.AttributeValue) (string, error) {
	rid, ok := params[":rid"]
	if !ok {
		return "", errors.New("missing :rid value")
	}
	s, ok := rid.(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New(":rid is not a string")
	}
	return s.Value, nil
}

func (m *mockDynamo) collectByRequestID(requestID string) []map[string]types.AttributeValue {
	var out []map[string]types.AttributeValue
	for _, item := range m.items {
		if v, ok := item["request_id"].(*types.AttributeValueMemberS); ok && v.Value == requestID {
			out = append(out, item)
		}
	}
	return out
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	if m.failQuery {
		return nil, errors.New("index not available")
	}
	rid, err := m.matchRequestID(params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	return &dyn.QueryOutput{Items: m.collectByRequestID(rid)}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCalls++
	rid, err := m.matchRequestID(params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	return &dyn.ScanOutput{Items: m.collectByRequestID(rid)}, nil
}

func (m *mockDynamo) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchGetCalls++

	responses := map[string][]map[string]types.AttributeValue{}
	for table, ka := range params.RequestItems {
		if len(ka.Keys) > 100 {
			return nil, errors.New("too many keys in batch get")
		}
		for _, key := range ka.Keys {
			pk, err := m.pkOf(key)
			if err != nil {
				return nil, err
			}
			if item, ok := m.items[pk]; ok {
				responses[table] = append(responses[table], item)
			}
		}
	}
	return &dyn.BatchGetItemOutput{Responses: responses}, nil
}

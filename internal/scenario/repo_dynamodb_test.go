package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items keyed by test_number and pages scans one item at a time.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
	order []string
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func key(item map[string]types.AttributeValue) string {
	return item["test_number"].(*types.AttributeValueMemberN).Value
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	k := key(in.Item)
	if _, ok := f.items[k]; !ok {
		f.order = append(f.order, k)
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[key(in.Key)]}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	i := 0
	if in.ExclusiveStartKey != nil {
		last := key(in.ExclusiveStartKey)
		for i < len(f.order) && f.order[i] != last {
			i++
		}
		i++
	}
	if i >= len(f.order) {
		return &dynamodb.ScanOutput{}, nil
	}
	item := f.items[f.order[i]]
	out := &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{item}}
	if i < len(f.order)-1 {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"test_number": item["test_number"]}
	}
	return out, nil
}

func TestDynamoStore_SaveGetList(t *testing.T) {
	ctx := context.Background()
	s := NewDynamoStore(newFakeDynamo(), "scenario_history")
	ranAt := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	rec := Record{
		RunID: "run-2", TestNumber: 2, Name: "Espresso rush", DefinitionVersion: 1, TotalOrders: 1, RanAt: ranAt,
		AvgWaitMinutes: 2.5, MaxWaitMinutes: 2.5, BaristaCounts: []int{1, 0, 0},
		Orders: []ServedOrder{{ID: "2001", Customer: "Test2-Cust1", Drinks: []string{"ESPRESSO"}, BaristaID: 1,
			ArrivedAt: ranAt, StartedAt: ranAt, CompletedAt: ranAt.Add(2 * time.Minute), WaitMinutes: 2.5}},
	}
	require.NoError(t, s.Save(ctx, Record{RunID: "old", TestNumber: 2}))
	require.NoError(t, s.Save(ctx, rec))
	require.NoError(t, s.Save(ctx, Record{RunID: "run-1", TestNumber: 1, RanAt: ranAt}))

	got, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-1", list[0].RunID)
	assert.Equal(t, "run-2", list[1].RunID)

	_, err = s.Get(ctx, 9)
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestDynamoStore_CorruptRanAt(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDynamo()
	s := NewDynamoStore(ddb, "scenario_history")
	require.NoError(t, s.Save(ctx, Record{RunID: "run-3", TestNumber: 3}))
	ddb.items["3"]["ran_at"] = &types.AttributeValueMemberS{Value: "yesterday"}

	_, err := s.Get(ctx, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ran_at")

	_, err = s.List(ctx)
	assert.Error(t, err)
}

package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type historyItem struct {
	TestNumber        int     `dynamodbav:"test_number"`
	RunID             string  `dynamodbav:"run_id"`
	Name              string  `dynamodbav:"name"`
	DefinitionVersion int     `dynamodbav:"definition_version"`
	TotalOrders       int     `dynamodbav:"total_orders"`
	RanAt             string  `dynamodbav:"ran_at"`
	AvgWaitMinutes    float64 `dynamodbav:"avg_wait_minutes"`
	MaxWaitMinutes    float64 `dynamodbav:"max_wait_minutes"`
	SLAViolations     int     `dynamodbav:"sla_violations"`
	UrgentDispatches  int     `dynamodbav:"urgent_dispatches"`
	BaristaCounts     []int   `dynamodbav:"barista_counts"`
	Orders            string  `dynamodbav:"orders"`
}

// DynamoStore keeps scenario history in a DynamoDB table.
//
// Table requirements:
//   - PK: test_number (number)
//
// PutItem overwrites, which gives replace-by-test-number for free.
type DynamoStore struct {
	ddb       DynamoAPI
	tableName string
}

var _ Store = (*DynamoStore)(nil)

func NewDynamoStore(ddb DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{ddb: ddb, tableName: table}
}

func (s *DynamoStore) Save(ctx context.Context, rec Record) error {
	it, err := toHistoryItem(rec)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return err
	}
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("save scenario %d: %w", rec.TestNumber, err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, testNumber int) (Record, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"test_number": &types.AttributeValueMemberN{Value: strconv.Itoa(testNumber)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Record{}, fmt.Errorf("get scenario %d: %w", testNumber, err)
	}
	if len(out.Item) == 0 {
		return Record{}, fmt.Errorf("%w: %d", ErrNoRecord, testNumber)
	}
	var it historyItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return Record{}, err
	}
	return fromHistoryItem(it)
}

// List scans the whole table. History holds one item per scenario, so it stays small.
func (s *DynamoStore) List(ctx context.Context) ([]Record, error) {
	var (
		out   []Record
		start map[string]types.AttributeValue
	)
	for {
		page, err := s.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("list scenarios: %w", err)
		}
		var items []historyItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			rec, err := fromHistoryItem(it)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		start = page.LastEvaluatedKey
	}
	sortRecords(out)
	return out, nil
}

func toHistoryItem(rec Record) (historyItem, error) {
	served, err := json.Marshal(rec.Orders)
	if err != nil {
		return historyItem{}, err
	}
	return historyItem{
		TestNumber:        rec.TestNumber,
		RunID:             rec.RunID,
		Name:              rec.Name,
		DefinitionVersion: rec.DefinitionVersion,
		TotalOrders:       rec.TotalOrders,
		RanAt:             rec.RanAt.UTC().Format(time.RFC3339Nano),
		AvgWaitMinutes:    rec.AvgWaitMinutes,
		MaxWaitMinutes:    rec.MaxWaitMinutes,
		SLAViolations:     rec.SLAViolations,
		UrgentDispatches:  rec.UrgentDispatches,
		BaristaCounts:     rec.BaristaCounts,
		Orders:            string(served),
	}, nil
}

func fromHistoryItem(it historyItem) (Record, error) {
	ranAt, err := time.Parse(time.RFC3339Nano, it.RanAt)
	if err != nil {
		return Record{}, fmt.Errorf("decode ran_at of scenario %d: %w", it.TestNumber, err)
	}
	rec := Record{
		RunID:             it.RunID,
		TestNumber:        it.TestNumber,
		Name:              it.Name,
		DefinitionVersion: it.DefinitionVersion,
		TotalOrders:       it.TotalOrders,
		RanAt:             ranAt,
		AvgWaitMinutes:    it.AvgWaitMinutes,
		MaxWaitMinutes:    it.MaxWaitMinutes,
		SLAViolations:     it.SLAViolations,
		UrgentDispatches:  it.UrgentDispatches,
		BaristaCounts:     it.BaristaCounts,
	}
	if it.Orders != "" {
		if err := json.Unmarshal([]byte(it.Orders), &rec.Orders); err != nil {
			return Record{}, fmt.Errorf("decode orders of scenario %d: %w", it.TestNumber, err)
		}
	}
	return rec, nil
}

package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/pawaaan9/ictb-donations/errors"
	"github.com/pawaaan9/ictb-donations/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the repository needs.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Single-table layout: the counter and every purchase share the "pk" hash key.
const (
	counterPK      = "counter#sponsored"
	purchasePrefix = "purchase#"
)

type counterItem struct {
	PK    string `dynamodbav:"pk"`
	Count int64  `dynamodbav:"count"`
}

type purchaseItem struct {
	PK        string `dynamodbav:"pk"`
	SessionID string `dynamodbav:"session_id"`
	Bricks    int64  `dynamodbav:"bricks"`
	CreatedAt string `dynamodbav:"created_at"`
}

type dynamoBrickRepository struct {
	client DynamoAPI
	table  string
	total  int64
	now    func() time.Time
}

func NewDynamoBrickRepository(client DynamoAPI, table string, totalBricks int64) BrickRepository {
	return &dynamoBrickRepository{client: client, table: table, total: totalBricks, now: time.Now}
}

func pkKey(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: pk}}
}

func (r *dynamoBrickRepository) GetSponsoredCount(ctx context.Context) (int64, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            pkKey(counterPK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, apperrors.Upstream("failed to read sponsored count", err)
	}
	if len(out.Item) == 0 {
		return 0, nil
	}

	var item counterItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return 0, apperrors.Upstream("corrupt sponsored counter", err)
	}
	return item.Count, nil
}

func (r *dynamoBrickRepository) GetAvailableCount(ctx context.Context) (int64, error) {
	sponsored, err := r.GetSponsoredCount(ctx)
	if err != nil {
		return 0, err
	}
	return availableFrom(r.total, sponsored), nil
}

func (r *dynamoBrickRepository) incrementUpdate(by int64) *types.Update {
	return &types.Update{
		TableName:                 aws.String(r.table),
		Key:                       pkKey(counterPK),
		UpdateExpression:          aws.String("ADD #c :n"),
		ExpressionAttributeNames:  map[string]string{"#c": "count"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":n": &types.AttributeValueMemberN{Value: strconv.FormatInt(by, 10)}},
	}
}

func (r *dynamoBrickRepository) IncrementSponsored(ctx context.Context, by int64) error {
	if by <= 0 {
		return apperrors.InvalidRequest("increment must be positive")
	}
	u := r.incrementUpdate(by)
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 u.TableName,
		Key:                       u.Key,
		UpdateExpression:          u.UpdateExpression,
		ExpressionAttributeNames:  u.ExpressionAttributeNames,
		ExpressionAttributeValues: u.ExpressionAttributeValues,
	})
	if err != nil {
		return apperrors.Upstream("failed to increment sponsored count", err)
	}
	return nil
}

func (r *dynamoBrickRepository) HasPurchaseRecord(ctx context.Context, sessionID string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.table),
		Key:                  pkKey(purchasePrefix + sessionID),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("pk"),
	})
	if err != nil {
		return false, apperrors.Upstream("failed to read purchase record", err)
	}
	return len(out.Item) > 0, nil
}

func (r *dynamoBrickRepository) purchasePut(sessionID string, bricks int64) (*types.Put, error) {
	item, err := attributevalue.MarshalMap(purchaseItem{
		PK:        purchasePrefix + sessionID,
		SessionID: sessionID,
		Bricks:    bricks,
		CreatedAt: r.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	return &types.Put{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	}, nil
}

func (r *dynamoBrickRepository) RecordPurchase(ctx context.Context, sessionID string, bricks int64) (bool, error) {
	if err := validatePurchase(sessionID, bricks); err != nil {
		return false, err
	}
	put, err := r.purchasePut(sessionID, bricks)
	if err != nil {
		return false, apperrors.Upstream("failed to encode purchase record", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           put.TableName,
		Item:                put.Item,
		ConditionExpression: put.ConditionExpression,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return false, apperrors.Upstream("failed to write purchase record", err)
	}
	return true, nil
}

func (r *dynamoBrickRepository) ApplyPurchase(ctx context.Context, sessionID string, bricks int64) (bool, error) {
	if err := validatePurchase(sessionID, bricks); err != nil {
		return false, err
	}
	put, err := r.purchasePut(sessionID, bricks)
	if err != nil {
		return false, apperrors.Upstream("failed to encode purchase record", err)
	}

	in := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: put},
			{Update: r.incrementUpdate(bricks)},
		},
	}

	// Every purchase touches the counter item, so concurrent purchases for
	// different sessions can cancel each other. Those are retried here; the
	// SDK retryer does not treat a cancelled transaction as retryable.
	backoff := conflictBackoff
	for attempt := 1; ; attempt++ {
		_, err = r.client.TransactWriteItems(ctx, in)
		if err == nil {
			return true, nil
		}
		if isDuplicatePurchase(err) {
			return false, nil
		}
		if !isTransactionConflict(err) || attempt == maxConflictAttempts {
			return false, apperrors.Upstream("failed to apply purchase", err)
		}
		select {
		case <-ctx.Done():
			return false, apperrors.Upstream("failed to apply purchase", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

const (
	maxConflictAttempts = 5
	conflictBackoff     = 20 * time.Millisecond
)

// isDuplicatePurchase reports whether a transaction was cancelled because the
// purchase put's condition failed, i.e. the record already existed.
func isDuplicatePurchase(err error) bool {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) || len(canceled.CancellationReasons) == 0 {
		return false
	}
	return aws.ToString(canceled.CancellationReasons[0].Code) == "ConditionalCheckFailed"
}

// isTransactionConflict reports whether any item in a cancelled transaction
// lost a race with another in-flight write.
func isTransactionConflict(err error) bool {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return false
	}
	for _, reason := range canceled.CancellationReasons {
		if aws.ToString(reason.Code) == "TransactionConflict" {
			return true
		}
	}
	return false
}

func (r *dynamoBrickRepository) ListPurchases(ctx context.Context) ([]models.PurchaseRecord, error) {
	var (
		records  []models.PurchaseRecord
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.table),
			FilterExpression:          aws.String("begins_with(pk, :p)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{":p": &types.AttributeValueMemberS{Value: purchasePrefix}},
			ExclusiveStartKey:         startKey,
			ConsistentRead:            aws.Bool(true),
		})
		if err != nil {
			return nil, apperrors.Upstream("failed to list purchase records", err)
		}

		var page []purchaseItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, apperrors.Upstream("corrupt purchase records", err)
		}
		for _, p := range page {
			sessionID := p.SessionID
			if sessionID == "" {
				sessionID = strings.TrimPrefix(p.PK, purchasePrefix)
			}
			records = append(records, models.PurchaseRecord{SessionID: sessionID, Bricks: p.Bricks})
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	if records == nil {
		records = []models.PurchaseRecord{}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].SessionID < records[j].SessionID })
	return records, nil
}

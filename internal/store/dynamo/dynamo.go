// Package dynamo implements store.Store on a DynamoDB table keyed by
// AlbumId (partition) and ItemCreatedAt (sort), with a PhotoId GSI.
package dynamo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yongikim/photolio-lambda-functions/internal/model"
	"github.com/yongikim/photolio-lambda-functions/internal/store"
)

// Attribute names
const (
	AttrAlbumID       = "AlbumId"
	AttrItemCreatedAt = "ItemCreatedAt"
	AttrPhotoID       = "PhotoId"
)

// MaxFilterValues is the largest membership list DynamoDB accepts in one IN operator.
const MaxFilterValues = 100

// API is the subset of the DynamoDB client used by Store.
type API interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var (
	_ API         = (*dynamodb.Client)(nil)
	_ store.Store = (*Store)(nil)
)

type Store struct {
	client       API
	tableName    string
	photoIDIndex string
}

func New(client API, tableName, photoIDIndex string) *Store {
	return &Store{client: client, tableName: tableName, photoIDIndex: photoIDIndex}
}

// QueryKeys runs `AlbumId = :album` with `PhotoId IN (...)` and follows
// LastEvaluatedKey, since the filter is applied after each 1MB page is read.
func (s *Store) QueryKeys(ctx context.Context, albumID string, photoIDs []string) ([]model.KeyRow, error) {
	if len(photoIDs) == 0 {
		return nil, model.NewValidationError("photoIds", "must not be empty")
	}
	if len(photoIDs) > MaxFilterValues {
		return nil, model.NewValidationError("photoIds", fmt.Sprintf("must not exceed %d items", MaxFilterValues))
	}

	values := make([]expression.OperandBuilder, 0, len(photoIDs))
	for _, id := range photoIDs {
		values = append(values, expression.Value(id))
	}
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(AttrAlbumID).Equal(expression.Value(albumID))).
		WithFilter(expression.Name(AttrPhotoID).In(values[0], values[1:]...)).
		WithProjection(expression.NamesList(
			expression.Name(AttrAlbumID),
			expression.Name(AttrItemCreatedAt),
			expression.Name(AttrPhotoID),
		)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build key query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", s.tableName, err)
		}
		items = append(items, out.Items...)
	}

	rows := make([]model.KeyRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, keyRowOf(it))
	}
	return rows, nil
}

// keyRowOf decodes each key attribute on its own. An absent or wrong-typed
// attribute stays nil so the caller can report the row as malformed.
func keyRowOf(item map[string]types.AttributeValue) model.KeyRow {
	var row model.KeyRow
	if v, ok := item[AttrAlbumID].(*types.AttributeValueMemberS); ok {
		row.AlbumID = aws.String(v.Value)
	}
	if v, ok := item[AttrItemCreatedAt].(*types.AttributeValueMemberN); ok {
		var n int64
		if err := attributevalue.Unmarshal(v, &n); err == nil {
			row.ItemCreatedAt = &n
		}
	}
	if v, ok := item[AttrPhotoID].(*types.AttributeValueMemberS); ok {
		row.PhotoID = aws.String(v.Value)
	}
	return row
}

func (s *Store) Put(ctx context.Context, p *model.Photo) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal photo %s: %w", p.PhotoID, err)
	}
	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(AttrAlbumID))).
		Build()
	if err != nil {
		return fmt.Errorf("build put condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     item,
		ConditionExpression:      cond.Condition(),
		ExpressionAttributeNames: cond.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("put photo %s: %w", p.PhotoID, model.ErrConflict)
		}
		return fmt.Errorf("put photo %s: %w", p.PhotoID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, albumID string, itemCreatedAt int64) error {
	key, err := attributevalue.MarshalMap(tableKey{AlbumID: albumID, ItemCreatedAt: itemCreatedAt})
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("delete %s/%d: %w", albumID, itemCreatedAt, err)
	}
	return nil
}

func (s *Store) ListAlbum(ctx context.Context, req model.ListPhotosRequest) (*model.PhotoPage, error) {
	return s.list(ctx, "", expression.Key(AttrAlbumID).Equal(expression.Value(req.AlbumID)), req)
}

func (s *Store) ListByPhotoID(ctx context.Context, req model.ListPhotosRequest) (*model.PhotoPage, error) {
	return s.list(ctx, s.photoIDIndex, expression.Key(AttrPhotoID).Equal(expression.Value(req.PhotoID)), req)
}

// HealthPing verifies the table is reachable.
func (s *Store) HealthPing(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", s.tableName, err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, index string, keyCond expression.KeyConditionBuilder, req model.ListPhotosRequest) (*model.PhotoPage, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}
	if req.Limit > 0 {
		input.Limit = aws.Int32(int32(req.Limit))
	}
	if req.Cursor != "" {
		start, err := decodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
		input.ExclusiveStartKey = start
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.tableName, err)
	}

	photos := make([]model.Photo, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &photos); err != nil {
		return nil, fmt.Errorf("unmarshal photos: %w", err)
	}
	page := &model.PhotoPage{
		Photos: photos,
		Meta:   model.PageMeta{Total: int(out.Count), Limit: req.Limit},
	}
	if len(out.LastEvaluatedKey) > 0 {
		page.Meta.Cursor, err = encodeCursor(out.LastEvaluatedKey)
		if err != nil {
			return nil, err
		}
	}
	return page, nil
}

type tableKey struct {
	AlbumID       string `dynamodbav:"AlbumId"`
	ItemCreatedAt int64  `dynamodbav:"ItemCreatedAt"`
}

// cursorKey covers the table key and the PhotoId GSI key.
type cursorKey struct {
	AlbumID       string `json:"a" dynamodbav:"AlbumId"`
	ItemCreatedAt int64  `json:"t" dynamodbav:"ItemCreatedAt"`
	PhotoID       string `json:"p,omitempty" dynamodbav:"PhotoId,omitempty"`
}

func encodeCursor(lek map[string]types.AttributeValue) (string, error) {
	var k cursorKey
	if err := attributevalue.UnmarshalMap(lek, &k); err != nil {
		return "", fmt.Errorf("unmarshal last evaluated key: %w", err)
	}
	b, err := json.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, model.NewValidationError("cursor", "is malformed")
	}
	var k cursorKey
	if err := json.Unmarshal(raw, &k); err != nil || k.AlbumID == "" {
		return nil, model.NewValidationError("cursor", "is malformed")
	}
	av, err := attributevalue.MarshalMap(k)
	if err != nil {
		return nil, fmt.Errorf("marshal cursor: %w", err)
	}
	return av, nil
}

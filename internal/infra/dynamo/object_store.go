package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"resource-gateway/internal/domain/resource"
	"resource-gateway/internal/store"
)

const (
	parentIndex = "parent-index"
	ownerIndex  = "owner-index"

	batchWriteLimit = 25
)

// item is the DynamoDB row for a resource object. Partition key is the
// scope, sort key the object id; parentIndex serves child listings and
// ownerIndex serves per-owner scans.
type item struct {
	ScopeKey    string `dynamodbav:"scope_key"`
	ObjectID    string `dynamodbav:"object_id"`
	ObjectType  string `dynamodbav:"object_type"`
	OwnerType   string `dynamodbav:"owner_type"`
	OwnerID     string `dynamodbav:"owner_id,omitempty"`
	ParentID    string `dynamodbav:"parent_id"`
	Path        string `dynamodbav:"path"`
	Name        string `dynamodbav:"name"`
	Description string `dynamodbav:"description,omitempty"`
	FileName    string `dynamodbav:"file_name,omitempty"`
	FileType    string `dynamodbav:"file_type,omitempty"`
	FileSize    int64  `dynamodbav:"file_size,omitempty"`
	BlobPath    string `dynamodbav:"blob_path,omitempty"`
	CreatedAt   int64  `dynamodbav:"created_at"`
	UpdatedAt   int64  `dynamodbav:"updated_at"`
}

// ObjectStore implements store.ObjectStore on a single DynamoDB table.
type ObjectStore struct {
	svc   dynamodbiface.DynamoDBAPI
	table string
}

func NewObjectStore(svc dynamodbiface.DynamoDBAPI, table string) *ObjectStore {
	return &ObjectStore{svc: svc, table: table}
}

func (s *ObjectStore) Get(ctx context.Context, scope resource.Scope, objectID string) (*resource.Object, error) {
	out, err := s.svc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"scope_key": {S: aws.String(scope.PartitionKey())},
			"object_id": {S: aws.String(objectID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", objectID, err)
	}
	if out.Item == nil {
		return nil, store.ErrItemNotFound
	}

	var it item
	if err := dynamodbattribute.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshaling item %s: %w", objectID, err)
	}
	return it.toObject(), nil
}

// Put is an unconditional write: concurrent updates to the same object are
// last-writer-wins.
func (s *ObjectStore) Put(ctx context.Context, scope resource.Scope, obj *resource.Object) error {
	av, err := dynamodbattribute.MarshalMap(fromObject(scope, obj))
	if err != nil {
		return fmt.Errorf("marshaling item %s: %w", obj.ID, err)
	}

	_, err = s.svc.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put %s: %w", obj.ID, err)
	}
	return nil
}

func (s *ObjectStore) Delete(ctx context.Context, scope resource.Scope, objectID string) error {
	_, err := s.svc.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"scope_key": {S: aws.String(scope.PartitionKey())},
			"object_id": {S: aws.String(objectID)},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb delete %s: %w", objectID, err)
	}
	return nil
}

func (s *ObjectStore) BatchPut(ctx context.Context, scope resource.Scope, objs []*resource.Object) error {
	for start := 0; start < len(objs); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(objs) {
			end = len(objs)
		}

		requests := make([]*dynamodb.WriteRequest, 0, end-start)
		for _, obj := range objs[start:end] {
			av, err := dynamodbattribute.MarshalMap(fromObject(scope, obj))
			if err != nil {
				return fmt.Errorf("marshaling item %s: %w", obj.ID, err)
			}
			requests = append(requests, &dynamodb.WriteRequest{
				PutRequest: &dynamodb.PutRequest{Item: av},
			})
		}

		_, err := s.svc.BatchWriteItemWithContext(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]*dynamodb.WriteRequest{s.table: requests},
		})
		if err != nil {
			return fmt.Errorf("dynamodb batch write: %w", err)
		}
	}
	return nil
}

func (s *ObjectStore) ListChildren(ctx context.Context, scope resource.Scope, parentID string, filter resource.Filter) ([]*resource.Object, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(parentIndex),
		KeyConditionExpression: aws.String("scope_key = :pk AND parent_id = :parent"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk":     {S: aws.String(scope.PartitionKey())},
			":parent": {S: aws.String(parentID)},
		},
	}

	switch filter {
	case resource.FilterFiles:
		input.FilterExpression = aws.String("object_type = :ot")
		input.ExpressionAttributeValues[":ot"] = &dynamodb.AttributeValue{S: aws.String(string(resource.ObjectFile))}
	case resource.FilterFolders:
		input.FilterExpression = aws.String("object_type = :ot")
		input.ExpressionAttributeValues[":ot"] = &dynamodb.AttributeValue{S: aws.String(string(resource.ObjectFolder))}
	}

	return s.queryAll(ctx, input)
}

func (s *ObjectStore) ListByOwner(ctx context.Context, res resource.Type, ownerID string) ([]*resource.Object, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(ownerIndex),
		KeyConditionExpression: aws.String("owner_id = :owner"),
		FilterExpression:       aws.String("begins_with(scope_key, :res)"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":owner": {S: aws.String(ownerID)},
			":res":   {S: aws.String(string(res) + "#")},
		},
	}
	return s.queryAll(ctx, input)
}

func (s *ObjectStore) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]*resource.Object, error) {
	var objects []*resource.Object

	for {
		out, err := s.svc.QueryWithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamodb query: %w", err)
		}

		for _, raw := range out.Items {
			var it item
			if err := dynamodbattribute.UnmarshalMap(raw, &it); err != nil {
				return nil, fmt.Errorf("unmarshaling query item: %w", err)
			}
			objects = append(objects, it.toObject())
		}

		if out.LastEvaluatedKey == nil {
			return objects, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

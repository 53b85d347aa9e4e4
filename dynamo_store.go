package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStorage implements KeyValueStorage using DynamoDB.
type DynamoStorage struct {
	client    *dynamodb.Client
	tableName string
}

// NewDynamoStorage creates a DynamoDB client and returns a DynamoStorage.
func NewDynamoStorage(ctx context.Context, cfg Config) (*DynamoStorage, error) {
	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.AWSRegion))

	if cfg.DynamoEndpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(cfg.DynamoEndpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)

	return &DynamoStorage{
		client:    client,
		tableName: cfg.DynamoTableName,
	}, nil
}

func (s *DynamoStorage) pk(key string) string {
	return "FAV#" + key
}

func (s *DynamoStorage) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: s.pk(key)},
	}
}

func (s *DynamoStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	consistent := true
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.itemKey(key),
		ConsistentRead: &consistent,
	})
	if err != nil {
		return "", false, fmt.Errorf("GetItem: %w", err)
	}

	if out.Item == nil {
		return "", false, nil
	}

	return unmarshalValue(out.Item)
}

func (s *DynamoStorage) SetItem(ctx context.Context, key string, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	item := s.itemKey(key)
	item["value"] = &types.AttributeValueMemberS{Value: value}
	item["updatedAt"] = &types.AttributeValueMemberS{Value: now}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem: %w", err)
	}

	return nil
}

func (s *DynamoStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.tableName,
		Key:       s.itemKey(key),
	})
	if err != nil {
		return fmt.Errorf("DeleteItem: %w", err)
	}

	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *DynamoStorage) Close() error {
	return nil
}

// unmarshalValue extracts the serialized record from a DynamoDB item.
func unmarshalValue(item map[string]types.AttributeValue) (string, bool, error) {
	attr, ok := item["value"]
	if !ok {
		return "", false, nil
	}

	sv, ok := attr.(*types.AttributeValueMemberS)
	if !ok {
		return "", false, fmt.Errorf("value attribute is not a string")
	}

	return sv.Value, true, nil
}

package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when a concurrent commit is
// detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// PointerStore tracks the latest committed dump per index in DynamoDB.
// S3 offers no compare-and-swap, so the "which dump is current" pointer
// lives in a table with conditional writes: concurrent backup jobs cannot
// silently overwrite each other's commit.
//
// Table schema:
//   - Partition key: index_uri (string) - the S3 prefix of the index
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name lexgo-dumps \
//	  --attribute-definitions AttributeName=index_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=index_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type PointerStore struct {
	client    DDBClient
	tableName string
	indexURI  string // S3 bucket/prefix used as partition key
}

// NewPointerStore creates a latest-dump pointer store.
// The indexURI should be "s3://bucket/prefix" format used as partition key.
func NewPointerStore(client DDBClient, tableName, indexURI string) *PointerStore {
	return &PointerStore{
		client:    client,
		tableName: tableName,
		indexURI:  indexURI,
	}
}

// Latest returns the most recently committed dump name and its version.
// Version 0 with an empty name means no dump has been committed yet.
func (p *PointerStore) Latest(ctx context.Context) (uint64, string, error) {
	resp, err := p.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(p.tableName),
		KeyConditionExpression: aws.String("index_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: p.indexURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	nameAttr, ok := item["dump_name"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid dump_name attribute in DynamoDB")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, nameAttr.Value, nil
}

// Commit atomically records dumpName as the latest dump using a DynamoDB
// conditional write. A lost race surfaces as ErrConcurrentModification.
func (p *PointerStore) Commit(ctx context.Context, dumpName string) error {
	currentVersion, _, err := p.Latest(ctx)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = p.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(p.tableName),
		Item: map[string]types.AttributeValue{
			"index_uri": &types.AttributeValueMemberS{Value: p.indexURI},
			"version":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"dump_name": &types.AttributeValueMemberS{Value: dumpName},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})

	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}

	return nil
}

package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/postsentiment/internal/models"
	"github.com/spacesedan/postsentiment/internal/utils"
)

const (
	MAX_BATCH_SIZE  = 25
	MAX_RETRIES     = 3
	INITIAL_BACKOFF = 500 * time.Millisecond
)

// BatchWriter is the part of the DynamoDB client DynamoStore needs.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoStore writes enriched posts to a table keyed by content_id.
type DynamoStore struct {
	client  BatchWriter
	table   string
	backoff time.Duration
	now     func() time.Time
}

func NewDynamoStore(client BatchWriter, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table, backoff: INITIAL_BACKOFF, now: time.Now}
}

func (d *DynamoStore) Name() string { return "dynamodb:" + d.table }

type sentimentItem struct {
	ContentID string `dynamodbav:"content_id"`
	models.EnrichedPost
	CreatedAt int64 `dynamodbav:"created_at"`
}

func (d *DynamoStore) Write(ctx context.Context, posts []models.EnrichedPost) error {
	createdAt := d.now().Unix()
	buffer := utils.NewBatchBuffer[types.WriteRequest](MAX_BATCH_SIZE)
	// BatchWriteItem rejects a batch that puts the same key twice.
	inBatch := make(map[string]struct{}, MAX_BATCH_SIZE)

	flush := func() error {
		if !buffer.HasData() {
			return nil
		}
		buffer.LogBatchProcessing("dynamodb")
		clear(inBatch)
		return d.writeBatch(ctx, buffer.GetAndClear())
	}

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		id := post.ContentID()
		if _, ok := inBatch[id]; ok {
			continue
		}
		inBatch[id] = struct{}{}

		item, err := attributevalue.MarshalMap(sentimentItem{
			ContentID:    id,
			EnrichedPost: post,
			CreatedAt:    createdAt,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to marshal sentiment result: %w", err)
		}

		if buffer.Add(types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	slog.Info("[DynamoDB] Successfully stored sentiment results",
		slog.String("table", d.table),
		slog.Int("count", len(posts)))
	return nil
}

func (d *DynamoStore) writeBatch(ctx context.Context, writeRequests []types.WriteRequest) error {
	out, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			d.table: writeRequests,
		},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write sentiment results: %w", err)
	}

	retryCount := 0
	backoff := d.backoff
	for len(out.UnprocessedItems) > 0 && retryCount < MAX_RETRIES {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed sentiment items...",
			slog.Int("attempt", retryCount+1),
			slog.Int("remaining", len(out.UnprocessedItems[d.table])))

		out, err = d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[d.table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d sentiment items not written after %d retries", remaining, MAX_RETRIES)
	}
	return nil
}

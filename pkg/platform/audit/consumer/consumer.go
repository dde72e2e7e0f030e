// Package consumer materializes audit events from Kafka into a queryable
// store.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "folio/pkg/platform/audit"
)

// Fetcher is the slice of *kgo.Client the consumer polls.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
}

// Consumer appends every decodable record to store. Undecodable records
// are logged and skipped so one bad message cannot wedge the partition.
type Consumer struct {
	client Fetcher
	store  audit.Store
	logger *slog.Logger
}

func New(client Fetcher, store audit.Store, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, store: store, logger: logger}
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Error("audit fetch failed", "topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			c.Handle(ctx, r)
		})
	}
}

// Handle materializes a single record.
func (c *Consumer) Handle(ctx context.Context, r *kgo.Record) {
	var event audit.Event
	if err := json.Unmarshal(r.Value, &event); err != nil {
		c.logger.Warn("skipping undecodable audit record",
			"topic", r.Topic,
			"offset", r.Offset,
			"error", err,
		)
		return
	}
	if err := c.store.Append(ctx, event); err != nil {
		c.logger.Error("failed to materialize audit event",
			"id", event.ID,
			"action", event.Action,
			"error", err,
		)
	}
}

package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"go.uber.org/zap"
)

// StreamConfigEvent is the message published when the persisted stream config changes.
type StreamConfigEvent struct {
	Config    streamconfig.StreamConfig `json:"config"`
	ChangedAt int64                     `json:"changed_at"` // UTC millis
}

// StreamConfigEventsRepository announces stream config changes over Redis.
//
//   - PUBLISH <channel> <event JSON> for live subscribers (e.g. the streamer's wrapper script).
//   - SET <channel>:latest <event JSON> so late subscribers can catch up.
type StreamConfigEventsRepository struct {
	log     *zap.Logger
	client  *RedisClient
	channel string
	now     func() time.Time
}

// NewStreamConfigEventsRepository returns a publisher bound to channel.
func NewStreamConfigEventsRepository(log *zap.Logger, client *RedisClient, channel string) *StreamConfigEventsRepository {
	return &StreamConfigEventsRepository{
		log:     log.Named("stream_config_events"),
		client:  client,
		channel: channel,
		now:     time.Now,
	}
}

func latestKey(channel string) string { return channel + ":latest" }

// Publish announces cfg as the current stream config.
func (r *StreamConfigEventsRepository) Publish(ctx context.Context, cfg streamconfig.StreamConfig) error {
	payload, err := json.Marshal(StreamConfigEvent{Config: cfg, ChangedAt: r.now().UTC().UnixMilli()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, latestKey(r.channel), payload, 0)
	receivers := pipe.Publish(ctx, r.channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %q: %w", r.channel, err)
	}

	r.log.Debug("published", zap.String("channel", r.channel), zap.Int64("receivers", receivers.Val()))
	return nil
}

package articles

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/internal/basket"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
	"github.com/marktkorb/marktkorb-backend/pkg/redis"
)

// Stream delivers a seller's article change feed over redis pub/sub. It is
// the live side of the catalog: writes go through the Service, which
// publishes on the seller channel, and every open basket session consumes
// the same channel through this type.
type Stream struct {
	redis *redis.Client
	logg  *logger.Logger
}

// NewStream builds a change feed reader on the shared redis client.
func NewStream(client *redis.Client, logg *logger.Logger) (*Stream, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Stream{redis: client, logg: logg}, nil
}

// StreamArticles subscribes to the seller's channel and forwards decoded
// changes until the context is cancelled. Malformed payloads are skipped.
func (s *Stream) StreamArticles(ctx context.Context, sellerID uuid.UUID) (<-chan basket.ArticleChange, error) {
	if sellerID == uuid.Nil {
		return nil, fmt.Errorf("seller id is required")
	}

	sub := s.redis.Subscribe(ctx, redis.ArticleChannel(sellerID.String()))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribing to article channel: %w", err)
	}

	out := make(chan basket.ArticleChange)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				change, err := decodeChange([]byte(msg.Payload))
				if err != nil {
					if s.logg != nil {
						s.logg.Warn(ctx, fmt.Sprintf("skipping malformed article change: %v", err))
					}
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func decodeChange(payload []byte) (basket.ArticleChange, error) {
	var event ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return basket.ArticleChange{}, fmt.Errorf("decoding article change: %w", err)
	}
	if !event.Kind.IsValid() {
		return basket.ArticleChange{}, fmt.Errorf("unknown change kind %q", event.Kind)
	}
	return basket.ArticleChange{Kind: event.Kind, Article: event.Article}, nil
}

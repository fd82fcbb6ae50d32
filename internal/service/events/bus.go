package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/chat"
)

// TopicState carries conversation snapshots.
const TopicState = "conversation.state"

// Bus republishes conversation snapshots to any number of stream subscribers.
type Bus struct {
	pubSub *gochannel.GoChannel
}

// NewBus creates an in-process bus. Publish blocks until every subscriber has taken
// the snapshot, which keeps snapshots in mutation order.
func NewBus() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            32,
			BlockPublishUntilSubscriberAck: true,
		}, watermill.NopLogger{}),
	}
}

// Publish sends state to every current subscriber. It has the shape of a store
// observer.
func (b *Bus) Publish(state chat.State) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Str("component", "events").Msg("failed to encode state")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubSub.Publish(TopicState, msg); err != nil {
		log.Warn().Err(err).Str("component", "events").Msg("failed to publish state")
	}
}

// Subscribe streams decoded snapshots until ctx is done or the bus is closed. A slow
// reader only ever misses intermediate snapshots: the newest one always replaces a
// stale one in the buffer.
func (b *Bus) Subscribe(ctx context.Context) (<-chan chat.State, error) {
	messages, err := b.pubSub.Subscribe(ctx, TopicState)
	if err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to conversation state")
	}

	out := make(chan chat.State, 8)
	go func() {
		defer close(out)
		for msg := range messages {
			var state chat.State
			err := json.Unmarshal(msg.Payload, &state)
			msg.Ack()
			if err != nil {
				log.Warn().Err(err).Str("component", "events").Msg("dropping undecodable state")
				continue
			}
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- state:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- state:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Close shuts the bus down and closes every subscription.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

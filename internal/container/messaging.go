package container

import (
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/likes-go/internal/events"
	eventstore "github.com/serroba/likes-go/internal/events/store"
	"github.com/serroba/likes-go/internal/messaging"
	"go.uber.org/zap"
)

const consumerGroup = "likes-events"

// PublisherGroupPackage provides the stream publisher and the typed publish
// functions built on it.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, messaging.NewZapLogger(logger.Named("publisher")))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[events.HotKeyExpelledEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[events.HotKeyExpelledEvent](group.Publisher(), events.TopicHotKeyExpelled), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[events.SliceSyncedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[events.SliceSyncedEvent](group.Publisher(), events.TopicSliceSynced), nil
	})
}

// ConsumerGroupPackage provides the consumers of every event topic, sharing
// one stream subscriber.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.Group, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: consumerGroup,
		}, messaging.NewZapLogger(logger.Named("subscriber")))
		if err != nil {
			return nil, err
		}

		sink := eventstore.NewNoop(logger)
		group := messaging.NewGroup(subscriber, logger)

		group.Add(messaging.NewConsumer[events.HotKeyExpelledEvent](
			subscriber, events.TopicHotKeyExpelled, sink.SaveHotKeyExpelled, logger,
		))
		group.Add(messaging.NewConsumer[events.SliceSyncedEvent](
			subscriber, events.TopicSliceSynced, sink.SaveSliceSynced, logger,
		))

		return group, nil
	})
}

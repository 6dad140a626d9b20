package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

// GroupConfig holds the consumer group settings read from config.
type GroupConfig struct {
	Brokers  []string
	GroupID  string
	ClientID string
	// Oldest starts a new group at the beginning of the topic instead of the end.
	Oldest bool
}

func saramaConfig(gc GroupConfig) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_6_0_0
	if gc.ClientID != "" {
		cfg.ClientID = gc.ClientID
	}
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	if gc.Oldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	cfg.Consumer.Return.Errors = true
	cfg.Net.DialTimeout = 5 * time.Second
	return cfg
}

func NewGroup(gc GroupConfig) (sarama.ConsumerGroup, error) {
	return sarama.NewConsumerGroup(gc.Brokers, gc.GroupID, saramaConfig(gc))
}

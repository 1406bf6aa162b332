package push

import (
	"context"
	"errors"
	"io"

	"github.com/example/tableorder/pkg/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Source reads payloads off the push relay topic and hands each to a Handler.
type Source struct {
	reader  Reader
	handler Handler
	logger  *zap.Logger
}

func NewSource(cfg *config.KafkaConfig, handler Handler, logger *zap.Logger) *Source {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MaxBytes: 1e6,
	})
	return NewSourceWithReader(reader, handler, logger)
}

func NewSourceWithReader(reader Reader, handler Handler, logger *zap.Logger) *Source {
	return &Source{
		reader:  reader,
		handler: handler,
		logger:  logger.Named("push-source"),
	}
}

// Run blocks until ctx is cancelled or the reader is closed.
func (s *Source) Run(ctx context.Context) {
	s.logger.Info("Push source started")
	for ctx.Err() == nil {
		if !s.next(ctx) {
			break
		}
	}
	s.logger.Info("Push source stopped")
}

// next handles one message and reports whether reading should continue.
func (s *Source) next(ctx context.Context) bool {
	m, err := s.reader.ReadMessage(ctx)
	if err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return false
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return true
		}
		s.logger.Warn("Failed to read push message", zap.Error(err))
		return true
	}
	if len(m.Value) == 0 {
		s.logger.Debug("Skipping empty push message", zap.Int64("offset", m.Offset))
		return true
	}
	s.handler.HandlePush(ctx, m.Value)
	return true
}

func (s *Source) Close() error {
	return s.reader.Close()
}

package worker

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	natsclient "github.com/capitalize-ai/fitness-coach/internal/nats"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
	"github.com/capitalize-ai/fitness-coach/pkg/metrics"
)

const (
	fetchBatch   = 10
	fetchMaxWait = 5 * time.Second
)

// Fetcher is the part of a JetStream pull consumer the worker uses.
type Fetcher interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// message is the part of a JetStream message the worker uses.
type message interface {
	Data() []byte
	Ack() error
	Nak() error
	Term() error
}

// Consumer pulls jobs from the work queue and hands them to the processor.
type Consumer struct {
	fetcher   Fetcher
	processor *Processor
	logger    *logger.Logger
}

// NewConsumer creates a consumer.
func NewConsumer(fetcher Fetcher, processor *Processor, log *logger.Logger) *Consumer {
	return &Consumer{
		fetcher:   fetcher,
		processor: processor,
		logger:    log.Named("consumer"),
	}
}

// Run fetches and processes jobs until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("worker consuming", zap.String("stream", natsclient.StreamName))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("worker stopped")
			return nil
		default:
		}

		batch, err := c.fetcher.Fetch(fetchBatch, jetstream.FetchMaxWait(fetchMaxWait))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Debug("fetch failed", zap.Error(err))
			c.pause(ctx)
			continue
		}

		for msg := range batch.Messages() {
			c.handle(ctx, msg)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
			c.logger.Warn("message fetch error", zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg message) {
	if ctx.Err() != nil {
		c.settle(msg, Nak)
		return
	}

	job, err := natsclient.DecodeJob(msg.Data())
	if err != nil {
		c.logger.Error("dropping undecodable job", zap.Error(err))
		metrics.WorkerJobsTotal.WithLabelValues("undecodable").Inc()
		c.settle(msg, Term)
		return
	}

	c.settle(msg, c.processor.Process(ctx, job))
}

func (c *Consumer) settle(msg message, d Disposition) {
	var err error
	switch d {
	case Ack:
		err = msg.Ack()
	case Nak:
		err = msg.Nak()
	case Term:
		err = msg.Term()
	}
	if err != nil {
		c.logger.Warn("failed to settle message", zap.Stringer("disposition", d), zap.Error(err))
	}
}

func (c *Consumer) pause(ctx context.Context) {
	t := time.NewTimer(time.Second)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

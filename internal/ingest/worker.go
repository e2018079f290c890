package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/config"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/consumer"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/rabbitmq"
)

// Worker consumes ingestion tasks from the ingest queue and runs the
// orchestrator once per task.
type Worker struct {
	cfg         *config.IngestConfig
	conn        *rabbitmq.Connection
	orch        *Orchestrator
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	consumerTag string
	started     bool
}

func NewWorker(cfg *config.IngestConfig, conn *rabbitmq.Connection, orch *Orchestrator, logger *zap.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		cfg:         cfg,
		conn:        conn,
		orch:        orch,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		consumerTag: fmt.Sprintf("ingest-worker-%d", time.Now().Unix()),
	}
}

// Start declares the ingest queue and begins consuming.
func (w *Worker) Start() error {
	if w.cfg.Queue == "" {
		return fmt.Errorf("ingest queue is required")
	}

	if err := w.conn.DeclareQueue(w.cfg.Queue); err != nil {
		return fmt.Errorf("failed to declare ingest queue: %w", err)
	}

	if err := w.startConsuming(); err != nil {
		return err
	}

	w.started = true
	w.logger.Info("Ingest worker started and consuming tasks",
		zap.String("queue", w.cfg.Queue),
		zap.String("consumer_tag", w.consumerTag),
	)
	return nil
}

func (w *Worker) startConsuming() error {
	if err := w.conn.SetQoS(w.cfg.PrefetchCount); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	messages, err := w.conn.ConsumeMessages(w.cfg.Queue, w.consumerTag)
	if err != nil {
		return fmt.Errorf("failed to start consuming from queue %s: %w", w.cfg.Queue, err)
	}

	go w.processMessages(messages)
	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() error {
	w.logger.Info("Stopping ingest worker", zap.String("consumer_tag", w.consumerTag))
	w.cancel()

	if ch := w.conn.GetChannel(); ch != nil {
		if err := ch.Cancel(w.consumerTag, false); err != nil {
			w.logger.Error("Failed to cancel consumer",
				zap.String("consumer_tag", w.consumerTag),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (w *Worker) processMessages(messages <-chan amqp.Delivery) {
	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("Ingest worker context cancelled, stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				w.logger.Warn("Ingest message channel closed, attempting to restart consumer",
					zap.String("queue", w.cfg.Queue),
				)
				// Channel dropped, usually mid-reconnect. Keep
				// retrying until the connection heals or we stop.
				for w.started {
					select {
					case <-w.ctx.Done():
						return
					default:
					}

					time.Sleep(2 * time.Second)
					if !w.conn.IsHealthy() {
						continue
					}
					if err := w.startConsuming(); err != nil {
						w.logger.Error("Failed to restart ingest consumer, will retry",
							zap.String("queue", w.cfg.Queue),
							zap.Error(err),
						)
						time.Sleep(5 * time.Second)
						continue
					}
					w.logger.Info("Restarted ingest consumer after channel close",
						zap.String("queue", w.cfg.Queue),
					)
					return
				}
				return
			}
			consumer.ProcessMessage(w.logger, w.cfg.Queue, msg, w)
		}
	}
}

// HandleEvent implements consumer.EventHandler: one ingestion run per
// task.
func (w *Worker) HandleEvent(body []byte) error {
	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		w.logger.Error("Failed to unmarshal ingest task",
			zap.ByteString("body", body),
			zap.Error(err),
		)
		// Malformed task, nothing to retry. ACK it away.
		return nil
	}

	w.logger.Info("Processing ingest task", zap.String("webhook_id", task.WebhookID))
	return w.orch.Run(w.ctx)
}

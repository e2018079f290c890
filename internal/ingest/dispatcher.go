package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/config"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/rabbitmq"
)

// Dispatcher hands an ingestion task off for asynchronous execution.
// The ping endpoint acknowledges first and dispatches after; the task's
// outcome is observable only through logs.
type Dispatcher interface {
	Dispatch(task Task) error
}

// QueueDispatcher publishes ingestion tasks to the ingest queue. If the
// broker is unavailable the run happens inline on a goroutine instead:
// a ping must never be lost to a broker outage, and the pipeline is
// idempotent either way.
type QueueDispatcher struct {
	cfg    *config.IngestConfig
	conn   *rabbitmq.Connection
	orch   *Orchestrator
	logger *zap.Logger
}

func NewQueueDispatcher(cfg *config.IngestConfig, conn *rabbitmq.Connection, orch *Orchestrator, logger *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{cfg: cfg, conn: conn, orch: orch, logger: logger}
}

func (d *QueueDispatcher) Dispatch(task Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal ingest task: %w", err)
	}

	if err := d.conn.PublishMessage(d.cfg.Exchange, d.cfg.RoutingKey, body); err != nil {
		d.logger.Warn("Failed to publish ingest task, running inline",
			zap.String("webhook_id", task.WebhookID),
			zap.Error(err),
		)
		go func() {
			if runErr := d.orch.Run(context.Background()); runErr != nil {
				d.logger.Error("Inline ingestion run failed",
					zap.String("webhook_id", task.WebhookID),
					zap.Error(runErr),
				)
			}
		}()
		return nil
	}

	d.logger.Debug("Published ingest task",
		zap.String("webhook_id", task.WebhookID),
		zap.String("queue", d.cfg.Queue),
	)
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"time"

	"catalogd/pkg/ingest"
	"catalogd/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// ScopeCatalog rebuilds everything from source; ScopeScorecards recompiles
// the scorecard definitions and recomputes ranks over the loaded entities.
const (
	ScopeCatalog    = "catalog"
	ScopeScorecards = "scorecards"
)

// ReloadMessage asks the worker for a rebuild.
type ReloadMessage struct {
	Scope       string `json:"scope"`
	Reason      string `json:"reason,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// PublishReload enqueues a reload request.
func PublishReload(ch *amqp091.Channel, msg ReloadMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, ReloadQueue, body)
}

// ProcessReloadMessage runs one reload request against the pipeline.
func ProcessReloadMessage(ctx context.Context, pipeline *ingest.Pipeline, msg string) error {
	data := new(ReloadMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	start := time.Now()
	logger.Info("[Queue] Processing reload", "scope", data.Scope, "reason", data.Reason)

	var err error
	switch data.Scope {
	case ScopeScorecards:
		_, err = pipeline.ReloadScorecards(ctx)
	default:
		_, err = pipeline.Reload(ctx)
	}
	if err != nil {
		return err
	}

	logger.Info("[Queue] Reload finished", "scope", data.Scope, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

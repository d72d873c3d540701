package processors

import (
	"bcsync/internal/config"
	"bcsync/internal/events"
	"bcsync/internal/logger"
	"bcsync/internal/worker/processors/notify"
)

// EventProcessor routes catalog events to their handlers.
type EventProcessor struct {
	config   *config.Config
	logger   *logger.Logger
	notifier *notify.Notifier
}

func NewEventProcessor(cfg *config.Config, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		config:   cfg,
		logger:   logger,
		notifier: notify.New(cfg, logger),
	}
}

func (ep *EventProcessor) Process(event events.Event) error {
	switch event.Type {
	case events.TypeProductCreated, events.TypeProductUpdated:
		return ep.notifier.NotifyStorefront(event)
	default:
		ep.logger.Debug("Ignoring event type %s", event.Type)
		return nil
	}
}

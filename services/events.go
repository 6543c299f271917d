package services

import (
	"context"

	"mach-lagbe/models"
)

// IEventPublisher delivers order events to interested consumers.
type IEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, models.OrderEvent) error { return nil }

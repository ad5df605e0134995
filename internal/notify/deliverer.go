package notify

import (
	"context"
	"fmt"
)

// Deliverer hands consumed notification events to the in-app push channel.
// The actual push gateway lives outside this core; this implementation
// writes the delivery line so the worker is observable end to end.
type Deliverer struct{}

func NewDeliverer() *Deliverer {
	return &Deliverer{}
}

func (d *Deliverer) Deliver(ctx context.Context, event Event) error {
	fmt.Printf("deliver %s to %s: %s: %s\n", event.Kind, event.UserID, event.Title, event.Message)
	return nil
}

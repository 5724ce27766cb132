// Package events fans domain events out to side-effect sinks (audit log,
// live order feed) through a single actor, so sinks never run on the
// request path and always see events in publish order.
package events

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

const (
	OrderPlaced    = "order.placed"
	OrderDeleted   = "order.deleted"
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

type Event struct {
	Type     string          `json:"type"`
	EntityID string          `json:"entityId"`
	Actor    string          `json:"actor,omitempty"` // email of whoever caused it
	Order    *models.Order   `json:"order,omitempty"`
	Product  *models.Product `json:"product,omitempty"`
	At       time.Time       `json:"at"`
}

type Sink interface {
	Name() string
	Handle(ctx context.Context, ev *Event) error
}

// Dispatcher owns the actor system and the dispatch actor.
type Dispatcher struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewDispatcher(logger *zap.Logger, sinks ...Sink) (*Dispatcher, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &dispatchActor{sinks: sinks, logger: logger}
	})
	pid, err := system.Root.SpawnNamed(props, "order-events")
	if err != nil {
		return nil, err
	}

	return &Dispatcher{system: system, pid: pid, logger: logger}, nil
}

// Publish enqueues the event and returns immediately.
func (d *Dispatcher) Publish(ev *Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	d.system.Root.Send(d.pid, ev)
}

// Stop drains queued events and stops the actor.
func (d *Dispatcher) Stop() {
	if err := d.system.Root.PoisonFuture(d.pid).Wait(); err != nil {
		d.logger.Warn("Event dispatcher did not stop cleanly", zap.Error(err))
	}
	d.system.Shutdown()
}

type dispatchActor struct {
	sinks  []Sink
	logger *zap.Logger
}

func (a *dispatchActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *Event:
		for _, sink := range a.sinks {
			hctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := sink.Handle(hctx, msg); err != nil {
				a.logger.Error("Event sink failed",
					zap.String("sink", sink.Name()),
					zap.String("event", msg.Type),
					zap.String("entity_id", msg.EntityID),
					zap.Error(err))
			}
			cancel()
		}

	case *actor.Started:
		a.logger.Info("Event dispatcher started", zap.Int("sinks", len(a.sinks)))

	case *actor.Stopped:
		a.logger.Info("Event dispatcher stopped")
	}
}

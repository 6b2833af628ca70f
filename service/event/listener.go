package event

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cotask/cotask/service/messaging"
)

// Listener consumes run events from a queue on a background goroutine and
// hands each one to the registered handler.
type Listener struct {
	queue    messaging.Queue[RunEvent]
	handler  func(*RunEvent)
	ctx      context.Context
	cancelFn context.CancelFunc
	done     chan struct{}
}

// NewListener builds a listener; call Start to begin consumption.
func NewListener(queue messaging.Queue[RunEvent], handler func(*RunEvent)) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		queue:    queue,
		handler:  handler,
		ctx:      ctx,
		cancelFn: cancel,
		done:     make(chan struct{}),
	}
}

// Start launches the consume loop.
func (l *Listener) Start() {
	go func() {
		defer close(l.done)
		for {
			msg, err := l.queue.Consume(l.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				log.Printf("event listener: consume failed: %v", err)
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if msg == nil {
				// Polling transports report an empty queue as (nil, nil).
				select {
				case <-l.ctx.Done():
					return
				case <-time.After(50 * time.Millisecond):
				}
				continue
			}
			l.handler(msg.T())
			if err := msg.Ack(); err != nil {
				log.Printf("event listener: ack failed: %v", err)
			}
		}
	}()
}

// Stop cancels the consume loop and waits for it to exit.
func (l *Listener) Stop() {
	l.cancelFn()
	<-l.done
}

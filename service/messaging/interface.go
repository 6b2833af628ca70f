// Package messaging defines the queue abstraction the event journal is
// built on.  Implementations live in the memory and fs sub-packages.
package messaging

import "context"

// Vendor names a queue implementation.
type Vendor string

const (
	// VendorMemory selects the in-process channel-backed queue.
	VendorMemory Vendor = "memory"
	// VendorFS selects the filesystem-backed queue.
	VendorFS Vendor = "fs"
)

// Queue is an abstract message queue for any payload type.
type Queue[T any] interface {
	// Publish adds a new message with the payload to the queue.
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a single message retrieved from a queue.
type Message[T any] interface {
	// T returns the payload of this message.
	T() *T

	// Ack acknowledges successful processing of this message.
	Ack() error

	// Nack records a processing failure; the queue may retry the message.
	Nack(err error) error
}

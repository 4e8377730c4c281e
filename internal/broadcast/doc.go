// Package broadcast publishes order alerts as JSON events to a message broker
// so other systems (kitchen displays, dashboards) can react to new orders.
// RabbitMQ publishing waits for publisher confirms; NATS Streaming publishing
// waits for the server ack.
package broadcast

package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/natefinch/lumberjack.v2"
)

// auditLog appends one line per consumed event to logs/reservations.log.
// lumberjack rotates the file so a long-running service does not grow it
// without bound.
var auditLog = log.New(&lumberjack.Logger{
	Filename:   filepath.Join("logs", "reservations.log"),
	MaxSize:    10, // megabytes
	MaxBackups: 5,
	MaxAge:     28, // days
}, "", 0)

// StartReservationConsumer connects to RabbitMQ, declares the
// reservation.created and reservation.status queues (durable), and starts
// consuming from both. Each message is appended to the rotating audit log
// in a single-line, human-friendly format. The function runs a reconnect
// loop with exponential backoff and keeps running indefinitely; processing
// errors are logged and the offending message rejected so the server
// continues operating.
func StartReservationConsumer() {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{CreatedQueueName, StatusQueueName} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	created, err := ch.Consume(CreatedQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", CreatedQueueName, err)
	}
	status, err := ch.Consume(StatusQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", StatusQueueName, err)
	}

	for {
		select {
		case d, ok := <-created:
			if !ok {
				return errors.New("created deliveries channel closed")
			}
			handle(d, handleCreated)
		case d, ok := <-status:
			if !ok {
				return errors.New("status deliveries channel closed")
			}
			handle(d, handleStatus)
		}
	}
}

func handle(d amqp.Delivery, fn func([]byte) error) {
	if err := fn(d.Body); err != nil {
		log.Printf("reservation-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}

func handleCreated(body []byte) error {
	var ev ReservationCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	who := ev.UserName
	if ev.UserID != "" {
		who = fmt.Sprintf("%s (%s)", ev.UserName, ev.UserID)
	}
	auditLog.Printf("[%s] Reservation created | reservation_id=%d | reference=%s | harvest=%q | requester=%q | email=%s | date=%s %s | participants=%d",
		ev.CreatedAt, ev.ReservationID, ev.Reference, ev.HarvestName, strings.TrimSpace(who), ev.UserEmail,
		ev.ReservationDate, ev.ReservationTime, ev.Participants)
	return nil
}

func handleStatus(body []byte) error {
	var ev ReservationStatusEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	auditLog.Printf("[%s] Reservation %s | reservation_id=%d | reference=%s | harvest_id=%d | %s -> %s | participants=%d",
		ev.ChangedAt, strings.ToLower(ev.NewStatus), ev.ReservationID, ev.Reference, ev.HarvestID,
		ev.OldStatus, ev.NewStatus, ev.Participants)
	return nil
}

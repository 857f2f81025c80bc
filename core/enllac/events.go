package enllac

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event es publica després de cada operació d'enllaç confirmada.
type Event struct {
	Op        string    `json:"op"`
	OpID      string    `json:"op_id"`
	ArbreID   int       `json:"arbre_id"`
	DestiID   int       `json:"desti_id,omitempty"`
	Persones  int       `json:"persones"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// LogPublisher només escriu l'esdeveniment al log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev Event) error {
	logInfof("esdeveniment %s op=%s arbre=%d desti=%d persones=%d", ev.Op, ev.OpID, ev.ArbreID, ev.DestiID, ev.Persones)
	return nil
}

// AMQPPublisher publica els esdeveniments en un exchange topic de RabbitMQ.
type AMQPPublisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

func NewAMQPPublisher(url, exchange, routingKey string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("no s'ha pogut connectar a RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("no s'ha pogut obrir el canal: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("no s'ha pogut declarar l'exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, routingKey: routingKey}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	msg, err := eventMessage(ev)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, routingKeyFor(p.routingKey, ev), false, false, msg)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func routingKeyFor(base string, ev Event) string {
	if base == "" {
		return ev.Op
	}
	return base + "." + ev.Op
}

func eventMessage(ev Event) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.OpID,
		Timestamp:    ev.Timestamp,
		Body:         body,
	}, nil
}

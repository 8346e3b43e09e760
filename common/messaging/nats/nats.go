package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"hotel-reservations-service/common/messaging"
)

type Publisher struct {
	conn    *nats.Conn
	subject string
}

func NewNATSPublisher(host, port, user, password, subject string) (messaging.Publisher, error) {
	conn, err := connect(host, port, user, password)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
	}, nil
}

func (p *Publisher) Publish(message []byte) error {
	return p.conn.Publish(p.subject, message)
}

func (p *Publisher) Close() {
	p.conn.Close()
}

type Subscriber struct {
	conn         *nats.Conn
	subject      string
	queueGroup   string
	subscription *nats.Subscription
}

func NewNATSSubscriber(host, port, user, password, subject, queueGroup string) (messaging.Subscriber, error) {
	conn, err := connect(host, port, user, password)
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		conn:       conn,
		subject:    subject,
		queueGroup: queueGroup,
	}, nil
}

// Subscribe registers the handler; an empty queue group means every process
// instance receives every message, which is what push invalidation needs.
func (s *Subscriber) Subscribe(handler func(message []byte)) error {
	callback := func(msg *nats.Msg) {
		handler(msg.Data)
	}
	var subscription *nats.Subscription
	var err error
	if s.queueGroup == "" {
		subscription, err = s.conn.Subscribe(s.subject, callback)
	} else {
		subscription, err = s.conn.QueueSubscribe(s.subject, s.queueGroup, callback)
	}
	if err != nil {
		return err
	}
	s.subscription = subscription
	return nil
}

func (s *Subscriber) Unsubscribe() error {
	if s.subscription == nil {
		return nil
	}
	return s.subscription.Unsubscribe()
}

func (s *Subscriber) Close() {
	s.conn.Close()
}

func connect(host, port, user, password string) (*nats.Conn, error) {
	url := fmt.Sprintf("nats://%s:%s@%s:%s", user, password, host, port)
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

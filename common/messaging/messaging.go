package messaging

type Publisher interface {
	Publish(message []byte) error
	Close()
}

type Subscriber interface {
	Subscribe(handler func(message []byte)) error
	Unsubscribe() error
	Close()
}

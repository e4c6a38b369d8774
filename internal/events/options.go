package events

type ProducerOptions func(e *EventProducer)

func WithOutputTopic(topic string) ProducerOptions {
	return func(e *EventProducer) {
		e.topic = topic
	}
}

// WithCapacity bounds the number of events waiting to be written.
// Zero means unbounded.
func WithCapacity(capacity int) ProducerOptions {
	return func(e *EventProducer) {
		e.buffer = newBuffer(capacity)
	}
}

func WithSource(source string) ProducerOptions {
	return func(e *EventProducer) {
		e.source = source
	}
}

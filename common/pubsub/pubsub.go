// Package pubsub implements a generic publish-subscribe interface.
package pubsub

import (
	"sync"

	"github.com/eapache/channels"
)

// ClosableSubscription is a subscription that can be closed.
type ClosableSubscription interface {
	// Close unsubscribes from the topic and closes the subscription channel.
	Close()
}

// Subscription is a Broker subscription instance.
type Subscription struct {
	ch    channels.Channel
	unsub func()
}

// Unwrap ties the read end of the subscription channel to a type specific
// channel.
func (s *Subscription) Unwrap(ch interface{}) {
	channels.Unwrap(s.ch, ch)
}

// Close unsubscribes from the Broker and closes the subscription channel.
func (s *Subscription) Close() {
	s.unsub()
}

// OnSubscribeHook is the on-subscribe callback hook prototype.
type OnSubscribeHook func(channels.Channel)

// Broker is a pub/sub broker instance.
type Broker struct {
	sync.Mutex

	subscribers     map[*Subscription]struct{}
	onSubscribeHook OnSubscribeHook

	pubLastOne bool
	lastOne    interface{}
	haveLast   bool
}

// Subscribe subscribes to the Broker's broadcasts, and returns a
// subscription handle that can be used to receive broadcasts.  The
// returned subscription is backed by a channel with an unbounded buffer.
func (b *Broker) Subscribe() *Subscription {
	return b.SubscribeBuffered(int64(channels.Infinity))
}

// SubscribeBuffered subscribes to the Broker's broadcasts, and returns a
// subscription handle that can be used to receive broadcasts.  Buffer
// controls the capacity of a ring buffer backing the subscription channel;
// a negative value denotes an unbounded buffer.
func (b *Broker) SubscribeBuffered(buffer int64) *Subscription {
	return b.SubscribeEx(buffer, nil)
}

// SubscribeEx subscribes to the Broker's broadcasts, and invokes the
// provided callback with the subscription's backing channel before any
// deliveries are made.
func (b *Broker) SubscribeEx(buffer int64, onSubscribeHook OnSubscribeHook) *Subscription {
	b.Lock()
	defer b.Unlock()

	sub := &Subscription{
		ch: newSubscriptionChannel(buffer),
	}
	sub.unsub = func() { b.unsubscribe(sub) }

	if b.onSubscribeHook != nil {
		b.onSubscribeHook(sub.ch)
	}
	if onSubscribeHook != nil {
		onSubscribeHook(sub.ch)
	}

	// Deliver the last broadcast value if the Broker is configured to do so.
	if b.pubLastOne && b.haveLast {
		sub.ch.In() <- b.lastOne
	}

	b.subscribers[sub] = struct{}{}

	return sub
}

// Broadcast broadcasts v to all subscribers.
func (b *Broker) Broadcast(v interface{}) {
	b.Lock()
	defer b.Unlock()

	if b.pubLastOne {
		b.lastOne = v
		b.haveLast = true
	}

	for sub := range b.subscribers {
		sub.ch.In() <- v
	}
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.Lock()
	defer b.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	sub.ch.Close()
}

func newSubscriptionChannel(buffer int64) channels.Channel {
	if buffer < 0 {
		return channels.NewInfiniteChannel()
	}
	return channels.NewRingChannel(channels.BufferCap(buffer))
}

// NewBroker creates a new pub/sub broker.  If pubLastOne is set, the last
// broadcasted value will automatically be published to new subscribers.
func NewBroker(pubLastOne bool) *Broker {
	return &Broker{
		subscribers: make(map[*Subscription]struct{}),
		pubLastOne:  pubLastOne,
	}
}

// NewBrokerEx creates a new pub/sub broker, with a hook invoked with each
// new subscription's backing channel.
func NewBrokerEx(onSubscribeHook OnSubscribeHook) *Broker {
	return &Broker{
		subscribers:     make(map[*Subscription]struct{}),
		onSubscribeHook: onSubscribeHook,
	}
}

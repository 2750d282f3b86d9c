// Package bus is the in-process pub/sub fabric the services talk over.
// Topics are slash-separated paths; subscriptions may use "+" to match one
// level and "#" to match the remaining levels. Retained messages replay to
// late subscribers, so state topics (wifi/status, feeder/last) behave like
// last-value caches.
package bus

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Topic is a sequence of path levels.
type Topic []string

// T parses "a/b/c" into a Topic.
func T(path string) Topic {
	if path == "" {
		return Topic{}
	}
	return Topic(strings.Split(path, "/"))
}

func (t Topic) String() string { return strings.Join(t, "/") }

const (
	wildOne  = "+"
	wildRest = "#"
)

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// NewMessage builds a message. A retained message with a nil payload clears
// the stored value for its topic.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

type Subscription struct {
	pattern Topic
	ch      chan *Message
	conn    *Connection
}

func (s *Subscription) Topic() Topic             { return s.pattern }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

type Bus struct {
	mu   sync.Mutex
	root *node
	qLen int
}

// NewBus creates a bus with the given per-subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

// deliver pushes msg into the subscription queue, dropping the oldest
// entry when the queue is full. Slow consumers lose history, never block
// publishers.
func deliver(sub *Subscription, msg *Message) {
	select {
	case sub.ch <- msg:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

func (b *Bus) addSubscription(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, level := range sub.pattern {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[level]
		if !ok {
			child = &node{}
			n.children[level] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	// Replay retained state matching the (possibly wildcard) pattern.
	replayRetained(b.root, sub.pattern, sub)
}

func replayRetained(n *node, pattern Topic, sub *Subscription) {
	if len(pattern) == 0 {
		if n.retained != nil {
			deliver(sub, n.retained)
		}
		return
	}
	level := pattern[0]
	if level == wildRest {
		walkRetained(n, sub)
		return
	}
	if level == wildOne {
		for _, child := range n.children {
			replayRetained(child, pattern[1:], sub)
		}
		return
	}
	if child, ok := n.children[level]; ok {
		replayRetained(child, pattern[1:], sub)
	}
}

func walkRetained(n *node, sub *Subscription) {
	if n.retained != nil {
		deliver(sub, n.retained)
	}
	for _, child := range n.children {
		walkRetained(child, sub)
	}
}

// Publish delivers a message to every subscription whose pattern matches
// the (concrete) message topic, then stores or clears retained state.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	match(b.root, msg.Topic, msg)

	if msg.Retained {
		n := b.root
		for _, level := range msg.Topic {
			if n.children == nil {
				n.children = make(map[string]*node)
			}
			child, ok := n.children[level]
			if !ok {
				child = &node{}
				n.children[level] = child
			}
			n = child
		}
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
}

func match(n *node, topic Topic, msg *Message) {
	if rest, ok := n.children[wildRest]; ok {
		for _, sub := range rest.subs {
			deliver(sub, msg)
		}
	}
	if len(topic) == 0 {
		for _, sub := range n.subs {
			deliver(sub, msg)
		}
		return
	}
	if child, ok := n.children[topic[0]]; ok {
		match(child, topic[1:], msg)
	}
	if child, ok := n.children[wildOne]; ok {
		match(child, topic[1:], msg)
	}
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, level := range sub.pattern {
		if n.children == nil {
			return
		}
		child, ok := n.children[level]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	for i := len(sub.pattern) - 1; i >= 0; i-- {
		parent := stack[i]
		key := sub.pattern[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// Connection is a service's handle on the bus: it owns its subscriptions so
// Disconnect can tear them all down when the service stops.
type Connection struct {
	bus    *Bus
	mu     sync.Mutex
	subs   []*Subscription
	id     string
	nextID uint32
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

func (c *Connection) Subscribe(pattern Topic) *Subscription {
	sub := &Subscription{
		pattern: pattern,
		ch:      make(chan *Message, c.bus.qLen),
		conn:    c,
	}
	c.bus.addSubscription(sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Request stamps msg with a fresh per-connection reply topic, subscribes to
// it and publishes the request. The caller owns the returned subscription.
func (c *Connection) Request(msg *Message) *Subscription {
	n := atomic.AddUint32(&c.nextID, 1)
	msg.ReplyTo = Topic{"$reply", c.id, strconv.FormatUint(uint64(n), 10)}
	sub := c.Subscribe(msg.ReplyTo)
	c.Publish(msg)
	return sub
}

// RequestWait performs Request and blocks for the first reply or ctx expiry.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	sub := c.Request(msg)
	defer c.Unsubscribe(sub)
	select {
	case reply := <-sub.Channel():
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reply publishes payload on the request's ReplyTo topic. Requests without
// a ReplyTo are fire-and-forget; Reply is then a no-op.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if len(req.ReplyTo) == 0 {
		return
	}
	c.Publish(c.NewMessage(req.ReplyTo, payload, retained))
}

// Disconnect removes every subscription owned by this connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub)
		close(sub.ch)
	}
}

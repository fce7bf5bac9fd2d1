// Implements the MessageQueue, which holds the messages waiting for one agent.
// Messages are enqueued by the dispatcher at the end of the tick they were produced in.

package sim

import (
	"fmt"
	"strings"
)

// MessageQueue is a FIFO queue of messages waiting to be consumed by an agent.
// Insertion order is processing order.
type MessageQueue struct {
	queue []Message
}

// Enqueue adds a message to the back of the queue.
func (mq *MessageQueue) Enqueue(m Message) {
	mq.queue = append(mq.queue, m)
}

func (mq *MessageQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range mq.queue {
		sb.WriteString(fmt.Sprint(val))
		if i < len(mq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of messages in the queue.
func (mq *MessageQueue) Len() int {
	return len(mq.queue)
}

// Peek returns the message at the front of the queue without removing it.
// The second return value is false if the queue is empty.
func (mq *MessageQueue) Peek() (Message, bool) {
	if len(mq.queue) == 0 {
		return Message{}, false
	}
	return mq.queue[0], true
}

// Dequeue removes and returns the message at the front of the queue.
// The second return value is false if the queue is empty.
func (mq *MessageQueue) Dequeue() (Message, bool) {
	if len(mq.queue) == 0 {
		return Message{}, false
	}
	m := mq.queue[0]
	mq.queue[0] = Message{}
	if len(mq.queue) == 1 {
		mq.queue = mq.queue[:0]
	} else {
		mq.queue = mq.queue[1:]
	}
	return m, true
}

// Items returns a copy of the queue contents in FIFO order.
func (mq *MessageQueue) Items() []Message {
	items := make([]Message, len(mq.queue))
	copy(items, mq.queue)
	return items
}

package wallet

// The controller is the single writer of connection state; these methods are
// its publishing half. Consumers subscribe for events and read snapshots,
// never mutate.

// Subscribe adds a new subscriber and returns a channel to receive events.
func (c *Controller) Subscribe() Subscriber {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	ch := make(Subscriber, 100)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (c *Controller) Unsubscribe(ch Subscriber) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	for i, sub := range c.subscribers {
		if sub == ch {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// notify broadcasts after a commit. Synchronous with respect to the writer;
// slow subscribers are skipped rather than blocking state mutation.
func (c *Controller) notify(event Event) {
	c.pubMu.RLock()
	defer c.pubMu.RUnlock()
	for _, sub := range c.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

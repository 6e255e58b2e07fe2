package session

import "sync"

// Notifier fans principal change events out to subscribers. It replaces
// ad hoc global pub/sub: one instance is built at startup and handed to
// whoever needs to observe logins and logouts. A nil principal means
// the session ended.
type Notifier struct {
	mu   sync.Mutex
	subs []chan *Principal
}

// NewNotifier constructs a Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a listener. The channel is buffered; slow
// listeners drop events rather than block the login path.
func (n *Notifier) Subscribe() <-chan *Principal {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch := make(chan *Principal, 8)
	n.subs = append(n.subs, ch)
	return ch
}

// Notify publishes a principal change. Callers must have persisted the
// session before notifying, so listeners never observe an event ahead
// of the store.
func (n *Notifier) Notify(principal *Principal) {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- principal:
		default:
		}
	}
}

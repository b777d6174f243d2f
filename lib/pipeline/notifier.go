package pipeline

import (
	"runtime/debug"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// notifier доставляет события подписчикам по порядку из отдельной горутины,
// публикация никогда не блокируется на подписчиках
type notifier struct {
	mu        sync.Mutex
	cond      *sync.Cond
	queue     []delivery
	listeners map[uint64]func(Event)
	nextID    uint64
	closed    bool
	done      chan struct{}
	logger    *log.Entry
}

// delivery событие и подписчики на момент публикации
type delivery struct {
	event     Event
	listeners []uint64
}

func newNotifier(logger *log.Entry) *notifier {
	n := &notifier{
		listeners: map[uint64]func(Event){},
		done:      make(chan struct{}),
		logger:    logger,
	}
	n.cond = sync.NewCond(&n.mu)
	go n.run()
	return n
}

func (n *notifier) publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.queue = append(n.queue, delivery{
		event:     ev,
		listeners: n.snapshot(),
	})
	n.cond.Signal()
}

// snapshot под мьютексом, в порядке подписки
func (n *notifier) snapshot() []uint64 {
	ids := make([]uint64, 0, len(n.listeners))
	for id := range n.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

// listener nil, если подписчик уже отписался
func (n *notifier) listener(id uint64) func(Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.listeners[id]
}

func (n *notifier) subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// close доставляет то, что уже в очереди, и останавливает горутину
func (n *notifier) close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		<-n.done
		return
	}
	n.closed = true
	n.cond.Broadcast()
	n.mu.Unlock()
	<-n.done
}

func (n *notifier) run() {
	defer close(n.done)
	for {
		n.mu.Lock()
		for len(n.queue) == 0 && !n.closed {
			n.cond.Wait()
		}
		if len(n.queue) == 0 {
			n.mu.Unlock()
			return
		}
		item := n.queue[0]
		n.queue = n.queue[1:]
		n.mu.Unlock()

		for _, id := range item.listeners {
			if fn := n.listener(id); fn != nil {
				n.deliver(fn, item.event)
			}
		}
	}
}

func (n *notifier) deliver(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.
				WithField("panic_stack", string(debug.Stack())).
				Errorf("panic в подписчике: (%v)", r)
		}
	}()
	fn(ev)
}

package nats

import (
	"context"
	"sync"
)

const identityQueueDepth = 32

// serialDispatcher fans inbound events out to one goroutine per identity, so
// events for the same identity are handled one at a time in arrival order.
// Identity workers live for the dispatcher's lifetime; conversation volume is
// per-user, so the goroutine count stays proportional to distinct users.
type serialDispatcher struct {
	ctx     context.Context
	handler func(context.Context, string, string)

	mu     sync.Mutex
	queues map[string]chan event
	wg     sync.WaitGroup
}

func newSerialDispatcher(ctx context.Context, handler func(context.Context, string, string)) *serialDispatcher {
	return &serialDispatcher{
		ctx:     ctx,
		handler: handler,
		queues:  make(map[string]chan event),
	}
}

func (d *serialDispatcher) enqueue(ev event) {
	d.mu.Lock()
	queue, ok := d.queues[ev.Identity]
	if !ok {
		queue = make(chan event, identityQueueDepth)
		d.queues[ev.Identity] = queue
		d.wg.Add(1)
		go d.run(queue)
	}
	d.mu.Unlock()

	select {
	case queue <- ev:
	case <-d.ctx.Done():
	}
}

func (d *serialDispatcher) run(queue chan event) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev := <-queue:
			d.handler(d.ctx, ev.Identity, ev.Text)
		}
	}
}

// wait blocks until all identity workers observed shutdown.
func (d *serialDispatcher) wait() {
	d.wg.Wait()
}

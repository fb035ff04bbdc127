package apiclient

import (
	"context"
	"sync"
	"time"
)

// Poller периодически дергает fetch с фиксированным интервалом и хранит
// последний результат. Интервал не меняется при ошибках: следующая
// попытка просто придет по тикеру
type Poller[T any] struct {
	fetch    func(ctx context.Context) (T, error)
	interval time.Duration

	mu      sync.RWMutex
	value   T
	err     error
	loaded  bool
	refetch chan struct{}
	stop    context.CancelFunc
	done    chan struct{}
}

func NewPoller[T any](fetch func(ctx context.Context) (T, error), interval time.Duration) *Poller[T] {
	return &Poller[T]{
		fetch:    fetch,
		interval: interval,
		refetch:  make(chan struct{}, 1),
	}
}

// Start запускает цикл опроса. Первый запрос уходит сразу
func (p *Poller[T]) Start(ctx context.Context) {
	ctx, p.stop = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go p.loop(ctx)
}

func (p *Poller[T]) loop(ctx context.Context) {
	defer close(p.done)

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		case <-p.refetch:
			p.poll(ctx)
		}
	}
}

func (p *Poller[T]) poll(ctx context.Context) {
	value, err := p.fetch(ctx)

	p.mu.Lock()
	if err == nil {
		p.value = value
	}
	p.err = err
	p.loaded = true
	p.mu.Unlock()
}

// Refetch просит внеочередной запрос. Если один уже в очереди,
// второй не добавляется
func (p *Poller[T]) Refetch() {
	select {
	case p.refetch <- struct{}{}:
	default:
	}
}

// Latest возвращает последнее успешное значение, признак того, что хотя
// бы один запрос уже завершился, и последнюю ошибку
func (p *Poller[T]) Latest() (T, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.value, p.loaded, p.err
}

// Stop останавливает цикл и дожидается его завершения
func (p *Poller[T]) Stop() {
	if p.stop == nil {
		return
	}

	p.stop()
	<-p.done
}

package accounts

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Gateway is the remote fetch boundary: one batched network call per
// planning cycle. Returned records may be partial — an absent field means
// "not fetched this cycle", never "cleared".
type Gateway interface {
	FetchBatch(ctx context.Context, reqs []FetchRequest) ([]*AccountRecord, error)
}

// Notifier receives committed canonical keys, e.g. for cross-process fanout.
// Implementations must be best-effort and non-blocking.
type Notifier interface {
	AccountUpdated(ctx context.Context, key string)
}

// Engine ties the store, resolver, planner and gateway into the
// plan → fetch → merge → commit cycle. Cycles may overlap freely; each
// commit re-merges against the store state current at commit time.
type Engine struct {
	store    *Store
	resolver *Resolver
	gateway  Gateway
	codec    AddressCodec
	logger   *zap.Logger
	notifier Notifier

	mu     sync.Mutex
	subs   map[uint64]chan string
	nextID uint64
}

// NewEngine constructs an engine over an explicit store. The notifier is
// optional.
func NewEngine(store *Store, gateway Gateway, codec AddressCodec, logger *zap.Logger, notifier Notifier) *Engine {
	return &Engine{
		store:    store,
		resolver: NewResolver(store, codec),
		gateway:  gateway,
		codec:    codec,
		logger:   logger,
		notifier: notifier,
		subs:     make(map[uint64]chan string),
	}
}

// Store exposes the underlying cache store.
func (e *Engine) Store() *Store { return e.store }

// Resolver exposes the identity resolver.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// GetAccount is the synchronous, cache-only read. Reserved names return
// their fixed synthetic record; an unknown username returns nothing.
func (e *Engine) GetAccount(addressOrUsername string) (*AccountRecord, bool) {
	if IsReserved(addressOrUsername) {
		return ReservedRecord(addressOrUsername), true
	}
	key, ok := e.resolver.Resolve(addressOrUsername)
	if !ok {
		return nil, false
	}
	return e.store.Get(key)
}

// FetchAccounts runs one full cycle: plan against the cache, issue a single
// batched gateway call for whatever survived, merge each returned payload
// into the store, and signal the keys whose merge produced an observable
// change. A gateway failure leaves the cache completely untouched — no
// commit, no partial merge — and is returned to the caller; cached data
// stays visible either way.
func (e *Engine) FetchAccounts(ctx context.Context, reqs []FetchRequest) error {
	planned := e.Plan(reqs)
	if len(planned) == 0 {
		return nil
	}

	payloads, err := e.gateway.FetchBatch(ctx, planned)
	if err != nil {
		e.logger.Error("account fetch cycle failed",
			zap.Int("requests", len(planned)),
			zap.Error(err))
		return err
	}

	for _, payload := range payloads {
		if payload == nil || payload.Address == "" {
			continue
		}
		if IsReserved(payload.Address) {
			continue
		}
		key := payload.Address
		if e.codec.IsValidAddress(key) {
			if canonical, convErr := e.codec.ConvertToAddress(key); convErr == nil {
				key = canonical
			}
		}
		if _, committed := e.store.commit(key, payload); committed {
			e.signal(ctx, key)
		}
	}
	return nil
}

// Invalidate removes the records and aliases for the given keys, so the next
// fetch cycle performs a full refetch.
func (e *Engine) Invalidate(keys ...string) {
	e.store.Invalidate(keys...)
}

// Subscribe returns a channel of committed canonical keys plus a cancel
// func. Delivery is best-effort: a subscriber that falls behind misses
// signals rather than blocking the commit pipeline.
func (e *Engine) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

func (e *Engine) signal(ctx context.Context, key string) {
	e.mu.Lock()
	for _, ch := range e.subs {
		select {
		case ch <- key:
		default:
		}
	}
	e.mu.Unlock()

	if e.notifier != nil {
		e.notifier.AccountUpdated(ctx, key)
	}
}

package remote

import (
	"sort"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
)

// Hub fans snapshots out to subscribers. Adapters call Publish* while still
// holding the lock that guards their data, which is what keeps deliveries in
// write order; the Hub itself only guards its subscriber tables.
type Hub struct {
	mu     sync.Mutex
	nextID int
	items  map[int]ItemsHandler
	cats   map[int]CategoriesHandler
}

func NewHub() *Hub {
	return &Hub{
		items: map[int]ItemsHandler{},
		cats:  map[int]CategoriesHandler{},
	}
}

// SubscribeItems registers h and immediately delivers initial to it.
func (h *Hub) SubscribeItems(initial []model.Item, hd ItemsHandler) Unsubscribe {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.items[id] = hd
	h.mu.Unlock()

	hd(model.CloneItems(initial), nil)
	return h.release(func() { delete(h.items, id) })
}

// SubscribeCategories registers h and immediately delivers initial to it.
func (h *Hub) SubscribeCategories(initial []string, hd CategoriesHandler) Unsubscribe {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.cats[id] = hd
	h.mu.Unlock()

	hd(append([]string(nil), initial...), nil)
	return h.release(func() { delete(h.cats, id) })
}

func (h *Hub) PublishItems(items []model.Item) {
	for _, hd := range h.itemHandlers() {
		hd(model.CloneItems(items), nil)
	}
}

func (h *Hub) PublishCategories(labels []string) {
	for _, hd := range h.categoryHandlers() {
		hd(append([]string(nil), labels...), nil)
	}
}

// Counts reports the number of live item and category subscriptions.
func (h *Hub) Counts() (items, categories int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items), len(h.cats)
}

// Close drops every subscriber without notifying them.
func (h *Hub) Close() {
	h.mu.Lock()
	h.items = map[int]ItemsHandler{}
	h.cats = map[int]CategoriesHandler{}
	h.mu.Unlock()
}

func (h *Hub) release(drop func()) Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			drop()
			h.mu.Unlock()
		})
	}
}

// Handlers are returned in subscription order.
func (h *Hub) itemHandlers() []ItemsHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]int, 0, len(h.items))
	for k := range h.items {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]ItemsHandler, 0, len(keys))
	for _, k := range keys {
		out = append(out, h.items[k])
	}
	return out
}

func (h *Hub) categoryHandlers() []CategoriesHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]int, 0, len(h.cats))
	for k := range h.cats {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]CategoriesHandler, 0, len(keys))
	for _, k := range keys {
		out = append(out, h.cats[k])
	}
	return out
}

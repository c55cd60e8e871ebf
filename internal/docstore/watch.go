package docstore

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Makepad-fr/tada/internal/docstore/api"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote"
)

const writeWait = 10 * time.Second

// latest holds the newest undelivered frame. Snapshots are whole, so a slow
// socket only ever needs the last one.
type latest struct {
	mu    sync.Mutex
	frame any
	ready chan struct{}
}

func newLatest() *latest { return &latest{ready: make(chan struct{}, 1)} }

func (l *latest) put(frame any) {
	l.mu.Lock()
	l.frame = frame
	l.mu.Unlock()
	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func (l *latest) take() any {
	l.mu.Lock()
	defer l.mu.Unlock()
	f := l.frame
	l.frame = nil
	return f
}

// watchTodos GET /v1/todos/watch (websocket)
func (s *Server) watchTodos(w http.ResponseWriter, r *http.Request) {
	coll, uid := s.collection(r)
	s.watch(w, r, "todos", uid, func(ctx context.Context, out *latest) (remote.Unsubscribe, error) {
		return coll.Subscribe(ctx, func(items []model.Item, err error) {
			if err != nil {
				out.put(api.ItemsFrame{Items: []model.Item{}, Error: err.Error()})
				return
			}
			if items == nil {
				items = []model.Item{}
			}
			out.put(api.ItemsFrame{Items: items})
		})
	})
}

// watchCategories GET /v1/categories/watch (websocket)
func (s *Server) watchCategories(w http.ResponseWriter, r *http.Request) {
	coll, uid := s.collection(r)
	s.watch(w, r, "categories", uid, func(ctx context.Context, out *latest) (remote.Unsubscribe, error) {
		return coll.SubscribeCategories(ctx, func(labels []string, err error) {
			if err != nil {
				out.put(api.CategoriesFrame{List: []string{}, Error: err.Error()})
				return
			}
			if labels == nil {
				labels = []string{}
			}
			out.put(api.CategoriesFrame{List: labels})
		})
	})
}

func (s *Server) watch(w http.ResponseWriter, r *http.Request, name, uid string,
	subscribe func(ctx context.Context, out *latest) (remote.Unsubscribe, error)) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("collection", name).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := newLatest()
	unsub, err := subscribe(ctx, out)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return
	}
	defer unsub()

	s.metrics.watchers.WithLabelValues(name).Inc()
	defer s.metrics.watchers.WithLabelValues(name).Dec()
	log := s.log.With().Str("collection", name).Str("user", uid).Logger()
	log.Debug().Msg("watch opened")

	// Reads only detect the peer going away and answer control frames.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.ping)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("watch closed")
			return
		case <-out.ready:
			frame := out.take()
			if frame == nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				log.Debug().Err(err).Msg("watch write failed")
				return
			}
			s.metrics.pushes.WithLabelValues(name).Inc()
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

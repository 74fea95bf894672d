// Package status serves a read-only HTTP view of the queue.
package status

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/19tube/internal/app/notification"
	"github.com/osa030/19tube/internal/app/playback"
	"github.com/osa030/19tube/internal/domain/video"
)

// QueueSource provides queue snapshots.
type QueueSource interface {
	ListPending() playback.Snapshot
}

// HistorySource provides recent announcements.
type HistorySource interface {
	Recent() []notification.Notification
}

// Item is the JSON form of a queue item.
type Item struct {
	ID          string    `json:"id"`
	Seq         uint64    `json:"seq"`
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	DurationSec float64   `json:"duration_sec,omitempty"`
	Source      string    `json:"source"`
	Submitter   string    `json:"submitter"`
	AddedAt     time.Time `json:"added_at"`
}

// Queue is the JSON form of a snapshot.
type Queue struct {
	State    string `json:"state"`
	Playing  bool   `json:"playing"`
	Stopping bool   `json:"stopping"`
	Current  *Item  `json:"current"`
	Pending  []Item `json:"pending"`
}

// NewRouter builds the status routes. history may be nil.
func NewRouter(queue QueueSource, history HistorySource) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/queue", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, FromSnapshot(queue.ListPending()))
	})
	r.Get("/api/history", func(w http.ResponseWriter, r *http.Request) {
		items := []notification.Notification{}
		if history != nil {
			items = history.Recent()
		}
		writeJSON(w, http.StatusOK, items)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// NewServer wraps handler in an HTTP server with h2c (HTTP/2 cleartext) support.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// FromSnapshot converts a snapshot into its JSON form.
func FromSnapshot(s playback.Snapshot) Queue {
	q := Queue{
		State:    s.State,
		Playing:  s.IsPlaying(),
		Stopping: s.Stopping,
		Pending:  make([]Item, 0, len(s.Pending)),
	}
	if s.Current != nil {
		it := fromItem(*s.Current)
		q.Current = &it
	}
	for _, p := range s.Pending {
		q.Pending = append(q.Pending, fromItem(p))
	}
	return q
}

func fromItem(it video.QueueItem) Item {
	return Item{
		ID:          it.ID,
		Seq:         it.Seq,
		URL:         it.Video.Handle,
		Title:       it.Video.Title,
		DurationSec: it.Video.Duration.Seconds(),
		Source:      string(it.Video.Source),
		Submitter:   it.Submitter.Name,
		AddedAt:     it.AddedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Debug().Err(err).Msg("status: failed to write response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zlog.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Msgf("status: %s %s %d %v", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

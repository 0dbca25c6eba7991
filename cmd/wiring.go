package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Ashfaaq98/health-console/internal/api"
	"github.com/Ashfaaq98/health-console/internal/bus"
	"github.com/Ashfaaq98/health-console/internal/cache"
	"github.com/Ashfaaq98/health-console/internal/dashboard"
	"github.com/Ashfaaq98/health-console/internal/health"
	"github.com/Ashfaaq98/health-console/internal/llm"
	"github.com/Ashfaaq98/health-console/internal/store"
)

// newLogger builds a component logger honoring log.level. At warn and error
// only lines that look like failures reach w.
func newLogger(w io.Writer, prefix, level string) *log.Logger {
	switch strings.ToLower(level) {
	case "warn", "error":
		w = &errorFilterWriter{writer: w}
	}
	return log.New(w, prefix, log.LstdFlags)
}

// debugf logs only when log.level is debug.
func debugf(logger *log.Logger, format string, args ...interface{}) {
	if GetConfig().Log.Level == "debug" {
		logger.Printf(format, args...)
	}
}

// remote holds the backend clients behind a session.
type remote struct {
	client     *api.Client
	services   dashboard.Services
	summarizer *llm.Summarizer // nil unless the llm backend is selected
	cache      *cache.Manager  // nil unless caching is enabled
	logger     *log.Logger

	mu   sync.RWMutex
	meta map[string]string // backend and model of the summaries, for the history
}

// newRemote builds the services of a session from cfg. The API client always
// serves accounts, events and details; summaries come from the API or from
// the LLM summarizer.
func newRemote(cfg Config, logger *log.Logger) (*remote, error) {
	client, err := api.New(api.Config{
		Endpoint: cfg.API.Endpoint,
		Timeout:  cfg.API.Timeout,
		ModelID:  cfg.Summarizer.ModelID,
	}, prefixed(logger, "[api] "))
	if err != nil {
		return nil, err
	}

	r := &remote{
		client: client,
		services: dashboard.Services{
			Directory:  client,
			Events:     client,
			Details:    client,
			Summarizer: client,
		},
		logger: logger,
		meta:   map[string]string{"backend": "api"},
	}
	if cfg.Summarizer.ModelID != "" {
		r.meta["model"] = cfg.Summarizer.ModelID
	}

	if cfg.Cache.Enabled {
		r.cache = cache.NewManager(cache.Options{
			UseRedis: cfg.Redis.URL != "",
			RedisURL: cfg.Redis.URL,
			Size:     cfg.Cache.Size,
			TTL:      cfg.Cache.TTL,
		}, prefixed(logger, "[cache] "))
		r.services.Details = cache.NewCachedDetails(client, r.cache, cfg.Cache.TTL, prefixed(logger, "[cache] "))
	}

	if cfg.Summarizer.Backend == "llm" {
		settings, err := llm.LoadSettings(cfg.LLM.Settings)
		if err != nil {
			logger.Printf("Failed to load LLM settings, using defaults: %v", err)
			settings = llm.DefaultSettings()
		}
		r.summarizer = llm.NewSummarizer(nil, prefixed(logger, "[llm] "))
		r.applySettings(settings, logger)
		r.services.Summarizer = r.summarizer
	}
	return r, nil
}

// applySettings rebuilds the LLM provider from settings and swaps it in. A
// provider that cannot be built leaves the previous one in place.
func (r *remote) applySettings(s llm.Settings, logger *log.Logger) {
	if r.summarizer == nil {
		return
	}
	p, err := llm.Build(s.Active, prefixed(logger, "[llm] "))
	if err != nil {
		logger.Printf("LLM provider build failed: %v", err)
		return
	}
	r.summarizer.Swap(p, s)
	r.mu.Lock()
	r.meta = map[string]string{"backend": "llm", "provider": s.Active.Provider, "model": s.Active.Model}
	r.mu.Unlock()
	logger.Printf("LLM provider set to %s (%s)", s.Active.Provider, s.Active.Model)
}

func (r *remote) metadata() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.meta))
	for k, v := range r.meta {
		out[k] = v
	}
	return out
}

func (r *remote) Close() {
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			r.logger.Printf("Failed to close detail cache: %v", err)
		}
	}
}

func prefixed(logger *log.Logger, prefix string) *log.Logger {
	return log.New(logger.Writer(), prefix, logger.Flags())
}

// historySink persists and publishes what a session does. The store and the
// bus are both optional; nothing here may block the session.
type historySink struct {
	store  *store.Store
	bus    bus.Publisher
	userID string
	meta   func() map[string]string
	logger *log.Logger

	// redraw is called after every state change when set
	redraw func()
	// generation of the installed snapshot, for page load messages
	generation func() uint64

	wg sync.WaitGroup
}

const sinkTimeout = 5 * time.Second

func (h *historySink) hooks() dashboard.Hooks {
	return dashboard.Hooks{
		OnRefresh:    h.onRefresh,
		OnPageLoaded: h.onPageLoaded,
		OnSummary:    h.onSummary,
	}
}

func (h *historySink) async(fn func(ctx context.Context)) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (h *historySink) onRefresh(q dashboard.Query, events []health.Event) {
	if h.redraw != nil {
		h.redraw()
	}
	if h.store == nil {
		return
	}
	h.async(func(ctx context.Context) {
		id, err := h.store.SaveSnapshot(ctx, h.userID, q.Accounts, q.Filter, events)
		if err != nil {
			h.logger.Printf("Failed to save snapshot: %v", err)
			return
		}
		debugf(h.logger, "Saved snapshot %s (%d events)", id, len(events))
	})
}

func (h *historySink) onPageLoaded(page int, d dashboard.Delta) {
	if h.redraw != nil {
		h.redraw()
	}
	if h.bus == nil {
		return
	}
	var gen uint64
	if h.generation != nil {
		gen = h.generation()
	}
	msg := bus.PageLoadMessage{
		UserID:     h.userID,
		Generation: gen,
		Page:       page,
		Details:    len(d.Details),
		Failures:   len(d.Failures),
		Timestamp:  time.Now().Unix(),
	}
	h.async(func(ctx context.Context) {
		if err := h.bus.PublishPageLoad(ctx, msg); err != nil {
			h.logger.Printf("Failed to publish page load: %v", err)
		}
	})
}

func (h *historySink) onSummary(arn string, st dashboard.SummaryStatus) {
	if h.redraw != nil {
		h.redraw()
	}
	var meta map[string]string
	if h.meta != nil {
		meta = h.meta()
	}
	h.async(func(ctx context.Context) {
		if h.store != nil {
			rec := store.SummaryRecord{
				EventArn:  arn,
				UserID:    h.userID,
				State:     st.State.String(),
				Text:      st.Text,
				Message:   st.Message,
				Attempt:   st.Attempt,
				Metadata:  meta,
				CreatedAt: st.UpdatedAt,
			}
			if _, err := h.store.SaveSummary(ctx, rec); err != nil {
				h.logger.Printf("Failed to save summary for %s: %v", arn, err)
			}
		}
		if h.bus != nil {
			msg := bus.SummaryMessage{
				EventArn:  arn,
				UserID:    h.userID,
				State:     st.State.String(),
				Text:      st.Text,
				Message:   st.Message,
				Attempt:   st.Attempt,
				Timestamp: st.UpdatedAt.Unix(),
			}
			if err := h.bus.PublishSummary(ctx, msg); err != nil {
				h.logger.Printf("Failed to publish summary for %s: %v", arn, err)
			}
		}
	})
}

// Flush waits for pending writes.
func (h *historySink) Flush() {
	h.wg.Wait()
}

// openStore opens the history database. Failure is logged and yields nil so
// that commands keep working without history.
func openStore(cfg Config, logger *log.Logger) *store.Store {
	path := resolvePathRelativeToBase(getWorkingDir(), cfg.Database.Path)
	st, err := store.NewStore(path)
	if err != nil {
		logger.Printf("History disabled, failed to open store at %s: %v", path, err)
		return nil
	}
	debugf(logger, "Using database at %s", path)
	return st
}

// sessionEnv is everything a command needs to drive a dashboard session.
type sessionEnv struct {
	cfg     Config
	logger  *log.Logger
	remote  *remote
	store   *store.Store
	bus     bus.Bus
	sink    *historySink
	session *dashboard.Session
}

type sessionOptions struct {
	history  bool // open the store and persist snapshots and summaries
	publish  bool // publish to the bus
	recorder dashboard.Recorder
}

// newSessionEnv wires a session for cfg.User.ID.
func newSessionEnv(cfg Config, logger *log.Logger, opts sessionOptions) (*sessionEnv, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r, err := newRemote(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API client: %w", err)
	}

	env := &sessionEnv{cfg: cfg, logger: logger, remote: r}
	if opts.history {
		env.store = openStore(cfg, logger)
	}
	if opts.publish {
		env.bus = bus.NewBus(cfg.Redis.URL, prefixed(logger, "[bus] "))
	}

	env.sink = &historySink{
		store:  env.store,
		bus:    env.bus,
		userID: cfg.User.ID,
		meta:   r.metadata,
		logger: logger,
	}
	env.session = dashboard.NewSession(r.services, dashboard.Config{
		UserID:           cfg.User.ID,
		CrossAccountRole: cfg.Accounts.CrossAccountRole,
		Logger:           prefixed(logger, "[session] "),
		Recorder:         opts.recorder,
		Hooks:            env.sink.hooks(),
	})
	env.sink.generation = env.session.Snapshot().Generation
	return env, nil
}

// Close flushes pending history writes and releases every backend.
func (e *sessionEnv) Close() {
	e.sink.Flush()
	if e.bus != nil {
		e.bus.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
	e.remote.Close()
}

// stderrLogger is the logger of headless commands.
func stderrLogger(prefix string) *log.Logger {
	return newLogger(os.Stderr, prefix, GetConfig().Log.Level)
}

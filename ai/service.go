package ai

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	agent "github.com/czapol/multi-agent-playground/ai/agents"
	"github.com/czapol/multi-agent-playground/ai/capability"
	"github.com/czapol/multi-agent-playground/ai/configloader"
	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/core/websearch"
	"github.com/czapol/multi-agent-playground/ai/metrics"
	"github.com/czapol/multi-agent-playground/ai/routing"
	"github.com/czapol/multi-agent-playground/ai/tracing"
	"github.com/czapol/multi-agent-playground/store"
	"github.com/czapol/multi-agent-playground/store/db/sqlite"
)

const (
	recentTraces   = 1000
	recentTraceTTL = 30 * time.Minute
)

// Service is the assembled router shared by every surface (CLI, HTTP, MCP).
type Service struct {
	Orchestrator *agent.Orchestrator
	Sessions     *agent.SessionStore
	Metrics      *metrics.PrometheusExporter
	Store        *store.Store
	Instructions *configloader.Instructions
	Registry     *capability.Registry
	// Traces keeps recent per-query phase timings, keyed by Result.TraceID.
	Traces *tracing.CachedExporter

	llms    map[string]llm.Service
	idleTTL time.Duration
}

// NewService opens the document index and wires backends, adapters, both
// routers and the orchestrator. Close releases the index.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid ai config")
	}

	driver, err := sqlite.NewDB(cfg.DSN)
	if err != nil {
		return nil, err
	}
	st := store.New(driver)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, errors.Wrap(err, "failed to migrate document index")
	}

	svc, err := newService(cfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return svc, nil
}

func newService(cfg *Config, st *store.Store) (*Service, error) {
	exporter := metrics.NewPrometheusExporter(metrics.Config{RuntimeCollectors: cfg.RuntimeMetrics})

	llms := make(map[string]llm.Service, 3)
	for name, c := range map[string]llm.Config{
		"primary":   cfg.Primary,
		"secondary": cfg.Secondary,
		"offline":   cfg.Offline,
	} {
		c := c
		s, err := llm.NewService(&c)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create %s LLM service", name)
		}
		llms[name] = s
		slog.Info("LLM service initialized", "family", name, "provider", c.Provider, "model", c.Model)
	}

	loader := configloader.NewLoader(cfg.ConfigDir)
	instructions := configloader.NewInstructions(loader)

	adapt := func(c routing.Capability, b capability.Backend) *capability.Adapter {
		return capability.NewAdapter(c, b, instructions, exporter, cfg.Adapter)
	}
	registry := &capability.Registry{
		General:    adapt(routing.CapabilityGeneral, capability.NewChatBackend(llms["primary"])),
		FileSearch: adapt(routing.CapabilityFileSearch, capability.NewFileSearchBackend(st, llms["primary"])),
		WebSearch:  adapt(routing.CapabilityWebSearch, capability.NewWebSearchBackend(websearch.NewClient(cfg.Search), llms["primary"])),
		Secondary:  adapt(routing.CapabilitySecondary, capability.NewChatBackend(llms["secondary"])),
		Offline:    adapt(routing.CapabilityOffline, capability.NewChatBackend(llms["offline"])),
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}

	routingCfg, err := routing.LoadConfig(loader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load routing config")
	}
	routingCfg.Cache = routing.NewRouterCache(routing.CacheConfig{Observer: exporter})

	traces := tracing.NewCachedExporter(recentTraces, recentTraceTTL)
	tracer := tracing.NewTracer(tracing.Config{
		Exporter: tracing.NewCompositeExporter(tracing.NewLogExporter(nil), traces),
	})

	switchAgent, err := routing.NewSwitchAgent(routingCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build switch agent")
	}
	orchestrator, err := agent.NewOrchestrator(agent.OrchestratorConfig{
		Switch:        switchAgent,
		SubRouter:     routing.NewSubRouter(routingCfg),
		Invoker:       registry,
		Observer:      exporter,
		Tracer:        tracer,
		HistoryWindow: cfg.HistoryWindow,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		Orchestrator: orchestrator,
		Sessions:     agent.NewSessionStore(),
		Metrics:      exporter,
		Store:        st,
		Instructions: instructions,
		Registry:     registry,
		Traces:       traces,
		llms:         llms,
		idleTTL:      cfg.SessionIdleTTL,
	}, nil
}

// Ask handles one query on the session with id, creating it when needed.
func (s *Service) Ask(ctx context.Context, sessionID, text string) (*agent.Result, error) {
	sess := s.Sessions.GetOrCreate(sessionID)
	s.Metrics.SetActiveSessions(s.Sessions.Len())
	return s.Orchestrator.Handle(ctx, sess, text)
}

// Warmup opens provider connections in parallel. Failures are only logged.
func (s *Service) Warmup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for _, l := range s.llms {
		wg.Add(1)
		go func(l llm.Service) {
			defer wg.Done()
			l.Warmup(ctx)
		}(l)
	}
	wg.Wait()
}

// CleanupIdleSessions drops sessions idle longer than the configured TTL.
func (s *Service) CleanupIdleSessions() int {
	if s.idleTTL <= 0 {
		return 0
	}
	n := s.Sessions.CleanupIdle(s.idleTTL)
	s.Metrics.SetActiveSessions(s.Sessions.Len())
	if n > 0 {
		slog.Info("idle sessions removed", "count", n, "remaining", s.Sessions.Len())
	}
	return n
}

func (s *Service) Close() error {
	return s.Store.Close()
}

// Package registry holds the table of operation categories, their routing
// configuration and their ranked service assignments.
package registry

import (
	"sort"
	"sync"

	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/fallback/emergency"
	"github.com/vietddude/cascade/internal/infra/service"
)

// Mapping assigns ordered candidate services to each fallback level, plus an
// optional emergency handler. Within a level, earlier candidates are tried
// first.
type Mapping struct {
	Primary   []service.Service
	Secondary []service.Service
	Tertiary  []service.Service
	Emergency emergency.Handler
}

// Level returns the candidate list for a non-emergency level.
func (m Mapping) Level(l domain.FallbackLevel) []service.Service {
	switch l {
	case domain.LevelPrimary:
		return m.Primary
	case domain.LevelSecondary:
		return m.Secondary
	case domain.LevelTertiary:
		return m.Tertiary
	default:
		return nil
	}
}

type entry struct {
	cfg     domain.OperationConfig
	mapping Mapping
}

// Registry maps operation categories to their config and mapping. Reads are
// lock-cheap; registration is expected at setup time but stays safe at any
// point.
type Registry struct {
	mu      sync.RWMutex
	entries map[domain.OperationCategory]entry
}

func New() *Registry {
	return &Registry{entries: make(map[domain.OperationCategory]entry)}
}

// Register stores the pair for a category. The last registration wins.
func (r *Registry) Register(cat domain.OperationCategory, cfg domain.OperationConfig, m Mapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[cat] = entry{cfg: ApplyDefaults(cfg), mapping: m}
}

// Lookup returns the registered pair, or defaults with an empty mapping for
// unknown categories.
func (r *Registry) Lookup(cat domain.OperationCategory) (domain.OperationConfig, Mapping) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[cat]; ok {
		return e.cfg, e.mapping
	}
	return domain.DefaultOperationConfig(), Mapping{}
}

// Categories returns all registered categories in stable order.
func (r *Registry) Categories() []domain.OperationCategory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cats := make([]domain.OperationCategory, 0, len(r.entries))
	for c := range r.entries {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// ApplyDefaults fills zero-valued policy fields from DefaultOperationConfig.
// Boolean fields are taken as given.
func ApplyDefaults(cfg domain.OperationConfig) domain.OperationConfig {
	def := domain.DefaultOperationConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.MaxRetryAttempts <= 0 {
		cfg.MaxRetryAttempts = def.MaxRetryAttempts
	}
	if cfg.TimeoutPerLevel <= 0 {
		cfg.TimeoutPerLevel = def.TimeoutPerLevel
	}
	if cfg.PerformanceThreshold <= 0 {
		cfg.PerformanceThreshold = def.PerformanceThreshold
	}
	if cfg.ReliabilityThreshold <= 0 {
		cfg.ReliabilityThreshold = def.ReliabilityThreshold
	}
	if cfg.EmergencyTTL <= 0 {
		cfg.EmergencyTTL = def.EmergencyTTL
	}
	return cfg
}

package lookupsource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
)

// SourceInfo describes a registered source for the index endpoint and the CLI.
type SourceInfo struct {
	Type        string `json:"type"`         // "postgres", "mssql", "sqlite", "spreadsheet"
	DisplayName string `json:"display_name"` // "PostgreSQL"
	Description string `json:"description"`
	// Indexed sources answer with a keyed query; the rest scan.
	Indexed bool `json:"indexed"`
}

// Factory opens a source from the process configuration.
type Factory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (LookupSource, error)

// Registration pairs source info with its factory.
type Registration struct {
	Info    SourceInfo
	Factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register is called by each source's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredSources returns info for all registered sources, sorted by type.
func RegisteredSources() []SourceInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SourceInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// IsRegistered checks if a source type is available.
func IsRegistered(sourceType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[sourceType]
	return ok
}

// Open builds the source named by cfg.Source.Type.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (LookupSource, error) {
	registryMu.RLock()
	reg, ok := registry[cfg.Source.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s (not compiled in)", apperrors.ErrUnknownSource, cfg.Source.Type)
	}

	src, err := reg.Factory(ctx, cfg, logger.Named("source").With(zap.String("source", reg.Info.Type)))
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", reg.Info.Type, err)
	}
	return src, nil
}

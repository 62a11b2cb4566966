// internal/store/sink.go
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadscape/leadminer/internal/utils"
	"github.com/leadscape/leadminer/pkg/types"
)

// Sink delivers a batch of mined leads to one destination.
type Sink interface {
	Name() string
	Export(ctx context.Context, leads []types.Lead) error
	Close() error
}

// Manager fans a batch of leads out to every configured sink. Sinks are
// independent: one failing sink never prevents delivery to the others.
type Manager struct {
	sinks  []Sink
	logger utils.Logger
}

// NewManager creates a manager over the given sinks.
func NewManager(sinks []Sink, logger utils.Logger) *Manager {
	if logger == nil {
		logger = utils.NewComponentLogger("export")
	}
	return &Manager{sinks: sinks, logger: logger}
}

// Export delivers the leads to all sinks and aggregates failures.
func (m *Manager) Export(ctx context.Context, leads []types.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	var failed []string
	for _, sink := range m.sinks {
		if err := sink.Export(ctx, leads); err != nil {
			m.logger.Errorf("%v", utils.WrapError(err, utils.ErrCodeExportFailed,
				fmt.Sprintf("sink %s failed", sink.Name())))
			failed = append(failed, sink.Name())
			continue
		}
		m.logger.Infof("exported %d leads to %s", len(leads), sink.Name())
	}

	if len(failed) > 0 {
		return utils.NewError(utils.ErrCodeExportFailed,
			fmt.Sprintf("export failed for: %s", strings.Join(failed, ", ")))
	}
	return nil
}

// Close closes every sink, returning the first error encountered.
func (m *Manager) Close() error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close sink %s: %w", sink.Name(), err)
		}
	}
	return firstErr
}

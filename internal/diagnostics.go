package internal

import (
	"sync"

	"github.com/lychee-technology/apigen"
	"go.uber.org/zap"
)

// diagnosticLog keeps diagnostics in report order and mirrors each one to the logger.
type diagnosticLog struct {
	mu     sync.Mutex
	items  []apigen.Diagnostic
	logger *zap.Logger
}

var _ apigen.DiagnosticSink = (*diagnosticLog)(nil)

// NewDiagnosticLog returns a sink that logs every diagnostic at warn level.
func NewDiagnosticLog(logger *zap.Logger) apigen.DiagnosticSink {
	return newDiagnosticLog(logger)
}

func newDiagnosticLog(logger *zap.Logger) *diagnosticLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &diagnosticLog{logger: logger}
}

func (l *diagnosticLog) Report(d apigen.Diagnostic) {
	l.mu.Lock()
	l.items = append(l.items, d)
	l.mu.Unlock()

	l.logger.Warn(d.Message,
		zap.String("kind", string(d.Kind)),
		zap.String("name", d.Name),
		zap.String("location", d.Location),
	)
	EmitCount("diagnostics", map[string]string{"kind": string(d.Kind)}, 1)
}

func (l *diagnosticLog) Diagnostics() []apigen.Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]apigen.Diagnostic(nil), l.items...)
}

package gil

import (
	"sync"

	"go.uber.org/zap"
)

var (
	log     *zap.Logger
	logOnce sync.Once
	logMu   sync.Mutex
)

// SetLogger installs a logger for lock diagnostics. The default is a no-op.
func SetLogger(l *zap.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	log = l
}

func logger() *zap.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	logOnce.Do(func() {
		if log == nil {
			log = zap.NewNop()
		}
	})
	return log
}

package debug

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//
// Debug output is controled by CFSDEBUG environment variable, which
// can be a list of labels (e.g., "SCHED;CFS").
//

const CFSDEBUG = "CFSDEBUG"

var (
	mu     sync.RWMutex
	labels map[Tselector]bool
	logger *zap.SugaredLogger
)

func init() {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	logger = zap.New(core).Sugar()
	labels = parseLabels(os.Getenv(CFSDEBUG))
}

func parseLabels(s string) map[Tselector]bool {
	m := make(map[Tselector]bool)
	if s == "" {
		return m
	}
	for _, l := range strings.Split(s, ";") {
		m[Tselector(l)] = true
	}
	return m
}

// SetDebug replaces the set of enabled selectors.
func SetDebug(s string) {
	mu.Lock()
	defer mu.Unlock()
	labels = parseLabels(s)
}

func WillBePrinted(label Tselector) bool {
	if label == ALWAYS {
		return true
	}
	mu.RLock()
	defer mu.RUnlock()
	return labels[label]
}

func DPrintf(label Tselector, format string, v ...interface{}) {
	if WillBePrinted(label) {
		logger.Infof("%v %v", label, fmt.Sprintf(format, v...))
	}
}

func DFatalf(format string, v ...interface{}) {
	// Get info for the caller.
	pc, file, line, ok := runtime.Caller(1)
	fnDetails := runtime.FuncForPC(pc)
	if ok && fnDetails != nil {
		logger.Fatalf("FATAL %v %v:%v %v", fnDetails.Name(), file, line, fmt.Sprintf(format, v...))
	} else {
		logger.Fatalf("FATAL (missing details) %v", fmt.Sprintf(format, v...))
	}
}

// Package fault turns device runtime status codes into logged diagnostics.
//
// A failing call is logged once with its call site and the run continues;
// reporting never panics or exits. Corrupted results caused by an ignored
// failure are caught later by the harness comparison.
package fault

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/samcharles93/cumscan/internal/device"
	"github.com/samcharles93/cumscan/internal/logger"
)

// DefaultSeverity is the level NewDefault reports failures at.
const DefaultSeverity = slog.LevelWarn

type Reporter struct {
	log      logger.Logger
	severity slog.Level
	failures atomic.Int64
}

// New returns a Reporter that logs failures to log at severity.
func New(log logger.Logger, severity slog.Level) *Reporter {
	if log == nil {
		log = logger.Default()
	}
	return &Reporter{log: log, severity: severity}
}

// NewDefault returns a Reporter logging at warning severity.
func NewDefault(log logger.Logger) *Reporter {
	return New(log, DefaultSeverity)
}

// Check logs status if it is not Success, attributing it to the caller of
// Check. It reports whether the call succeeded.
func (r *Reporter) Check(status device.Status, api string) bool {
	if status == device.Success {
		return true
	}
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "???", 0
	}
	return r.CheckAt(status, api, file, line)
}

// CheckAt is Check with an explicit call site.
func (r *Reporter) CheckAt(status device.Status, api, file string, line int) bool {
	if status == device.Success {
		return true
	}
	r.failures.Add(1)

	name := status.Name()
	if name == "" {
		name = "<unknown error>"
	}
	desc := status.String()
	if desc == "" {
		desc = "<unknown description>"
	}
	r.log.Log(r.severity,
		fmt.Sprintf("runtime API %s failed with error_code %d : %s : %s", api, int(status), name, desc),
		"api", api,
		"code", int(status),
		"file", filepath.Base(file),
		"line", line,
	)
	return false
}

// Failures returns how many failing statuses have been reported.
func (r *Reporter) Failures() int {
	return int(r.failures.Load())
}

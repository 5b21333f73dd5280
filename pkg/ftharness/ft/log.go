package ft

import (
	"log/slog"
)

// LogNative is a Native that logs every call and always succeeds. It stands
// in for the manager client library when the harness runs without one
// attached.
type LogNative struct {
	logger *slog.Logger
}

// NewLogNative creates a LogNative. A nil logger uses slog.Default().
func NewLogNative(logger *slog.Logger) *LogNative {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNative{logger: logger.With(slog.String("component", "ft"))}
}

// SetupFTManager implements Native.
func (n *LogNative) SetupFTManager(id Identity, expectedUnits int) int {
	n.logger.Info("ft register", identityAttrs(id,
		slog.String("mode", string(RegisterSetup)),
		slog.Int("expected_units", expectedUnits),
	)...)
	return StatusOK
}

// InitWait implements Native.
func (n *LogNative) InitWait(id Identity, expectedUnits int) int {
	n.logger.Info("ft register", identityAttrs(id,
		slog.String("mode", string(RegisterInitWait)),
		slog.Int("expected_units", expectedUnits),
	)...)
	return StatusOK
}

// TagJobBegin implements Native.
func (n *LogNative) TagJobBegin(id Identity, w Window) int {
	n.logger.Debug("ft window begin", identityAttrs(id,
		slog.Int64("slack", w.Slack),
		slog.Bool("first", w.IsFirst),
		slog.Bool("shareable", w.IsShareable),
		slog.Uint64("resource", w.RequiredResource),
	)...)
	return StatusOK
}

// TagJobEnd implements Native.
func (n *LogNative) TagJobEnd(id Identity) int {
	n.logger.Debug("ft window end", identityAttrs(id)...)
	return StatusOK
}

func identityAttrs(id Identity, extra ...any) []any {
	return append([]any{
		slog.String("job", id.Name),
		slog.Uint64("pid", uint64(id.PID)),
		slog.Uint64("tid", uint64(id.TID)),
	}, extra...)
}

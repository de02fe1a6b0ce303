// Package procinfo registers the "procinfo" extension on a metlog client.
// Each call collects the requested process metrics through a worker process
// and emits them as one field-group.
package procinfo

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/HerbHall/procinfo/internal/collector"
	"github.com/HerbHall/procinfo/internal/metlog"
	"github.com/HerbHall/procinfo/pkg/models"
)

// MethodName is the extension name and the emitted message type.
const MethodName = "procinfo"

// PIDKey is the optional call parameter naming the target process.
const PIDKey = "pid"

// Collector runs one process metrics collection.
type Collector interface {
	Collect(ctx context.Context, req collector.Request) (*models.Result, error)
}

// Plugin holds the operator policy and the collector used by every call.
type Plugin struct {
	disabled  models.CategorySet
	collector Collector
	logger    *zap.Logger
}

// NewPlugin validates the static policy and returns a Plugin. A category
// set to false in policy is never collected, whatever a call asks for.
func NewPlugin(policy map[string]any, c Collector, logger *zap.Logger) (*Plugin, error) {
	set, err := Validate(policy)
	if err != nil {
		return nil, err
	}
	disabled := models.CategorySet{}
	for cat, on := range set {
		if !on {
			disabled[cat] = true
		}
	}
	if len(disabled) > 0 {
		logger.Info("procinfo categories disabled by policy", zap.Strings("categories", disabled.Strings()))
	}
	return &Plugin{disabled: disabled, collector: c, logger: logger}, nil
}

// Register adds p to client under MethodName.
func Register(client *metlog.Client, p *Plugin) error {
	return client.AddMethod(MethodName, p.Method())
}

// Effective returns requested minus the categories disabled by policy.
func (p *Plugin) Effective(requested models.CategorySet) models.CategorySet {
	out := models.CategorySet{}
	for _, c := range requested.Enabled() {
		if !p.disabled.Has(c) {
			out[c] = true
		}
	}
	return out
}

// Method adapts the plugin to the metlog extension signature. params holds
// an optional "pid" plus one boolean per category.
func (p *Plugin) Method() metlog.Method {
	return func(ctx context.Context, c *metlog.Client, params map[string]any) error {
		flags := make(map[string]any, len(params))
		var pidVal any
		for k, v := range params {
			if k == PIDKey {
				pidVal = v
				continue
			}
			flags[k] = v
		}
		pid, err := parsePID(pidVal)
		if err != nil {
			return err
		}
		return p.Procinfo(ctx, c, pid, flags)
	}
}

// Procinfo validates flags, collects the effective categories for pid (zero
// means the calling process) and emits one procinfo message. Nothing is
// emitted when no category survives policy or nothing was collected.
func (p *Plugin) Procinfo(ctx context.Context, c *metlog.Client, pid int32, flags map[string]any) error {
	requested, err := Validate(flags)
	if err != nil {
		return err
	}
	effective := p.Effective(requested)
	if effective.Empty() {
		p.logger.Debug("procinfo skipped, no categories enabled",
			zap.Strings("requested", requested.Strings()))
		return nil
	}

	result, err := p.collector.Collect(ctx, collector.Request{PID: pid, Categories: effective})
	if err != nil {
		return fmt.Errorf("collect process info: %w", err)
	}
	fields := result.Fields()
	if len(fields) == 0 {
		p.logger.Debug("procinfo skipped, nothing collected",
			zap.Strings("requested", effective.Strings()))
		return nil
	}
	return c.Metlog(ctx, MethodName, metlog.WithFields(fields))
}

// parsePID accepts any integer kind, plus float64 holding an integral value
// as produced by JSON and YAML decoders. nil means the calling process.
func parsePID(v any) (int32, error) {
	var n int64
	switch pid := v.(type) {
	case nil:
		return 0, nil
	case int:
		n = int64(pid)
	case int32:
		n = int64(pid)
	case int64:
		n = pid
	case uint32:
		n = int64(pid)
	case float64:
		if pid != math.Trunc(pid) || pid < 0 || pid > math.MaxInt32 {
			return 0, &ConfigError{Invalid: []string{PIDKey}}
		}
		n = int64(pid)
	default:
		return 0, &ConfigError{Invalid: []string{PIDKey}}
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, &ConfigError{Invalid: []string{PIDKey}}
	}
	return int32(n), nil
}

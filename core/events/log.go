package events

import (
	"log/slog"
	"sort"

	"trovechain/observability"
)

// LogEmitter writes committed events to a structured logger and counts them
// per type.
type LogEmitter struct {
	Logger *slog.Logger
}

// Emit implements the Emitter interface.
func (l LogEmitter) Emit(e Event) {
	if e == nil {
		return
	}
	rendered := e.Event()
	observability.Events().RecordEvent(rendered.Type)
	if l.Logger == nil {
		return
	}
	keys := make([]string, 0, len(rendered.Attributes))
	for key := range rendered.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, 4+2*len(keys))
	args = append(args, "type", rendered.Type, "tx", rendered.TxID)
	for _, key := range keys {
		args = append(args, key, rendered.Attributes[key])
	}
	l.Logger.Info("ledger event", args...)
}

// Fanout delivers every event to each emitter in order.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(e Event) {
	for _, emitter := range f {
		if emitter != nil {
			emitter.Emit(e)
		}
	}
}

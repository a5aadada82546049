package domain

import (
	"sync"
	"time"
)

// DebugInfo measures one stage of an availability request.
type DebugInfo struct {
	Event     string            `json:"event"`
	Timing    int64             `json:"timingMicros"`
	StartTime time.Time         `json:"-"`
	Options   map[string]string `json:"options,omitempty"`
}

func StartDebugInfo(event string) DebugInfo {
	return DebugInfo{Event: event, StartTime: time.Now()}
}

func (d *DebugInfo) Elapse() {
	d.Timing = time.Since(d.StartTime).Microseconds()
}

func (d *DebugInfo) AddOption(key string, value string) {
	if d.Options == nil {
		d.Options = make(map[string]string)
	}
	d.Options[key] = value
}

// DebugTrace collects stage timings; safe for concurrent use.
type DebugTrace struct {
	mu   sync.Mutex
	data []DebugInfo
}

func (t *DebugTrace) Add(info DebugInfo) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.data = append(t.data, info)
	t.mu.Unlock()
}

func (t *DebugTrace) Items() []DebugInfo {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]DebugInfo, len(t.data))
	copy(out, t.data)
	return out
}

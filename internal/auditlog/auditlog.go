// Package auditlog records which units were looked at. It is an analytics
// side channel: sinks may fail, and BestEffort makes sure a failure never
// reaches the request that triggered it.
package auditlog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuerank/internal/types"
)

// Event names.
const (
	EventInspect = "inspect"
	EventCompare = "compare"
	EventSeries  = "series"
)

// Device classes.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceCLI     = "cli"
)

// Columns is the column order of every tabular sink.
var Columns = []string{"id", "date", "time", "device", "zone", "building", "block", "unit", "event"}

// Event is one audit record. At carries the sink's configured time zone.
type Event struct {
	ID          uuid.UUID
	At          time.Time
	DeviceClass string
	Unit        types.Key
	Name        string
}

// NewEvent stamps an event for key at now in loc.
func NewEvent(now time.Time, loc *time.Location, device string, key types.Key, name string) Event {
	if loc == nil {
		loc = time.UTC
	}
	return Event{
		ID:          uuid.New(),
		At:          now.In(loc),
		DeviceClass: device,
		Unit:        key,
		Name:        name,
	}
}

// Date is the event day as YYYY-MM-DD.
func (e Event) Date() string { return e.At.Format("2006-01-02") }

// Clock is the event time of day as HH:MM:SS.
func (e Event) Clock() string { return e.At.Format("15:04:05") }

// Record renders the event in Columns order.
func (e Event) Record() []string {
	return []string{
		e.ID.String(),
		e.Date(),
		e.Clock(),
		e.DeviceClass,
		e.Unit.Zone,
		e.Unit.Building,
		strconv.Itoa(e.Unit.Block),
		strconv.Itoa(e.Unit.Unit),
		e.Name,
	}
}

// Sink appends audit events.
type Sink interface {
	Append(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Append(context.Context, Event) error { return nil }
func (Nop) Close() error                        { return nil }

// Recorder stamps and appends events, swallowing sink failures.
type Recorder struct {
	sink Sink
	loc  *time.Location
	now  func() time.Time
}

// NewRecorder wraps sink. An unknown time zone name falls back to UTC.
func NewRecorder(sink Sink, timezone string) *Recorder {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		zap.L().Warn("audit: unknown time zone, using UTC", zap.String("timezone", timezone), zap.Error(err))
		loc = time.UTC
	}
	if sink == nil {
		sink = Nop{}
	}
	return &Recorder{sink: sink, loc: loc, now: time.Now}
}

// Record appends one event. Errors are logged and dropped.
func (r *Recorder) Record(ctx context.Context, device string, key types.Key, name string) {
	e := NewEvent(r.now(), r.loc, device, key, name)
	if err := r.sink.Append(ctx, e); err != nil {
		zap.L().Warn("audit: append failed",
			zap.String("unit", key.String()),
			zap.String("event", name),
			zap.Error(err),
		)
	}
}

// Close closes the underlying sink.
func (r *Recorder) Close() error {
	return eris.Wrap(r.sink.Close(), "audit: close sink")
}

// DeviceClass buckets a User-Agent header. An empty agent is a CLI call.
func DeviceClass(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return DeviceCLI
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet") ||
		(strings.Contains(ua, "android") && !strings.Contains(ua, "mobile")):
		return DeviceTablet
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android"):
		return DeviceMobile
	}
	return DeviceDesktop
}

// Package telemetry writes the rover's status to InfluxDB.
package telemetry

import (
	"time"

	"github.com/edaniels/golog"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"

	"github.com/tigerbot-team/mikeymonster/pkg/config"
	"github.com/tigerbot-team/mikeymonster/pkg/rcmode"
)

const Measurement = "rover.status"

type emitFunc func(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time)

// Recorder is a status sink backed by the client's non-blocking write API;
// points are batched and sent from the client's own goroutines.
type Recorder struct {
	client   influxdb2.Client
	writeApi api.WriteApi
	emit     emitFunc
	tags     map[string]string
}

var _ rcmode.StatusSink = (*Recorder)(nil)

func New(cfg config.Telemetry, robot string, log golog.Logger) *Recorder {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	writeApi := client.WriteApi(cfg.Org, cfg.Bucket)
	errorsCh := writeApi.Errors()
	go func() {
		for err := range errorsCh {
			log.Warnw("Telemetry write failed", "error", err)
		}
	}()
	r := newRecorder(func(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) {
		writeApi.WritePoint(influxdb2.NewPoint(measurement, tags, fields, ts))
	}, robot)
	r.client = client
	r.writeApi = writeApi
	return r
}

func newRecorder(emit emitFunc, robot string) *Recorder {
	return &Recorder{
		emit: emit,
		tags: map[string]string{"robot": robot},
	}
}

func (r *Recorder) UpdateStatus(s rcmode.Status) {
	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	r.emit(Measurement, r.tags, Fields(s), ts)
}

// Fields flattens a status into InfluxDB fields.
func Fields(s rcmode.Status) map[string]interface{} {
	fields := map[string]interface{}{
		"battery.minimum": s.Battery.Minimum,
		"battery.maximum": s.Battery.Maximum,
		"battery.current": s.Battery.Current,
		"drive.left":      s.Drive.Left,
		"drive.right":     s.Drive.Right,
		"failsafe":        s.Failsafe,
	}
	if s.Arm {
		fields["arm.light"] = s.Light
	}
	return fields
}

func (r *Recorder) Close() {
	if r.writeApi != nil {
		r.writeApi.Flush()
		r.writeApi.Close()
	}
	if r.client != nil {
		r.client.Close()
	}
}

package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the router.
const (
	MeasurementSignal = "signals"
	MeasurementTrack  = "track_transitions"
	MeasurementMode   = "mode_changes"
)

// WriteSignal records one received controller signal. mapped is false when
// the signal matched nothing in the active map.
//
//	client.WriteSignal("pads", "note1", "trigger", true, ts)
func (c *Client) WriteSignal(controller, signal, mode string, mapped bool, ts time.Time) {
	c.WritePointWithTime(MeasurementSignal,
		map[string]string{
			"controller": controller,
			"signal":     signal,
			"mode":       mode,
		},
		map[string]any{
			"count":  1,
			"mapped": mapped,
		},
		ts,
	)
}

// WriteTrackState records a track transition. playing is stored as 0 or 1 so
// it can be graphed as a step function.
func (c *Client) WriteTrackState(client, track string, playing bool, ts time.Time) {
	value := 0
	if playing {
		value = 1
	}
	c.WritePointWithTime(MeasurementTrack,
		map[string]string{
			"client": client,
			"track":  track,
		},
		map[string]any{
			"playing": value,
		},
		ts,
	)
}

// WriteModeChange records a router mode switch.
func (c *Client) WriteModeChange(mode string, ts time.Time) {
	c.WritePointWithTime(MeasurementMode,
		map[string]string{"mode": mode},
		map[string]any{"changed": 1},
		ts,
	)
}

// WritePoint writes a custom point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}

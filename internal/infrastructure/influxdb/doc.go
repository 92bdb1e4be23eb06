// Package influxdb writes router activity to InfluxDB v2 as time series.
//
// Three measurements are written: signals (one point per received
// controller signal, tagged controller/signal/mode), track_transitions (0/1 per
// track transition, tagged client/track) and mode_changes (one point per mode
// switch). Writes go through the non-blocking batched write API; failures
// arrive asynchronously through SetOnError.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.WriteTrackState("synth", "bass", true, time.Now())
package influxdb

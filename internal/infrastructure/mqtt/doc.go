// Package mqtt connects midiplexer to an MQTT broker.
//
// The broker is used for two things:
//
//   - Publishing router activity: a retained online/offline status (with a
//     Last Will so crashes are visible), the current mode, per-track playing
//     state and a stream of activity events.
//   - Carrying remote MIDI ports: controllers on other machines publish raw
//     messages as hex signatures to {prefix}/port/{name}/in and remote
//     clients consume {prefix}/port/{name}/out.
//
// Subscriptions are tracked and restored after a reconnect. Handlers run on
// paho's goroutines and are wrapped with panic recovery.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	err = client.PublishRetained(client.Topics().Mode(), []byte("scene"))
package mqtt

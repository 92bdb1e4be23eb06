// Package process supervises the optional MIDI bridge daemon.
//
// Some setups need a companion process before any port can be opened, for
// example a2jmidid exposing ALSA sequencer clients as raw MIDI devices. The
// Manager starts that process, waits until the devices it creates appear,
// forwards its output to the log and restarts it with exponential backoff
// when it dies.
//
// Example usage:
//
//	mgr := process.NewManager(process.FromBridge(cfg.MIDI.Bridge, devices))
//	mgr.SetLogger(logger)
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Stop()
package process

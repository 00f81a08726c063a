// Package config loads multilink's settings from ~/.multilink.yaml.
//
// A missing file is not an error: every field has a default. Durations are
// strings in time.ParseDuration syntax.
//
// # Configuration File Structure
//
//	link:
//	  handshake: link__v00002
//	  negotiate_timeout: 20s
//	  retry_delay: 50ms
//	  slot_period: 2ms
//	net:
//	  listen: ":7420"
//	  path: /link
//	  peer: ws://10.0.0.2:7420/link
//	sync:
//	  broadcast_interval: 50ms
//	  idle_interval: 250ms
//	  frame_time: 16ms
//	metrics:
//	  enabled: true
//	  path: /metrics
//	watchdog:
//	  timeout: 5s
//	  restart: false
//	log:
//	  level: info
//	  format: text
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	tr := link.New(port, cfg.LinkOptions()...)
package config

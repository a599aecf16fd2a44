// Package nats provides embedded NATS messaging so other processes on the
// device can report status to statusled and drive its LEDs.
//
// # Architecture
//
//   - Server: optional embedded NATS server running in the daemon
//   - Bridge: subscribes to status and control subjects, feeds the event bus
//     and the LED manager, and republishes LED state changes
//   - Client: used by reporting processes and the CLI
//
// # Subject Hierarchy
//
//	statusled.status.{source}      # status report (client → daemon)
//	statusled.control.{led}        # LED command, request/reply (client → daemon)
//	statusled.leds.{led}.state     # LED state change (daemon → clients)
//
// Core NATS only, no JetStream. Status reports are fire-and-forget and the
// client degrades to a no-op when NATS is unavailable.
//
// # Debugging with nats CLI
//
// Watch everything:
//
//	nats sub "statusled.>"
//
// Report a status (plain text payloads are accepted):
//
//	nats pub statusled.status.network connecting
//	nats pub statusled.status.network '{"status":"ok"}'
//
// Drive an LED and print the reply:
//
//	nats req statusled.control.status '{"action":"pattern","pattern":"SOS"}'
//	nats req statusled.control.status '{"action":"off"}'
//
// # Message Formats
//
// StatusMessage (statusled.status.{source}); source defaults to the subject token:
//
//	{
//	  "source": "network",
//	  "status": "connecting",
//	  "timestamp": "2025-01-27T10:30:00Z"
//	}
//
// ControlMessage (statusled.control.{led}); action is on, off, toggle or
// pattern, and an empty pattern stops playback:
//
//	{
//	  "action": "pattern",
//	  "pattern": "DOUBLE_BLINK"
//	}
//
// ControlReply:
//
//	{
//	  "ok": false,
//	  "code": "UNKNOWN_PATTERN",
//	  "error": "pattern \"MORSE\" not found"
//	}
//
// LEDStateMessage (statusled.leds.{led}.state):
//
//	{
//	  "led": "status",
//	  "state": "on",
//	  "pattern": "SOS",
//	  "action": "pattern",
//	  "timestamp": "2025-01-27T10:30:00Z"
//	}
package nats

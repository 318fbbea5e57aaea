// Package logging provides structured logging for lookaround.
//
// This package wraps a global zap logger with convenience functions. Logging
// is silent unless a level is passed on the command line (--log-level) or set
// in the LOOKAROUND_LOG_LEVEL environment variable, so the client's peer
// report on stdout stays clean.
//
// # Log Levels
//
//   - Debug: datagram hex dumps, decode failures, duplicate suppression
//   - Info: listeners started, interfaces joined, replies sent
//   - Warn: per-interface bind/join failures, send/receive errors
//   - Error: startup failures
//
// # Usage
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
//	logging.Info("Listener started", zap.String("bind_addr", "192.168.1.10"))
//	logging.LogDatagram("received", remoteAddr, data)
//
// # Output Format
//
// Logs are written to stderr in zap's console format:
//
//	2025-11-25T10:30:45.123-0800  INFO  Interface event  {"event": "joined", "interface_ip": "192.168.1.10"}
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and SetLogger
// should be called before any goroutines start.
package logging

// Package logging provides structured logging for the luxws daemon and CLI.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used throughout the session, server and command code.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (message bodies, registry building, HTTP requests)
//   - Info: Normal operations (connections, state changes, snapshots)
//   - Warn: Non-fatal issues (unresolved fields, send failures, dropped connections)
//   - Error: Failures that need attention (startup failures, listener errors)
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("Snapshot replaced",
//	    zap.Int("items", tree.Len()),
//	    zap.String("address", addr),
//	)
//
// # Specialized Logging
//
// Connection and state logging:
//
//	logging.LogConnection(remoteAddr, "dialing")
//	logging.LogConnection(remoteAddr, "closed")
//	logging.LogStateChange("OPEN", "LOGGED_IN", zap.String("address", addr))
//
// WebSocket message logging:
//
//	logging.LogWebSocketMessage(remoteAddr, "received", websocket.TextMessage, payload)
//	logging.LogWebSocketMessage(remoteAddr, "sent", websocket.TextMessage, payload)
//
// # Configuration
//
// Initialize logging before starting the daemon:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// With an empty level the LUXWS_LOG_LEVEL environment variable is used. When
// neither is set the logger is silent, which keeps one-shot commands such as
// dump and discover free of log noise.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned. The underlying zap logger handles synchronization.
package logging

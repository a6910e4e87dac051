// Package server exposes the current snapshot and session health over HTTP.
//
// Routes:
//   - GET /         the flattened snapshot as JSON; blocks until the first
//     snapshot is available, 503 if the request is cancelled first
//   - GET /metrics  Prometheus exposition
//   - GET /healthz  the session status; 503 while the session is in ERROR
//
// The response of GET / looks like:
//
//	{
//	  "data": [
//	    {"id": "flow", "category": "temperature", "name": "Vorlauf",
//	     "unit": "°C", "numeric": 31.2}
//	  ],
//	  "metadata": {"version": "v0.3.0", "commit": "abc1234",
//	               "timestamp": "2026-10-16T08:00:00Z"}
//	}
//
// # Usage Example
//
//	srv := server.New(&server.Config{Listen: ":8080"}, store, sess, registry)
//
//	// Start blocks until ctx is cancelled or the listener fails
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Logging
//
// Every request is logged at debug level with its status and duration.
// Listener and shutdown events are logged at info level.
package server

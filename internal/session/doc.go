// Package session keeps a connection to the controller alive and turns its
// replies into snapshots.
//
// # State Machine
//
// A session moves through five states:
//
//	NEW ──dial──▶ OPEN ──navigation──▶ LOGGED_IN ──content──▶ DATA_SELECTED
//	 ▲                                                          │ values (merge)
//	 └──────── transport failure (below threshold) ◀────────────┘
//	ERROR ◀── transport failure (at threshold); cooldown drives, then NEW
//
// Every drive performs the single action due in the current state: dial,
// send LOGIN;0, send GET;<address>, send REFRESH, or count down the error
// cooldown. Replies advance the state as they arrive; drives never wait for
// them. The login and select commands are also sent right after the
// connection opens and the address is learned, so a healthy session reaches
// DATA_SELECTED without waiting for further drives.
//
// A clean close by the controller returns the session to NEW without
// counting as a failure. Dial failures, read errors and abrupt closes count
// toward ErrorThreshold. Publishing a content reply resets the count.
//
// # Concurrency
//
// Run owns all protocol state in a single goroutine. The drive ticker,
// Drive calls and connection goroutines communicate with it through
// channels. Each connection attempt carries a generation number; events
// from an attempt the loop has abandoned are discarded, so a late close
// from an old socket cannot disturb a new one.
//
// Snapshots are published to a snapshot.Store, which readers such as the
// HTTP server query concurrently.
//
// # Usage
//
//	s, err := session.New(session.Options{
//	    URL:      protocol.URL("192.168.1.20", 0),
//	    Resolver: registry,
//	    Decoder:  units.Converter{Locale: table},
//	    Store:    store,
//	})
//	if err != nil {
//	    return err
//	}
//	go s.Run(ctx)
//	leaves, _, err := store.Wait(ctx)
package session

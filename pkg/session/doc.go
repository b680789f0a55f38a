// Package session publishes and withdraws the markers that identify a running
// session, and talks to the session bus on the sequencer's behalf.
//
// Invariants:
// - Markers are published in a fixed order: cursor, full session flag, version.
// - Withdraw removes the session flag and version but leaves the cursor.
// - Every bus operation uses its own short-lived connection.
//
// Usage:
//
//	m := session.Markers{Desktop: "KDE", Version: 5, UID: os.Getuid(), Cursor: "left_ptr"}
//	_ = m.Publish(ctx, session.NewX11Publisher(r, "xprop", "xsetroot"))
//	_ = m.Export(env)
//	services, _ := session.FindServices(ctx, session.NewDBus(), session.CrashHandlerPrefix)
//	_ = services
package session

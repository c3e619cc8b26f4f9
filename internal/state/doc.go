// Package state provides thread-safe state sharing between the background
// refresher and the terminal UI.
//
// # Overview
//
// The Store holds the most recently loaded entries of each collection
// relation. The refresher and UI commands write loads into it; the UI reads
// snapshots on its own tick.
//
//	Producers:                        Consumer (UI):
//	┌──────────────────────┐          ┌──────────────────┐
//	│ refresher tick       │          │                  │
//	│ UI load / mutation   │          │                  │
//	│   section.Load()     │          │                  │
//	│   store.Update(rel)  │─────────→│ store.Snapshot() │
//	└──────────────────────┘ (mutex)  └──────────────────┘
//
// # Update Semantics
//
//	// Success: replace the relation's entries
//	store.Update(rel, entries, nil)
//	→ Entries[rel] = entries
//	→ Loaded[rel] = now
//	→ LastError = nil, ConsecutiveFailures = 0
//
//	// Error: keep old entries, record the error
//	store.Update(rel, nil, err)
//	→ Entries[rel] = <unchanged>
//	→ LastError = err
//	→ ConsecutiveFailures++
//
// The UI always has the most recent successful data to display while still
// learning about failures. Two failures in a row mark the API offline.
//
// # Copying
//
// Snapshot copies the entry slices, their control maps and the error. Entry
// payloads are shared: they are treated as read-only once loaded, and edit
// forms work on their own copies.
//
// # Zero Value
//
// A zero Store is ready to use and returns an empty Snapshot.
package state

/*
Package ui implements the terminal browser for a bookclub API.

# Architecture

The UI is a single Bubble Tea model. It never touches the network from
Update: every load, refresh and write runs inside a tea.Cmd that submits the
call to the shared async.Pool and awaits the future. Results come back as
messages (loadedMsg, detailMsg, resultMsg) and only Update applies them.

Collection data lives in the state.Store shared with the background
refresher. Loads write into the store; the model reads snapshots on load
completion and on its own tick.

# Views

  - List: one tab per collection the API root links to. Each row shows the
    item's identity and the edit and delete controls the server offered.
  - Detail: the item re-read through its self control. Identity and
    immutable fields are marked.
  - Form: add and edit. Identity and immutable fields are locked when
    editing. A rejected create or edit keeps the form open with the server's
    message so the user can correct and resubmit.
  - Confirm: delete asks first.
  - User prompt: switches the BC-User identity, drops loaded data and
    reloads, since controls depend on who asks.
  - Problems: warnings and errors from the log file, read on open.

Buttons only appear for controls the server sent. Pressing a key for a
missing control reports it in the status line without sending a request.

# Preferences

Cycling the theme and changing the user are written to the prefs file
immediately.
*/
package ui

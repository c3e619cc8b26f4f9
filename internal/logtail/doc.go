// Package logtail reads the tail of the bookclub log file for display in
// the terminal UI.
//
// # Reading
//
// Read keeps a bounded window of lines while scanning, so memory stays
// proportional to maxLines rather than to the file:
//
//	lines, err := logtail.Read(cfg.LogFile, 400)
//	if err != nil {
//		return err
//	}
//
// A log file that does not exist yet reads as empty.
//
// # Filtering
//
// The log is written by slog's text handler, so each record carries a
// level=LEVEL attribute. Level parses it and AtLeast filters by it:
//
//	problems := logtail.AtLeast(lines, slog.LevelWarn)
package logtail

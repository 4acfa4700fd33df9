// Package tailer implements the Log Tailer (Component B in spec.md
// §4.1): an incremental, restartable, rotation-aware reader that turns
// a growing text log into a sequence of complete lines.
package tailer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lootwatch/lootwatchd/internal/util"
	"github.com/lootwatch/lootwatchd/pkg/log"
)

// DefaultPollInterval is the idle poll cadence (spec.md §4.1
// "Backpressure", "≤ 200 ms").
const DefaultPollInterval = 150 * time.Millisecond

// DefaultBackwardScanBytes is N in "Large-file cold start" (5 MiB).
const DefaultBackwardScanBytes = 5 << 20

// DefaultMaxLinesPerTick bounds how many lines are emitted before the
// tailer checks ctx for cancellation again.
const DefaultMaxLinesPerTick = 512

// Position is a restartable (identity, byteOffset) pair. The caller
// persists it after every acknowledged line via OffsetFunc.
type Position struct {
	Identity fileIdentity
	Offset   int64
}

// PersistablePosition is the JSON-safe projection of a Position a
// caller can store (e.g. as a Store setting) and reload across
// process restarts; fileIdentity's fields are unexported so Position
// itself does not marshal usefully.
type PersistablePosition struct {
	Dev    uint64 `json:"dev"`
	Ino    uint64 `json:"ino"`
	Offset int64  `json:"offset"`
}

// Persistable projects p into its storable form.
func (p Position) Persistable() PersistablePosition {
	return PersistablePosition{Dev: p.Identity.dev, Ino: p.Identity.ino, Offset: p.Offset}
}

// Position reconstructs the Position a persisted value described.
func (p PersistablePosition) Position() Position {
	return Position{Identity: fileIdentity{dev: p.Dev, ino: p.Ino}, Offset: p.Offset}
}

// ErrSourceUnavailable is yielded, never returned as a fatal error,
// when the log file does not exist. The caller should keep polling.
var ErrSourceUnavailable = errors.New("tailer: source unavailable")

// LineFunc consumes one complete line. Returning an error aborts the
// current Run call without advancing past that line.
type LineFunc func(line string) error

// OffsetFunc persists the position reached after a line (or batch of
// lines) was acknowledged downstream.
type OffsetFunc func(Position) error

// Tailer incrementally reads path from a persisted Position onward.
type Tailer struct {
	path         string
	pollInterval time.Duration
	maxLines     int

	pos     Position
	partial []byte
	decoder *lineDecoder

	watcher  *fsnotify.Watcher
	wakeCh   chan struct{}
}

// New constructs a Tailer for path, resuming from start.
func New(path string, start Position, pollInterval time.Duration) *Tailer {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Tailer{
		path:         path,
		pollInterval: pollInterval,
		maxLines:     DefaultMaxLinesPerTick,
		pos:          start,
		decoder:      newLineDecoder(),
		wakeCh:       make(chan struct{}, 1),
	}
}

// watchDir best-effort arms an fsnotify watch on the log file's parent
// directory, used only to shorten the idle poll wait; correctness
// never depends on it firing, since Run always falls back to the
// bounded poll.
func (t *Tailer) watchDir() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debugf("tailer: fsnotify unavailable: %v", err)
		return
	}
	dir := parentDir(t.path)
	if err := w.Add(dir); err != nil {
		log.Debugf("tailer: watch %s: %v", dir, err)
		w.Close()
		return
	}
	t.watcher = w

	go func() {
		for {
			select {
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Name == t.path {
					select {
					case t.wakeCh <- struct{}{}:
					default:
					}
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}

// Close releases the fsnotify watcher, if one was armed.
func (t *Tailer) Close() {
	if t.watcher != nil {
		t.watcher.Close()
	}
}

// Run polls path from the current Position onward until ctx is
// cancelled, emitting complete lines via onLine and persisting the new
// offset via onOffset after each acknowledged line. A missing file is
// not fatal: it is logged once per occurrence and polling continues.
func (t *Tailer) Run(ctx context.Context, onLine LineFunc, onOffset OffsetFunc) error {
	t.watchDir()
	defer t.Close()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		advanced, err := t.poll(onLine, onOffset)
		if err != nil {
			if errors.Is(err, ErrSourceUnavailable) {
				advanced = false
			} else {
				return err
			}
		}

		if advanced {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-t.wakeCh:
		case <-time.After(t.pollInterval):
		}
	}
}

// poll performs one rotation check plus read-to-EOF pass. It returns
// advanced=true if at least one line was emitted, so Run can avoid
// sleeping between bursts.
func (t *Tailer) poll(onLine LineFunc, onOffset OffsetFunc) (bool, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, ErrSourceUnavailable
		}
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}

	identity, hasIdentity := identityOf(info)
	if hasIdentity && identity != t.pos.Identity {
		t.pos = Position{Identity: identity, Offset: 0}
		t.partial = nil
		t.decoder.reset()
	} else if info.Size() < t.pos.Offset {
		// Rotation without an identity change (e.g. truncate-in-place).
		t.pos.Offset = 0
		t.partial = nil
		t.decoder.reset()
	}

	if _, err := f.Seek(t.pos.Offset, io.SeekStart); err != nil {
		return false, err
	}

	advanced := false
	count := 0
	r := bufio.NewReaderSize(f, 64*1024)

	for count < t.maxLines {
		raw, readErr := r.ReadBytes('\n')
		if len(raw) == 0 && readErr != nil {
			break
		}

		complete := readErr == nil
		if !complete {
			// Partial line at current EOF: buffer it and stop; it will
			// be completed by a future poll.
			t.partial = append(t.partial, raw...)
			break
		}

		full := append(t.partial, raw...)
		t.partial = nil

		line := t.decoder.decodeLine(full)
		if line != "" || len(full) > 1 {
			if err := onLine(line); err != nil {
				return advanced, err
			}
		}

		t.pos.Offset += int64(len(full))
		if err := onOffset(t.pos); err != nil {
			return advanced, err
		}

		advanced = true
		count++
	}

	return advanced, nil
}

// BackwardScan reads up to maxBytes from the end of path and returns
// the complete lines found within that window, discarding a possibly
// partial leading line. It does not affect Run's Position and is only
// used for cold-start player-context pre-seeding (spec.md §4.1
// "Large-file cold start").
func BackwardScan(path string, maxBytes int64) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSourceUnavailable
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := info.Size()
	start := util.Max(int64(0), size-maxBytes)
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}

	buf := make([]byte, size-start)
	if _, err := io.ReadFull(f, buf); err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}

	dec := newLineDecoder()
	lines := splitLines(buf)
	if start > 0 && len(lines) > 0 {
		lines = lines[1:] // discard the possibly-partial first line
	}

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, dec.decodeLine(l))
	}
	return out, nil
}

func splitLines(buf []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range buf {
		if b == '\n' {
			lines = append(lines, buf[start:i+1])
			start = i + 1
		}
	}
	if start < len(buf) {
		lines = append(lines, buf[start:])
	}
	return lines
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

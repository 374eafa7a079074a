// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package fwlog

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/errors"
	"grimm.is/firewatch/internal/logging"
)

// DefaultTailLimit caps records per tail poll when the caller does not
// choose a limit.
const DefaultTailLimit = 50

// maxLineBytes bounds a single log line. Netfilter lines are a few hundred
// bytes; anything near this is corrupt input.
const maxLineBytes = 1024 * 1024

// Reader reads one firewall log file in whole-file and tail modes. Safe
// for concurrent use. The whole-file cache is keyed by (mtime, inode,
// size); a cold cache and a warm cache produce identical results.
type Reader struct {
	path   string
	clock  clock.Clock
	logger *logging.Logger

	mu    sync.Mutex
	cache *fileCache

	parseSkips atomic.Uint64
	cacheHits  atomic.Uint64
	fileReads  atomic.Uint64
}

type fileCache struct {
	mtime time.Time
	inode uint64
	size  int64
	lines []string
}

// Stats reports reader instrumentation counters.
type Stats struct {
	ParseSkips uint64 `json:"parse_skips"`
	CacheHits  uint64 `json:"cache_hits"`
	FileReads  uint64 `json:"file_reads"`
}

// NewReader prepares a reader over path. The file may not exist yet; each
// read reports availability on its own.
func NewReader(path string, clk clock.Clock, logger *logging.Logger) *Reader {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Reader{
		path:   path,
		clock:  clk,
		logger: logger.WithComponent("fwlog"),
	}
}

// Path returns the log file path the reader serves.
func (r *Reader) Path() string { return r.path }

// Stats returns current instrumentation counters.
func (r *Reader) Stats() Stats {
	return Stats{
		ParseSkips: r.parseSkips.Load(),
		CacheHits:  r.cacheHits.Load(),
		FileReads:  r.fileReads.Load(),
	}
}

// Day returns the parsed records of one calendar day, reading the whole
// file through the mtime cache. A day with no matching lines is an empty
// result, not an error.
func (r *Reader) Day(date time.Time) ([]Record, error) {
	lines, err := r.lines()
	if err != nil {
		return nil, err
	}

	prefix := dayPrefix(date)
	now := r.clock.Now()
	var records []Record
	for _, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		if !looksLikeFirewallLine(line) {
			continue
		}
		rec, ok := parseLine(line, now)
		if !ok {
			r.parseSkips.Add(1)
			continue
		}
		// The textual prefix cannot see the year; the inferred timestamp can.
		if rec.Time.Year() != date.Year() {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Search scans the whole file and returns every record passing the filter,
// unbounded.
func (r *Reader) Search(filter Filter) ([]Record, error) {
	lines, err := r.lines()
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	var records []Record
	for _, line := range lines {
		if !looksLikeFirewallLine(line) {
			continue
		}
		rec, ok := parseLine(line, now)
		if !ok {
			r.parseSkips.Add(1)
			continue
		}
		if !filter.matches(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Tail reads lines appended since the cursor position and returns them with
// the cursor to pass back next poll. A cursor from a rotated-away or
// truncated file resets to the start of the current file. Only complete
// lines are consumed; a partial final line stays for the next poll. When
// maxAge is positive, records older than it are dropped. At most limit
// records return, keeping the newest.
func (r *Reader) Tail(cur Cursor, limit int, maxAge time.Duration) ([]Record, Cursor, error) {
	if limit <= 0 {
		limit = DefaultTailLimit
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, cur, errors.Wrap(err, errors.KindUnavailable, "cannot open firewall log")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, cur, errors.Wrap(err, errors.KindUnavailable, "cannot stat firewall log")
	}
	inode := inodeOf(fi)

	offset := cur.Offset
	if cur.Inode != inode || offset > fi.Size() {
		if cur.Offset != 0 {
			r.logger.Debug("log rotation detected, resetting cursor",
				"path", r.path, "old_inode", cur.Inode, "inode", inode)
		}
		offset = 0
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, cur, errors.Wrap(err, errors.KindUnavailable, "cannot seek firewall log")
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, cur, errors.Wrap(err, errors.KindUnavailable, "reading firewall log")
	}

	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil, Cursor{Offset: offset, Inode: inode}, nil
	}
	next := Cursor{Offset: offset + int64(end) + 1, Inode: inode}

	now := r.clock.Now()
	var records []Record
	for _, line := range strings.Split(string(data[:end]), "\n") {
		if line == "" || !looksLikeFirewallLine(line) {
			continue
		}
		rec, ok := parseLine(line, now)
		if !ok {
			r.parseSkips.Add(1)
			continue
		}
		if maxAge > 0 && now.Sub(rec.Time) > maxAge {
			continue
		}
		records = append(records, rec)
	}
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, next, nil
}

// lines returns the whole file as lines, re-reading only when the file's
// (mtime, inode, size) moved past the cached generation.
func (r *Reader) lines() ([]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, "cannot open firewall log")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, "cannot stat firewall log")
	}
	mtime, inode, size := fi.ModTime(), inodeOf(fi), fi.Size()

	r.mu.Lock()
	if c := r.cache; c != nil && c.mtime.Equal(mtime) && c.inode == inode && c.size == size {
		lines := c.lines
		r.mu.Unlock()
		r.cacheHits.Add(1)
		return lines, nil
	}
	r.mu.Unlock()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, "reading firewall log")
	}
	r.fileReads.Add(1)

	r.mu.Lock()
	r.cache = &fileCache{mtime: mtime, inode: inode, size: size, lines: lines}
	r.mu.Unlock()
	return lines, nil
}

package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const pollInterval = 250 * time.Millisecond

// CurrentLogName is the pointer the daemon keeps to its newest run log.
const CurrentLogName = "orderbell.log"

// Matcher selects which lines a tail returns. A nil Matcher keeps every line.
type Matcher func(line string) bool

// TailOptions controls a single Tail call.
type TailOptions struct {
	// Offset is the byte position to resume from. Negative means "last Limit lines".
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Match  Matcher
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// CurrentLogPath returns the daemon's current log pointer inside logDir.
func CurrentLogPath(logDir string) string {
	return filepath.Join(logDir, CurrentLogName)
}

// MatchOrder keeps lines mentioning the order id in console or JSON form.
func MatchOrder(id string) Matcher {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	console := "order_id=" + id
	jsonField := `"order_id":"` + id + `"`
	return func(line string) bool {
		return strings.Contains(line, console) || strings.Contains(line, jsonField)
	}
}

// MatchEvent keeps lines carrying the given event_type.
func MatchEvent(eventType string) Matcher {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return nil
	}
	console := "event_type=" + eventType
	jsonField := `"event_type":"` + eventType + `"`
	return func(line string) bool {
		return strings.Contains(line, console) || strings.Contains(line, jsonField)
	}
}

// All combines matchers; every non-nil matcher must accept the line.
func All(matchers ...Matcher) Matcher {
	active := make([]Matcher, 0, len(matchers))
	for _, m := range matchers {
		if m != nil {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, m := range active {
			if !m(line) {
				return false
			}
		}
		return true
	}
}

// Tail reads lines from path according to opts. A missing file yields no
// lines and offset zero.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		lines, offset, err := readLastLines(path, opts.Limit, opts.Match)
		if err != nil {
			return result, err
		}
		result.Lines = lines
		result.Offset = offset
		if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
			return waitForLines(ctx, path, offset, opts.Wait, opts.Match)
		}
		return result, nil
	}

	offset := opts.Offset
	if offset > info.Size() {
		// The pointer moved to a fresh, shorter run log.
		offset = 0
	}
	lines, newOffset, err := readForward(path, offset, opts.Match)
	if err != nil {
		return result, err
	}
	result.Lines = lines
	result.Offset = newOffset
	if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
		return waitForLines(ctx, path, newOffset, opts.Wait, opts.Match)
	}
	return result, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

func readLastLines(path string, limit int, match Matcher) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	var consumed int64
	scanner := newScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		consumed += int64(len(scanner.Bytes())) + 1
		if match != nil && !match(line) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := range lines {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, clampOffset(file, consumed), nil
}

func readForward(path string, offset int64, match Matcher) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	consumed := offset
	scanner := newScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		consumed += int64(len(scanner.Bytes())) + 1
		if match != nil && !match(line) {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	return lines, clampOffset(file, consumed), nil
}

// clampOffset keeps the offset within the file when the last line had no
// trailing newline.
func clampOffset(file *os.File, consumed int64) int64 {
	info, err := file.Stat()
	if err != nil || consumed <= info.Size() {
		return consumed
	}
	return info.Size()
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration, match Matcher) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		lines, newOffset, err := readForward(path, result.Offset, match)
		if err != nil {
			return result, err
		}
		result.Offset = newOffset
		if len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
		if time.Now().After(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

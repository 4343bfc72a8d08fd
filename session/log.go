package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// FileExtension for session log files
const FileExtension = ".jsonl"

// Log is the append-only event log for one session.
//
// Single-writer: one engine owns a session's log for the duration of a turn.
// Appends are one whole line each, written with O_APPEND, so a crash can at
// worst lose the final line - readers skip it and the file stays appendable.
type Log struct {
	path string
	id   string
	mu   sync.Mutex
}

// New creates a session log with a fresh ID in dir.
// The meta line is written on the first append.
func New(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	id := uuid.NewString()
	return &Log{
		path: filepath.Join(dir, id+FileExtension),
		id:   id,
	}, nil
}

// Open attaches to an existing session log file.
func Open(path string) (*Log, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("session log not found: %w", err)
	}
	id := strings.TrimSuffix(filepath.Base(path), FileExtension)
	return &Log{path: path, id: id}, nil
}

// ID returns the session identifier.
func (l *Log) ID() string {
	return l.id
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one event as a JSONL line, creating the file (with its meta
// line) on first use. TS defaults to now.
func (l *Log) Append(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(event)
}

func (l *Log) appendLocked(event Event) error {
	if err := l.ensureMetaLocked(); err != nil {
		return err
	}
	return l.writeLineLocked(event)
}

func (l *Log) ensureMetaLocked() error {
	info, err := os.Stat(l.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	return l.writeLineLocked(Event{
		Type:          EventTypeMeta,
		SchemaVersion: SchemaVersion,
		SessionID:     l.id,
	})
}

func (l *Log) writeLineLocked(event Event) error {
	if event.TS.IsZero() {
		event.TS = time.Now().UTC()
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open session log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append session event: %w", err)
	}
	return nil
}

// Events reads all events from the log. Unparseable lines are skipped:
// forward compatibility and torn final lines must never make old data
// unloadable.
func (l *Log) Events() ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ReadEvents(l.path)
}

// ReadEvents reads a session log file without owning it.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("failed to read session log: %w", err)
	}
	return events, nil
}

// Rename sets the session's display title. This is the one mutation path:
// the file is rewritten with the updated meta line to a temp file, then
// atomically renamed over the original.
func (l *Log) Rename(title string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureMetaLocked(); err != nil {
		return err
	}

	events, err := ReadEvents(l.path)
	if err != nil {
		return err
	}

	for i := range events {
		if events[i].Type == EventTypeMeta {
			events[i].Title = title
			break
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".rename-*")
	if err != nil {
		return fmt.Errorf("failed to create temp log: %w", err)
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, event := range events {
		line, err := json.Marshal(event)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to marshal session event: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to write temp log: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp log: %w", err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace session log: %w", err)
	}
	return nil
}

// Info summarizes one session for listing.
type Info struct {
	ID        string
	Path      string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// List returns the sessions in dir, newest activity first.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session dir: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), FileExtension) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		stat, err := entry.Info()
		if err != nil {
			continue
		}

		info := Info{
			ID:        strings.TrimSuffix(entry.Name(), FileExtension),
			Path:      path,
			UpdatedAt: stat.ModTime(),
		}
		if events, err := ReadEvents(path); err == nil {
			for _, event := range events {
				if event.Type == EventTypeMeta {
					info.Title = event.Title
					info.CreatedAt = event.TS
					break
				}
			}
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// --- agentcore.TurnRecorder ---

// RecordUserMessage appends a user message event.
func (l *Log) RecordUserMessage(text string) error {
	return l.Append(Event{Type: EventTypeMessage, Role: agentcore.RoleUser, Content: text})
}

// RecordAssistantText appends an assistant message event.
func (l *Log) RecordAssistantText(text string) error {
	return l.Append(Event{Type: EventTypeMessage, Role: agentcore.RoleAssistant, Content: text})
}

// RecordThinking appends a thinking event.
func (l *Log) RecordThinking(text, signature string) error {
	return l.Append(Event{Type: EventTypeThinking, Content: text, Signature: signature})
}

// RecordToolUse appends a tool invocation event.
func (l *Log) RecordToolUse(id, name string, input map[string]interface{}) error {
	return l.Append(Event{Type: EventTypeToolUse, ToolUseID: id, ToolName: name, ToolInput: input})
}

// RecordToolResult appends a tool result event.
func (l *Log) RecordToolResult(id string, output agentcore.ToolOutput) error {
	return l.Append(Event{Type: EventTypeToolResult, ToolUseID: id, Output: &output})
}

// RecordUsage appends one per-request usage delta.
func (l *Log) RecordUsage(u agentcore.Usage) error {
	return l.Append(Event{Type: EventTypeUsage, Usage: &u})
}

// RecordInterrupted appends an interruption marker.
func (l *Log) RecordInterrupted() error {
	return l.Append(Event{Type: EventTypeInterrupted})
}

var _ agentcore.TurnRecorder = (*Log)(nil)

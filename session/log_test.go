package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	agentcore "github.com/haowjy/meridian-agent-go"
)

func TestLog_AppendWritesMetaFirst(t *testing.T) {
	dir := t.TempDir()
	log, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := log.RecordUserMessage("hello"); err != nil {
		t.Fatal(err)
	}
	if err := log.RecordAssistantText("hi there"); err != nil {
		t.Fatal(err)
	}

	events, err := log.Events()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3 (meta + 2 messages)", len(events))
	}

	meta := events[0]
	if meta.Type != EventTypeMeta {
		t.Errorf("first event type = %s, want meta", meta.Type)
	}
	if meta.SchemaVersion != SchemaVersion {
		t.Errorf("schema_version = %d, want %d", meta.SchemaVersion, SchemaVersion)
	}
	if meta.SessionID != log.ID() {
		t.Errorf("session_id = %s, want %s", meta.SessionID, log.ID())
	}
	if meta.TS.IsZero() {
		t.Error("meta timestamp not stamped")
	}

	if events[1].Role != agentcore.RoleUser || events[1].Content != "hello" {
		t.Errorf("user event = %+v", events[1])
	}
	if events[2].Role != agentcore.RoleAssistant || events[2].Content != "hi there" {
		t.Errorf("assistant event = %+v", events[2])
	}
}

func TestLog_RecorderEvents(t *testing.T) {
	dir := t.TempDir()
	log, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := log.RecordThinking("reasoning here", "sig_abc"); err != nil {
		t.Fatal(err)
	}
	if err := log.RecordToolUse("toolu_1", "search", map[string]interface{}{"query": "go"}); err != nil {
		t.Fatal(err)
	}
	if err := log.RecordToolResult("toolu_1", agentcore.ToolSuccess(map[string]interface{}{"hits": float64(2)})); err != nil {
		t.Fatal(err)
	}
	if err := log.RecordUsage(agentcore.Usage{InputTokens: 10, OutputTokens: 5}); err != nil {
		t.Fatal(err)
	}
	if err := log.RecordInterrupted(); err != nil {
		t.Fatal(err)
	}

	events, err := log.Events()
	if err != nil {
		t.Fatal(err)
	}
	// meta + 5 records
	if len(events) != 6 {
		t.Fatalf("got %d events, want 6", len(events))
	}

	thinking := events[1]
	if thinking.Type != EventTypeThinking || thinking.Signature != "sig_abc" {
		t.Errorf("thinking event = %+v", thinking)
	}
	toolUse := events[2]
	if toolUse.Type != EventTypeToolUse || toolUse.ToolUseID != "toolu_1" || toolUse.ToolName != "search" {
		t.Errorf("tool_use event = %+v", toolUse)
	}
	if toolUse.ToolInput["query"] != "go" {
		t.Errorf("tool input survived round trip badly: %+v", toolUse.ToolInput)
	}
	result := events[3]
	if result.Type != EventTypeToolResult || result.Output == nil || result.Output.IsFailure() {
		t.Errorf("tool_result event = %+v", result)
	}
	usage := events[4]
	if usage.Type != EventTypeUsage || usage.Usage == nil || usage.Usage.InputTokens != 10 {
		t.Errorf("usage event = %+v", usage)
	}
	if events[5].Type != EventTypeInterrupted {
		t.Errorf("final event type = %s, want interrupted", events[5].Type)
	}
}

func TestReadEvents_SkipsUnparseableLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "damaged"+FileExtension)

	lines := strings.Join([]string{
		`{"type":"meta","ts":"2026-01-02T03:04:05Z","schema_version":1,"session_id":"damaged"}`,
		`{"type":"message","ts":"2026-01-02T03:04:06Z","role":"user","content":"first"}`,
		`this is not json`,
		`{"type":"message","ts":"2026-01-02T03:04:07Z","role":"assistant","content":"second"}`,
		``,
		`{"type":"usage","ts":"2026-01-02T03:04:08Z","usage":{"input_tokens":7`, // torn final line
	}, "\n")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3 (damaged lines skipped)", len(events))
	}
	if events[2].Content != "second" {
		t.Errorf("last parseable event = %+v", events[2])
	}

	// The file must remain appendable after the torn line.
	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := log.RecordUserMessage("third"); err != nil {
		t.Fatal(err)
	}
}

func TestReadEvents_MissingFile(t *testing.T) {
	events, err := ReadEvents(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("ReadEvents(missing) error: %v", err)
	}
	if events != nil {
		t.Errorf("ReadEvents(missing) = %+v, want nil", events)
	}
}

func TestLog_Rename(t *testing.T) {
	dir := t.TempDir()
	log, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := log.RecordUserMessage("keep me"); err != nil {
		t.Fatal(err)
	}

	if err := log.Rename("Debugging the parser"); err != nil {
		t.Fatal(err)
	}

	events, err := log.Events()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events after rename, want 2", len(events))
	}
	if events[0].Title != "Debugging the parser" {
		t.Errorf("meta title = %q", events[0].Title)
	}
	if events[1].Content != "keep me" {
		t.Errorf("message lost during rewrite: %+v", events[1])
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".rename-") {
			t.Errorf("leftover temp file %s", entry.Name())
		}
	}
}

func TestLog_RenameEmptyLogCreatesMeta(t *testing.T) {
	log, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := log.Rename("Untouched session"); err != nil {
		t.Fatal(err)
	}

	events, err := log.Events()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Title != "Untouched session" {
		t.Errorf("events = %+v, want single titled meta", events)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Error("Open(missing) = nil error")
	}
}

func TestList_SortedByActivity(t *testing.T) {
	dir := t.TempDir()

	older, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := older.RecordUserMessage("old"); err != nil {
		t.Fatal(err)
	}
	if err := older.Rename("older"); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older.Path(), past, past); err != nil {
		t.Fatal(err)
	}

	newer, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := newer.RecordUserMessage("new"); err != nil {
		t.Fatal(err)
	}

	// Non-session files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	infos, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d sessions, want 2", len(infos))
	}
	if infos[0].ID != newer.ID() {
		t.Errorf("newest session first: got %s, want %s", infos[0].ID, newer.ID())
	}
	if infos[1].Title != "older" {
		t.Errorf("title = %q, want 'older'", infos[1].Title)
	}
	if infos[1].CreatedAt.IsZero() {
		t.Error("CreatedAt not taken from meta line")
	}
}

func TestList_MissingDir(t *testing.T) {
	infos, err := List(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("List(missing dir) error: %v", err)
	}
	if infos != nil {
		t.Errorf("List(missing dir) = %+v, want nil", infos)
	}
}

package safety

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jamesprial/gqlops/internal/catalog"
)

// ---------------------------------------------------------------------------
// Filter
// ---------------------------------------------------------------------------

func Test_Filter_IsAllowed_Cases(t *testing.T) {
	tests := []struct {
		name      string
		allowlist []string
		denylist  []string
		operation string
		want      bool
	}{
		{name: "empty lists allow all", operation: "query_ping", want: true},
		{name: "allowlist glob match", allowlist: []string{"query_*"}, operation: "query_ping", want: true},
		{name: "allowlist miss", allowlist: []string{"query_*"}, operation: "mutation_sendRaw", want: false},
		{name: "denylist wins over allowlist", allowlist: []string{"query_*"}, denylist: []string{"query_ping"}, operation: "query_ping", want: false},
		{name: "denylist only", denylist: []string{"mutation_*"}, operation: "query_ping", want: true},
		{name: "malformed pattern never matches", allowlist: []string{"["}, operation: "query_ping", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.allowlist, tt.denylist)
			if got := f.IsAllowed(tt.operation); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.operation, got, tt.want)
			}
		})
	}
}

func Test_Filter_NilAllowsAll(t *testing.T) {
	var f *Filter
	if !f.IsAllowed("anything") {
		t.Error("nil filter should allow every operation")
	}
}

func Test_Filter_Select(t *testing.T) {
	ops := []catalog.Operation{{Name: "mutation_sendRaw"}, {Name: "query_block"}, {Name: "query_ping"}}
	got := NewFilter(nil, []string{"query_block"}).Select(ops)
	if len(got) != 2 || got[0].Name != "mutation_sendRaw" || got[1].Name != "query_ping" {
		t.Errorf("Select() = %+v", got)
	}
}

// ---------------------------------------------------------------------------
// ConfirmationTracker
// ---------------------------------------------------------------------------

func Test_ConfirmationTracker_NeedsConfirmation(t *testing.T) {
	ct := NewConfirmationTracker([]string{"mutation_sendRaw"})
	if !ct.NeedsConfirmation("mutation_sendRaw") {
		t.Error("guarded operation should need confirmation")
	}
	if ct.NeedsConfirmation("query_ping") {
		t.Error("unguarded operation should not need confirmation")
	}

	var nilTracker *ConfirmationTracker
	if nilTracker.NeedsConfirmation("mutation_sendRaw") {
		t.Error("nil tracker should guard nothing")
	}
}

func Test_ConfirmationTracker_RequestAndConfirm(t *testing.T) {
	ct := NewConfirmationTracker([]string{"mutation_sendRaw"})

	token := ct.RequestConfirmation("mutation_sendRaw", "send a raw transaction")
	if token == "" {
		t.Fatal("RequestConfirmation returned empty token")
	}
	if !ct.Confirm(token, "mutation_sendRaw") {
		t.Fatal("valid token was rejected")
	}
	if ct.Confirm(token, "mutation_sendRaw") {
		t.Error("token should be single-use")
	}
}

func Test_ConfirmationTracker_RejectsCases(t *testing.T) {
	ct := NewConfirmationTracker([]string{"mutation_a", "mutation_b"})

	if ct.Confirm("", "mutation_a") {
		t.Error("empty token accepted")
	}
	if ct.Confirm("not-a-token", "mutation_a") {
		t.Error("unknown token accepted")
	}

	token := ct.RequestConfirmation("mutation_a", "")
	if ct.Confirm(token, "mutation_b") {
		t.Error("token accepted for a different operation")
	}
	if ct.Confirm(token, "mutation_a") {
		t.Error("token presented for the wrong operation should be consumed")
	}
}

func Test_ConfirmationTracker_TokenExpiry(t *testing.T) {
	ct := NewConfirmationTracker([]string{"mutation_a"})
	now := time.Now()
	ct.now = func() time.Time { return now }

	token := ct.RequestConfirmation("mutation_a", "")
	now = now.Add(tokenTTL + time.Second)

	if ct.Confirm(token, "mutation_a") {
		t.Error("expired token accepted")
	}
}

func Test_MutationNames(t *testing.T) {
	ops := []catalog.Operation{
		{Name: "mutation_sendRaw", Kind: "mutation"},
		{Name: "query_ping", Kind: "query"},
		{Name: "other", Kind: "operation"},
	}
	got := MutationNames(ops)
	if len(got) != 1 || got[0] != "mutation_sendRaw" {
		t.Errorf("MutationNames() = %v, want [mutation_sendRaw]", got)
	}
}

// ---------------------------------------------------------------------------
// AuditLogger
// ---------------------------------------------------------------------------

func Test_AuditLogger_Log_Format_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(&buf)

	entry := AuditEntry{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Tool:      "mutation_sendRaw",
		Kind:      "mutation",
		Params:    map[string]any{"signedTx": "0xabc"},
		Result:    "ok",
		Duration:  150 * time.Millisecond,
	}
	if err := logger.Log(entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("entry not newline terminated: %q", line)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &decoded); err != nil {
		t.Fatalf("entry is not valid JSON: %v", err)
	}
	if decoded["tool"] != "mutation_sendRaw" {
		t.Errorf("tool = %v", decoded["tool"])
	}
	if decoded["kind"] != "mutation" {
		t.Errorf("kind = %v", decoded["kind"])
	}
	if id, _ := decoded["request_id"].(string); len(id) != 36 {
		t.Errorf("request_id = %v, want generated UUID", decoded["request_id"])
	}
	if decoded["duration_ns"] != float64(150*time.Millisecond) {
		t.Errorf("duration_ns = %v", decoded["duration_ns"])
	}
}

func Test_AuditLogger_KeepsProvidedRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(&buf)
	if err := logger.Log(AuditEntry{RequestID: "req-1", Tool: "query_ping"}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("entry = %s, want request_id req-1", buf.String())
	}
}

func Test_AuditLogger_NilWriter(t *testing.T) {
	if l := NewAuditLogger(nil); l != nil {
		t.Fatal("NewAuditLogger(nil) should return nil")
	}
	var l *AuditLogger
	if err := l.Log(AuditEntry{}); err != ErrNilWriter {
		t.Errorf("Log on nil logger = %v, want ErrNilWriter", err)
	}
}

func Test_AuditLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(&buf)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_ = logger.Log(AuditEntry{Tool: "query_ping"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != goroutines {
		t.Fatalf("got %d lines, want %d", len(lines), goroutines)
	}
	for _, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("interleaved or invalid line: %q", line)
		}
	}
}

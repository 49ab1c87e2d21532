package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestDisplay(buf *bytes.Buffer) *Display {
	return newDisplay(buf, "test", true)
}

func TestHeader_ContainsTitleAndTotal(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.Header(12)
	out := buf.String()
	if !strings.Contains(out, "test") {
		t.Errorf("Header missing title: %q", out)
	}
	if !strings.Contains(out, "12 documents") {
		t.Errorf("Header missing total: %q", out)
	}
}

func TestItemStart_ContainsTopicAndCounter(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.ItemStart(0, 3, "Rate limiter")
	out := buf.String()
	if !strings.Contains(out, "Rate limiter") {
		t.Errorf("ItemStart missing topic: %q", out)
	}
	if !strings.Contains(out, "[1/3]") {
		t.Errorf("ItemStart missing counter: %q", out)
	}
}

func TestItemStart_NonVerboseStopsTicker(t *testing.T) {
	var buf bytes.Buffer
	d := newDisplay(&buf, "test", false)
	d.ItemStart(1, 2, "Cache")
	d.ItemDone(1, 2, "Cache", "out/002_doc.json", true, 0, time.Second)
	if d.stop != nil || d.done != nil {
		t.Error("ticker still running after ItemDone")
	}
	if !strings.Contains(buf.String(), "\r") {
		t.Errorf("non-verbose ItemDone should overwrite line: %q", buf.String())
	}
}

func TestItemDone_Structured(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.ItemDone(2, 5, "Queue", "out/003_doc.json", true, 0.0012, 3*time.Second)
	out := buf.String()
	if !strings.Contains(out, "✅") {
		t.Errorf("ItemDone missing ok glyph: %q", out)
	}
	if !strings.Contains(out, "$0.0012") {
		t.Errorf("ItemDone missing cost: %q", out)
	}
	if !strings.Contains(out, "out/003_doc.json") {
		t.Errorf("ItemDone missing artifact: %q", out)
	}
}

func TestItemDone_ZeroCostShowsDash(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.ItemDone(0, 1, "Queue", "a.json", true, 0, time.Second)
	if !strings.Contains(buf.String(), "—") {
		t.Errorf("expected dash for zero cost, got: %q", buf.String())
	}
}

func TestItemDone_Degraded(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.ItemDone(0, 1, "Queue", "", false, 0, time.Second)
	out := buf.String()
	if !strings.Contains(out, "⚠️") {
		t.Errorf("degraded item missing warning glyph: %q", out)
	}
	if !strings.Contains(out, "(not saved)") {
		t.Errorf("unsaved degraded item should say so: %q", out)
	}
}

func TestItemFailed_ContainsError(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.ItemFailed(1, 2, "Scheduler", errors.New("timed out"))
	out := buf.String()
	if !strings.Contains(out, "Scheduler") || !strings.Contains(out, "timed out") {
		t.Errorf("ItemFailed output incomplete: %q", out)
	}
}

func TestThrottling_ZeroDelayPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.Throttling(0)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
	d.Throttling(1500 * time.Millisecond)
	if !strings.Contains(buf.String(), "1.5s") {
		t.Errorf("Throttling missing delay: %q", buf.String())
	}
}

func TestSummary_Degraded(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.Summary(4, 1, 0.5, 10*time.Second)
	out := buf.String()
	if !strings.Contains(out, "4 docs") || !strings.Contains(out, "1 degraded") {
		t.Errorf("Summary incomplete: %q", out)
	}
}

func TestFailed_ContainsError(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.Failed(errors.New("boom"))
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("Failed missing error: %q", buf.String())
	}
}

func TestNilDisplay(t *testing.T) {
	var d *Display
	d.Header(1)
	d.ItemStart(0, 1, "x")
	d.ItemDone(0, 1, "x", "", true, 0, 0)
	d.ItemFailed(0, 1, "x", errors.New("e"))
	d.Throttling(time.Second)
	d.Summary(0, 0, 0, 0)
	d.Failed(errors.New("e"))
}

func TestTruncateTopic_Short(t *testing.T) {
	if got := truncateTopic("Consistent hashing"); got != "Consistent hashing" {
		t.Errorf("expected no truncation, got %q", got)
	}
}

func TestTruncateTopic_Long(t *testing.T) {
	long := strings.Repeat("distributed ", 10)
	got := truncateTopic(long)
	if len([]rune(got)) > topicColumnWidth {
		t.Errorf("truncateTopic did not truncate: len=%d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated topic should end with ellipsis, got %q", got)
	}
}

func TestTruncateTopic_ExactWidth(t *testing.T) {
	exact := strings.Repeat("a", topicColumnWidth)
	if got := truncateTopic(exact); got != exact {
		t.Errorf("exact-width topic should not be truncated, got %q", got)
	}
}

func TestTruncateTopic_Unicode(t *testing.T) {
	got := truncateTopic(strings.Repeat("模", 45))
	if len([]rune(got)) > topicColumnWidth {
		t.Errorf("unicode truncation failed: len=%d", len([]rune(got)))
	}
}

func TestSanitize_StripsANSI(t *testing.T) {
	if got := sanitize("\x1b[31mmalicious\x1b[0m"); got != "malicious" {
		t.Errorf("expected 'malicious', got %q", got)
	}
}

func TestSanitize_StripsControlChars(t *testing.T) {
	got := sanitize("topic\x00name\x1f")
	if strings.Contains(got, "\x00") || strings.Contains(got, "\x1f") {
		t.Errorf("sanitize did not strip control chars: %q", got)
	}
}

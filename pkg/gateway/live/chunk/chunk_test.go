package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func joinChunks(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

func TestSplit_EmptyInput(t *testing.T) {
	if got := Split("", 100); len(got) != 0 {
		t.Fatalf("chunks=%v, want none", got)
	}
	if got := Split("   \n\t ", 100); len(got) != 0 {
		t.Fatalf("chunks=%v, want none", got)
	}
}

func TestSplit_FitsVerbatim(t *testing.T) {
	text := "Hello world. How are you?"
	got := Split(text, 100)
	if len(got) != 1 {
		t.Fatalf("chunks=%d, want 1", len(got))
	}
	if got[0].Text != text {
		t.Fatalf("text=%q, want input unchanged", got[0].Text)
	}
	if got[0].Ordinal != 0 || got[0].Total != 1 {
		t.Fatalf("ordinal=%d total=%d, want 0/1", got[0].Ordinal, got[0].Total)
	}
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	got := Split("One. Two. Three.", 10)
	if len(got) != 2 {
		t.Fatalf("chunks=%v, want 2", got)
	}
	if got[0].Text != "One.Two." {
		t.Fatalf("first=%q, want %q", got[0].Text, "One.Two.")
	}
	if got[1].Text != "Three." {
		t.Fatalf("second=%q, want %q", got[1].Text, "Three.")
	}
}

func TestSplit_PreservesContent(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. " +
		"Pack my box with five dozen liquor jugs! " +
		"How vexingly quick daft zebras jump?"
	got := Split(text, 30)
	if len(got) < 2 {
		t.Fatalf("chunks=%d, want >=2", len(got))
	}
	if stripSpace(joinChunks(got)) != stripSpace(text) {
		t.Fatalf("rejoined chunks do not match input:\n%q\nvs\n%q", joinChunks(got), text)
	}
}

func TestSplit_ChunkSizeBound(t *testing.T) {
	text := strings.Repeat("Some words here, with clauses; and more. ", 20)
	for _, c := range Split(text, 25) {
		if n := utf8.RuneCountInString(c.Text); n > 25 {
			t.Fatalf("chunk %d has %d runes, want <=25: %q", c.Ordinal, n, c.Text)
		}
	}
}

func TestSplit_OversizedClauseHardSlice(t *testing.T) {
	text := strings.Repeat("a", 25)
	got := Split(text, 10)
	if len(got) != 3 {
		t.Fatalf("chunks=%v, want 3", got)
	}
	want := []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 5)}
	for i, c := range got {
		if c.Text != want[i] {
			t.Fatalf("chunk %d=%q, want %q", i, c.Text, want[i])
		}
	}
}

func TestSplit_MultibyteSafe(t *testing.T) {
	text := "你好世界。这是一个测试。再见了朋友。"
	got := Split(text, 6)
	if len(got) < 2 {
		t.Fatalf("chunks=%d, want >=2", len(got))
	}
	for _, c := range got {
		if !utf8.ValidString(c.Text) {
			t.Fatalf("chunk %d is not valid utf-8: %q", c.Ordinal, c.Text)
		}
		if n := utf8.RuneCountInString(c.Text); n > 6 {
			t.Fatalf("chunk %d has %d runes, want <=6", c.Ordinal, n)
		}
	}
	if stripSpace(joinChunks(got)) != stripSpace(text) {
		t.Fatalf("rejoined chunks do not match input")
	}
}

func TestSplit_OrdinalsAndTotal(t *testing.T) {
	got := Split(strings.Repeat("Sentence here. ", 10), 20)
	if len(got) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range got {
		if c.Ordinal != i {
			t.Fatalf("chunk %d has ordinal %d", i, c.Ordinal)
		}
		if c.Total != len(got) {
			t.Fatalf("chunk %d has total %d, want %d", i, c.Total, len(got))
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := "First sentence. Second sentence, with a clause. Third!"
	a := Split(text, 20)
	b := Split(text, 20)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

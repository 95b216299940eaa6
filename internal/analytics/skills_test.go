package analytics

import (
	"strings"
	"testing"
)

func TestSkillTextVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want SkillFieldKind
	}{
		{"blank collapses to missing", "   ", SkillFieldMissing},
		{"sentinel collapses to none", SentinelNoSkills, SkillFieldNone},
		{"regular text", "Python, SQL", SkillFieldText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SkillText(tt.in).Kind(); got != tt.want {
				t.Errorf("SkillText(%q).Kind() = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokensExplode(t *testing.T) {
	tests := []struct {
		name  string
		field RawSkillField
		want  []string
	}{
		{
			name:  "comma separated",
			field: SkillText("Python, SQL,Excel"),
			want:  []string{"python", "sql", "excel"},
		},
		{
			name:  "semicolons treated as commas",
			field: SkillText("Go; Docker ;Kubernetes"),
			want:  []string{"go", "docker", "kubernetes"},
		},
		{
			name:  "empty parts dropped",
			field: SkillText("Python,, ,SQL"),
			want:  []string{"python", "sql"},
		},
		{
			name:  "list variant splits each item",
			field: SkillList([]string{"Python, SQL", "AWS"}),
			want:  []string{"python", "sql", "aws"},
		},
		{
			name:  "missing yields nothing",
			field: MissingSkills(),
			want:  nil,
		},
		{
			name:  "sentinel yields nothing",
			field: SkillText(SentinelNoSkills),
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.field.Tokens()
			if len(got) != len(tt.want) {
				t.Fatalf("Tokens() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Tokens()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokensNeverWhitespaceOnly(t *testing.T) {
	inputs := []string{" , ; ,", "\t,\n", "a,  ,b", "  Python  "}
	for _, in := range inputs {
		for _, tok := range SkillText(in).Tokens() {
			if strings.TrimSpace(tok) == "" {
				t.Errorf("SkillText(%q) emitted whitespace-only token", in)
			}
			if tok != strings.ToLower(tok) {
				t.Errorf("SkillText(%q) emitted non-lowercase token %q", in, tok)
			}
		}
	}
}

func TestUniqueTokensDedupsWithinPosting(t *testing.T) {
	got := SkillText("Python, python, SQL").UniqueTokens()
	want := []string{"python", "sql"}
	if len(got) != len(want) {
		t.Fatalf("UniqueTokens() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("UniqueTokens()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFrameCaseInsensitiveCounts(t *testing.T) {
	records := []Record{
		{JobID: "1", Skills: SkillText("Python,SQL")},
		{JobID: "2", Skills: SkillText("python, Excel")},
		{JobID: "3", Skills: SkillText("SQL")},
	}
	frame := NewFrame(records)

	counts, _ := frame.TokenCounts()
	want := map[string]int{"python": 2, "sql": 2, "excel": 1}
	if len(counts) != len(want) {
		t.Fatalf("TokenCounts() = %v, want %v", counts, want)
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("counts[%q] = %d, want %d", k, counts[k], v)
		}
	}
}

func TestFrameExplodeRowCount(t *testing.T) {
	frame := NewFrame([]Record{{JobID: "1", Skills: SkillText("a, b, c")}})
	if len(frame.Rows) != 3 {
		t.Errorf("explode produced %d rows, want 3", len(frame.Rows))
	}
	if frame.Postings != 1 {
		t.Errorf("Postings = %d, want 1", frame.Postings)
	}
}

package intent

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Kind
	}{
		{
			name: "task tag",
			text: `before [TASK: check weather | OUTPUT: /tmp/out.md | PROMPT: what is the weather] after`,
			want: []Kind{KindTask},
		},
		{
			name: "code task tag",
			text: `[CODE_TASK: cwd=/home/proj | PROMPT: add a test]`,
			want: []Kind{KindCodeTask},
		},
		{
			name: "external-only tags in document order",
			text: `[REMEMBER: likes tea] middle [GOAL: ship v2 | DEADLINE: friday] [TODO: buy milk]`,
			want: []Kind{KindRemember, KindGoal, KindTodo},
		},
		{
			name: "no tags",
			text: "just plain text",
			want: nil,
		},
		{
			name: "multiple of the same kind processed in order",
			text: `[DONE: task one] [DONE: task two]`,
			want: []Kind{KindDone, KindDone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tags, want %d (%v)", len(got), len(tt.want), got)
			}
			for i, k := range tt.want {
				if got[i].Kind != k {
					t.Errorf("tag %d: got kind %s, want %s", i, got[i].Kind, k)
				}
			}
		})
	}
}

func TestParseTaskFields(t *testing.T) {
	tags := Parse(`[TASK: find recipe | OUTPUT: /tmp/recipe.md | PROMPT: find a pasta recipe]`)
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
	tag := tags[0]
	if tag.Desc != "find recipe" {
		t.Errorf("Desc = %q", tag.Desc)
	}
	if tag.Output != "/tmp/recipe.md" {
		t.Errorf("Output = %q", tag.Output)
	}
	if tag.Prompt != "find a pasta recipe" {
		t.Errorf("Prompt = %q", tag.Prompt)
	}
}

func TestParseCodeTaskFields(t *testing.T) {
	tags := Parse(`[CODE_TASK: cwd=/srv/app | PROMPT: fix the bug]`)
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
	tag := tags[0]
	if tag.Cwd != "/srv/app" {
		t.Errorf("Cwd = %q", tag.Cwd)
	}
	if tag.Prompt != "fix the bug" {
		t.Errorf("Prompt = %q", tag.Prompt)
	}
}

func TestKindExternalOnly(t *testing.T) {
	external := []Kind{KindRemember, KindGoal, KindDone, KindTodo, KindTodoDone}
	for _, k := range external {
		if !k.ExternalOnly() {
			t.Errorf("%s: expected ExternalOnly true", k)
		}
	}
	internal := []Kind{KindTask, KindCodeTask}
	for _, k := range internal {
		if k.ExternalOnly() {
			t.Errorf("%s: expected ExternalOnly false", k)
		}
	}
}

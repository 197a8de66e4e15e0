// Package intent implements the typed tagged-variant parser named in
// spec.md §9's Design Notes, replacing ad hoc keyword/regex scanning of
// assistant-authored text with a fixed grammar of bracketed tags.
package intent

import "regexp"

// Kind discriminates the variant carried by a Tag.
type Kind string

const (
	KindTask     Kind = "task"
	KindCodeTask Kind = "code_task"
	KindRemember Kind = "remember"
	KindGoal     Kind = "goal"
	KindDone     Kind = "done"
	KindTodo     Kind = "todo"
	KindTodoDone Kind = "todo_done"
)

// Tag is one parsed tagged-variant record. Only the fields relevant to
// its Kind are populated.
type Tag struct {
	Kind Kind
	Raw  string // the literal matched text, for substitution in the source

	Desc     string // Task
	Output   string // Task
	Prompt   string // Task, CodeTask
	Cwd      string // CodeTask
	Text     string // Remember, Done, Todo, TodoDone, Goal
	Deadline string // Goal
}

// patterns, one per tag kind. All are case-sensitive and anchored to the
// literal `[KEYWORD: ...]` bracket grammar spec.md §6 defines.
var patterns = []struct {
	kind Kind
	re   *regexp.Regexp
}{
	{KindTask, regexp.MustCompile(`\[TASK:\s*(.*?)\s*\|\s*OUTPUT:\s*(.*?)\s*\|\s*PROMPT:\s*(.*?)\s*\]`)},
	{KindCodeTask, regexp.MustCompile(`\[CODE_TASK:\s*cwd=(.*?)\s*\|\s*PROMPT:\s*(.*?)\s*\]`)},
	{KindGoal, regexp.MustCompile(`\[GOAL:\s*(.*?)\s*\|\s*DEADLINE:\s*(.*?)\s*\]`)},
	{KindRemember, regexp.MustCompile(`\[REMEMBER:\s*(.*?)\s*\]`)},
	{KindDone, regexp.MustCompile(`\[DONE:\s*(.*?)\s*\]`)},
	{KindTodoDone, regexp.MustCompile(`\[TODO_DONE:\s*(.*?)\s*\]`)},
	{KindTodo, regexp.MustCompile(`\[TODO:\s*(.*?)\s*\]`)},
}

// Parse scans text for every recognized tag and returns them in the order
// they occur. The package keeps no parse state between calls, so the
// same compiled patterns are safe to reuse across concurrent callers.
func Parse(text string) []Tag {
	type match struct {
		start int
		tag   Tag
	}
	var all []match

	for _, p := range patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[0]:m[1]]
			tag := Tag{Kind: p.kind, Raw: raw}
			switch p.kind {
			case KindTask:
				tag.Desc = text[m[2]:m[3]]
				tag.Output = text[m[4]:m[5]]
				tag.Prompt = text[m[6]:m[7]]
			case KindCodeTask:
				tag.Cwd = text[m[2]:m[3]]
				tag.Prompt = text[m[4]:m[5]]
			case KindGoal:
				tag.Text = text[m[2]:m[3]]
				tag.Deadline = text[m[4]:m[5]]
			case KindRemember, KindDone, KindTodoDone, KindTodo:
				tag.Text = text[m[2]:m[3]]
			}
			all = append(all, match{start: m[0], tag: tag})
		}
	}

	// TASK and CODE_TASK patterns can never overlap with the single-field
	// tags (distinct literal keywords), so a stable sort by source
	// position recovers document order across kinds.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j-1].start > all[j].start; j-- {
			all[j-1], all[j] = all[j], all[j-1]
		}
	}

	tags := make([]Tag, len(all))
	for i, m := range all {
		tags[i] = m.tag
	}
	return tags
}

// ExternalOnly reports whether a Kind is handled exclusively by external
// collaborators (persistent-fact/to-do stores) per spec.md §1 and is
// never itself dispatched as a supervised task.
func (k Kind) ExternalOnly() bool {
	switch k {
	case KindRemember, KindGoal, KindDone, KindTodo, KindTodoDone:
		return true
	default:
		return false
	}
}

package supervisor

import (
	"os"
	"strings"

	"github.com/swarmcore/orchestrator/internal/intent"
)

// ProcessTaskIntents scans assistant-authored text for `[TASK: ...]` tags,
// registers a task for each, and replaces the literal tag with an
// acknowledgement, per spec.md §4.3.
func (r *Registry) ProcessTaskIntents(text, requester string) string {
	for _, tag := range intent.Parse(text) {
		if tag.Kind != intent.KindTask {
			continue
		}
		t, err := r.Register(RegisterOpts{
			Description: tag.Desc,
			OutputPath:  tag.Output,
			Prompt:      tag.Prompt,
			Requester:   requester,
		}, r.cfg.GlobalMax)
		if err != nil {
			continue
		}
		text = strings.Replace(text, tag.Raw, "Background task started: "+tag.Desc+" ("+t.ID+")", 1)
	}
	return text
}

// ProcessCodeTaskIntents scans for `[CODE_TASK: cwd=... | PROMPT: ...]`
// tags, verifies the working directory exists, and registers a code task
// for each.
func (r *Registry) ProcessCodeTaskIntents(text, requester string) string {
	for _, tag := range intent.Parse(text) {
		if tag.Kind != intent.KindCodeTask {
			continue
		}
		if _, err := os.Stat(tag.Cwd); err != nil {
			continue
		}
		t, err := r.RegisterCodeTask(RegisterOpts{
			Description: "code task in " + tag.Cwd,
			Prompt:      tag.Prompt,
			Cwd:         tag.Cwd,
			Requester:   requester,
		}, r.cfg.GlobalMax)
		if err != nil {
			continue
		}
		text = strings.Replace(text, tag.Raw, "Background task started: code task ("+t.ID+")", 1)
	}
	return text
}

package pipeline

import "strings"

type stage struct {
	name        Stage
	instruction string
	rules       []string
}

var stages = []stage{
	{
		name:        StageWriter,
		instruction: "Rewrite the following chapter to be more engaging, vivid, and atmospheric.",
		rules: []string{
			"Output only the rewritten story, nothing else.",
			"Do not include explanations or change logs.",
			"Preserve all characters, settings, and core plot events exactly.",
		},
	},
	{
		name:        StageEditor,
		instruction: "Edit the rewritten chapter below for clarity, grammar, flow, and consistency.",
		rules: []string{
			"Output only the edited story, nothing else.",
			"Do not include explanations or change logs.",
			"Preserve the style and plot from the writer’s version.",
		},
	},
	{
		name:        StageReviewer,
		instruction: "Review and polish the edited chapter for final publication quality.",
		rules: []string{
			"Output only the polished story, nothing else.",
			"Do not include comments, suggestions, or change logs.",
			"Retain the tone, character voices, and plot intact.",
		},
	},
}

// prompt appends text verbatim after the stage header and a blank line.
func (s stage) prompt(text string) string {
	var sb strings.Builder
	sb.WriteString(s.instruction)
	sb.WriteByte('\n')
	for _, r := range s.rules {
		sb.WriteString("— ")
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(text)
	return sb.String()
}

// Package postprocess removes common LLM artifacts from rewritten chapter text.
//
// It is applied to the raw text returned by every completion provider before a
// pipeline stage hands its output to the next stage.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes LLM artifacts from text in four phases and returns the
// trimmed result:
//  1. Thinking / reasoning block removal
//  2. Code fence removal
//  3. Instruction echo removal (prompt leakage)
//  4. Quote wrapping removal
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeCodeFences(text)
	text = removeInstructionEchoes(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// --- Phase 1: thinking blocks ---

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// RE2 has no backreferences, so every tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// --- Phase 2: code fences ---

// fenceOpenRe matches an opening fence with an optional info string
// (```markdown, ```text) on the first line.
var fenceOpenRe = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n")

func removeCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	inner := strings.TrimSuffix(text, "```")
	if loc := fenceOpenRe.FindStringIndex(inner); loc != nil {
		inner = inner[loc[1]:]
	} else {
		inner = strings.TrimPrefix(inner, "```")
	}
	return strings.TrimSpace(inner)
}

// --- Phase 3: instruction echoes ---

// echoPatterns match introductory phrases that LLMs sometimes prepend even
// when told to output only the story. Each pattern is anchored to the start
// of the string and requires a colon to reduce false positives on prose.
var echoPatterns = []*regexp.Regexp{
	// "Here is / Here's [the|your] [rewritten|edited|polished|revised|final] [version of the] chapter|story|text:"
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the| your)? (?:rewritten |edited |polished |revised |final )?(?:version of the )?(?:chapter|story|text|version)\s*:`),
	// "[The] [rewritten|edited|polished] chapter|story:"
	regexp.MustCompile(`(?i)^(?:the )?(?:rewritten|edited|polished|revised|final) (?:chapter|story|text|version)\s*:`),
	// "Certainly / Sure / Of course[,] here is [the] chapter:"
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]? here(?:'s| is)(?: the| your)? (?:rewritten |edited |polished |revised |final )?(?:version of the )?(?:chapter|story|text|version)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// --- Phase 4: quote wrapping ---

// quotePairs lists the wrapping pairs removed by removeQuoteWrapping:
//
//	"…"  '…'  «…»  “…”  ‘…’
var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
}

// removeQuoteWrapping strips a matching pair of outer quotes when the whole
// text is one quoted span. Prose that merely opens and closes with dialogue
// ("Run," she said. … "Now.") contains the same quote marks inside and is
// left alone.
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	for _, p := range quotePairs {
		if first != p[0] || last != p[1] {
			continue
		}
		inner := string(runes[1 : n-1])
		if strings.ContainsRune(inner, p[0]) || strings.ContainsRune(inner, p[1]) {
			return text
		}
		return strings.TrimSpace(inner)
	}
	return text
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/valpere/bookflow/internal/completion"
	"github.com/valpere/bookflow/internal/validator"
)

// markerCompleter appends the marker for the stage it recognises to the text
// embedded in the prompt, and records every prompt it receives.
type markerCompleter struct {
	mu      sync.Mutex
	prompts []string
	fail    map[int]error // call index -> error
	reply   map[int]string
}

func (m *markerCompleter) Name() string  { return "fake" }
func (m *markerCompleter) Model() string { return "fake-1" }

func (m *markerCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	call := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if err := m.fail[call]; err != nil {
		return "", err
	}
	if r, ok := m.reply[call]; ok {
		return r, nil
	}

	parts := strings.SplitN(prompt, "\n\n", 2)
	text := parts[len(parts)-1]
	switch {
	case strings.HasPrefix(prompt, "Rewrite the following chapter"):
		return text + "[writer]", nil
	case strings.HasPrefix(prompt, "Edit the rewritten chapter"):
		return text + "[editor]", nil
	case strings.HasPrefix(prompt, "Review and polish"):
		return text + "[reviewer]", nil
	}
	return "", errors.New("unrecognised prompt")
}

func newTestPipeline(c completion.Completer) *Pipeline {
	return New(c, validator.NewWithoutDetection(), zap.NewNop(), nil)
}

func TestRewrite_MarkerChain(t *testing.T) {
	fake := &markerCompleter{}
	p := newTestPipeline(fake)

	res, err := p.Rewrite(context.Background(), "Once upon a time.")
	require.NoError(t, err)

	assert.Equal(t, "Once upon a time.[writer]", res.Written)
	assert.Equal(t, "Once upon a time.[writer][editor]", res.Edited)
	assert.Equal(t, "Once upon a time.[writer][editor][reviewer]", res.Reviewed)
	assert.Len(t, fake.prompts, 3)
}

func TestRewrite_StageOrderAndVerbatimPrompts(t *testing.T) {
	fake := &markerCompleter{}
	p := newTestPipeline(fake)

	res, err := p.Rewrite(context.Background(), "The lighthouse keeper counted ships.")
	require.NoError(t, err)
	require.Len(t, fake.prompts, 3)

	assert.True(t, strings.HasPrefix(fake.prompts[0], "Rewrite the following chapter"))
	assert.True(t, strings.HasPrefix(fake.prompts[1], "Edit the rewritten chapter"))
	assert.True(t, strings.HasPrefix(fake.prompts[2], "Review and polish"))

	assert.True(t, strings.HasSuffix(fake.prompts[0], "\n\nThe lighthouse keeper counted ships."))
	assert.Contains(t, fake.prompts[1], res.Written)
	assert.Contains(t, fake.prompts[2], res.Edited)
}

func TestRewrite_PromptTemplates(t *testing.T) {
	fake := &markerCompleter{}
	p := newTestPipeline(fake)

	_, err := p.Rewrite(context.Background(), "X")
	require.NoError(t, err)

	want := "Rewrite the following chapter to be more engaging, vivid, and atmospheric.\n" +
		"— Output only the rewritten story, nothing else.\n" +
		"— Do not include explanations or change logs.\n" +
		"— Preserve all characters, settings, and core plot events exactly.\n" +
		"\n" +
		"X"
	assert.Equal(t, want, fake.prompts[0])
}

func TestRewrite_CompletionFailureStopsPipeline(t *testing.T) {
	cause := completion.ErrCompletionFailed
	fake := &markerCompleter{fail: map[int]error{1: cause}}
	p := newTestPipeline(fake)

	res, err := p.Rewrite(context.Background(), "Once upon a time.")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Len(t, fake.prompts, 2, "reviewer must not run after editor failure")

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageEditor, se.Stage)
	assert.ErrorIs(t, err, ErrStageFailed)
	assert.ErrorIs(t, err, completion.ErrCompletionFailed)
}

func TestRewrite_EmptyOutputIsFailure(t *testing.T) {
	fake := &markerCompleter{reply: map[int]string{0: "   \n"}}
	p := newTestPipeline(fake)

	res, err := p.Rewrite(context.Background(), "Once upon a time.")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Len(t, fake.prompts, 1)
	assert.ErrorIs(t, err, validator.ErrUnusable)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageWriter, se.Stage)
}

func TestRewrite_ArtifactOnlyOutputIsFailure(t *testing.T) {
	fake := &markerCompleter{reply: map[int]string{2: "<think>the text is fine</think>"}}
	p := newTestPipeline(fake)

	_, err := p.Rewrite(context.Background(), "Once upon a time.")
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageReviewer, se.Stage)
}

func TestRewrite_OpeningDialogueIsNotRefusal(t *testing.T) {
	opening := `"I cannot provide for you any longer," the old miller said, and turned back to the grindstone.`
	fake := &markerCompleter{reply: map[int]string{0: opening}}
	p := newTestPipeline(fake)

	res, err := p.Rewrite(context.Background(), "The miller sent his son away.")
	require.NoError(t, err)
	assert.Equal(t, opening, res.Written)
	assert.Len(t, fake.prompts, 3)
}

func TestRewrite_RefusalIsFailure(t *testing.T) {
	fake := &markerCompleter{reply: map[int]string{1: "I'm sorry, but I cannot provide an edited version."}}
	p := newTestPipeline(fake)

	_, err := p.Rewrite(context.Background(), "Once upon a time.")
	assert.ErrorIs(t, err, validator.ErrUnusable)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageEditor, se.Stage)
	assert.Len(t, fake.prompts, 2)
}

func TestRewrite_CleansStageOutput(t *testing.T) {
	fake := &markerCompleter{reply: map[int]string{0: "Here is the rewritten chapter:\n\nThe storm broke at dawn."}}
	p := newTestPipeline(fake)

	res, err := p.Rewrite(context.Background(), "A storm came.")
	require.NoError(t, err)
	assert.Equal(t, "The storm broke at dawn.", res.Written)
	assert.Contains(t, fake.prompts[1], "\n\nThe storm broke at dawn.")
}

func TestRewrite_EmptySourcePassesThrough(t *testing.T) {
	fake := &markerCompleter{}
	p := newTestPipeline(fake)

	res, err := p.Rewrite(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "[writer]", res.Written)
	assert.True(t, strings.HasSuffix(fake.prompts[0], "\n\n"))
}

func TestRewrite_CancelledContext(t *testing.T) {
	fake := &markerCompleter{}
	p := newTestPipeline(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Rewrite(ctx, "Once upon a time.")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrStageFailed)
	assert.Empty(t, fake.prompts)
}

func TestRewrite_Concurrent(t *testing.T) {
	fake := &markerCompleter{}
	p := newTestPipeline(fake)

	var wg sync.WaitGroup
	for _, src := range []string{"alpha", "beta", "gamma", "delta"} {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			res, err := p.Rewrite(context.Background(), src)
			if assert.NoError(t, err) {
				assert.Equal(t, src+"[writer][editor][reviewer]", res.Reviewed)
			}
		}(src)
	}
	wg.Wait()
	assert.Len(t, fake.prompts, 12)
}

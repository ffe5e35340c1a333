package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"synexis/internal/ask"
	"synexis/internal/extract"
	"synexis/internal/llm"
	"synexis/internal/logger"
)

func TestResolveQuestion(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "q.txt")
	require.NoError(t, os.WriteFile(txt, []byte("What is Go?"), 0o600))

	q, err := resolveQuestion([]string{"Why is the sky blue?"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Why is the sky blue?", q)

	q, err = resolveQuestion(nil, txt)
	require.NoError(t, err)
	assert.Equal(t, "What is Go?", q)

	_, err = resolveQuestion([]string{"q"}, txt)
	assert.Error(t, err)

	_, err = resolveQuestion(nil, "")
	assert.Error(t, err)

	_, err = resolveQuestion(nil, filepath.Join(dir, "q.odt"))
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)

	_, err = resolveQuestion(nil, filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunPrintsResult(t *testing.T) {
	a, b, judge := new(llm.MockClient), new(llm.MockClient), new(llm.MockClient)
	a.On("Complete", mock.Anything, mock.Anything).Return("answer a", nil).Once()
	b.On("Complete", mock.Anything, mock.Anything).Return("answer b", nil).Once()
	judge.On("Complete", mock.Anything, mock.Anything).Return(`{"better":"B","reason":"more complete"}`, nil).Once()

	p := ask.NewPipeline(
		ask.Provider{Name: "together", Client: a, Sentinel: "Error from Together.ai"},
		ask.Provider{Name: "llama", Client: b, Sentinel: "Error from LLaMA"},
		&ask.Arbiter{Client: judge},
		logger.Discard(),
	)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), p, "q", &out))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "answer a", got["together"])
	assert.Equal(t, "answer b", got["llama"])
	assert.Equal(t, map[string]any{"better": "B", "reason": "more complete", "preferred": "llama"}, got["ranking"])
}

func TestRunRejectsEmptyQuestion(t *testing.T) {
	a := new(llm.MockClient)
	p := ask.NewPipeline(ask.Provider{Client: a}, ask.Provider{Client: a}, &ask.Arbiter{Client: a}, logger.Discard())

	var out bytes.Buffer
	err := run(context.Background(), p, "", &out)

	var verr *ask.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, out.String())
	a.AssertNumberOfCalls(t, "Complete", 0)
}

func TestRootCmdRequiresQuestion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "a question or --file is required")
	assert.Empty(t, stdout.String())
}

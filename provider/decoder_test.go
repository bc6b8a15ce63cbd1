package provider

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainStream(t *testing.T, s Stream) (deltas []string, final Event) {
	t.Helper()
	ctx := context.Background()
	for {
		ev, ok, err := s.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok, "stream ended before a final event")
		if ev.Final {
			return deltas, ev
		}
		if ev.Text != "" {
			deltas = append(deltas, ev.Text)
		}
	}
}

func TestSSEDecoderOrderingAndFinal(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n" +
			"data: [DONE]\n",
	))
	deltas, final := drainStream(t, NewSSEDecoder(body))
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	assert.Equal(t, "Hello", final.Content)
	assert.NotNil(t, final.Raw)
}

func TestSSEDecoderConsolidatedFieldWins(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n" +
			"data: {\"choices\":[{\"message\":{\"content\":\"the real answer\"}}]}\n" +
			"data: [DONE]\n",
	))
	_, final := drainStream(t, NewSSEDecoder(body))
	assert.Equal(t, "the real answer", final.Content)
}

func TestSSEDecoderReasoningDeltas(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"reasoning\":\"thinking...\"}}]}\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"done\"}}]}\n" +
			"data: [DONE]\n",
	))
	d := NewSSEDecoder(body)
	ev, ok, err := d.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "thinking...", ev.Reasoning)
}

func TestSSEDecoderZeroDeltasStillFinal(t *testing.T) {
	body := io.NopCloser(strings.NewReader("data: [DONE]\n"))
	deltas, final := drainStream(t, NewSSEDecoder(body))
	assert.Empty(t, deltas)
	assert.True(t, final.Final)
	assert.Equal(t, "", final.Content)
}

func TestNDJSONDecoder(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"{\"message\":{\"content\":\"Hi\"},\"done\":false}\n" +
			"{\"message\":{\"content\":\"!\"},\"done\":false}\n" +
			"{\"done\":true}\n",
	))
	deltas, final := drainStream(t, NewNDJSONDecoder(body))
	assert.Equal(t, []string{"Hi", "!"}, deltas)
	assert.Equal(t, "Hi!", final.Content)
}

func TestDecoderCloseIsIdempotent(t *testing.T) {
	body := io.NopCloser(strings.NewReader("data: [DONE]\n"))
	d := NewSSEDecoder(body)
	assert.NoError(t, d.Close())
	assert.NoError(t, d.Close())
}

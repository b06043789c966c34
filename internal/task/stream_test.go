package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamOrderedDelivery(t *testing.T) {
	stream := NewStream(8)

	stream.Progress(10, "step one")
	stream.Progress(50, "step two")
	stream.Done("result-1")

	var got []Event
	for ev := range stream.Events() {
		got = append(got, ev)
	}

	require.Len(t, got, 3)
	assert.Equal(t, EventProgress, got[0].Type)
	assert.Equal(t, 10, got[0].Progress)
	assert.Equal(t, EventProgress, got[1].Type)
	assert.Equal(t, 50, got[1].Progress)
	assert.Equal(t, EventDone, got[2].Type)
	assert.Equal(t, "result-1", got[2].ResultID)
}

func TestStreamExactlyOneTerminalEvent(t *testing.T) {
	t.Run("done then fail ignores fail", func(t *testing.T) {
		stream := NewStream(4)
		stream.Done("result-1")
		stream.Fail("should be ignored")

		var got []Event
		for ev := range stream.Events() {
			got = append(got, ev)
		}
		require.Len(t, got, 1)
		assert.Equal(t, EventDone, got[0].Type)
	})

	t.Run("fail then done ignores done", func(t *testing.T) {
		stream := NewStream(4)
		stream.Fail("boom")
		stream.Done("should be ignored")

		var got []Event
		for ev := range stream.Events() {
			got = append(got, ev)
		}
		require.Len(t, got, 1)
		assert.Equal(t, EventError, got[0].Type)
		assert.Equal(t, "boom", got[0].Message)
	})

	t.Run("progress after terminal is dropped", func(t *testing.T) {
		stream := NewStream(4)
		stream.Done("result-1")
		stream.Progress(99, "too late")

		var got []Event
		for ev := range stream.Events() {
			got = append(got, ev)
		}
		require.Len(t, got, 1)
	})
}

func TestStreamNeverBlocksProducer(t *testing.T) {
	// Nobody consumes; buffer is tiny. The producer must still return from
	// every call and the terminal event must survive.
	stream := NewStream(2)

	for i := 0; i < 50; i++ {
		stream.Progress(i*2, "checkpoint")
	}
	stream.Done("result-1")

	var got []Event
	for ev := range stream.Events() {
		got = append(got, ev)
	}

	// Excess progress events were dropped, but the terminal arrived.
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, EventDone, last.Type)
	assert.Equal(t, "result-1", last.ResultID)
	assert.LessOrEqual(t, len(got), 2)
}

func TestStreamChannelClosesAfterTerminal(t *testing.T) {
	stream := NewStream(4)
	stream.Fail("boom")

	ev, open := <-stream.Events()
	require.True(t, open)
	assert.Equal(t, EventError, ev.Type)

	_, open = <-stream.Events()
	assert.False(t, open)
}

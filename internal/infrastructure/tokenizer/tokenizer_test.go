package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"

	"memvoice/internal/domain/memory"
)

func TestNew_UnknownEncoding(t *testing.T) {
	_, err := New("no_such_encoding")
	assert.Error(t, err)
}

func TestNewCounter(t *testing.T) {
	counter := NewCounter(DefaultEncoding, slog.Default())

	// словарь tiktoken качается из сети, в изолированной среде будет оценка
	if _, ok := counter.(memory.RuneCounter); ok {
		t.Log("tiktoken unavailable, using estimate")
	}

	assert.Equal(t, 0, counter.Count(""))
	assert.Greater(t, counter.Count("hello world, this is a memory"), 0)
}

func TestNewCounter_Fallback(t *testing.T) {
	counter := NewCounter("no_such_encoding", slog.Default())
	assert.IsType(t, memory.RuneCounter{}, counter)
}

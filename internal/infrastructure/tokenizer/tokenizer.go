package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/exp/slog"

	"memvoice/internal/domain/memory"
)

const DefaultEncoding = "cl100k_base"

// Tokenizer считает токены через tiktoken
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}

	return &Tokenizer{enc: enc}, nil
}

func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// NewCounter возвращает tiktoken, а если словарь не загрузился (нет сети) - оценку по символам
func NewCounter(encoding string, log *slog.Logger) memory.TokenCounter {
	tok, err := New(encoding)
	if err != nil {
		log.Warn("tokenizer unavailable, falling back to estimate", "error", err)
		return memory.RuneCounter{}
	}
	return tok
}

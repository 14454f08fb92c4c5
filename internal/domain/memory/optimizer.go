package memory

import "unicode/utf8"

// Optimizer сокращает текст перед индексацией и сообщает долю сэкономленных токенов
type Optimizer interface {
	Reduce(text string) (string, float64)
}

// TokenCounter считает токены текста
type TokenCounter interface {
	Count(text string) int
}

// IdentityOptimizer ничего не сокращает
type IdentityOptimizer struct{}

func (IdentityOptimizer) Reduce(text string) (string, float64) {
	return text, 0
}

// ReductionRatio = 1 - tokens(optimized)/tokens(original), в пределах [0,1]
func ReductionRatio(counter TokenCounter, original, optimized string) float64 {
	if original == "" || original == optimized {
		return 0
	}

	before := counter.Count(original)
	if before == 0 {
		return 0
	}

	ratio := 1 - float64(counter.Count(optimized))/float64(before)
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}
	return ratio
}

// RuneCounter - грубая оценка: один токен на четыре символа
type RuneCounter struct{}

func (RuneCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

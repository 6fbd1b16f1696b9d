package calc

import (
	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/logger"
)

// Evaluator evaluates expressions, optionally reusing the postfix form of
// expressions it has seen before. The zero value works without a cache.
type Evaluator struct {
	cache *PostfixCache
}

// NewEvaluator creates an evaluator with a postfix cache sized from the
// [Calculator] cache_size setting. A size of 0 disables caching.
func NewEvaluator() *Evaluator {
	size := configuration.GetInt("Calculator", "cache_size", 256)
	if size <= 0 {
		return &Evaluator{}
	}
	return &Evaluator{cache: NewPostfixCache(size)}
}

// NewEvaluatorWithCache uses the given cache, which may be nil.
func NewEvaluatorWithCache(cache *PostfixCache) *Evaluator {
	return &Evaluator{cache: cache}
}

// Evaluate turns an infix expression into its canonical result string.
func (e *Evaluator) Evaluate(expr string) (string, error) {
	postfix, err := e.compile(expr)
	if err != nil {
		logger.CalcDebug("tokenize %q failed: %v", expr, err)
		return "", err
	}

	value, err := EvalPostfix(postfix)
	if err != nil {
		logger.CalcDebug("evaluate %q failed: %v", expr, err)
		return "", err
	}

	result := FormatResult(value)
	logger.CalcDebug("%q = %s", expr, result)
	return result, nil
}

// CacheStats returns the cache counters, or zero values without a cache.
func (e *Evaluator) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

func (e *Evaluator) compile(expr string) ([]Token, error) {
	if e.cache != nil {
		if postfix, ok := e.cache.Get(expr); ok {
			return postfix, nil
		}
	}

	tokens, err := Tokenize(expr)
	if err != nil {
		return nil, err
	}
	postfix := ToPostfix(tokens)

	if e.cache != nil {
		e.cache.Put(expr, postfix)
	}
	return postfix, nil
}

// Evaluate evaluates expr without caching.
func Evaluate(expr string) (string, error) {
	var e Evaluator
	return e.Evaluate(expr)
}

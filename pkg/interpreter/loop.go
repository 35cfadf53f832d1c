package interpreter

import (
	"fmt"
	"strings"
)

type LoopMode string

const (
	// LoopFixed evaluates the condition once and the body a fixed number of
	// times without looking at the condition's value.
	LoopFixed LoopMode = "fixed"
	// LoopWhile re-evaluates the condition before every pass and stops once it
	// is not the integer 1.
	LoopWhile LoopMode = "while"
)

const DefaultLoopIterations = 4

type LoopPolicy struct {
	Mode LoopMode
	// Iterations is the body count for LoopFixed. Zero means the default.
	Iterations int
	// MaxIterations bounds LoopWhile. Zero disables the bound.
	MaxIterations int
}

func DefaultLoopPolicy() LoopPolicy {
	return LoopPolicy{Mode: LoopFixed, Iterations: DefaultLoopIterations}
}

// ParseLoopMode accepts "fixed" or "while", case-insensitively. An empty
// string selects LoopFixed.
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(LoopFixed):
		return LoopFixed, nil
	case string(LoopWhile):
		return LoopWhile, nil
	default:
		return "", fmt.Errorf("unknown loop mode %q (want fixed or while)", s)
	}
}

func (p LoopPolicy) Validate() error {
	if _, err := ParseLoopMode(string(p.Mode)); err != nil {
		return err
	}
	if p.Iterations < 0 {
		return fmt.Errorf("loop iterations must not be negative, got %d", p.Iterations)
	}
	if p.MaxIterations < 0 {
		return fmt.Errorf("loop max iterations must not be negative, got %d", p.MaxIterations)
	}
	return nil
}

func (p LoopPolicy) normalized() LoopPolicy {
	if mode, err := ParseLoopMode(string(p.Mode)); err == nil {
		p.Mode = mode
	}
	if p.Iterations <= 0 {
		p.Iterations = DefaultLoopIterations
	}
	if p.MaxIterations < 0 {
		p.MaxIterations = 0
	}
	return p
}

func (p LoopPolicy) String() string {
	if p.Mode == LoopWhile {
		if p.MaxIterations > 0 {
			return fmt.Sprintf("while (max %d)", p.MaxIterations)
		}
		return "while"
	}
	return fmt.Sprintf("fixed (%d)", p.Iterations)
}

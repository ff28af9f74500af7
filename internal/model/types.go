// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Operation is an exercise kind.
type Operation string

// Supported operations.
const (
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpMultiply Operation = "multiply"
	OpDivide   Operation = "divide"
	OpRoot     Operation = "root"
)

// Operations lists every supported operation in display order.
var Operations = []Operation{OpAdd, OpSubtract, OpMultiply, OpDivide, OpRoot}

// Label returns a human-readable name.
func (o Operation) Label() string {
	switch o {
	case OpAdd:
		return "Addition"
	case OpSubtract:
		return "Subtraction"
	case OpMultiply:
		return "Multiplication"
	case OpDivide:
		return "Division"
	case OpRoot:
		return "Square root"
	default:
		return string(o)
	}
}

// ParseOperation parses an operation name.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range Operations {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// ParseOperations parses a comma-separated operation list. Empty input yields nil.
func ParseOperations(s string) ([]Operation, error) {
	var ops []Operation
	seen := map[Operation]bool{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		op, err := ParseOperation(part)
		if err != nil {
			return nil, err
		}
		if seen[op] {
			continue
		}
		seen[op] = true
		ops = append(ops, op)
	}
	return ops, nil
}

// Difficulty selects the operand range.
type Difficulty string

// Supported difficulties.
const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists every difficulty in selector order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// Range is an inclusive integer range.
type Range struct {
	Min int
	Max int
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// RangeFor maps a difficulty to its operand range. Unknown values use easy.
func RangeFor(d Difficulty) Range {
	switch d {
	case Medium:
		return Range{Min: 11, Max: 50}
	case Hard:
		return Range{Min: 51, Max: 100}
	default:
		return Range{Min: 1, Max: 10}
	}
}

// Config defines practice settings from flags and the config file.
type Config struct {
	Operations      []Operation   `flag:"ops" validate:"dive,oneof=add subtract multiply divide root"`
	Difficulty      Difficulty    `flag:"difficulty" validate:"oneof=easy medium hard"`
	Duration        int           `flag:"duration" validate:"gte=1"`
	Countdown       int           `flag:"countdown" validate:"gte=0,lte=60"`
	Renderer        string        `flag:"renderer" validate:"oneof=unicode plain remote"`
	RendererURL     string        `flag:"renderer-url" validate:"required_if=Renderer remote,omitempty,url"`
	RendererTimeout time.Duration `flag:"renderer-timeout" validate:"gte=0"`
	LogLevel        string        `flag:"log-level" validate:"oneof=panic fatal error warn warning info debug trace"`
}

// SessionConfig is the immutable configuration of a running session.
type SessionConfig struct {
	Operations []Operation
	Difficulty Difficulty
	Range      Range
}

// Exercise is one generated question with its expected solution.
type Exercise struct {
	Operation Operation
	Operands  []int
	// Question is TeX source for the typeset renderer.
	Question string
	Solution float64
}

// Outcome is the graded result of one exercise.
type Outcome struct {
	Question string
	Answer   string
	Expected float64
	Correct  bool
	Text     string
}

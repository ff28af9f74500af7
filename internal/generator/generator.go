// Package generator builds randomized arithmetic exercises.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/tuimath/internal/model"
)

// Source supplies uniform random integers in [0, n).
type Source interface {
	Intn(n int) int
}

// Generator produces randomized exercises.
type Generator struct {
	rnd Source
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithSource returns a Generator drawing from src.
func NewWithSource(src Source) *Generator {
	return &Generator{rnd: src}
}

// Next picks an operation uniformly from cfg and draws its operands from cfg.Range.
func (g *Generator) Next(cfg model.SessionConfig) model.Exercise {
	op := cfg.Operations[g.rnd.Intn(len(cfg.Operations))]
	count := 2
	if op == model.OpRoot {
		count = 1
	}
	operands := make([]int, count)
	for i := range operands {
		operands[i] = g.draw(cfg.Range)
	}
	return Build(op, operands...)
}

func (g *Generator) draw(r model.Range) int {
	if r.Max < r.Min {
		return r.Min
	}
	return r.Min + g.rnd.Intn(r.Max-r.Min+1)
}

// Build constructs the question and solution for op from drawn operands.
// Missing operands are treated as zero.
func Build(op model.Operation, operands ...int) model.Exercise {
	a, b := operand(operands, 0), operand(operands, 1)
	ex := model.Exercise{Operation: op}
	switch op {
	case model.OpAdd:
		ex.Operands = []int{a, b}
		ex.Question = fmt.Sprintf("%d + %d", a, b)
		ex.Solution = float64(a + b)
	case model.OpSubtract:
		ex.Operands = []int{a, b}
		ex.Question = fmt.Sprintf("%d - %d", a, b)
		ex.Solution = float64(a - b)
	case model.OpMultiply:
		ex.Operands = []int{a, b}
		ex.Question = fmt.Sprintf("%d \\times %d", a, b)
		ex.Solution = float64(a * b)
	case model.OpDivide:
		// Displayed as (a*b)/a; neither factor may be zero.
		a, b = nonZero(a), nonZero(b)
		ex.Operands = []int{a, b}
		ex.Question = fmt.Sprintf("\\frac{%d}{%d}", a*b, a)
		ex.Solution = float64(b)
	case model.OpRoot:
		ex.Operands = []int{a}
		ex.Question = fmt.Sprintf("\\sqrt{%d}", a*a)
		if a < 0 {
			a = -a
		}
		ex.Solution = float64(a)
	}
	return ex
}

func operand(operands []int, i int) int {
	if i < len(operands) {
		return operands[i]
	}
	return 0
}

func nonZero(v int) int {
	if v == 0 {
		return 1
	}
	return v
}

package report

import (
	"fmt"
	"io"

	"github.com/verte-zerg/tuimath/internal/generator"
	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/session"
	"github.com/verte-zerg/tuimath/internal/typeset"
)

// Row is one display row of a finished session.
type Row struct {
	Index    int
	Question string
	Answer   string
	Outcome  string
}

// Rows renders each outcome's question through r.
func Rows(rec session.Record, r typeset.Renderer) []Row {
	rows := make([]Row, 0, len(rec.Outcomes))
	for i, o := range rec.Outcomes {
		question, _ := typeset.RenderOrSource(r, o.Question)
		rows = append(rows, Row{
			Index:    i + 1,
			Question: question,
			Answer:   o.Answer,
			Outcome:  o.Text,
		})
	}
	return rows
}

// Write prints the session summary followed by every outcome.
func Write(w io.Writer, rec session.Record, r typeset.Renderer) error {
	if _, err := fmt.Fprintln(w, "Session Ended"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, session.Summary(rec)); err != nil {
		return err
	}
	if rec.Total() == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	headers := []string{"#", "Exercise", "Answer", "Outcome"}
	rows := Rows(rec, r)
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			fmt.Sprintf("%d", row.Index),
			row.Question,
			row.Answer,
			row.Outcome,
		})
	}
	for _, line := range formatTable(headers, tableRows, map[int]bool{0: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteOperations lists operations and difficulty ranges.
func WriteOperations(w io.Writer) error {
	headers := []string{"Operation", "Name", "Example"}
	rows := make([][]string, 0, len(model.Operations))
	r := typeset.NewUnicode()
	for _, op := range model.Operations {
		ex := exampleFor(op)
		question, _ := typeset.RenderOrSource(r, ex.Question)
		rows = append(rows, []string{string(op), op.Label(), fmt.Sprintf("%s = %s", question, session.FormatNumber(ex.Solution))})
	}
	for _, line := range formatTable(headers, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	rows = rows[:0]
	for _, d := range model.Difficulties {
		rows = append(rows, []string{string(d), model.RangeFor(d).String()})
	}
	for _, line := range formatTable([]string{"Difficulty", "Range"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func exampleFor(op model.Operation) model.Exercise {
	switch op {
	case model.OpSubtract:
		return generator.Build(op, 9, 4)
	case model.OpMultiply:
		return generator.Build(op, 6, 7)
	case model.OpDivide:
		return generator.Build(op, 4, 5)
	case model.OpRoot:
		return generator.Build(op, 9)
	default:
		return generator.Build(op, 3, 4)
	}
}

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/tuimath/internal/generator"
	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/session"
	"github.com/verte-zerg/tuimath/internal/typeset"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"#", "Exercise", "Answer"}
	rows := [][]string{
		{"1", "3 × 4", "12"},
		{"10", "√81", "9"},
	}
	lines := formatTable(headers, rows, map[int]bool{0: true, 2: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != " #  Exercise  Answer" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != " 1  3 × 4         12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "10  √81            9" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func finishedRecord() session.Record {
	var rec session.Record
	for _, item := range []struct {
		ex    model.Exercise
		input string
	}{
		{generator.Build(model.OpAdd, 3, 4), "7"},
		{generator.Build(model.OpDivide, 6, 0), "6"},
	} {
		out := session.Grade(item.ex, item.input)
		rec.Outcomes = append(rec.Outcomes, out)
		if out.Correct {
			rec.Correct++
		}
	}
	return rec
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, finishedRecord(), typeset.NewUnicode()); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Session Ended",
		"You got 1 out of 2 correct.",
		"3 + 4",
		"6/6",
		"Correct",
		"Incorrect, the correct answer was: 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, session.Record{}, typeset.NewPlain()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "Session Ended\nYou got 0 out of 0 correct.\n" {
		t.Fatalf("unexpected empty report %q", buf.String())
	}
}

func TestWriteOperations(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOperations(&buf); err != nil {
		t.Fatalf("write operations: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"divide", "20/4 = 5", "√81 = 9", "medium", "11-50", "51-100"} {
		if !strings.Contains(out, want) {
			t.Fatalf("operations listing missing %q:\n%s", want, out)
		}
	}
}

// Package session implements the exercise session state machine.
//
// Every transition is a plain function from State to State so the flow can
// be driven by any scheduler, including tests that never wait on a clock.
package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/tuimath/internal/model"
)

// Default timings in seconds.
const (
	DefaultDuration  = 60
	DefaultCountdown = 3
)

// ErrNoOperations is returned when a session is started without operations.
var ErrNoOperations = errors.New("please select at least one type of exercise")

// Phase is the lifecycle stage of a session.
type Phase int

// Session phases.
const (
	Idle Phase = iota
	CountingDown
	Active
	Ended
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case CountingDown:
		return "counting-down"
	case Active:
		return "active"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Record is the ordered list of graded outcomes.
type Record struct {
	Outcomes []model.Outcome
	Correct  int
}

// Total returns the number of graded exercises.
func (r Record) Total() int {
	return len(r.Outcomes)
}

// State is a snapshot of a session.
type State struct {
	Phase     Phase
	Config    model.SessionConfig
	Duration  int
	Countdown int
	Remaining int
	Current   *model.Exercise
	Record    Record
}

// New returns an idle session with the given timings in seconds.
func New(duration, countdown int) State {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if countdown < 0 {
		countdown = 0
	}
	return State{Phase: Idle, Duration: duration, Countdown: countdown, Remaining: duration}
}

// Start validates the selection and moves an idle session into the countdown.
// On error the state is returned unchanged.
func Start(s State, ops []model.Operation, difficulty model.Difficulty) (State, error) {
	if s.Phase != Idle {
		return s, fmt.Errorf("cannot start session in phase %s", s.Phase)
	}
	if len(ops) == 0 {
		return s, ErrNoOperations
	}
	s.Config = model.SessionConfig{
		Operations: append([]model.Operation(nil), ops...),
		Difficulty: difficulty,
		Range:      model.RangeFor(difficulty),
	}
	s.Phase = CountingDown
	return s, nil
}

// Ready reports whether the countdown has finished and the session can begin.
func (s State) Ready() bool {
	return s.Phase == CountingDown && s.Countdown <= 0
}

// CountdownTick decrements the countdown by one second.
func CountdownTick(s State) State {
	if s.Phase != CountingDown || s.Countdown <= 0 {
		return s
	}
	s.Countdown--
	return s
}

// Begin activates a ready session and presents the first exercise.
func Begin(s State, first model.Exercise) State {
	if !s.Ready() {
		return s
	}
	s.Phase = Active
	s.Remaining = s.Duration
	s.Current = &first
	return s
}

// Tick decrements the remaining time. At zero the session ends and any
// unanswered exercise is dropped without being graded.
func Tick(s State) State {
	if s.Phase != Active {
		return s
	}
	s.Remaining--
	if s.Remaining <= 0 {
		s.Remaining = 0
		s.Phase = Ended
		s.Current = nil
	}
	return s
}

// Submit grades the current exercise against input and appends the outcome.
// The caller presents the next exercise when NeedsExercise reports true.
func Submit(s State, input string) (State, model.Outcome, bool) {
	if s.Phase != Active || s.Current == nil {
		return s, model.Outcome{}, false
	}
	outcome := Grade(*s.Current, input)
	s.Record.Outcomes = append(append([]model.Outcome(nil), s.Record.Outcomes...), outcome)
	if outcome.Correct {
		s.Record.Correct++
	}
	s.Current = nil
	return s, outcome, true
}

// NeedsExercise reports whether time remains and no exercise is showing.
func (s State) NeedsExercise() bool {
	return s.Phase == Active && s.Current == nil && s.Remaining > 0
}

// Present shows the next exercise.
func Present(s State, ex model.Exercise) State {
	if !s.NeedsExercise() {
		return s
	}
	s.Current = &ex
	return s
}

// Grade compares input with the exercise solution using exact equality.
// Input that does not parse as a number is graded incorrect.
func Grade(ex model.Exercise, input string) model.Outcome {
	value := ParseAnswer(input)
	outcome := model.Outcome{
		Question: ex.Question,
		Answer:   input,
		Expected: ex.Solution,
		Correct:  value == ex.Solution,
	}
	if outcome.Correct {
		outcome.Text = "Correct"
	} else {
		outcome.Text = fmt.Sprintf("Incorrect, the correct answer was: %s", FormatNumber(ex.Solution))
	}
	return outcome
}

// ParseAnswer parses a numeric answer, returning NaN when it is malformed.
func ParseAnswer(input string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatNumber renders a solution without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Summary returns the one-line score summary.
func Summary(r Record) string {
	return fmt.Sprintf("You got %d out of %d correct.", r.Correct, r.Total())
}

// Package tui provides the Bubble Tea exercise interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/session"
	"github.com/verte-zerg/tuimath/internal/typeset"
)

// ExerciseSource generates the next exercise for a session.
type ExerciseSource interface {
	Next(cfg model.SessionConfig) model.Exercise
}

// Scheduler delivers fn's message after d. tea.Tick is the production scheduler.
type Scheduler func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

type rendererReadyMsg struct {
	renderer typeset.Renderer
}

type countdownMsg struct {
	epoch int
}

type tickMsg struct {
	epoch int
}

const alertNoOperations = "Please select at least one type of exercise."

// submitZone marks the submit button for mouse hit-testing.
const submitZone = "submit"

// Model implements the Bubble Tea exercise UI.
type Model struct {
	config   model.Config
	gen      ExerciseSource
	renderer typeset.Renderer
	log      logrus.FieldLogger
	schedule Scheduler
	zones    *zone.Manager

	// epoch distinguishes timers of a restarted model from its predecessor.
	epoch         int
	rendererReady bool

	width  int
	height int

	checked    map[model.Operation]bool
	difficulty int
	focus      int
	alert      string

	state         session.State
	question      string
	answer        textinput.Model
	submitFocused bool

	results table.Model
}

// NewModel constructs an exercise TUI model in the setup phase.
func NewModel(cfg model.Config, gen ExerciseSource, renderer typeset.Renderer, log logrus.FieldLogger) *Model {
	return newModel(cfg, gen, renderer, log, zone.New())
}

func newModel(cfg model.Config, gen ExerciseSource, renderer typeset.Renderer, log logrus.FieldLogger, zones *zone.Manager) *Model {
	m := &Model{
		config:        cfg,
		gen:           gen,
		renderer:      renderer,
		log:           log,
		schedule:      tea.Tick,
		zones:         zones,
		rendererReady: renderer.Loaded(),
		checked:       map[model.Operation]bool{},
		state:         session.New(cfg.Duration, cfg.Countdown),
	}
	for _, op := range cfg.Operations {
		m.checked[op] = true
	}
	for i, d := range model.Difficulties {
		if d == cfg.Difficulty {
			m.difficulty = i
		}
	}
	m.answer = newAnswerInput()
	return m
}

// WithScheduler replaces the timer scheduler.
func (m *Model) WithScheduler(s Scheduler) *Model {
	m.schedule = s
	return m
}

func newAnswerInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "answer"
	input.CharLimit = 24
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.rendererReady {
		return nil
	}
	r, timeout, log := m.renderer, m.config.RendererTimeout, m.log
	return func() tea.Msg {
		return rendererReadyMsg{renderer: typeset.Ensure(context.Background(), r, timeout, log)}
	}
}

// Result returns the record of a finished session.
func (m *Model) Result() (session.Record, bool) {
	if m.state.Phase != session.Ended {
		return session.Record{}, false
	}
	return m.state.Record, true
}

// Renderer returns the renderer in use.
func (m *Model) Renderer() typeset.Renderer {
	return m.renderer
}

// Phase returns the current session phase.
func (m *Model) Phase() session.Phase {
	return m.state.Phase
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state.Phase == session.Ended {
			m.results = buildResultsTable(m.state.Record, m.renderer, m.height)
		}
		return m, nil
	case rendererReadyMsg:
		m.renderer = msg.renderer
		m.rendererReady = true
		if m.state.Ready() {
			return m, m.begin()
		}
		return m, nil
	case countdownMsg:
		if msg.epoch != m.epoch || m.state.Phase != session.CountingDown {
			return m, nil
		}
		m.state = session.CountdownTick(m.state)
		return m, m.afterCountdown()
	case tickMsg:
		if msg.epoch != m.epoch || m.state.Phase != session.Active {
			return m, nil
		}
		m.state = session.Tick(m.state)
		if m.state.Phase == session.Ended {
			m.finish()
			return m, nil
		}
		return m, m.scheduleTick()
	case tea.MouseMsg:
		if m.state.Phase == session.Active && m.alert == "" &&
			msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft &&
			m.onSubmitButton(msg) {
			return m, m.submit()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.alert != "" {
			return m.updateAlert(msg)
		}
		switch m.state.Phase {
		case session.Idle:
			return m.updateSetup(msg)
		case session.Active:
			return m.updateExercise(msg)
		case session.Ended:
			return m.updateReport(msg)
		}
		return m, nil
	}
	if m.state.Phase == session.Active && !m.submitFocused {
		var cmd tea.Cmd
		m.answer, cmd = m.answer.Update(msg)
		return m, cmd
	}
	return m, nil
}

// onSubmitButton reports whether msg lands on the last rendered submit button.
func (m *Model) onSubmitButton(msg tea.MouseMsg) bool {
	z := m.zones.Get(submitZone)
	return z != nil && z.InBounds(msg)
}

func (m *Model) updateAlert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.alert = ""
	}
	return m, nil
}

func (m *Model) setupRows() int {
	// Operations, then the difficulty selector, then the start button.
	return len(model.Operations) + 2
}

func (m *Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	difficultyRow := len(model.Operations)
	startRow := difficultyRow + 1
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k", "shift+tab":
		m.focus = (m.focus - 1 + m.setupRows()) % m.setupRows()
	case "down", "j", "tab":
		m.focus = (m.focus + 1) % m.setupRows()
	case "left", "h":
		m.cycleDifficulty(-1)
	case "right", "l":
		m.cycleDifficulty(1)
	case " ", "x":
		if m.focus < difficultyRow {
			m.toggle(model.Operations[m.focus])
		}
	case "s":
		return m, m.start()
	case "enter":
		switch {
		case m.focus < difficultyRow:
			m.toggle(model.Operations[m.focus])
		case m.focus == difficultyRow:
			m.cycleDifficulty(1)
		case m.focus == startRow:
			return m, m.start()
		}
	}
	return m, nil
}

func (m *Model) toggle(op model.Operation) {
	m.checked[op] = !m.checked[op]
}

func (m *Model) cycleDifficulty(delta int) {
	n := len(model.Difficulties)
	m.difficulty = (m.difficulty + delta + n) % n
}

func (m *Model) selectedOperations() []model.Operation {
	var ops []model.Operation
	for _, op := range model.Operations {
		if m.checked[op] {
			ops = append(ops, op)
		}
	}
	return ops
}

func (m *Model) start() tea.Cmd {
	next, err := session.Start(m.state, m.selectedOperations(), model.Difficulties[m.difficulty])
	if err != nil {
		if errors.Is(err, session.ErrNoOperations) {
			m.alert = alertNoOperations
		} else {
			m.log.WithError(err).Error("failed to start session")
		}
		return nil
	}
	m.state = next
	m.log.WithFields(logrus.Fields{
		"operations": m.state.Config.Operations,
		"difficulty": m.state.Config.Difficulty,
		"duration":   m.state.Duration,
	}).Info("session starting")
	return m.afterCountdown()
}

// afterCountdown schedules the next countdown step or begins the session.
func (m *Model) afterCountdown() tea.Cmd {
	if !m.state.Ready() {
		epoch := m.epoch
		return m.schedule(time.Second, func(time.Time) tea.Msg {
			return countdownMsg{epoch: epoch}
		})
	}
	if !m.rendererReady {
		return nil
	}
	return m.begin()
}

func (m *Model) begin() tea.Cmd {
	m.state = session.Begin(m.state, m.gen.Next(m.state.Config))
	m.showCurrent()
	return tea.Batch(m.scheduleTick(), m.answer.Focus())
}

func (m *Model) scheduleTick() tea.Cmd {
	epoch := m.epoch
	return m.schedule(time.Second, func(time.Time) tea.Msg {
		return tickMsg{epoch: epoch}
	})
}

func (m *Model) showCurrent() {
	m.answer.Reset()
	m.submitFocused = false
	if m.state.Current == nil {
		m.question = ""
		return
	}
	question, err := typeset.RenderOrSource(m.renderer, m.state.Current.Question)
	if err != nil {
		m.log.WithError(err).WithField("question", m.state.Current.Question).Debug("render failed")
	}
	m.question = question
	m.answer.Width = questionWidth(question)
}

func (m *Model) updateExercise(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m, m.submit()
	case tea.KeyTab, tea.KeyShiftTab:
		m.submitFocused = !m.submitFocused
		if m.submitFocused {
			m.answer.Blur()
			return m, nil
		}
		return m, m.answer.Focus()
	}
	if m.submitFocused {
		if msg.String() == " " {
			return m, m.submit()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.answer, cmd = m.answer.Update(msg)
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	next, outcome, graded := session.Submit(m.state, m.answer.Value())
	if !graded {
		return nil
	}
	m.state = next
	m.log.WithFields(logrus.Fields{
		"question": outcome.Question,
		"answer":   outcome.Answer,
		"correct":  outcome.Correct,
	}).Debug("exercise graded")
	if m.state.NeedsExercise() {
		m.state = session.Present(m.state, m.gen.Next(m.state.Config))
	}
	m.showCurrent()
	return m.answer.Focus()
}

func (m *Model) finish() {
	m.answer.Blur()
	m.question = ""
	m.results = buildResultsTable(m.state.Record, m.renderer, m.height)
	m.log.WithFields(logrus.Fields{
		"correct": m.state.Record.Correct,
		"total":   m.state.Record.Total(),
	}).Info("session ended")
}

func (m *Model) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "r":
		return m.restart()
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

// restart replaces the model with a freshly initialized one. Nothing from
// the finished session carries over except the loaded renderer.
func (m *Model) restart() (tea.Model, tea.Cmd) {
	next := newModel(m.config, m.gen, m.renderer, m.log, m.zones)
	next.schedule = m.schedule
	next.epoch = m.epoch + 1
	next.width = m.width
	next.height = m.height
	next.rendererReady = m.rendererReady
	return next, next.Init()
}

func timerReadout(remaining int) string {
	return fmt.Sprintf("Time Remaining: %d seconds", remaining)
}

func countdownText(n int) string {
	return fmt.Sprintf("Starting in %d...", n)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func joinLines(lines ...string) string {
	return strings.Join(lines, "\n")
}

// Package tui implements the Bubble Tea issue triage interface.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creativedesign-blip/document-review/internal/core/hitl"
	"github.com/creativedesign-blip/document-review/internal/core/styles"
	"github.com/creativedesign-blip/document-review/internal/docreview"
)

type mode int

const (
	modeList mode = iota
	modeFeedback
	modeHITL
)

// Model is the top-level Bubble Tea model for the triage view.
type Model struct {
	ctx   context.Context
	app   *docreview.App
	doc   *docreview.Document
	cards []*docreview.Card

	selected int
	width    int
	height   int
	mode     mode
	showHelp bool

	busy      bool
	statusMsg string

	spin  spinner.Model
	input textarea.Model
}

// New creates the triage model over an already-loaded document.
func New(ctx context.Context, app *docreview.App, doc *docreview.Document, cards []*docreview.Card) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.SubtitleStyle

	ta := textarea.New()
	ta.ShowLineNumbers = false

	return Model{
		ctx:   ctx,
		app:   app,
		doc:   doc,
		cards: cards,
		spin:  sp,
		input: ta,
	}
}

// Run loads the document and runs the triage TUI until quit.
func Run(ctx context.Context, app *docreview.App, docID string) error {
	doc, cards, err := app.OpenDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", docID, err)
	}

	m := New(ctx, app, doc, cards)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) card() *docreview.Card {
	if len(m.cards) == 0 {
		return nil
	}
	return m.cards[m.selected]
}

// Messages produced by async operations.
type (
	opDoneMsg struct {
		idx int
		err error
	}
	hitlStartedMsg struct {
		idx int
		err error
	}
	hitlDoneMsg struct {
		idx int
		err error
	}
	feedbackDoneMsg struct {
		idx int
		err error
	}
	reloadedMsg struct {
		doc   *docreview.Document
		cards []*docreview.Card
		err   error
	}
)

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(min(m.width-8, 76))
		m.input.SetHeight(8)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case opDoneMsg:
		return m.handleOpDone(msg)

	case hitlStartedMsg:
		m.busy = false
		if msg.err != nil {
			// Session returned to idle; the error is held by the session.
			return m, nil
		}
		m.mode = modeHITL
		m.input.SetValue(m.cards[msg.idx].Session().ArgsJSON())
		m.input.Focus()
		return m, nil

	case hitlDoneMsg:
		m.busy = false
		if msg.err == nil {
			m.mode = modeList
			m.input.Blur()
			m.statusMsg = "Action executed"
			return m, nil
		}
		if errors.Is(msg.err, hitl.ErrInvalidArgs) {
			// Local validation failure: keep the reviewer's text for fixing.
			return m, nil
		}
		// Server failure: session stays open with the original proposal.
		m.input.SetValue(m.cards[msg.idx].Session().ArgsJSON())
		return m, nil

	case feedbackDoneMsg:
		m.busy = false
		if msg.err == nil {
			m.mode = modeList
			m.input.Blur()
			m.statusMsg = "Feedback submitted"
		}
		return m, nil

	case reloadedMsg:
		m.busy = false
		if msg.err == nil {
			m.doc = msg.doc
			m.cards = msg.cards
			if m.selected >= len(m.cards) {
				m.selected = max(len(m.cards)-1, 0)
			}
			m.statusMsg = "Reloaded"
		} else {
			m.statusMsg = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeHITL:
			return m.updateHITL(msg)
		case modeFeedback:
			return m.updateFeedback(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, keys.Down):
		if m.selected < len(m.cards)-1 {
			m.selected++
			m.statusMsg = ""
		}

	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
			m.statusMsg = ""
		}

	case key.Matches(msg, keys.Accept):
		return m.startOp(func(ctx context.Context, card *docreview.Card) error {
			return card.Accept(ctx)
		})

	case key.Matches(msg, keys.Dismiss):
		return m.startOp(func(ctx context.Context, card *docreview.Card) error {
			return card.Dismiss(ctx)
		})

	case key.Matches(msg, keys.Edit):
		card := m.card()
		if card == nil || card.Issue().Reviewed() || m.busy {
			return m, nil
		}
		idx := m.selected
		m.busy = true
		m.statusMsg = ""
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			return hitlStartedMsg{idx: idx, err: card.StartEdit(m.ctx)}
		})

	case key.Matches(msg, keys.Feedback):
		card := m.card()
		if card == nil || !card.Review().FeedbackPromptOpen() {
			return m, nil
		}
		m.mode = modeFeedback
		m.input.SetValue("")
		m.input.Placeholder = "Why was this finding wrong, and how should it improve?"
		m.input.Focus()

	case key.Matches(msg, keys.Reload):
		if m.busy {
			return m, nil
		}
		m.busy = true
		// The command goroutine must not touch m.doc; the freshly loaded
		// document is installed by Update on the event loop.
		docID := m.doc.ID
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			doc, cards, err := m.app.OpenDocument(m.ctx, docID)
			if err != nil {
				return reloadedMsg{err: err}
			}
			return reloadedMsg{doc: doc, cards: cards}
		})
	}

	return m, nil
}

// startOp runs a mutating card operation asynchronously with the busy
// spinner ticking.
func (m Model) startOp(op func(context.Context, *docreview.Card) error) (tea.Model, tea.Cmd) {
	card := m.card()
	if card == nil || m.busy {
		return m, nil
	}
	idx := m.selected
	m.busy = true
	m.statusMsg = ""
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		return opDoneMsg{idx: idx, err: op(m.ctx, card)}
	})
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		// The state machine holds the display message.
		return m, nil
	}
	card := m.cards[msg.idx]
	if card.Review().FeedbackPromptOpen() {
		m.mode = modeFeedback
		m.input.SetValue("")
		m.input.Placeholder = "Why was this finding wrong, and how should it improve?"
		m.input.Focus()
	}
	return m, nil
}

func (m Model) updateHITL(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	card := m.card()

	switch {
	case key.Matches(msg, keys.Close):
		if card != nil {
			card.CancelEdit()
		}
		m.mode = modeList
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Approve), key.Matches(msg, keys.Execute):
		if card == nil || m.busy {
			return m, nil
		}
		kind := hitl.DecisionApprove
		if key.Matches(msg, keys.Execute) {
			kind = hitl.DecisionEdit
		}
		idx := m.selected
		argsText := m.input.Value()
		m.busy = true
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			return hitlDoneMsg{idx: idx, err: card.DecideEdit(m.ctx, kind, argsText)}
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateFeedback(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	card := m.card()

	switch {
	case key.Matches(msg, keys.Close):
		if card != nil {
			card.Review().CloseFeedbackPrompt()
		}
		m.mode = modeList
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Submit):
		if card == nil || m.busy {
			return m, nil
		}
		reason := m.input.Value()
		if reason == "" {
			return m, nil
		}
		idx := m.selected
		m.busy = true
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			return feedbackDoneMsg{idx: idx, err: card.SubmitFeedback(m.ctx, reason)}
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

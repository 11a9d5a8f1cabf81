package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AnatoleLucet/viewq"
)

type frameMsg time.Time

// frameRequestMsg is sent by the manager when a batch was dispatched.
type frameRequestMsg struct{}

type errMsg struct{ err error }

const frameInterval = 16 * time.Millisecond

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// model owns the ui goroutine: bubbletea calls Init, Update and View from
// its event loop, which is where frames are applied.
type model struct {
	mgr  *viewq.UIManager
	root viewq.Tag

	ticking   bool
	animating bool
	totals    viewq.FrameStats
	last      viewq.FrameStats
	profile   map[string]int64

	width int
	err   error
}

func newModel(mgr *viewq.UIManager, root viewq.Tag) model {
	return model{mgr: mgr, root: root, animating: true}
}

func (m model) Init() tea.Cmd {
	if err := m.mgr.AddRootView(m.root, viewq.NewMemoryView("RootView", m.root, nil)); err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.mgr.Close()
			return m, tea.Quit
		case "p":
			m.mgr.ProfileNextBatch()
		case "a":
			m.animating = !m.animating
			m.mgr.Batch(func() {
				_ = m.mgr.EnqueueSetLayoutAnimationEnabled(m.animating)
			})
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case frameRequestMsg:
		if m.ticking {
			return m, nil
		}
		m.ticking = true
		return m, nextFrame()

	case frameMsg:
		m.last = m.mgr.Frame(time.Time(msg))
		m.totals.Batches += m.last.Batches
		m.totals.Applied += m.last.Applied
		m.totals.Failed += m.last.Failed
		if m.last.Batches > 0 {
			m.profile = m.mgr.ProfiledBatchPerfCounters()
		}

		// keep ticking while batches are queued or animations run
		if m.mgr.NeedsFrame() {
			return m, nextFrame()
		}
		m.ticking = false
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		return errorStyle.Render("error: " + m.err.Error())
	}

	tree, err := m.mgr.Tree(m.root)
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	return renderScreen(screen{
		tree:      tree,
		totals:    m.totals,
		last:      m.last,
		roots:     m.mgr.RootViewNum(),
		views:     len(m.mgr.Tags()),
		animating: m.animating,
		profile:   m.profile,
		width:     m.width,
	})
}

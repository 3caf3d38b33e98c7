// Package tui is the interactive shopping list: a Bubble Tea program that
// renders item snapshots and turns key presses into mediator calls.
//
// The program never touches storage. Adds and removes are fire-and-forget;
// the list changes only when the next snapshot arrives from the stream.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/idilsaglam/shoplist/internal/model"
)

// Lister is the UI-facing side of the mediator.
type Lister interface {
	ObserveItems(ctx context.Context) (<-chan []model.Item, error)
	AddItem(name string)
	RemoveItem(item model.Item)
}

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	model.Item
}

func (i listItem) Title() string       { return i.Name }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Name }

type (
	snapshotMsg     []model.Item
	streamClosedMsg struct{}
	failureMsg      struct{ err error }
)

type modelTUI struct {
	list     list.Model
	lister   Lister
	items    <-chan []model.Item
	failures <-chan error

	// Inline add
	adding bool
	ti     textinput.Model // shared by add & edit
	addErr string

	// Inline edit: delete + insert
	editing  bool
	editItem model.Item
	editErr  string

	// Undo of the last removal re-inserts the name under a new id
	canUndo  bool
	undoName string

	width, height int
}

// Single-line delegate
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+mutedStyle.Render(bullet)+" "+it.Name)
}

// Run shows the list until the user quits or ctx is done. failures may be nil.
func Run(ctx context.Context, lister Lister, failures <-chan error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items, err := lister.ObserveItems(ctx)
	if err != nil {
		return fmt.Errorf("observe items: %w", err)
	}

	p := tea.NewProgram(newModel(lister, items, failures), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func newModel(lister Lister, items <-chan []model.Item, failures <-chan error) modelTUI {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = header(0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	removeBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove"))
	undoBind := key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo"))
	extra := func() []key.Binding { return []key.Binding{addBind, editBind, removeBind, undoBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New item name..."
	ti.CharLimit = 200

	w, h := terminalSize()
	m := modelTUI{
		list:     l,
		lister:   lister,
		items:    items,
		failures: failures,
		ti:       ti,
		width:    w,
		height:   h,
	}
	m.list.SetSize(m.listSize())
	return m
}

func header(n int) string {
	return fmt.Sprintf("%s   %s %d", titleStyle.Render("Shopping list"), accentStyle.Render("Items"), n)
}

func waitForItems(ch <-chan []model.Item) tea.Cmd {
	return func() tea.Msg {
		items, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(items)
	}
}

func waitForFailure(ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return failureMsg{err: err}
	}
}

func (m modelTUI) Init() tea.Cmd {
	return tea.Batch(waitForItems(m.items), waitForFailure(m.failures))
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.listSize())
		return m, nil
	case snapshotMsg:
		cmd := m.setItems(msg)
		return m, tea.Batch(cmd, waitForItems(m.items))
	case streamClosedMsg:
		return m, tea.Quit
	case failureMsg:
		cmd := m.list.NewStatusMessage(errorStyle.Render("✖ " + msg.err.Error()))
		return m, tea.Batch(cmd, waitForFailure(m.failures))
	}

	if m.adding {
		return m.updateAdding(msg)
	}
	if m.editing {
		return m.updateEditing(msg)
	}

	if k, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch k.String() {
		case "q":
			return m, tea.Quit
		case "esc":
			if m.list.FilterState() != list.FilterApplied {
				return m, tea.Quit
			}
		case "a":
			m.adding = true
			m.addErr = ""
			m.ti.SetValue("")
			m.ti.Placeholder = "New item name..."
			m.list.SetSize(m.listSize())
			return m, m.ti.Focus()
		case "e":
			if sel, ok := m.list.SelectedItem().(listItem); ok {
				m.editing = true
				m.editErr = ""
				m.editItem = sel.Item
				m.ti.SetValue(sel.Name)
				m.ti.CursorEnd()
				m.ti.Placeholder = "Edit item name..."
				m.list.SetSize(m.listSize())
				return m, m.ti.Focus()
			}
			return m, nil
		case "d":
			if sel, ok := m.list.SelectedItem().(listItem); ok {
				m.lister.RemoveItem(sel.Item)
				m.canUndo = true
				m.undoName = sel.Name
				return m, m.list.NewStatusMessage(mutedStyle.Render("removed " + sel.Name + " (u to undo)"))
			}
			return m, nil
		case "u":
			if m.canUndo {
				m.lister.AddItem(m.undoName)
				m.canUndo = false
				m.undoName = ""
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			name := strings.TrimSpace(m.ti.Value())
			if name == "" {
				m.addErr = "Name cannot be empty"
				return m, nil
			}
			m.lister.AddItem(name)
			m.adding = false
			m.closeInput()
			return m, nil
		case "esc":
			m.adding = false
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m modelTUI) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			name := strings.TrimSpace(m.ti.Value())
			if name == "" {
				m.editErr = "Name cannot be empty"
				return m, nil
			}
			if name != m.editItem.Name {
				m.lister.RemoveItem(m.editItem)
				m.lister.AddItem(name)
			}
			m.editing = false
			m.closeInput()
			return m, nil
		case "esc":
			m.editing = false
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *modelTUI) closeInput() {
	m.ti.SetValue("")
	m.ti.Blur()
	m.addErr = ""
	m.editErr = ""
	m.list.SetSize(m.listSize())
}

func (m *modelTUI) setItems(items []model.Item) tea.Cmd {
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, listItem{it})
	}
	m.list.Title = header(len(items))
	return m.list.SetItems(li)
}

// listSize is the list area inside the frame, minus the input bar if open.
func (m modelTUI) listSize() (int, int) {
	w, h := m.width-4, m.height-2
	if m.adding || m.editing {
		h -= 4
	}
	return max(w, 1), max(h, 1)
}

func (m modelTUI) View() string {
	content := m.list.View()
	if m.adding || m.editing {
		title := "Add new item"
		if m.editing {
			title = "Edit item"
		}
		if m.addErr != "" && m.adding {
			title += ": " + errorStyle.Render(m.addErr)
		}
		if m.editErr != "" && m.editing {
			title += ": " + errorStyle.Render(m.editErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	return frameStyle.Render(content)
}

func terminalSize() (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

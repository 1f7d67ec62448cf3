package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	watched   key.Binding
	watchlist key.Binding
	nextPage  key.Binding
	prevPage  key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		watched:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "watched")),
		watchlist: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "watchlist")),
		nextPage:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		prevPage:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev page")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.watched, k.watchlist},
		{k.nextPage, k.prevPage, k.quit},
	}
}

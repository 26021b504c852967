package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	// Timer
	Start, Stop, Pause, Submit key.Binding
	// Tasks
	New, Delete, Group, SetGroup, Detail key.Binding
	// Gantt
	Zoom, Today key.Binding

	Sync, Export key.Binding

	// Views holds one binding per entry of viewNames, on keys 1..n.
	Views []key.Binding
	Tab   key.Binding

	Help, Enter, Back     key.Binding
	Up, Down, Left, Right key.Binding
	Quit                  key.Binding
}

// bind is a binding whose help key is its first key.
func bind(desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], desc))
}

func viewBindings() []key.Binding {
	out := make([]key.Binding, len(viewNames))
	for i, name := range viewNames {
		k := strconv.Itoa(i + 1)
		out[i] = bind(strings.ToLower(name), k)
	}
	return out
}

var keys = keyMap{
	Start:  bind("start", "s"),
	Stop:   bind("stop", "x"),
	Pause:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
	Submit: bind("submit time", "u"),

	New:      bind("new task", "n"),
	Delete:   bind("delete local", "d"),
	Group:    bind("group mode", "g"),
	SetGroup: bind("set group", "G"),
	Detail:   bind("details", "i"),

	Zoom:  bind("zoom", "z"),
	Today: bind("today", "t"),

	Sync:   bind("sync", "r"),
	Export: bind("export", "e"),

	Views: viewBindings(),
	Tab:   bind("next view", "tab"),

	Help:  bind("help", "?"),
	Enter: bind("select", "enter"),
	Back:  bind("back", "esc"),
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Group, k.Start, k.Stop, k.Sync, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Pause, k.Submit},
		{k.New, k.Delete, k.Group, k.SetGroup, k.Detail},
		{k.Zoom, k.Today, k.Sync, k.Export},
		append(append([]key.Binding(nil), k.Views...), k.Tab),
		{k.Up, k.Down, k.Left, k.Right, k.Enter, k.Back, k.Quit},
	}
}

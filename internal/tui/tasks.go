package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
)

// groupMode selects how the task list is bucketed.
type groupMode int

const (
	groupNone groupMode = iota
	groupStatus
	groupCustom
)

var groupModeNames = []string{"tree", "by status", "by group"}

func (g groupMode) String() string { return groupModeNames[g] }

func (g groupMode) next() groupMode { return (g + 1) % groupMode(len(groupModeNames)) }

func (g groupMode) key() func(task.Task) string {
	if g == groupCustom {
		return hierarchy.ByCustomGroup
	}
	return hierarchy.ByStatus
}

// listItem is one line of the task list: a group header or a tree row.
type listItem struct {
	header string
	count  int
	open   bool
	row    hierarchy.Row
}

func (it listItem) isHeader() bool { return it.header != "" }

type tasksModel struct {
	store  *store.Store
	width  int
	height int

	tasks     []task.Task
	roots     []*hierarchy.Node
	expanded  hierarchy.ExpandSet[int64]
	groupOpen hierarchy.ExpandSet[string]
	mode      groupMode
	items     []listItem
	cursor    int

	showDetail bool

	formActive bool
	form       *huh.Form
	formType   string // "task", "group"

	// Form field pointers (survive value copies)
	formSubject *string
	formStart   *string
	formDue     *string
	formGroup   *string
	formChild   *bool
}

func newTasksModel(s *store.Store) tasksModel {
	subject, start, due, group, child := "", "", "", "", false
	return tasksModel{
		store:       s,
		expanded:    hierarchy.NewExpandSet[int64](),
		groupOpen:   hierarchy.NewExpandSet[string](),
		formSubject: &subject,
		formStart:   &start,
		formDue:     &due,
		formGroup:   &group,
		formChild:   &child,
	}
}

func (p *tasksModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type tasksDataMsg struct {
	tasks []task.Task
}

func (p tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, err := p.store.ListTasks(store.TaskFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load tasks: %v", err), isError: true}
		}
		return tasksDataMsg{tasks: tasks}
	}
}

// rebuild recomputes the visible items from tasks, the expand sets and the
// group mode. The expand sets are mutated in place, so copies of the model
// share them.
func (p *tasksModel) rebuild() {
	p.roots = hierarchy.Build(p.tasks)
	hierarchy.AutoExpand(p.expanded, p.roots)

	p.items = nil
	if p.mode == groupNone {
		for _, r := range hierarchy.Flatten(p.roots, p.expanded) {
			p.items = append(p.items, listItem{row: r})
		}
	} else {
		groups := hierarchy.GroupBy(p.tasks, p.mode.key())
		if p.groupOpen.Len() == 0 {
			for _, g := range groups {
				p.groupOpen.Expand(g.Key)
			}
		}
		for _, g := range groups {
			open := p.groupOpen.Has(g.Key)
			p.items = append(p.items, listItem{header: g.Key, count: len(g.Tasks), open: open})
			if !open {
				continue
			}
			for _, r := range hierarchy.Flatten(hierarchy.Build(g.Tasks), p.expanded) {
				p.items = append(p.items, listItem{row: r})
			}
		}
	}

	if p.cursor >= len(p.items) {
		p.cursor = max(0, len(p.items)-1)
	}
}

// selected returns the task under the cursor, or nil on a header or an
// empty list.
func (p tasksModel) selected() *task.Task {
	if p.cursor >= len(p.items) {
		return nil
	}
	it := p.items[p.cursor]
	if it.isHeader() {
		return nil
	}
	return &it.row.Node.Task
}

func (p tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		p.tasks = msg.tasks
		p.rebuild()
		return p, nil

	case tea.KeyMsg:
		return p.updateList(msg)
	}
	return p, nil
}

func (p tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		p.toggle()
	case key.Matches(msg, keys.Right):
		p.expand()
	case key.Matches(msg, keys.Left):
		p.collapse()
	case key.Matches(msg, keys.Group):
		p.mode = p.mode.next()
		p.cursor = 0
		p.rebuild()
	case key.Matches(msg, keys.Detail):
		p.showDetail = !p.showDetail
	case key.Matches(msg, keys.Start):
		if t := p.selected(); t != nil {
			id, subject := t.ID, t.Subject
			return p, func() tea.Msg { return trackTaskMsg{id: id, subject: subject} }
		}
	case key.Matches(msg, keys.New):
		return p.showNewTaskForm()
	case key.Matches(msg, keys.SetGroup):
		if p.selected() != nil {
			return p.showGroupForm()
		}
	case key.Matches(msg, keys.Delete):
		return p.deleteSelected()
	}
	return p, nil
}

func (p *tasksModel) toggle() {
	if p.cursor >= len(p.items) {
		return
	}
	it := p.items[p.cursor]
	if it.isHeader() {
		p.groupOpen.Toggle(it.header)
	} else if it.row.HasChildren {
		p.expanded.Toggle(it.row.Node.Task.ID)
	}
	p.rebuild()
}

func (p *tasksModel) expand() {
	if p.cursor >= len(p.items) {
		return
	}
	it := p.items[p.cursor]
	if it.isHeader() {
		p.groupOpen.Expand(it.header)
	} else if it.row.HasChildren {
		p.expanded.Expand(it.row.Node.Task.ID)
	}
	p.rebuild()
}

// collapse closes the node under the cursor, or moves to its parent row
// when it is already closed.
func (p *tasksModel) collapse() {
	if p.cursor >= len(p.items) {
		return
	}
	it := p.items[p.cursor]
	switch {
	case it.isHeader():
		p.groupOpen.Collapse(it.header)
	case it.row.Expanded:
		p.expanded.Collapse(it.row.Node.Task.ID)
	default:
		for i := p.cursor - 1; i >= 0; i-- {
			if p.items[i].isHeader() || p.items[i].row.Depth < it.row.Depth {
				p.cursor = i
				break
			}
		}
		return
	}
	p.rebuild()
}

func (p tasksModel) deleteSelected() (tasksModel, tea.Cmd) {
	t := p.selected()
	if t == nil {
		return p, nil
	}
	if t.ID > 0 {
		return p, func() tea.Msg {
			return statusMsg{text: "Redmine tasks are removed by syncing, not deleted here", isError: true}
		}
	}
	if err := p.store.DeleteTask(t.ID); err != nil {
		return p, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Delete: %v", err), isError: true}
		}
	}
	return p, func() tea.Msg { return tasksChangedMsg{} }
}

func validateDate(s string) error {
	if s == "" {
		return nil
	}
	if !task.ParseDate(s).Valid() {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func (p tasksModel) showNewTaskForm() (tasksModel, tea.Cmd) {
	*p.formSubject = ""
	*p.formStart = ""
	*p.formDue = ""
	*p.formChild = false
	p.formType = "task"

	fields := []huh.Field{
		huh.NewInput().Title("Subject").Value(p.formSubject).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("subject is required")
				}
				return nil
			}),
		huh.NewInput().Title("Start date").Placeholder("YYYY-MM-DD").Value(p.formStart).Validate(validateDate),
		huh.NewInput().Title("Due date").Placeholder("YYYY-MM-DD").Value(p.formDue).Validate(validateDate),
	}
	if sel := p.selected(); sel != nil {
		fields = append(fields,
			huh.NewConfirm().Title(fmt.Sprintf("Add under %q?", truncate(sel.Subject, 40))).Value(p.formChild))
	}

	p.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p tasksModel) showGroupForm() (tasksModel, tea.Cmd) {
	*p.formGroup = p.selected().Group
	p.formType = "group"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Group").Description("Leave empty to ungroup").Value(p.formGroup),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		var err error
		switch p.formType {
		case "task":
			err = p.saveNewTask()
		case "group":
			if sel := p.selected(); sel != nil {
				err = p.store.SetTaskGroup(sel.ID, strings.TrimSpace(*p.formGroup))
			}
		}
		if err != nil {
			return p, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Save: %v", err), isError: true}
			}
		}
		return p, func() tea.Msg { return tasksChangedMsg{} }
	}

	return p, cmd
}

func (p tasksModel) saveNewTask() error {
	t := task.Task{
		Subject:   strings.TrimSpace(*p.formSubject),
		StartDate: task.ParseDate(*p.formStart),
		DueDate:   task.ParseDate(*p.formDue),
	}
	if sel := p.selected(); sel != nil && *p.formChild {
		t.Parent = task.ParentID(sel.ID)
		t.Group = sel.Group
		p.expanded.Expand(sel.ID)
	}
	_, err := p.store.UpsertTask(t)
	return err
}

func (p tasksModel) view() string {
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Task")
		if p.formType == "group" {
			title = titleStyle.Render("Set Group")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View())
		return panelStyle.Width(p.width - 4).Render(content)
	}

	list := p.renderList()
	if p.showDetail {
		return lipgloss.JoinVertical(lipgloss.Left, list, p.renderDetail())
	}
	return list
}

func (p tasksModel) listHeight() int {
	h := p.height - 8
	if p.showDetail {
		h = h / 2
	}
	return max(h, 3)
}

func (p tasksModel) renderList() string {
	w := p.width - 4
	title := titleStyle.Render("Tasks") + mutedStyle.Render(fmt.Sprintf("  %d tasks · %s", len(p.tasks), p.mode))

	if len(p.items) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks yet. Press r to sync from Redmine or n to add a local task."),
		)
		return panelStyle.Width(w).Render(content)
	}

	visible := p.listHeight()
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	end := min(start+visible, len(p.items))

	rows := []string{title, ""}
	for i := start; i < end; i++ {
		rows = append(rows, p.renderItem(p.items[i], i == p.cursor, w-6))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: expand  g: group mode  G: set group  n: new  i: details  s: track"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p tasksModel) renderItem(it listItem, selected bool, w int) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}
	if it.isHeader() {
		marker := "▸"
		if it.open {
			marker = "▾"
		}
		line := fmt.Sprintf("%s%s %s (%d)", cursor, marker, it.header, it.count)
		if selected {
			return selectedItemStyle.Render(line)
		}
		return groupHeaderStyle.Render(line)
	}

	t := it.row.Node.Task
	marker := " "
	if it.row.HasChildren {
		marker = "▸"
		if it.row.Expanded {
			marker = "▾"
		}
	}

	info := fmt.Sprintf("%-12s %10s → %-10s %3d%%", truncate(t.StatusName, 12), t.StartDate, t.DueDate, t.DoneRatio)
	indent := strings.Repeat("  ", it.row.Depth)
	room := max(w-len(info)-len(indent)-8, 8)
	subject := truncate(t.Subject, room)

	style := normalItemStyle
	if selected {
		style = selectedItemStyle
	}
	left := style.Render(fmt.Sprintf("%s%s%s ", cursor, indent, marker)) + dot(t.StatusColor) + " " + style.Render(subject)
	gap := max(w-lipgloss.Width(left)-len(info), 1)
	return left + strings.Repeat(" ", gap) + mutedStyle.Render(info)
}

func (p tasksModel) renderDetail() string {
	w := p.width - 4
	t := p.selected()
	if t == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Select a task to see its details"))
	}

	id := fmt.Sprintf("#%d", t.ID)
	if t.ID < 0 {
		id = "local"
	}
	rows := []string{
		titleStyle.Render(t.Subject) + mutedStyle.Render("  "+id),
		"",
		fmt.Sprintf("%s %s   %s %s", mutedStyle.Render("Project:"), t.ProjectName, mutedStyle.Render("Status:"), t.StatusName),
		fmt.Sprintf("%s %s → %s   %s %d%%", mutedStyle.Render("Dates:"), t.StartDate, t.DueDate, mutedStyle.Render("Done:"), t.DoneRatio),
	}
	if t.EstimatedHours != nil {
		rows = append(rows, fmt.Sprintf("%s %.1fh", mutedStyle.Render("Estimate:"), *t.EstimatedHours))
	}
	if t.Group != "" {
		rows = append(rows, fmt.Sprintf("%s %s", mutedStyle.Render("Group:"), t.Group))
	}
	if desc := renderMarkdown(t.Description, w-6); desc != "" {
		rows = append(rows, "", desc)
	}
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

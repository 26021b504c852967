package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings []store.Setting
	holidays []calendar.Holiday
	cursor   int // selected holiday

	formActive bool
	form       *huh.Form
	formType   string // "settings", "holiday"

	// Form values as pointers (survive value copies)
	excludeSaturday *bool
	excludeSunday   *bool
	redmineURL      *string
	redmineKey      *string
	dailyGoal       *string
	timelineZoom    *string
	holidayDate     *string
	holidayName     *string
}

func newSettingsModel(s *store.Store) settingsModel {
	sat, sun := true, true
	url, apiKey, goal, zoom, hd, hn := "", "", "", "", "", ""
	return settingsModel{
		store:           s,
		excludeSaturday: &sat,
		excludeSunday:   &sun,
		redmineURL:      &url,
		redmineKey:      &apiKey,
		dailyGoal:       &goal,
		timelineZoom:    &zoom,
		holidayDate:     &hd,
		holidayName:     &hn,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	holidays []calendar.Holiday
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		holidays, _ := s.store.ListHolidays(time.Now().Year())
		return settingsDataMsg{settings: settings, holidays: holidays}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.holidays = msg.holidays
		if s.cursor >= len(s.holidays) {
			s.cursor = max(0, len(s.holidays)-1)
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showForm()
		case key.Matches(msg, keys.New):
			return s.showHolidayForm()
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.holidays)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if len(s.holidays) == 0 {
				return s, nil
			}
			if err := s.store.DeleteHoliday(s.holidays[s.cursor].ID); err != nil {
				return s, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("Delete holiday: %v", err), isError: true}
				}
			}
			return s, tea.Batch(s.refresh(), func() tea.Msg { return tasksChangedMsg{} })
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.excludeSaturday = s.getVal(store.KeyExcludeSaturday, "true") == "true"
	*s.excludeSunday = s.getVal(store.KeyExcludeSunday, "true") == "true"
	*s.redmineURL = s.getVal(store.KeyRedmineURL, "")
	*s.redmineKey = s.getVal(store.KeyRedmineAPIKey, "")
	*s.dailyGoal = secsToHours(s.getVal(store.KeyDailyGoal, "28800"))
	*s.timelineZoom = s.getVal(store.KeyTimelineZoom, "day")
	s.formType = "settings"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Exclude Saturdays").Value(s.excludeSaturday),
			huh.NewConfirm().Title("Exclude Sundays").Value(s.excludeSunday),
		).Title("Working days"),
		huh.NewGroup(
			huh.NewInput().Title("Redmine URL").Placeholder("https://redmine.example.com").Value(s.redmineURL),
			huh.NewInput().Title("API key").EchoMode(huh.EchoModePassword).Value(s.redmineKey),
		).Title("Redmine"),
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (hours)").Value(s.dailyGoal).
				Validate(func(v string) error {
					if _, err := strconv.ParseFloat(v, 64); err != nil {
						return errors.New("enter a number of hours")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Default timeline zoom").
				Options(
					huh.NewOption("Day", "day"),
					huh.NewOption("Week", "week"),
					huh.NewOption("Month", "month"),
				).Value(s.timelineZoom),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showHolidayForm() (settingsModel, tea.Cmd) {
	*s.holidayDate = ""
	*s.holidayName = ""
	s.formType = "holiday"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date").Placeholder("YYYY-MM-DD").Value(s.holidayDate).
				Validate(func(v string) error {
					if !task.ParseDate(v).Valid() {
						return errors.New("use YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewInput().Title("Name").Value(s.holidayName),
		).Title("New holiday"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		var err error
		if s.formType == "holiday" {
			_, err = s.store.AddHoliday(task.ParseDate(*s.holidayDate).Time(), strings.TrimSpace(*s.holidayName))
		} else {
			err = s.saveSettings()
		}
		if err != nil {
			return s, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Save: %v", err), isError: true}
			}
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return tasksChangedMsg{} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	return s.store.SetSettings(map[string]string{
		store.KeyExcludeSaturday: strconv.FormatBool(*s.excludeSaturday),
		store.KeyExcludeSunday:   strconv.FormatBool(*s.excludeSunday),
		store.KeyRedmineURL:      strings.TrimRight(strings.TrimSpace(*s.redmineURL), "/"),
		store.KeyRedmineAPIKey:   strings.TrimSpace(*s.redmineKey),
		store.KeyDailyGoal:       hoursToSecs(*s.dailyGoal),
		store.KeyTimelineZoom:    *s.timelineZoom,
	})
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		if s.formType == "holiday" {
			title = titleStyle.Render("Holidays")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"), "")
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "", titleStyle.Render(fmt.Sprintf("Holidays %d", time.Now().Year())))
	if len(s.holidays) == 0 {
		rows = append(rows, mutedStyle.Render("  None. Press n to add one or run planr holidays import."))
	}
	for i, h := range s.holidays {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s  %s", cursor, h.Date, h.Name)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("enter: edit settings  n: add holiday  d: delete holiday"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.KeyRedmineAPIKey:
		if v == "" {
			return "(not set)"
		}
		return strings.Repeat("•", min(len(v), 8))
	case store.KeyRedmineURL:
		if v == "" {
			return "(not set)"
		}
	case store.KeyDailyGoal:
		if secs, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%.1f hours", float64(secs)/3600)
		}
	}
	return v
}

func secsToHours(s string) string {
	if secs, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf("%.1f", float64(secs)/3600)
	}
	return s
}

func hoursToSecs(s string) string {
	if hours, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.Itoa(int(hours * 3600))
	}
	return s
}

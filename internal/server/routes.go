package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all routes for the application.
func RegisterRoutes(router *mux.Router, s *Server) {
	router.HandleFunc("/tasks", s.GetTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks", s.CreateTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/tree", s.GetTree).Methods(http.MethodGet)
	router.HandleFunc("/tasks/groups", s.GetGroups).Methods(http.MethodGet)
	router.HandleFunc("/tasks/reorder", s.ReorderTasks).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}", s.GetTask).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{taskID}/group", s.SetGroup).Methods(http.MethodPut)
	router.HandleFunc("/projects", s.GetProjects).Methods(http.MethodGet)

	router.HandleFunc("/links", s.GetLinks).Methods(http.MethodGet)
	router.HandleFunc("/links", s.CreateLink).Methods(http.MethodPost)
	router.HandleFunc("/links/{linkID}", s.DeleteLink).Methods(http.MethodDelete)

	router.HandleFunc("/gantt/layout", s.GetLayout).Methods(http.MethodGet)
	router.HandleFunc("/gantt.png", s.GetGanttPNG).Methods(http.MethodGet)

	router.HandleFunc("/holidays", s.GetHolidays).Methods(http.MethodGet)
	router.HandleFunc("/holidays", s.CreateHoliday).Methods(http.MethodPost)
	router.HandleFunc("/holidays/public", s.GetHolidays).Methods(http.MethodGet)
	router.HandleFunc("/holidays/import", s.ImportHolidays).Methods(http.MethodPost)
	router.HandleFunc("/holidays/settings", s.GetHolidaySettings).Methods(http.MethodGet)
	router.HandleFunc("/holidays/settings/public", s.GetHolidaySettings).Methods(http.MethodGet)
	router.HandleFunc("/holidays/settings", s.UpdateHolidaySettings).Methods(http.MethodPut)
	router.HandleFunc("/holidays/{holidayID}", s.DeleteHoliday).Methods(http.MethodDelete)

	router.HandleFunc("/workdays/due", s.GetDueDate).Methods(http.MethodGet)
	router.HandleFunc("/workdays/count", s.GetWorkingDays).Methods(http.MethodGet)
}

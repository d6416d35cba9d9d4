// Package view рендерит HTML-шаблоны и XML-представления задач.
package view

import (
	"net/http"

	"github.com/sun1tar/crm-tasks/internal/models"
	"github.com/sun1tar/crm-tasks/internal/settings"
)

// Имена шаблонов
const (
	TemplateIndex = "index"
	TemplateShow  = "show"
	TemplateNew   = "new"
	TemplateEdit  = "edit"
	TemplateLogin = "login"
	TemplateError = "error"
)

// Page - данные, которые хендлер отдаёт шаблону
type Page struct {
	Title       string
	Locale      string
	CurrentUser *models.User
	View        string
	Statuses    []string
	CSRFToken   string

	Task       *models.Task
	Tasks      []*models.Task
	Users      []*models.User
	DueDates   []settings.Option
	Categories map[string]string
	Totals     models.Totals

	Username string
	Error    string
}

type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, page *Page) error
}

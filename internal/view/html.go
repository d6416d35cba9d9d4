package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/sun1tar/crm-tasks/internal/models"
	"github.com/sun1tar/crm-tasks/internal/settings"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{TemplateIndex, TemplateShow, TemplateNew, TemplateEdit, TemplateLogin, TemplateError}

type HTML struct {
	templates map[string]*template.Template
}

// NewHTML разбирает встроенные шаблоны; каждая страница собирается вместе с layout
func NewHTML(printer *message.Printer, calendarWithTime bool) (*HTML, error) {
	funcs := template.FuncMap{
		"number": func(n int) string {
			return printer.Sprintf("%d", n)
		},
		"due": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			if calendarWithTime {
				return t.Format("2006-01-02 15:04")
			}
			return t.Format("2006-01-02")
		},
		// значение поля calendar в форме: время выводится, если оно есть у срока,
		// иначе повторное сохранение срежет его до полуночи
		"calendar": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			if calendarWithTime || t.Hour() != 0 || t.Minute() != 0 {
				return t.Format("2006-01-02 15:04")
			}
			return t.Format("2006-01-02")
		},
		"fullName": func(users []*models.User, id string) string {
			for _, u := range users {
				if u.ID == id {
					return u.FullName()
				}
			}
			return id
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"sortedCategories": settings.SortedCategories,
		"bucketTotal": func(totals models.Totals, bucket string) int {
			return totals[bucket]
		},
	}

	h := &HTML{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/form.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		h.templates[name] = tmpl
	}
	return h, nil
}

func (h *HTML) Render(w http.ResponseWriter, status int, name string, page *Page) error {
	tmpl, ok := h.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	// рендерим в буфер, чтобы ошибка шаблона не оставила полупустой ответ
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if page != nil && page.Locale != "" {
		w.Header().Set("Content-Language", page.Locale)
	}
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

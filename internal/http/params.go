package http

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/sun1tar/crm-tasks/internal/models"
)

const tasksURL = "/tasks"

func taskURL(task *models.Task) string {
	return tasksURL + "/" + url.PathEscape(task.ID)
}

type taskRequest struct {
	Task map[string]string `json:"task"`
}

// taskAttributes собирает поля задачи из task[...] формы или JSON {"task": {...}}.
// Отсутствующие атрибуты дают пустую, но не nil карту.
func taskAttributes(r *http.Request) (models.Attributes, error) {
	attrs := models.Attributes{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req taskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		for k, v := range req.Task {
			attrs[k] = v
		}
		return attrs, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	for key, values := range r.PostForm {
		name, ok := strings.CutPrefix(key, "task[")
		if !ok || !strings.HasSuffix(name, "]") || len(values) == 0 {
			continue
		}
		attrs[strings.TrimSuffix(name, "]")] = values[0]
	}
	return attrs, nil
}

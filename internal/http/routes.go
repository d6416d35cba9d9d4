package http

import "net/http"

// RegisterRoutes вешает действия над задачами на mux; wrap оборачивает каждое действие
// (в main это session.RequireUser)
func (h *TaskHandler) RegisterRoutes(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	route := func(pattern, name string, fn action) {
		mux.Handle(pattern, wrap(h.handle(name, fn)))
	}

	route("GET /tasks", "ListTasks", h.ListTasks)
	route("GET /tasks.xml", "ListTasks", h.ListTasks)
	route("GET /tasks/new", "NewTask", h.NewTask)
	route("POST /tasks", "CreateTask", h.CreateTask)
	route("GET /tasks/{id}", "GetTask", h.GetTask)
	route("GET /tasks/{id}/edit", "EditTask", h.EditTask)
	route("PUT /tasks/{id}", "UpdateTask", h.UpdateTask)
	route("PATCH /tasks/{id}", "UpdateTask", h.UpdateTask)
	route("PUT /tasks/{id}/complete", "CompleteTask", h.CompleteTask)
	route("DELETE /tasks/{id}", "DeleteTask", h.DeleteTask)
}

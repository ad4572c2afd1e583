package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"task_web/internal/htmx"
	"task_web/internal/logger"
	"task_web/internal/render"
	"task_web/internal/task"
)

const (
	tasksPath = "/tasks"
	pageTitle = "Tasks"

	msgTitleRequired = "Title is required."
	msgDeleted       = "Task deleted."
	msgNotDeleted    = "Could not delete task."
)

type TaskHandler struct {
	service  task.Service
	renderer render.Renderer
	log      logger.Logger
}

func NewTaskHandler(service task.Service, renderer render.Renderer, log logger.Logger) *TaskHandler {
	return &TaskHandler{
		service:  service,
		renderer: renderer,
		log:      log,
	}
}

func (h *TaskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("GET /healthz", h.health)

	mux.HandleFunc("GET /tasks", h.listTasks)
	mux.HandleFunc("POST /tasks", h.createTask)
	mux.HandleFunc("POST /tasks/{id}/delete", h.deleteTask)

	// Inline editing is not part of this version.
	mux.HandleFunc("GET /tasks/{id}/edit", h.notImplemented)
	mux.HandleFunc("POST /tasks/{id}/edit", h.notImplemented)
	mux.HandleFunc("GET /tasks/{id}/view", h.notImplemented)
}

func (h *TaskHandler) home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, tasksPath, http.StatusSeeOther)
}

func (h *TaskHandler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *TaskHandler) notImplemented(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
}

func (h *TaskHandler) listTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context()).With("where", "handler")

	tasks, err := h.service.ListTasks(r.Context())
	if err != nil {
		h.serverError(w, log, "handler: error listing tasks", err)
		return
	}

	page, err := h.renderer.Render(render.TemplateTasks, map[string]any{
		"title": pageTitle,
		"tasks": tasks,
	})
	if err != nil {
		h.serverError(w, log, "handler: error rendering task list", err)
		return
	}

	log.Info("handler: tasks listed", "count", len(tasks))
	if err := (htmx.Fragment{Status: http.StatusOK, HTML: page}).Write(w); err != nil {
		log.Warn("handler: error writing page", "error", err)
	}
}

func (h *TaskHandler) createTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context()).With("where", "handler")
	mode := htmx.ModeOf(r)

	created, err := h.service.CreateTask(r.Context(), r.PostFormValue("title"))
	switch {
	case errors.Is(err, task.ErrBlankTitle):
		log.Debug("handler: blank title rejected", "mode", mode.String())
		h.respond(w, log, mode, func() (htmx.Fragment, error) {
			status, err := h.status("error", msgTitleRequired)
			return htmx.Fragment{Status: http.StatusBadRequest, HTML: status}, err
		})
		return
	case err != nil:
		h.serverError(w, log, "handler: error creating task", err)
		return
	}

	log.Info("handler: task created", "id", created.ID, "mode", mode.String())
	h.respond(w, log, mode, func() (htmx.Fragment, error) {
		item, err := h.renderer.Render(render.TemplateTaskItem, map[string]any{"task": created})
		if err != nil {
			return htmx.Fragment{}, err
		}
		status, err := h.status("info", fmt.Sprintf("Task \"%s\" added.", created.Title))
		if err != nil {
			return htmx.Fragment{}, err
		}
		return htmx.Fragment{Status: http.StatusCreated, HTML: item + status}, nil
	})
}

// deleteTask treats an unparsable id the same as an id that does not exist.
func (h *TaskHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context()).With("where", "handler")
	mode := htmx.ModeOf(r)

	removed := false
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		log.Debug("handler: unparsable task id", "id", r.PathValue("id"))
	} else {
		removed, err = h.service.DeleteTask(r.Context(), id)
		if err != nil {
			h.serverError(w, log, "handler: error deleting task", err)
			return
		}
	}

	log.Info("handler: delete handled", "id", r.PathValue("id"), "removed", removed, "mode", mode.String())
	h.respond(w, log, mode, func() (htmx.Fragment, error) {
		msg := msgNotDeleted
		if removed {
			msg = msgDeleted
		}
		status, err := h.status("info", msg)
		return htmx.Fragment{Status: http.StatusOK, HTML: status}, err
	})
}

func (h *TaskHandler) respond(w http.ResponseWriter, log logger.Logger, mode htmx.Mode, build func() (htmx.Fragment, error)) {
	resp, err := htmx.Respond(mode, tasksPath, build)
	if err != nil {
		h.serverError(w, log, "handler: error rendering fragment", err)
		return
	}
	if err := resp.Write(w); err != nil {
		log.Warn("handler: error writing response", "error", err)
	}
}

func (h *TaskHandler) status(level, message string) (string, error) {
	return h.renderer.Render(render.TemplateTaskStatus, map[string]any{
		"level":   level,
		"message": message,
	})
}

func (h *TaskHandler) serverError(w http.ResponseWriter, log logger.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

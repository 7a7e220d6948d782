package handlers

import (
	"encoding/json"
	"net/http"

	"threadkit/pkg/logger"
	"threadkit/pkg/store"
	"threadkit/pkg/utils"
	"threadkit/pkg/validation"

	"github.com/gorilla/mux"
)

// RegisterTasks registers the global task routes on the provided router.
func RegisterTasks(r *mux.Router) {
	r.HandleFunc("/tasks", createTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks", listTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", getTask).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}/complete", completeTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}", deleteTask).Methods(http.MethodDelete)
}

// createTask handles POST /tasks. The optional thread field records which
// conversation created the task; it never scopes visibility.
func createTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title  string `json:"title"`
		Thread string `json:"thread,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateTaskTitle(body.Title); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := store.AddTask(body.Title, body.Thread)
	if err != nil {
		storeError(w, err)
		return
	}
	logger.Info("task_created", "task", t.ID)
	_ = utils.JSONWrite(w, http.StatusCreated, t)
}

// listTasks handles GET /tasks: the global task list, cursor paginated.
func listTasks(w http.ResponseWriter, r *http.Request) {
	cursor, limit, order := pageParams(r)
	page, err := store.ListTasks(cursor, limit, order)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, page)
}

func getTask(w http.ResponseWriter, r *http.Request) {
	t, err := store.GetTask(mux.Vars(r)["id"])
	if err != nil {
		storeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, t)
}

// completeTask handles POST /tasks/{id}/complete. Completion is idempotent;
// completing a completed task returns it unchanged.
func completeTask(w http.ResponseWriter, r *http.Request) {
	t, err := store.CompleteTask(mux.Vars(r)["id"])
	if err != nil {
		storeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, t)
}

// deleteTask handles DELETE /tasks/{id}. Deleting an absent task succeeds.
func deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteTask(mux.Vars(r)["id"]); err != nil && !isNotFound(err) {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

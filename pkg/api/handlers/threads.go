package handlers

import (
	"encoding/json"
	"net/http"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/store"
	"threadkit/pkg/utils"
	"threadkit/pkg/validation"

	"github.com/gorilla/mux"
)

// RegisterThreads registers thread and item routes on the provided router.
func RegisterThreads(r *mux.Router) {
	r.HandleFunc("/threads", createThread).Methods(http.MethodPost)
	r.HandleFunc("/threads", listThreads).Methods(http.MethodGet)

	r.HandleFunc("/threads/{id}", getThread).Methods(http.MethodGet)
	r.HandleFunc("/threads/{id}", updateThread).Methods(http.MethodPut)
	r.HandleFunc("/threads/{id}", deleteThread).Methods(http.MethodDelete)

	r.HandleFunc("/threads/{threadID}/items", createItem).Methods(http.MethodPost)
	r.HandleFunc("/threads/{threadID}/items", listItems).Methods(http.MethodGet)
	r.HandleFunc("/threads/{threadID}/items/{id}", getItem).Methods(http.MethodGet)
	r.HandleFunc("/threads/{threadID}/items/{id}", deleteItem).Methods(http.MethodDelete)
}

// createThread handles POST /threads. The body is optional thread metadata;
// a missing id is generated.
func createThread(w http.ResponseWriter, r *http.Request) {
	var t models.Thread
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil && err.Error() != "EOF" {
			utils.JSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if t.ID == "" {
		t.ID = utils.GenThreadID()
	}
	if err := store.SaveThread(t); err != nil {
		storeError(w, err)
		return
	}
	saved, err := store.LoadThread(t.ID)
	if err != nil {
		storeError(w, err)
		return
	}
	logger.Info("thread_created", "thread", saved.ID)
	_ = utils.JSONWrite(w, http.StatusCreated, saved)
}

// listThreads handles GET /threads with cursor pagination, most recently
// updated first by default.
func listThreads(w http.ResponseWriter, r *http.Request) {
	cursor, limit, order := pageParams(r)
	if r.URL.Query().Get("order") == "" {
		order = store.OrderDesc
	}
	page, err := store.ListThreads(cursor, limit, order)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, page)
}

// getThread handles GET /threads/{id}. Loading provisions the thread when
// absent, so this never 404s for a well-formed id.
func getThread(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	th, err := store.LoadThread(id)
	if err != nil {
		storeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, th)
}

// updateThread handles PUT /threads/{id}: metadata upsert. Creation time is
// preserved by the store.
func updateThread(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var t models.Thread
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	t.ID = id
	if err := store.SaveThread(t); err != nil {
		storeError(w, err)
		return
	}
	saved, err := store.LoadThread(id)
	if err != nil {
		storeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, saved)
}

// deleteThread handles DELETE /threads/{id}, cascading to the thread's items
// and attachments. Tasks survive.
func deleteThread(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := store.DeleteThread(id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createItem handles POST /threads/{threadID}/items: append (or upsert by
// id) one item.
func createItem(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadID"]
	var it models.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	it.Thread = threadID
	if it.Type == "" {
		it.Type = models.ItemUserMessage
	}
	if err := validation.ValidateItem(it); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := store.LoadThread(threadID); err != nil {
		storeError(w, err)
		return
	}
	if err := store.SaveItem(&it); err != nil {
		storeError(w, err)
		return
	}
	logger.Info("item_created", "thread", threadID, "item", it.ID)
	_ = utils.JSONWrite(w, http.StatusCreated, it)
}

// listItems handles GET /threads/{threadID}/items with cursor pagination in
// creation order.
func listItems(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadID"]
	cursor, limit, order := pageParams(r)
	page, err := store.ListItems(threadID, cursor, limit, order)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, page)
}

// getItem handles GET /threads/{threadID}/items/{id}. An item that exists
// under a different thread reports not found.
func getItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	it, err := store.GetItem(vars["id"])
	if err != nil {
		storeError(w, err)
		return
	}
	if it.Thread != vars["threadID"] {
		utils.JSONError(w, http.StatusNotFound, "not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, it)
}

// deleteItem handles DELETE /threads/{threadID}/items/{id}. Deleting an
// absent item succeeds.
func deleteItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	it, err := store.GetItem(vars["id"])
	if err == nil && it.Thread != vars["threadID"] {
		utils.JSONError(w, http.StatusNotFound, "not found")
		return
	}
	if err == nil {
		err = store.DeleteItem(vars["id"])
	}
	if err != nil && !isNotFound(err) {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

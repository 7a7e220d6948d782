package handlers

import (
	"encoding/json"
	"net/http"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/store"
	"threadkit/pkg/utils"

	"github.com/gorilla/mux"
)

// RegisterAttachments registers attachment routes on the provided router.
func RegisterAttachments(r *mux.Router) {
	r.HandleFunc("/attachments", createAttachment).Methods(http.MethodPost)
	r.HandleFunc("/attachments/{id}", getAttachment).Methods(http.MethodGet)
	r.HandleFunc("/attachments/{id}", deleteAttachment).Methods(http.MethodDelete)
	r.HandleFunc("/threads/{threadID}/attachments", listAttachments).Methods(http.MethodGet)
}

// createAttachment handles POST /attachments: register an attachment record
// under its thread.
func createAttachment(w http.ResponseWriter, r *http.Request) {
	var a models.Attachment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if a.Thread == "" {
		utils.JSONError(w, http.StatusBadRequest, "thread is required")
		return
	}
	if _, err := store.LoadThread(a.Thread); err != nil {
		storeError(w, err)
		return
	}
	if err := store.SaveAttachment(&a); err != nil {
		storeError(w, err)
		return
	}
	logger.Info("attachment_created", "thread", a.Thread, "attachment", a.ID)
	_ = utils.JSONWrite(w, http.StatusCreated, a)
}

func getAttachment(w http.ResponseWriter, r *http.Request) {
	a, err := store.GetAttachment(mux.Vars(r)["id"])
	if err != nil {
		storeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, a)
}

// deleteAttachment handles DELETE /attachments/{id}. Idempotent.
func deleteAttachment(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteAttachment(mux.Vars(r)["id"]); err != nil && !isNotFound(err) {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listAttachments(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadID"]
	atts, err := store.ListAttachments(threadID)
	if err != nil {
		storeError(w, err)
		return
	}
	if atts == nil {
		atts = []models.Attachment{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Attachments []models.Attachment `json:"attachments"`
	}{Attachments: atts})
}

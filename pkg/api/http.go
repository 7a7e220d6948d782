package api

import (
	"net/http"

	"threadkit/pkg/api/handlers"
	"threadkit/pkg/chat"
	"threadkit/pkg/config"

	"github.com/gorilla/mux"
)

// Handler assembles the /v1 API router.
func Handler(orch *chat.Orchestrator, cfg *config.Config) http.Handler {
	handlers.Init(orch, cfg)

	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterThreads(v1)
	handlers.RegisterTasks(v1)
	handlers.RegisterAttachments(v1)
	handlers.RegisterTurns(v1)
	return r
}

package runtime

import (
	"threadkit/pkg/models"
	"threadkit/pkg/store"
)

// StoreTasks adapts the global store to the TaskOps surface.
type StoreTasks struct{}

func (StoreTasks) Add(title, threadID string) (models.Task, error) {
	return store.AddTask(title, threadID)
}

func (StoreTasks) Complete(id string) (models.Task, error) {
	return store.CompleteTask(id)
}

func (StoreTasks) Delete(id string) error {
	return store.DeleteTask(id)
}

func (StoreTasks) List() ([]models.Task, error) {
	return store.ListAllTasks()
}

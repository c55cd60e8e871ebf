// Package api holds the document store's wire types and paths, shared by
// the server and the httpremote client.
package api

import "github.com/Makepad-fr/tada/internal/model"

const (
	PathTodos           = "/v1/todos"
	PathTodo            = "/v1/todos/{id}"
	PathTodosWatch      = "/v1/todos/watch"
	PathBatch           = "/v1/batch"
	PathCategories      = "/v1/categories"
	PathCategoriesWatch = "/v1/categories/watch"
	PathHealth          = "/healthz"
	PathMetrics         = "/metrics"
)

// CategoriesDoc is a user's single category document.
type CategoriesDoc struct {
	List []string `json:"list"`
}

// BatchRequest writes many items and, when Categories is non-empty, the
// category document in one call.
type BatchRequest struct {
	Items      []model.Item `json:"items"`
	Categories []string     `json:"categories,omitempty"`
}

// ItemsFrame is one message on the todos watch socket: a full snapshot, or
// an error in place of one.
type ItemsFrame struct {
	Items []model.Item `json:"items"`
	Error string       `json:"error,omitempty"`
}

// CategoriesFrame is one message on the categories watch socket.
type CategoriesFrame struct {
	List  []string `json:"list"`
	Error string   `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

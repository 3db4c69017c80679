package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	// List は利用可能な全カテゴリを返す。
	List(ctx context.Context) ([]string, error)
	// Add はカスタムカテゴリを追加する。
	Add(ctx context.Context, name string) error
	// Remove はカスタムカテゴリを削除する。
	Remove(ctx context.Context, name string) error
}

// CategoryHandler はカテゴリ管理のHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{
		service: service,
	}
}

// categoryListResponse はカテゴリ一覧のAPIレスポンス。
type categoryListResponse struct {
	Categories []string `json:"categories"`
}

// categoryRequest はカスタムカテゴリ追加リクエストのボディ。
type categoryRequest struct {
	Name string `json:"name"`
}

// ListCategories は利用可能な全カテゴリを取得する。
// GET /api/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(categoryListResponse{Categories: categories})
}

// AddCategory はカスタムカテゴリを追加する。
// POST /api/categories
func (h *CategoryHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.Add(r.Context(), req.Name); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// RemoveCategory はカスタムカテゴリを削除する。
// DELETE /api/categories/:name
func (h *CategoryHandler) RemoveCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.service.Remove(r.Context(), name); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

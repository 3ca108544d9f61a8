package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
)

// CategoryService implements the CategoryService RPC interface.
type CategoryService struct {
	store storage.CategoryStore
}

// NewCategoryService creates a new CategoryService with the given storage backend.
func NewCategoryService(store storage.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// ListCategories returns the caller's categories.
func (s *CategoryService) ListCategories(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.store.ListCategories(ctx, userID, storage.CategoryFilter{
		Description: strings.TrimSpace(req.Msg.Description),
		Page:        storage.Page{Offset: req.Msg.Offset, Limit: req.Msg.Limit},
	})
	if err != nil {
		return nil, toConnectError(slog.Default(), "ListCategories", err)
	}

	out := make([]*api.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, toAPICategory(c))
	}
	return connect.NewResponse(&api.ListCategoriesResponse{Categories: out}), nil
}

// CreateCategory adds a category. Descriptions are unique per user,
// ignoring case.
func (s *CategoryService) CreateCategory(ctx context.Context, req *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CategoryResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Msg.Description)
	slog.Info("CreateCategory request received", "user_id", userID, "description", description)
	if description == "" {
		return nil, invalid("description is required")
	}

	_, err = s.store.FindCategoryByDescription(ctx, userID, description)
	switch {
	case err == nil:
		return nil, connect.NewError(connect.CodeAlreadyExists,
			fmt.Errorf("category %s already exists", description))
	case !errors.Is(err, models.ErrNotFound):
		return nil, toConnectError(slog.Default(), "CreateCategory", err)
	}

	category := &models.Category{UserID: userID, Description: description}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, toConnectError(slog.Default(), "CreateCategory", err)
	}

	slog.Info("Category created", "category_id", category.ID)
	return connect.NewResponse(&api.CategoryResponse{Category: toAPICategory(category)}), nil
}

// DeleteCategory removes a category no debt references.
func (s *CategoryService) DeleteCategory(ctx context.Context, req *connect.Request[api.DeleteCategoryRequest]) (*connect.Response[api.MessageResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteCategory(ctx, userID, req.Msg.CategoryID); err != nil {
		return nil, toConnectError(slog.Default(), "DeleteCategory", err)
	}

	slog.Info("Category deleted", "category_id", req.Msg.CategoryID)
	return connect.NewResponse(&api.MessageResponse{Message: "Category has been deleted successfully."}), nil
}

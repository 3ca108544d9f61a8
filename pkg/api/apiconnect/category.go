package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
)

// CategoryServiceName is the fully-qualified name of the CategoryService service.
const CategoryServiceName = "debtcontrol.v1.CategoryService"

const (
	CategoryServiceListCategoriesProcedure = "/debtcontrol.v1.CategoryService/ListCategories"
	CategoryServiceCreateCategoryProcedure = "/debtcontrol.v1.CategoryService/CreateCategory"
	CategoryServiceDeleteCategoryProcedure = "/debtcontrol.v1.CategoryService/DeleteCategory"
)

// CategoryServiceHandler is implemented by the server side of CategoryService.
type CategoryServiceHandler interface {
	ListCategories(context.Context, *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error)
	CreateCategory(context.Context, *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CategoryResponse], error)
	DeleteCategory(context.Context, *connect.Request[api.DeleteCategoryRequest]) (*connect.Response[api.MessageResponse], error)
}

// NewCategoryServiceHandler builds an HTTP handler from the service implementation.
func NewCategoryServiceHandler(svc CategoryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		CategoryServiceListCategoriesProcedure: connect.NewUnaryHandler(CategoryServiceListCategoriesProcedure, svc.ListCategories, opts...),
		CategoryServiceCreateCategoryProcedure: connect.NewUnaryHandler(CategoryServiceCreateCategoryProcedure, svc.CreateCategory, opts...),
		CategoryServiceDeleteCategoryProcedure: connect.NewUnaryHandler(CategoryServiceDeleteCategoryProcedure, svc.DeleteCategory, opts...),
	}
	return "/" + CategoryServiceName + "/", router(routes)
}

// CategoryServiceClient is a client for the CategoryService service.
type CategoryServiceClient interface {
	ListCategories(context.Context, *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error)
	CreateCategory(context.Context, *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CategoryResponse], error)
	DeleteCategory(context.Context, *connect.Request[api.DeleteCategoryRequest]) (*connect.Response[api.MessageResponse], error)
}

type categoryServiceClient struct {
	listCategories *connect.Client[api.ListCategoriesRequest, api.ListCategoriesResponse]
	createCategory *connect.Client[api.CreateCategoryRequest, api.CategoryResponse]
	deleteCategory *connect.Client[api.DeleteCategoryRequest, api.MessageResponse]
}

// NewCategoryServiceClient constructs a client for the CategoryService service.
func NewCategoryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CategoryServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &categoryServiceClient{
		listCategories: connect.NewClient[api.ListCategoriesRequest, api.ListCategoriesResponse](httpClient, baseURL+CategoryServiceListCategoriesProcedure, opts...),
		createCategory: connect.NewClient[api.CreateCategoryRequest, api.CategoryResponse](httpClient, baseURL+CategoryServiceCreateCategoryProcedure, opts...),
		deleteCategory: connect.NewClient[api.DeleteCategoryRequest, api.MessageResponse](httpClient, baseURL+CategoryServiceDeleteCategoryProcedure, opts...),
	}
}

func (c *categoryServiceClient) ListCategories(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	return c.listCategories.CallUnary(ctx, req)
}

func (c *categoryServiceClient) CreateCategory(ctx context.Context, req *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CategoryResponse], error) {
	return c.createCategory.CallUnary(ctx, req)
}

func (c *categoryServiceClient) DeleteCategory(ctx context.Context, req *connect.Request[api.DeleteCategoryRequest]) (*connect.Response[api.MessageResponse], error) {
	return c.deleteCategory.CallUnary(ctx, req)
}

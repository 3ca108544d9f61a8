package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
)

// AuthServiceName is the fully-qualified name of the AuthService service.
const AuthServiceName = "debtcontrol.v1.AuthService"

const (
	AuthServiceRegisterProcedure          = "/debtcontrol.v1.AuthService/Register"
	AuthServiceLoginProcedure             = "/debtcontrol.v1.AuthService/Login"
	AuthServiceGetCurrentUserProcedure    = "/debtcontrol.v1.AuthService/GetCurrentUser"
	AuthServiceUpdateDeviceTokenProcedure = "/debtcontrol.v1.AuthService/UpdateDeviceToken"
	AuthServiceDeleteAccountProcedure     = "/debtcontrol.v1.AuthService/DeleteAccount"
)

// AuthServiceHandler is implemented by the server side of AuthService.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
	UpdateDeviceToken(context.Context, *connect.Request[api.UpdateDeviceTokenRequest]) (*connect.Response[api.MessageResponse], error)
	DeleteAccount(context.Context, *connect.Request[api.DeleteAccountRequest]) (*connect.Response[api.MessageResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		AuthServiceRegisterProcedure:          connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...),
		AuthServiceLoginProcedure:             connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
		AuthServiceGetCurrentUserProcedure:    connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...),
		AuthServiceUpdateDeviceTokenProcedure: connect.NewUnaryHandler(AuthServiceUpdateDeviceTokenProcedure, svc.UpdateDeviceToken, opts...),
		AuthServiceDeleteAccountProcedure:     connect.NewUnaryHandler(AuthServiceDeleteAccountProcedure, svc.DeleteAccount, opts...),
	}
	return "/" + AuthServiceName + "/", router(routes)
}

// AuthServiceClient is a client for the AuthService service.
type AuthServiceClient interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
	UpdateDeviceToken(context.Context, *connect.Request[api.UpdateDeviceTokenRequest]) (*connect.Response[api.MessageResponse], error)
	DeleteAccount(context.Context, *connect.Request[api.DeleteAccountRequest]) (*connect.Response[api.MessageResponse], error)
}

type authServiceClient struct {
	register          *connect.Client[api.RegisterRequest, api.AuthResponse]
	login             *connect.Client[api.LoginRequest, api.AuthResponse]
	getCurrentUser    *connect.Client[api.GetCurrentUserRequest, api.GetCurrentUserResponse]
	updateDeviceToken *connect.Client[api.UpdateDeviceTokenRequest, api.MessageResponse]
	deleteAccount     *connect.Client[api.DeleteAccountRequest, api.MessageResponse]
}

// NewAuthServiceClient constructs a client for the AuthService service.
// baseURL is the scheme and host of the server, e.g. http://localhost:8080.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &authServiceClient{
		register:          connect.NewClient[api.RegisterRequest, api.AuthResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:             connect.NewClient[api.LoginRequest, api.AuthResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		getCurrentUser:    connect.NewClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
		updateDeviceToken: connect.NewClient[api.UpdateDeviceTokenRequest, api.MessageResponse](httpClient, baseURL+AuthServiceUpdateDeviceTokenProcedure, opts...),
		deleteAccount:     connect.NewClient[api.DeleteAccountRequest, api.MessageResponse](httpClient, baseURL+AuthServiceDeleteAccountProcedure, opts...),
	}
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

func (c *authServiceClient) UpdateDeviceToken(ctx context.Context, req *connect.Request[api.UpdateDeviceTokenRequest]) (*connect.Response[api.MessageResponse], error) {
	return c.updateDeviceToken.CallUnary(ctx, req)
}

func (c *authServiceClient) DeleteAccount(ctx context.Context, req *connect.Request[api.DeleteAccountRequest]) (*connect.Response[api.MessageResponse], error) {
	return c.deleteAccount.CallUnary(ctx, req)
}

// router dispatches on the exact procedure path.
func router(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

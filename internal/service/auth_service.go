package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/Kleberson-Figueiredo/debt-control/internal/auth"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
)

const tokenType = "bearer"

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Register creates a new user account and signs the user in.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Register request", "username", req.Msg.Username)

	user, err := s.authenticator.Register(ctx, req.Msg.Username, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "username", req.Msg.Username, "error", err)
		return nil, toConnectError(s.logger, "Register", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, toConnectError(s.logger, "Register", err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "username", user.Username)
	return connect.NewResponse(&api.AuthResponse{
		User:      toAPIUser(user),
		Token:     token,
		TokenType: tokenType,
		ExpiresIn: int64(s.jwtManager.TokenDuration().Seconds()),
	}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Login request", "username", req.Msg.Username)

	if strings.TrimSpace(req.Msg.Username) == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "username", req.Msg.Username, "error", err)
		return nil, toConnectError(s.logger, "Login", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, toConnectError(s.logger, "Login", err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(&api.AuthResponse{
		User:      toAPIUser(user),
		Token:     token,
		TokenType: tokenType,
		ExpiresIn: int64(s.jwtManager.TokenDuration().Seconds()),
	}), nil
}

// GetCurrentUser returns the authenticated user's account.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetCurrentUser", err)
	}
	return connect.NewResponse(&api.GetCurrentUserResponse{User: toAPIUser(user)}), nil
}

// UpdateDeviceToken stores the push notification token of the caller's
// device. An empty token turns notifications off.
func (s *AuthService) UpdateDeviceToken(ctx context.Context, req *connect.Request[api.UpdateDeviceTokenRequest]) (*connect.Response[api.MessageResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(req.Msg.DeviceToken)
	if err := s.users.UpdateDeviceToken(ctx, userID, token); err != nil {
		return nil, toConnectError(s.logger, "UpdateDeviceToken", err)
	}

	s.logger.Info("Device token updated", "user_id", userID, "enabled", token != "")
	return connect.NewResponse(&api.MessageResponse{Message: "Device token updated"}), nil
}

// DeleteAccount removes the caller and everything the caller owns.
func (s *AuthService) DeleteAccount(ctx context.Context, req *connect.Request[api.DeleteAccountRequest]) (*connect.Response[api.MessageResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return nil, toConnectError(s.logger, "DeleteAccount", err)
	}

	s.logger.Info("Account deleted", "user_id", userID)
	return connect.NewResponse(&api.MessageResponse{Message: "Account deleted"}), nil
}

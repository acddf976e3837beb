package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/api/dto"
	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/authstate"
	"github.com/spec-kit/villa-web/internal/domain"
	"github.com/spec-kit/villa-web/pkg/util/errorutil"
)

// Login page messages.
const (
	MsgInvalidForm     = "Enter a valid email and a password of at least 6 characters"
	MsgServerError     = "Server error, try again later"
	MsgBadCredentials  = "Email or password may be incorrect"
	MsgUnexpectedError = "Something went wrong, please try again"
)

// AccountAPI is the part of the villa API that deals with accounts.
type AccountAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, username, email, password string) (string, error)
	Profile(ctx context.Context, token string) (*domain.User, error)
}

// SessionService signs users in and out of an auth State.
type SessionService struct {
	api      AccountAPI
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(api AccountAPI, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{api: api, validate: validate, logger: logger}
}

// Login validates the form, exchanges it for a credential and stores it in
// state. API errors are returned as-is so callers can tell a
// *apiclient.NetworkError from a *apiclient.HTTPError.
func (s *SessionService) Login(ctx context.Context, state *authstate.State, req dto.LoginRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return errorutil.NewValidationError("invalid login form", errorutil.FieldErrors(err))
	}

	token, err := s.api.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Info("login rejected", zap.Bool("network", apiclient.IsNetwork(err)), zap.Error(err))
		return err
	}

	if err := state.SetCredentials(ctx, token); err != nil {
		return errorutil.NewInternalError(err)
	}
	s.logger.Info("signed in", zap.String("role", state.Snapshot().Role.String()))
	return nil
}

// Logout clears the credential from state.
func (s *SessionService) Logout(ctx context.Context, state *authstate.State) error {
	return state.Logout(ctx)
}

// Register creates an account and returns the activation token.
func (s *SessionService) Register(ctx context.Context, req dto.RegisterRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", errorutil.NewValidationError("invalid registration form", errorutil.FieldErrors(err))
	}
	return s.api.Register(ctx, req.Username, req.Email, req.Password)
}

// Profile loads the signed-in account.
func (s *SessionService) Profile(ctx context.Context, snap authstate.Snapshot) (*domain.User, error) {
	if !snap.IsLoggedIn {
		return nil, errorutil.NewUnauthorized("not signed in")
	}
	return s.api.Profile(ctx, snap.Token)
}

// LoginMessage picks the message shown on the login page for err.
func LoginMessage(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *errorutil.DomainError
	if errors.As(err, &domainErr) && domainErr.Code == "VALIDATION_FAILED" {
		return MsgInvalidForm
	}
	if apiclient.IsNetwork(err) {
		return MsgServerError
	}
	if status, ok := apiclient.StatusOf(err); ok {
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
			return MsgBadCredentials
		}
		if status >= http.StatusInternalServerError {
			return MsgServerError
		}
	}
	return MsgUnexpectedError
}

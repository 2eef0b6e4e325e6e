package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidParameter is the cause carried by a ServiceError when a screen's
// parameter fails its business check.
var ErrInvalidParameter = errors.New("invalid parameter")

// ServiceError is a business-rule failure. Screens show it in place instead of
// sending the user to the shared error page; Code is a message code.
type ServiceError struct {
	Code string
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// AsServiceError reports whether err carries a ServiceError.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ParameterService runs the single-parameter business action of a screen.
type ParameterService struct {
	screenID string
	code     string
	logger   *slog.Logger
}

// NewPurchaseService creates the service behind the purchase screen (VA0101)
func NewPurchaseService(logger *slog.Logger) *ParameterService {
	return &ParameterService{screenID: "VA0101", code: "VA001", logger: logger}
}

// NewSampleService creates the service behind the sample screen (VB0101)
func NewSampleService(logger *slog.Logger) *ParameterService {
	return &ParameterService{screenID: "VB0101", code: "VB001", logger: logger}
}

func (s *ParameterService) ScreenID() string {
	return s.screenID
}

// Execute rejects a blank parameter with a ServiceError.
func (s *ParameterService) Execute(ctx context.Context, parameter string) error {
	if parameter == "" {
		return &ServiceError{Code: s.code, Err: ErrInvalidParameter}
	}

	s.logger.InfoContext(ctx, "screen action executed",
		slog.String("screen_id", s.screenID),
		slog.Int("parameter_len", len(parameter)))
	return nil
}

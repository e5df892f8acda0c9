// Package services implements Worknest's business operations. Each operation
// loads the acting user, asks the authz package for a decision, talks to the
// repositories and returns a Result that the HTTP layer turns into the
// response envelope. Services never write HTTP responses themselves.
package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/telemetry"
)

// Result is the outcome of a service operation.
type Result struct {
	Success bool
	Status  int
	Message string
	Data    interface{}
	// Err is the underlying cause of an internal failure. It is logged and
	// only exposed to clients when traces are enabled.
	Err error
}

// Response messages shared by the services.
const (
	MsgSuccess                 = "The operation has been successful"
	MsgSomethingWentWrong      = "Something went wrong"
	MsgUnauthorized            = "Unauthorized"
	MsgInvalidRequest          = "Invalid request"
	MsgInvalidConfirmationLink = "Invalid confirmation link"
	MsgAccountAlreadyConfirmed = "Account already confirmed"
	MsgEmailVerified           = "Email verified"
	MsgInvalidPassword         = "Invalid password"
	MsgWrongOldPassword        = "Old password is incorrect"
	MsgPasswordsDoNotMatch     = "New password and confirm password do not match"
	MsgPasswordUnchanged       = "New password must be different from the old password"
	MsgPasswordChanged         = "Password changed"
	MsgInvalidRefreshToken     = "Invalid refresh token"
	MsgLoggedOut               = "Logged out"
	MsgConcurrentModification  = "The project was modified concurrently, please retry"
	MsgInvalidEmployeeRole     = "Role must be Organisation User or Organisation Manager"
	MsgEndDateBeforeStartDate  = "End date must not be before start date"
	MsgOtherTypeRequired       = "Other type is required when project type is Other"
)

// payload is the data object of a successful Result.
type payload map[string]interface{}

// NotFound builds the "<entity> not found" message
func NotFound(entity string) string { return entity + " not found" }

// AlreadyInUse builds the "<field> already in use" message
func AlreadyInUse(field string) string { return field + " already in use" }

func success(status int, message string, data interface{}) Result {
	return Result{Success: true, Status: status, Message: message, Data: data}
}

func failure(status int, message string) Result {
	return Result{Status: status, Message: message}
}

// internalError logs err and hides it behind the generic message.
func internalError(op string, err error) Result {
	wrapped := fmt.Errorf("failed to %s: %w", op, err)
	slog.Error("service operation failed", "op", op, "error", err)
	return Result{Status: http.StatusInternalServerError, Message: MsgSomethingWentWrong, Err: wrapped}
}

// denied maps an authz decision error to a Result and counts denials by action.
func denied(action string, err error) Result {
	if errors.Is(err, authz.ErrInvalid) {
		return failure(http.StatusBadRequest, MsgInvalidRequest)
	}
	telemetry.AuthorizationDenialsTotal.WithLabelValues(action).Inc()
	return failure(http.StatusUnauthorized, MsgUnauthorized)
}

// Package response writes the JSON envelope every Worknest endpoint returns:
//
//	{"success":true,"statusCode":200,"request":{"method":"GET","url":"/..."},"message":"...","data":{...}}
//
// Errors carry "data":null and, when traces are exposed, a "trace" object with
// the underlying error text.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/worknest/worknest/internal/services"
)

// Request echoes the method and URL of the call.
type Request struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// Trace carries the error text of a failed request in development.
type Trace struct {
	Error string `json:"error"`
}

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Request    Request     `json:"request"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Trace      *Trace      `json:"trace,omitempty"`
}

// Writer builds envelopes. ExposeTraces mirrors server.expose_traces.
type Writer struct {
	ExposeTraces bool
}

func request(c *gin.Context) Request {
	return Request{Method: c.Request.Method, URL: c.Request.URL.RequestURI()}
}

// Success writes a successful envelope.
func (w Writer) Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{
		Success:    true,
		StatusCode: status,
		Request:    request(c),
		Message:    message,
		Data:       data,
	})
}

// Error writes a failed envelope. A non-nil err is attached as a trace when
// traces are exposed. 500s are reported to Sentry and always use the generic
// message.
func (w Writer) Error(c *gin.Context, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		message = services.MsgSomethingWentWrong
		if err != nil {
			capture(c, err)
		}
	}
	env := Envelope{
		StatusCode: status,
		Request:    request(c),
		Message:    message,
	}
	if err != nil && w.ExposeTraces {
		env.Trace = &Trace{Error: err.Error()}
	}
	c.AbortWithStatusJSON(status, env)
}

// FromResult writes the envelope for a service Result.
func (w Writer) FromResult(c *gin.Context, res services.Result) {
	if res.Success {
		w.Success(c, res.Status, res.Message, res.Data)
		return
	}
	w.Error(c, res.Status, res.Message, res.Err)
}

// BindError writes the 422 for a failed ShouldBind. Field violations are listed
// as "field: rule"; anything else (malformed JSON) is reported as is.
func (w Writer) BindError(c *gin.Context, err error) {
	w.Error(c, http.StatusUnprocessableEntity, ValidationMessage(err), nil)
}

// ValidationMessage flattens validator errors into "field: rule, field: rule".
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Sprintf("Invalid request body: %v", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fieldPath(fe)+": "+rule)
	}
	return strings.Join(parts, ", ")
}

// fieldPath drops the top-level struct name from the namespace so nested DTO
// fields read "projectDetails.name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func capture(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("route", c.FullPath())
			hub.CaptureException(err)
		})
		return
	}
	sentry.CaptureException(err)
}

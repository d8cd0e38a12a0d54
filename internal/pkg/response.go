package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/hireline/internal/domain"
)

// Response is the envelope of every JSON answer. Clients read Data on
// success and Message on failure.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse adds per-field messages, keyed by JSON field name.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

const validationMessage = "validation error"

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Code: status, Message: "success", Data: data})
}

// Success answers 200 with data.
func Success(c *gin.Context, data any) { respond(c, http.StatusOK, data) }

// Created answers 201 with the created resource.
func Created(c *gin.Context, data any) { respond(c, http.StatusCreated, data) }

// List answers 200 with one page, typically a *domain.Page[T].
func List(c *gin.Context, page any) { respond(c, http.StatusOK, page) }

// Error answers with the status mapped from err. Only AppError messages are
// exposed; anything else becomes "internal error".
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)

	msg := "internal error"
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	if fields := domain.ValidationFields(err); len(fields) > 0 {
		c.JSON(status, ValidationErrorResponse{
			Code:    status,
			Message: summarize(msg, fields),
			Errors:  fields,
		})
		return
	}
	c.JSON(status, Response{Code: status, Message: msg})
}

// ValidationError answers 400 for a binding or validation failure.
func ValidationError(c *gin.Context, err error) {
	validationErrorFor(c, err, nil)
}

// BindAndValidate binds the body (JSON or form) into obj. On failure it
// answers 400 and returns false:
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		validationErrorFor(c, err, obj)
		return false
	}
	return true
}

func validationErrorFor(c *gin.Context, err error, obj any) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	names := jsonNames(obj)
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		name, ok := names[fe.StructField()]
		if !ok {
			name = lowerFirst(fe.Field())
		}
		fields[name] = describe(fe)
	}

	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: summarize(validationMessage, fields),
		Errors:  fields,
	})
}

// summarize appends the alphabetically first field message to msg so
// clients that only read Message still learn what to fix.
func summarize(msg string, fields map[string]string) string {
	if len(fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: %s: %s", msg, keys[0], fields[keys[0]])
}

// describe turns a validator tag into a short human phrase.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	}
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

// jsonNames maps struct field names of obj to their JSON names.
func jsonNames(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			name, _, _ = strings.Cut(f.Tag.Get("form"), ",")
		}
		if name != "" && name != "-" {
			m[f.Name] = name
		}
	}
	return m
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// ParamID parses the ":id" path parameter. On failure it answers 400 and
// returns false.
func ParamID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Error(c, domain.NewAppError(domain.CodeValidation, "invalid id", err))
		return 0, false
	}
	return uint(id), true
}

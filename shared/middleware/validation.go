package middleware

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/eaglebank/console/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their json names so error keys match the
// request body the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationErrors is the field-keyed error set produced by ValidateRequest.
type ValidationErrors []ValidationError

// Mapped returns field -> message, keeping the first error per field.
func (v ValidationErrors) Mapped() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

func ValidateRequest(obj any) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "body", Message: "Invalid value", Type: "invalid"}}
	}
	for _, err := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: getErrorMsg(err),
			Type:    err.Tag(),
		})
	}

	return validationErrors
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " must not be empty"
	case "min":
		return err.Field() + " is too short"
	case "max":
		return err.Field() + " is too long"
	default:
		return err.Field() + " is invalid"
	}
}

// TrimStrings trims surrounding whitespace from every exported string field
// of the struct pointed to by ptr.
func TrimStrings(ptr any) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}

func RespondWithValidationError(c *gin.Context, validationErrors ValidationErrors) {
	c.JSON(http.StatusOK, models.Envelope{
		Code:   models.CodeFailure,
		Msg:    "Invalid request data",
		Data:   gin.H{},
		Errors: validationErrors.Mapped(),
	})
}

// RespondWithError renders a handled failure with the given envelope code.
func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, models.Envelope{
		Code: code,
		Msg:  message,
		Data: gin.H{},
	})
}

// RespondWithStatus renders a failure envelope with a non-200 HTTP status,
// used for requests that never reach a handler.
func RespondWithStatus(c *gin.Context, status int, message string) {
	c.JSON(status, models.Envelope{
		Code: models.CodeFailure,
		Msg:  message,
		Data: gin.H{},
	})
}

func RespondOK(c *gin.Context, message string, data any) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(http.StatusOK, models.Envelope{
		Code: models.CodeOK,
		Msg:  message,
		Data: data,
	})
}

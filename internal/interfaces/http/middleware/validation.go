package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// SetupValidator makes gin's validator report fields by their JSON (or
// form/uri) name and registers the sync specific tags:
//
//	synctype  a sync type name or "all", case insensitive
//	idlist    comma separated positive integers
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("synctype", validSyncType)
		_ = v.RegisterValidation("idlist", validIDList)
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

func validSyncType(fl validator.FieldLevel) bool {
	s := strings.ToLower(fl.Field().String())
	return s == dto.SyncTypeAll || integration.SyncType(s).IsValid()
}

func validIDList(fl validator.FieldLevel) bool {
	for _, part := range strings.Split(fl.Field().String(), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.Atoi(part); err != nil || id <= 0 {
			return false
		}
	}
	return true
}

// FormatValidationErrors builds the 400 body for a binding error. Anything
// that is not a field failure, such as malformed JSON, becomes one detail
// without a field.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse("Request validation failed", requestID,
			[]dto.ValidationDetail{{Message: err.Error()}})
	}

	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError aborts the request with a validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		FormatValidationErrors(err, logger.GetRequestID(c.Request.Context())))
}

func describe(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at least %s item(s)", fe.Param())
		}
		return "Must be at least " + fe.Param() + unit
	case "max":
		return "Must be at most " + fe.Param() + unit
	case "gt":
		return "Must be greater than " + fe.Param()
	case "synctype":
		return "Unknown sync type"
	case "idlist":
		return "Must be a comma separated list of positive ids"
	default:
		return "Invalid value"
	}
}

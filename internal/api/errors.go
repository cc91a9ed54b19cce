package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"gamehost/internal/session"
	"gamehost/internal/storage"
	"gamehost/internal/workspace"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation errors are keyed by the wire name, not the Go field name, so
// binding failures and orchestrator-level validation agree.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func respondData(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondMessage(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": true,
		"message": message,
	})
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"message": message,
	})
}

func respondValidation(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  fields,
	})
}

// respondBindingError converts gin/validator binding failures into the same
// field-keyed payload the orchestrator's own validation produces.
func respondBindingError(c *gin.Context, err error) {
	fields := make(map[string]string)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			name := fe.Field()
			switch fe.Tag() {
			case "required":
				fields[name] = name + " is required"
			default:
				fields[name] = name + " is invalid"
			}
		}
	} else {
		fields["body"] = err.Error()
	}

	respondValidation(c, fields)
}

// respondDomainError maps the error taxonomy onto HTTP statuses. Raw
// transport errors never reach here; the orchestrator and adapters
// re-classify them first.
func respondDomainError(c *gin.Context, err error) {
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		respondValidation(c, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, workspace.ErrAccessDenied):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, workspace.ErrUnsupportedEngine):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, workspace.ErrNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, storage.ErrObjectNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrExtensionNotAllowed):
		respondValidation(c, map[string]string{"file": err.Error()})
	case errors.Is(err, session.ErrProvisioningFailed),
		errors.Is(err, session.ErrTeardownFailed):
		respondError(c, http.StatusInternalServerError, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, err.Error())
	}
}

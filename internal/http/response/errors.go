package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecast-backend/internal/platform/apierr"
	"github.com/yungbote/coursecast-backend/internal/services"
)

var genericInternal = errors.New("internal server error")

// ServiceError translates a service error into the HTTP status, code and extra
// envelope fields it should be reported with.
func ServiceError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	var verr *services.ReorderValidationError
	if errors.As(err, &verr) {
		return apierr.BadRequest("invalid_video_order", err).WithDetail("invalidVideoIds", verr.InvalidIDs())
	}
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return apierr.BadRequest("invalid_input", err)
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return apierr.BadRequest("already_enrolled", err)
	case errors.Is(err, services.ErrInvalidCredentials):
		return apierr.Unauthorized("invalid_credentials", err)
	case errors.Is(err, services.ErrUnauthorized):
		return apierr.Unauthorized("unauthorized", services.ErrUnauthorized)
	case errors.Is(err, services.ErrForbidden):
		return apierr.Forbidden("forbidden", err)
	case errors.Is(err, services.ErrCourseNotFound):
		return apierr.NotFound("course_not_found", err)
	case errors.Is(err, services.ErrVideoNotFound):
		return apierr.NotFound("video_not_found", err)
	case errors.Is(err, services.ErrEmailTaken):
		return apierr.Conflict("email_taken", err)
	case errors.Is(err, services.ErrVersionConflict):
		return apierr.Conflict("version_conflict", err)
	case errors.Is(err, services.ErrMediaDisabled):
		return apierr.New(http.StatusServiceUnavailable, "media_disabled", err)
	default:
		return apierr.Internal("internal", genericInternal)
	}
}

// RespondServiceError writes the mapped error envelope. Internal errors never leak
// their message to the client.
func RespondServiceError(c *gin.Context, err error) {
	ae := ServiceError(err)
	msgErr := ae.Err
	if msgErr == nil {
		msgErr = errors.New(http.StatusText(ae.Status))
	}
	RespondErrorDetails(c, ae.Status, ae.Code, msgErr, ae.Details)
}

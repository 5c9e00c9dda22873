package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/http/response"
	"github.com/yungbote/coursecast-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecast-backend/internal/services"
)

// caller returns the authenticated user id and role, writing a 401 when absent.
func caller(c *gin.Context) (uuid.UUID, domain.Role, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondServiceError(c, services.ErrUnauthorized)
		return uuid.Nil, "", false
	}
	return rd.UserID, domain.Role(rd.Role), true
}

// uuidParam parses a path parameter, writing a 400 when it is not a uuid.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}

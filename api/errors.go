package api

import (
	"github.com/Domenick1991/roombooking/internal/api/apierr"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := apierr.Response(err)
	c.JSON(status, body)
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := apierr.Response(err)
	c.AbortWithStatusJSON(status, body)
}

func badBody(c *gin.Context, err error) {
	respondError(c, domain.BadRequest("invalid request body", map[string]any{"reason": err.Error()}))
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

// Success writes a 200 response with the payload under "data".
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Accepted writes a 202 response for work that continues asynchronously.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, gin.H{"data": data})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// Error maps a domain error to an HTTP status. Pipeline failures surface
// through the run state rather than here, so this only has to handle the
// synchronous submission path.
func Error(c *gin.Context, err error) {
	var de *walk.DomainError
	if errors.As(err, &de) && de.Kind() == walk.ErrParse {
		BadRequest(c, de.Error())
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

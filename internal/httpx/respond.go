package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/MikeMC777/markethub/internal/apperr"
)

// Error writes the JSON error response for err using the apperr mapping.
// 5xx causes are logged with the request id; the caller sees a generic
// message.
func Error(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		rid, _ := c.Get("rid")
		log.Error().Err(err).Interface("rid", rid).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

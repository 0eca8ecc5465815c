package controllers

import (
	"strconv"

	"pncp/internal/logging"

	"github.com/gin-gonic/gin"
)

func getLimitWithDefault(c *gin.Context, defaultValue int) int {
	var err error
	limit := defaultValue
	if c.Query("limit") != "" {
		limit, err = strconv.Atoi(c.Query("limit"))
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Int("default", defaultValue).Msg("failed to parse limit, using default")
			return defaultValue
		}
	}
	return limit
}

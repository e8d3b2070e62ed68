package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

func parseFloatQuery(c *gin.Context, key string, defaultVal float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return val, nil
}

func parseIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return val, nil
}

package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func getIDParam(ctx *gin.Context, name, label string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(label + " not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, errors.New("Invalid " + label)
	}

	return uint(id), nil
}

func GetEventID(ctx *gin.Context) (uint, error) {
	return getIDParam(ctx, "event_id", "Event ID")
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	return getIDParam(ctx, "task_id", "Task ID")
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkovalenko/student-journal-api/internal/middleware"
	"github.com/mkovalenko/student-journal-api/internal/models"
)

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

func paging(c *gin.Context) (int, int) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	return skip, limit
}

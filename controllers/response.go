package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/middlewares"
)

func respondError(c *gin.Context, err error) {
	middlewares.RespondError(c, err)
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return false
	}
	return true
}

// pathID parses the :id parameter. Malformed ids resolve to nothing, so they
// report notFound.
func pathID(c *gin.Context, notFound error) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, notFound)
		return primitive.NilObjectID, false
	}
	return id, true
}

func recordOrder(c *gin.Context, operation string) {
	middlewares.RecordOrderOperation(operation, middlewares.Succeeded(c))
}

func recordCatalog(c *gin.Context, operation string) {
	middlewares.RecordCatalogOperation(operation, middlewares.Succeeded(c))
}

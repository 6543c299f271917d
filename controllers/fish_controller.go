package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mach-lagbe/apperrors"
	"mach-lagbe/middlewares"
	"mach-lagbe/models"
	"mach-lagbe/services"
)

type FishController struct {
	fish services.IFishService
}

func NewFishController(fish services.IFishService) *FishController {
	return &FishController{fish: fish}
}

var errFishNotFound = apperrors.NotFound("Fish not found")

func fishFilter(c *gin.Context) models.FishFilter {
	return models.FishFilter{
		Category:     models.FishCategory(c.Query("category")),
		Availability: models.Availability(c.Query("availability")),
		Search:       c.Query("search"),
	}
}

func (ctl *FishController) respondList(c *gin.Context, filter models.FishFilter) {
	fish, err := ctl.fish.List(c.Request.Context(), middlewares.CurrentIdentity(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(fish), "data": fish})
}

// List serves GET /api/fish with active fish only.
func (ctl *FishController) List(c *gin.Context) {
	ctl.respondList(c, fishFilter(c))
}

// ListAll serves GET /api/fish/admin, inactive fish included.
func (ctl *FishController) ListAll(c *gin.Context) {
	filter := fishFilter(c)
	filter.IncludeInactive = true
	ctl.respondList(c, filter)
}

func (ctl *FishController) Get(c *gin.Context) {
	id, ok := pathID(c, errFishNotFound)
	if !ok {
		return
	}
	fish, err := ctl.fish.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": fish})
}

func (ctl *FishController) Create(c *gin.Context) {
	defer recordCatalog(c, "create")
	var in models.FishInput
	if !bindJSON(c, &in) {
		return
	}
	fish, err := ctl.fish.Create(c.Request.Context(), middlewares.CurrentIdentity(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Fish created successfully", "data": fish})
}

func (ctl *FishController) Update(c *gin.Context) {
	defer recordCatalog(c, "update")
	id, ok := pathID(c, errFishNotFound)
	if !ok {
		return
	}
	var in models.FishInput
	if !bindJSON(c, &in) {
		return
	}
	fish, err := ctl.fish.Update(c.Request.Context(), middlewares.CurrentIdentity(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Fish updated successfully", "data": fish})
}

func (ctl *FishController) Delete(c *gin.Context) {
	defer recordCatalog(c, "delete")
	id, ok := pathID(c, errFishNotFound)
	if !ok {
		return
	}
	if err := ctl.fish.Delete(c.Request.Context(), middlewares.CurrentIdentity(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Fish deleted successfully"})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/helpers"
	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/models"
	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/services"
)

func GetTemplateHandler(c *gin.Context) {
	var request models.RecordRequest

	err := c.BindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	// Check if the user has access to that resource
	err = helpers.CheckIfUserIsAllowed(c, request.PlantCode)
	if err != nil {
		return
	}

	template, err := services.GetTemplate(c.Request.Context(), request.MaterialCode, request.PlantCode)
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

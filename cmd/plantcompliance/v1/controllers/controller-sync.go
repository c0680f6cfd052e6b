package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/helpers"
	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/models"
	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/services"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

func CqsSyncHandler(c *gin.Context) {
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

	response, err := services.ForceSync(c.Request.Context(), request.PlantCode, request.MaterialCode)
	if errors.Is(err, datamodel.ErrRecordNotFound) {
		helpers.HandleNotFound(c, err)
		return
	}
	if errors.Is(err, datamodel.ErrVersionConflict) || errors.Is(err, datamodel.ErrRecordBusy) {
		helpers.HandleConflict(c, err)
		return
	}
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

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

func GetValidationHandler(c *gin.Context) {
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

	validation, err := services.ValidateCompletion(c.Request.Context(), request.PlantCode, request.MaterialCode)
	if errors.Is(err, datamodel.ErrRecordNotFound) {
		helpers.HandleNotFound(c, err)
		return
	}
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, validation)
}

func SubmitHandler(c *gin.Context) {
	var request models.RecordRequest
	var body models.SubmitRequest

	err := c.BindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	err = c.BindJSON(&body)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	// Check if the user has access to that resource
	err = helpers.CheckIfUserIsAllowed(c, request.PlantCode)
	if err != nil {
		return
	}

	result, err := services.Submit(c.Request.Context(), request.PlantCode, request.MaterialCode, body.SubmittedBy)
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

	// duplicate and failed-validation outcomes are regular answers
	c.JSON(http.StatusOK, result)
}

func RepairWorkflowHandler(c *gin.Context) {
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

	actor, _ := c.MustGet(gin.AuthUserKey).(string)
	response, err := services.RepairWorkflowStatus(c.Request.Context(), request.PlantCode, request.MaterialCode, actor)
	if errors.Is(err, datamodel.ErrRecordNotFound) || errors.Is(err, datamodel.ErrWorkflowNotFound) {
		helpers.HandleNotFound(c, err)
		return
	}
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

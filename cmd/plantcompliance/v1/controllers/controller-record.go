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

func CreateRecordHandler(c *gin.Context) {
	var request models.RecordRequest
	var body models.CreateRecordRequest

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

	response, err := services.GetOrCreateRecord(c.Request.Context(), request.PlantCode, request.MaterialCode, body.WorkflowID)
	if errors.Is(err, datamodel.ErrRecordBusy) || errors.Is(err, datamodel.ErrVersionConflict) {
		helpers.HandleConflict(c, err)
		return
	}
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}

	if response.Created {
		c.JSON(http.StatusCreated, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

func SaveInputsHandler(c *gin.Context) {
	var request models.RecordRequest
	var body models.SaveInputsRequest

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

	actor, _ := c.MustGet(gin.AuthUserKey).(string)
	response, err := services.SaveManualInputs(c.Request.Context(), request.PlantCode, request.MaterialCode, body.Inputs, actor)
	if errors.Is(err, datamodel.ErrRecordNotFound) {
		helpers.HandleNotFound(c, err)
		return
	}
	if errors.Is(err, datamodel.ErrRecordSubmitted) || errors.Is(err, datamodel.ErrVersionConflict) || errors.Is(err, datamodel.ErrRecordBusy) {
		helpers.HandleConflict(c, err)
		return
	}
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func RecalculateHandler(c *gin.Context) {
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

	counters, err := services.Recalculate(c.Request.Context(), request.MaterialCode, request.PlantCode)
	if errors.Is(err, datamodel.ErrRecordNotFound) {
		helpers.HandleNotFound(c, err)
		return
	}
	if errors.Is(err, datamodel.ErrVersionConflict) {
		helpers.HandleConflict(c, err)
		return
	}
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, counters)
}

func GetStatusHandler(c *gin.Context) {
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

	status, err := services.GetStatus(c.Request.Context(), request.PlantCode, request.MaterialCode)
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

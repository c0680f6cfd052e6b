package main

import (
	"fmt"
	"net/http"
	"time"

	ginopentracing "github.com/Bose/go-gin-opentracing"
	"github.com/gin-contrib/gzip"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/controllers"
)

// SetupRestAPI initializes the REST API and starts listening
func SetupRestAPI(accounts gin.Accounts, version string, jaegerHost string, jaegerPort string) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	router.Use(ginzap.RecoveryWithZap(zap.L(), true))

	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// initialize the global singleton for tracing...
	tracer, reporter, closer, err := ginopentracing.InitTracing("plantcompliance", jaegerHost+":"+jaegerPort, ginopentracing.WithEnableInfoLog(false))
	if err != nil {
		panic("unable to init tracing")
	}
	defer closer.Close()
	defer reporter.Close()
	opentracing.SetGlobalTracer(tracer)

	// tell gin to use the tracing middleware
	router.Use(ginopentracing.OpenTracer([]byte("api-request-")))

	// Healthcheck
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "online")
	})

	apiString := fmt.Sprintf("/api/v%s", version)

	v1 := router.Group(apiString, gin.BasicAuth(accounts))
	{
		// WARNING: Need to check in each specific handler whether the user is
		// actually allowed to access it, so that a valid plant account cannot
		// read another plant's questionnaires
		v1.GET("/:plantCode/:materialCode/template", controllers.GetTemplateHandler)
		v1.POST("/:plantCode/:materialCode/record", controllers.CreateRecordHandler)
		v1.PUT("/:plantCode/:materialCode/inputs", controllers.SaveInputsHandler)
		v1.POST("/:plantCode/:materialCode/recalculate", controllers.RecalculateHandler)
		v1.GET("/:plantCode/:materialCode/validation", controllers.GetValidationHandler)
		v1.POST("/:plantCode/:materialCode/submit", controllers.SubmitHandler)
		v1.GET("/:plantCode/:materialCode/status", controllers.GetStatusHandler)
		v1.POST("/:plantCode/:materialCode/cqs-sync", controllers.CqsSyncHandler)
		v1.POST("/:plantCode/:materialCode/workflow-repair", controllers.RepairWorkflowHandler)
	}

	err = router.Run(":80")
	if err != nil {
		zap.S().Fatalf("Failed to serve REST API: %s", err)
	}
}

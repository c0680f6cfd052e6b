package main

/*
Important principles: stateless as much as possible
*/

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"github.com/rung/go-safecast"
	"github.com/united-manufacturing-hub/umh-utils/env"
	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/cqs"
	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/database"
	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/helpers"
	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/services"
	"github.com/material-compliance-hub/material-compliance-hub/internal"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

var buildtime string

func main() {
	logLevel, _ := env.GetAsString("LOGGING_LEVEL", false, "PRODUCTION") //nolint:errcheck
	encoderConfig := ecszap.NewDefaultEncoderConfig()
	var core zapcore.Core
	switch logLevel {
	case "DEVELOPMENT":
		core = ecszap.NewCore(encoderConfig, os.Stdout, zap.DebugLevel)
	default:
		core = ecszap.NewCore(encoderConfig, os.Stdout, zap.InfoLevel)
	}
	logger := zap.New(core, zap.AddCaller())
	zap.ReplaceGlobals(logger)
	defer logger.Sync() //nolint:errcheck

	zap.S().Infof("This is plantcompliance build date: %s", buildtime)

	// Loading up plant accounts
	accounts := gin.Accounts{}
	for i := 1; i <= 100; i++ {
		tempUser := os.Getenv("PLANT_NAME_" + strconv.Itoa(i))
		tempPassword := os.Getenv("PLANT_PASSWORD_" + strconv.Itoa(i))
		if tempUser != "" && tempPassword != "" {
			zap.S().Infof("Added account for %s", tempUser)
			accounts[tempUser] = tempPassword
		}
	}

	// also add admin access
	adminUser, err := env.GetAsString("COMPLIANCE_ADMIN_USER", true, "")
	if err != nil {
		zap.S().Fatal(err)
	}
	adminPassword, err := env.GetAsString("COMPLIANCE_ADMIN_PASSWORD", true, "")
	if err != nil {
		zap.S().Fatal(err)
	}
	accounts[adminUser] = adminPassword
	helpers.SetAdminUser(adminUser)

	version, _ := env.GetAsString("VERSION", false, "1") //nolint:errcheck

	catalogPath, err := env.GetAsString("QUESTION_CATALOG_PATH", true, "")
	if err != nil {
		zap.S().Fatal(err)
	}
	catalog, err := datamodel.LoadCatalog(catalogPath)
	if err != nil {
		zap.S().Fatalf("Failed to load question catalog: %s", err)
	}
	zap.S().Infof("Loaded question catalog with %d questions (%d answerable, %d steps)",
		len(catalog.Questions), len(catalog.AnswerableQuestions()), len(catalog.StepNumbers()))

	// The threshold changed between deployments before, so it is injected and
	// never hardcoded
	thresholdString, _ := env.GetAsString("SUBMISSION_THRESHOLD_PERCENT", false, "80") //nolint:errcheck
	threshold, err := safecast.Atoi32(thresholdString)
	if err != nil || threshold < 0 || threshold > 100 {
		zap.S().Fatalf("SUBMISSION_THRESHOLD_PERCENT must be a percentage, got %s", thresholdString)
	}

	redisURI, _ := env.GetAsString("REDIS_URI", false, "")           //nolint:errcheck
	redisURI2, _ := env.GetAsString("REDIS_URI2", false, "")         //nolint:errcheck
	redisURI3, _ := env.GetAsString("REDIS_URI3", false, "")         //nolint:errcheck
	redisPassword, _ := env.GetAsString("REDIS_PASSWORD", false, "") //nolint:errcheck
	dryRun, _ := env.GetAsString("DRY_RUN", false, "")               //nolint:errcheck
	internal.InitCache(redisURI, redisURI2, redisURI3, redisPassword, 0, dryRun)

	cqsBaseURL, err := env.GetAsString("CQS_BASE_URL", true, "")
	if err != nil {
		zap.S().Fatal(err)
	}
	cqsAPIKey, _ := env.GetAsString("CQS_API_KEY", false, "")              //nolint:errcheck
	cqsTimeoutSeconds, _ := env.GetAsInt("CQS_TIMEOUT_SECONDS", false, 10) //nolint:errcheck
	cqsTimeout := time.Duration(cqsTimeoutSeconds) * time.Second
	cqsClient := cqs.NewClient(cqsBaseURL, cqsAPIKey, cqsTimeout)

	db := database.GetOrInit()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.EnsureSchema(ctx)
	cancel()
	if err != nil {
		zap.S().Fatalf("Failed to ensure database schema: %s", err)
	}

	services.Init(catalog, db, cqsClient, db, int(threshold), cqsTimeout)

	shutdown := internal.NewGracefulShutdown(func() error {
		db.Shutdown()
		return nil
	})

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(100))
	health.AddReadinessCheck("shutdownEnabled", isShutdownEnabled(shutdown))
	go func() {
		err = http.ListenAndServe("0.0.0.0:8086", health)
		if err != nil {
			zap.S().Errorf("Failed to serve healthcheck: %s", err)
		}
	}()

	jaegerHost, _ := env.GetAsString("JAEGER_HOST", false, "jaeger") //nolint:errcheck
	jaegerPort, _ := env.GetAsString("JAEGER_PORT", false, "6831")   //nolint:errcheck

	SetupRestAPI(accounts, version, jaegerHost, jaegerPort)
}

func isShutdownEnabled(shutdown internal.GracefulShutdownHandler) healthcheck.Check {
	return func() error {
		if shutdown.ShuttingDown() {
			return fmt.Errorf("shutdown")
		}
		return nil
	}
}

package database

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omeid/pgerror"
	"github.com/united-manufacturing-hub/umh-utils/env"
	"go.uber.org/zap"
)

// PgxIface is the subset of pgxpool.Pool used by the repositories. It is also
// satisfied by pgxmock.PgxPoolIface in tests.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Connection bundles the database pool with the workflow id memo cache
type Connection struct {
	Db              PgxIface
	workflowIdCache *lru.ARCCache
}

var conn *Connection
var once sync.Once

// GetOrInit sets up the postgres connection pool from the environment on first
// use and returns the shared Connection.
func GetOrInit() *Connection {
	once.Do(
		func() {
			zap.S().Debugf("Setting up postgresql")
			PQHost, err := env.GetAsString("POSTGRES_HOST", false, "db")
			if err != nil {
				zap.S().Fatalf("Failed to get POSTGRES_HOST from env: %s", err)
			}
			PQPort, err := env.GetAsInt("POSTGRES_PORT", false, 5432)
			if err != nil {
				zap.S().Fatalf("Failed to get POSTGRES_PORT from env: %s", err)
			}
			PQUser, err := env.GetAsString("POSTGRES_USER", true, "")
			if err != nil {
				zap.S().Fatalf("Failed to get POSTGRES_USER from env: %s", err)
			}
			PQPassword, err := env.GetAsString("POSTGRES_PASSWORD", true, "")
			if err != nil {
				zap.S().Fatalf("Failed to get POSTGRES_PASSWORD from env: %s", err)
			}
			PQDBName, err := env.GetAsString("POSTGRES_DATABASE", true, "")
			if err != nil {
				zap.S().Fatalf("Failed to get POSTGRES_DATABASE from env: %s", err)
			}

			psqlInfo := fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s sslmode=require",
				PQHost, PQPort, PQUser, PQPassword, PQDBName)

			parseConfig, err := pgxpool.ParseConfig(psqlInfo)
			if err != nil {
				zap.S().Fatalf("Failed to parse pgx config: %s", err)
			}
			parseConfig.MinConns = int32(runtime.NumCPU())
			if parseConfig.MinConns < 4 {
				parseConfig.MinConns = 4
			}
			parseConfig.MaxConnIdleTime = 5 * time.Minute
			parseConfig.MaxConnLifetime = 10 * time.Minute

			connCtx, cncl := context.WithTimeout(context.Background(), 5*time.Second)
			defer cncl()
			pool, err := pgxpool.NewWithConfig(connCtx, parseConfig)
			if err != nil {
				zap.S().Fatalf("Failed to open database: %s", err)
			}

			workflowIdCache, err := lru.NewARC(128)
			if err != nil {
				zap.S().Fatalf("Failed to create workflow id cache: %s", err)
			}

			conn = &Connection{
				Db:              pool,
				workflowIdCache: workflowIdCache,
			}
			go conn.pingLoop()
		})
	return conn
}

// NewConnection wraps an existing PgxIface, used by tests with a mocked pool
func NewConnection(db PgxIface) *Connection {
	workflowIdCache, _ := lru.NewARC(128)
	return &Connection{Db: db, workflowIdCache: workflowIdCache}
}

func (c *Connection) pingLoop() {
	for {
		err := c.Db.Ping(context.Background())
		if err != nil {
			zap.S().Errorf("Failed to ping database: %s", err)
		}
		time.Sleep(5 * time.Second)
	}
}

// Shutdown closes all database connections
func (c *Connection) Shutdown() {
	c.Db.Close()
}

// EnsureSchema creates the questionnaire tables if they do not exist yet
func (c *Connection) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS responseRecordTable (
			plantCode TEXT NOT NULL,
			materialCode TEXT NOT NULL,
			cqsSnapshot TEXT,
			manualInputs TEXT,
			totalFields INTEGER NOT NULL DEFAULT 0,
			completedFields INTEGER NOT NULL DEFAULT 0,
			requiredFields INTEGER NOT NULL DEFAULT 0,
			completedRequired INTEGER NOT NULL DEFAULT 0,
			percentage INTEGER NOT NULL DEFAULT 0,
			completionStatus TEXT NOT NULL DEFAULT 'Draft',
			cqsSyncStatus TEXT NOT NULL DEFAULT 'NotSynced',
			cqsSyncedAt TIMESTAMPTZ,
			submittedAt TIMESTAMPTZ,
			submittedBy TEXT NOT NULL DEFAULT '',
			workflowId TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (plantCode, materialCode)
		)`,
		`CREATE TABLE IF NOT EXISTS workflowTable (
			id TEXT PRIMARY KEY,
			plantCode TEXT NOT NULL,
			materialCode TEXT NOT NULL,
			state TEXT NOT NULL,
			updatedAt TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_plant ON workflowTable (plantCode)`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_material ON workflowTable (materialCode)`,
	}
	for _, statement := range statements {
		_, err := c.Db.Exec(ctx, statement)
		if err != nil {
			ErrorHandling(statement, err)
			return err
		}
	}
	return nil
}

// ErrorHandling logs and classifies postgresql errors
func ErrorHandling(sqlStatement string, err error) {
	if e := pgerror.ConnectionException(err); e != nil {
		zap.S().Errorw(
			"PostgreSQL failed: ConnectionException",
			"error", err,
			"sqlStatement", sqlStatement,
		)
		return
	}
	if e := pgerror.UniqueViolation(err); e != nil {
		zap.S().Warnw(
			"PostgreSQL failed: UniqueViolation",
			"error", err,
			"sqlStatement", sqlStatement,
		)
		return
	}
	zap.S().Errorw(
		"PostgreSQL failed.",
		"error", err,
		"sqlStatement", sqlStatement,
	)
}

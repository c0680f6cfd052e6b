package database

import (
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"go.uber.org/zap"
)

func createMockConnection(t *testing.T) (*Connection, pgxmock.PgxPoolIface) {
	logger := zap.NewNop()
	zap.ReplaceGlobals(logger)

	mocked, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("Failed to create mock connection: %v", err)
	}

	return NewConnection(mocked), mocked
}

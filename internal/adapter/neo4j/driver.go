package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Auth holds Bolt credentials. An empty user connects without
// authentication.
type Auth struct {
	User     string
	Password string
}

// NewDriver opens a driver and verifies the server is reachable.
func NewDriver(ctx context.Context, uri string, auth Auth) (neo4j.DriverWithContext, error) {
	token := neo4j.NoAuth()
	if auth.User != "" {
		token = neo4j.BasicAuth(auth.User, auth.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, token)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity (10s timeout): %w", err)
	}
	return driver, nil
}

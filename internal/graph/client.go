// Package graph writes the ownership graph of a portfolio to Neo4j.
package graph

import (
	"context"
	"errors"

	"github.com/willfong/portfolio-generator/internal/config"
)

// Client is the subset of a graph database the sink needs.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// OptionsFromConfig maps the graph section of the configuration
func OptionsFromConfig(cfg config.GraphConfig) Options {
	return Options{
		URI:      cfg.URI,
		Database: cfg.Database,
		Username: cfg.Username,
		Password: cfg.Password,
	}
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")

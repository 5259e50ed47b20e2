// Package tenant provides lookups of tenant (company) metadata.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opspilot/opspilot/internal/log"
)

// Company is the public metadata of a tenant.
type Company struct {
	Name        string
	DisplayName string
	Industry    string
	Description string
}

// Describe formats the company metadata as a short natural-language answer.
func (c Company) Describe() string {
	name := c.DisplayName
	if name == "" {
		name = c.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your company is %s", name)
	if c.Industry != "" {
		fmt.Fprintf(&b, ", operating in the %s industry", c.Industry)
	}
	b.WriteString(".")
	if c.Description != "" {
		b.WriteString(" ")
		b.WriteString(c.Description)
	}
	return b.String()
}

// Store looks up company metadata in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewStore creates a Store. logger may be nil.
func NewStore(pool *pgxpool.Pool, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

const companySQL = `
SELECT name, COALESCE(display_name, ''), COALESCE(industry, ''), COALESCE(description, '')
FROM companies
WHERE tenant_id = $1`

// Company returns the metadata for a tenant, or (nil, nil) when the tenant is
// unknown.
func (s *Store) Company(ctx context.Context, tenantID string) (*Company, error) {
	var c Company
	err := s.pool.QueryRow(ctx, companySQL, tenantID).
		Scan(&c.Name, &c.DisplayName, &c.Industry, &c.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up company for tenant %q: %w", tenantID, err)
	}
	return &c, nil
}

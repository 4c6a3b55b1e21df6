package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	LabIDKey  contextKey = "lab_id"
	DBConnKey contextKey = "db_conn"
	DBTxKey   contextKey = "db_tx"
)

var labIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// LabMiddleware resolves the laboratory a request belongs to and pins a
// schema-scoped connection on the request context. Each lab lives in its own
// schema (lab_<id>) so sample codes only need to be unique per lab.
func LabMiddleware(pool *pgxpool.Pool, defaultLab string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			labID := extractLabID(c, defaultLab)

			if !labIDPattern.MatchString(labID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid lab identifier")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			schema := fmt.Sprintf("lab_%s", labID)
			_, err = conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, shared, public", schema))
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "lab resolution failed")
			}

			ctx = context.WithValue(ctx, LabIDKey, labID)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("lab_id", labID)
			c.Set("db", conn)

			return next(c)
		}
	}
}

func extractLabID(c echo.Context, defaultLab string) string {
	// 1. Check JWT claim (set by auth middleware)
	if lid, ok := c.Get("jwt_lab_id").(string); ok && lid != "" {
		return lid
	}

	// 2. Check X-Lab-ID header
	if lid := c.Request().Header.Get("X-Lab-ID"); lid != "" {
		return lid
	}

	// 3. Check query parameter
	if lid := c.QueryParam("lab_id"); lid != "" {
		return lid
	}

	return defaultLab
}

// ConnFromContext retrieves the lab-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// LabFromContext retrieves the lab ID from context.
func LabFromContext(ctx context.Context) string {
	lid, _ := ctx.Value(LabIDKey).(string)
	return lid
}

// CreateLabSchema creates a new schema for a laboratory and runs all
// migrations against it. If migrationsDir is empty, migrations are skipped.
func CreateLabSchema(ctx context.Context, pool *pgxpool.Pool, labID string, migrationsDir string) error {
	if !labIDPattern.MatchString(labID) {
		return fmt.Errorf("invalid lab identifier: %s", labID)
	}

	schema := fmt.Sprintf("lab_%s", labID)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
	if err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir != "" {
		migrator := NewMigrator(pool, migrationsDir)
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}

	return nil
}

package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var postgresIntegrationCounter uint64

func TestPostgresIntegrationAppendRoundTrip(t *testing.T) {
	dsn := postgresIntegrationDSN(t)

	backend, err := NewPostgresBackend(dsn)
	if err != nil {
		t.Fatalf("new postgres backend failed: %v", err)
	}
	backend.tableName = postgresIntegrationTableName("ni_journal_it")
	t.Cleanup(func() {
		_ = backend.Close()
		postgresIntegrationDropTable(t, dsn, backend.tableName)
	})

	entry := Entry{
		ID:          "req_it_1",
		Path:        "/in/a.png",
		Output:      "/in/a.jpg",
		Format:      "jpeg",
		Outcome:     OutcomeOK,
		Attempts:    1,
		DurationMS:  42,
		CompletedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := backend.Append(entry); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := backend.Append(Entry{
		ID: "req_it_2", Path: "/in/b.png", Format: "jpeg",
		Outcome: OutcomeError, Error: "decode failed", Attempts: 5,
		CompletedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres for verification failed: %v", err)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(backend.tableName))
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 journal rows, got %d", count)
	}

	var outcome, errText string
	var attempts int
	rowQuery := fmt.Sprintf("SELECT outcome, error, attempts FROM %s WHERE id = $1", quoteIdentifier(backend.tableName))
	if err := db.QueryRowContext(ctx, rowQuery, "req_it_2").Scan(&outcome, &errText, &attempts); err != nil {
		t.Fatalf("row query failed: %v", err)
	}
	if outcome != OutcomeError || errText != "decode failed" || attempts != 5 {
		t.Fatalf("unexpected row: outcome=%q error=%q attempts=%d", outcome, errText, attempts)
	}
}

func postgresIntegrationDSN(t *testing.T) string {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("NI_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("set NI_TEST_POSTGRES_DSN to run Postgres integration tests")
	}
	return dsn
}

func postgresIntegrationTableName(prefix string) string {
	n := atomic.AddUint64(&postgresIntegrationCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), n)
}

func postgresIntegrationDropTable(t *testing.T, dsn, tableName string) {
	t.Helper()
	if strings.TrimSpace(dsn) == "" || strings.TrimSpace(tableName) == "" {
		return
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres for cleanup failed: %v", err)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))
	if _, err := db.ExecContext(ctx, query); err != nil {
		t.Fatalf("drop cleanup table %q failed: %v", tableName, err)
	}
}

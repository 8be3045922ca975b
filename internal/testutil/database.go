package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

var tables = []string{"OrderCartItems", "Orders", "MenuItems", "Restaurants"}

// SetupTestDB opens an in-memory SQLite database with the checkout schema.
// Repository queries stick to SQL that both SQLite and MySQL accept.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// every connection of an in-memory database is its own database
	db.SetMaxOpenConns(1)

	SetupTestTables(t, db)
	t.Cleanup(func() { db.Close() })

	return db
}

// SetupMySQLTestDB connects to the MySQL database named by TEST_MYSQL_DSN
// and skips the test when it is not configured or reachable.
func SetupMySQLTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	SetupTestTables(t, db)
	t.Cleanup(func() { CleanupTestDB(t, db) })

	return db
}

func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

func SetupTestTables(t *testing.T, db *sql.DB) {
	t.Helper()

	createRestaurantsTable := `
	CREATE TABLE IF NOT EXISTS Restaurants (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		deliveryPrice DECIMAL(10,2) NOT NULL DEFAULT 0
	)`

	createMenuItemsTable := `
	CREATE TABLE IF NOT EXISTS MenuItems (
		id CHAR(36) NOT NULL PRIMARY KEY,
		restaurantId CHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		position INT NOT NULL DEFAULT 0
	)`

	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS Orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		restaurantId CHAR(36) NOT NULL,
		userId VARCHAR(64) NOT NULL,
		email VARCHAR(150) NOT NULL,
		name VARCHAR(150) NOT NULL,
		addressLine1 VARCHAR(255) NOT NULL,
		city VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL,
		totalAmount BIGINT NULL,
		createdAt DATETIME NOT NULL,
		updatedAt DATETIME NOT NULL
	)`

	createOrderCartItemsTable := `
	CREATE TABLE IF NOT EXISTS OrderCartItems (
		orderId CHAR(36) NOT NULL,
		position INT NOT NULL,
		menuItemId VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL,
		PRIMARY KEY (orderId, position)
	)`

	ddl := []struct {
		name  string
		query string
	}{
		{"Restaurants", createRestaurantsTable},
		{"MenuItems", createMenuItemsTable},
		{"Orders", createOrdersTable},
		{"OrderCartItems", createOrderCartItemsTable},
	}

	for _, tbl := range ddl {
		if _, err := db.Exec(tbl.query); err != nil {
			t.Fatalf("failed to create table %s: %v", tbl.name, err)
		}
	}
}

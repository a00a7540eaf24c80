//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"owner_portal/internal/domain"
	mysqlrepo "owner_portal/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=portal",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "portal")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func seedUser(t *testing.T, db *sql.DB, email, hash string, listingIDs string) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO users (email, password_hash, name, listing_map_ids) VALUES (?, ?, ?, ?)`,
		email, hash, "Test Owner", listingIDs)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func TestRepo_MySQL_UsersAndDeviceTokens(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	aliceID := seedUser(t, db, "alice@example.com", "$2a$10$hash-a", "[101, 202]")
	bobID := seedUser(t, db, "bob@example.com", "$2a$10$hash-b", "[202]")

	u, err := repo.UserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if u.ID != aliceID || len(u.ListingMapIDs) != 2 || u.ListingMapIDs[0] != 101 {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := repo.UserByEmail(ctx, "nobody@example.com"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	u2, err := repo.UserByID(ctx, bobID)
	if err != nil || u2.Email != "bob@example.com" {
		t.Fatalf("UserByID: %+v %v", u2, err)
	}

	// both users map listing 202, only alice maps 101
	owners, err := repo.UsersForListing(ctx, 202)
	if err != nil || len(owners) != 2 {
		t.Fatalf("UsersForListing(202): %d users, %v", len(owners), err)
	}
	owners, err = repo.UsersForListing(ctx, 101)
	if err != nil || len(owners) != 1 || owners[0].ID != aliceID {
		t.Fatalf("UsersForListing(101): %+v %v", owners, err)
	}

	// upsert: same token twice must not produce two rows
	tok := domain.DeviceToken{UserID: aliceID, Token: "fcm-alice", Platform: "ios"}
	if err := repo.SaveDeviceToken(ctx, tok); err != nil {
		t.Fatalf("SaveDeviceToken: %v", err)
	}
	tok.Platform = "android"
	if err := repo.SaveDeviceToken(ctx, tok); err != nil {
		t.Fatalf("SaveDeviceToken upsert: %v", err)
	}
	if err := repo.SaveDeviceToken(ctx, domain.DeviceToken{UserID: bobID, Token: "fcm-bob", Platform: "android"}); err != nil {
		t.Fatalf("SaveDeviceToken bob: %v", err)
	}

	tokens, err := repo.DeviceTokensForUsers(ctx, []int64{aliceID, bobID})
	if err != nil {
		t.Fatalf("DeviceTokensForUsers: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %v", tokens)
	}

	tokens, err = repo.DeviceTokensForUsers(ctx, nil)
	if err != nil || tokens != nil {
		t.Fatalf("empty user set should short-circuit, got %v %v", tokens, err)
	}
}

func TestRepo_MySQL_PartnershipAndReservationLog(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	uid := seedUser(t, db, "carol@example.com", "$2a$10$hash-c", "[303]")

	for _, period := range []string{"2024-05", "2024-06"} {
		if _, err := db.Exec(
			`INSERT INTO partnership_earnings (user_id, listing_map_id, period, amount_cents, currency) VALUES (?, 303, ?, 12500, 'USD')`,
			uid, period); err != nil {
			t.Fatalf("seed earnings: %v", err)
		}
	}

	rows, err := repo.PartnershipForUser(ctx, uid)
	if err != nil {
		t.Fatalf("PartnershipForUser: %v", err)
	}
	if len(rows) != 2 || rows[0].AmountCents != 12500 || rows[0].Currency != "USD" {
		t.Fatalf("unexpected rollups: %+v", rows)
	}

	ev := domain.ReservationEvent{
		ReservationID: 9001,
		ListingMapID:  303,
		GuestName:     "Dana Guest",
		CheckIn:       domain.NewDate(2024, 7, 1),
		CheckOut:      domain.NewDate(2024, 7, 5),
	}
	if err := repo.LogReservation(ctx, ev); err != nil {
		t.Fatalf("LogReservation: %v", err)
	}
	// replaying the same webhook keeps one row
	if err := repo.LogReservation(ctx, ev); err != nil {
		t.Fatalf("LogReservation replay: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM reservation_log WHERE reservation_id = 9001`).Scan(&n); err != nil {
		t.Fatalf("count log rows: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 log row, got %d", n)
	}

	// events without a vendor reservation id are still logged
	if err := repo.LogReservation(ctx, domain.ReservationEvent{
		ListingMapID: 303,
		GuestName:    "Walk In",
		CheckIn:      domain.NewDate(2024, 8, 1),
		CheckOut:     domain.NewDate(2024, 8, 2),
	}); err != nil {
		t.Fatalf("LogReservation without id: %v", err)
	}
}

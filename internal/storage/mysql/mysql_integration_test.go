//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"hoteliq/internal/domain"
	mysqlrepo "hoteliq/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

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
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=hoteliq"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hoteliq?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = mysqlrepo.Open(context.Background(), dsn)
		return e
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestRepo_MySQL(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	stars := 4.5
	h, err := repo.CreateHotel(ctx, domain.Hotel{Name: "Taj Palace", Location: "Delhi", TotalRooms: 10, StarRating: &stars})
	if err != nil {
		t.Fatalf("CreateHotel: %v", err)
	}
	if _, err := repo.CreateHotel(ctx, domain.Hotel{Name: "Taj Palace", Location: "x", TotalRooms: 1}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on duplicate name, got %v", err)
	}
	rm, err := repo.CreateRoom(ctx, domain.Room{HotelID: h.ID, RoomNumber: "101", RoomType: "deluxe", BasePrice: 6000, MaxOccupancy: 2, IsAvailable: true})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	b := domain.Booking{
		HotelID: h.ID, RoomID: rm.ID,
		CheckInDate: day("2024-01-10"), CheckOutDate: day("2024-01-14"),
		GuestName: "Asha", NumGuests: 2, BookingPrice: 20000, BasePrice: 24000,
		BookingDate: time.Now().UTC(), BookingSource: "direct", Status: domain.StatusConfirmed,
	}

	// Load transaction: insert, see it inside, roll back, then commit for real.
	tx, err := repo.BeginLoad(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Insert(ctx, b); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if ok, _ := tx.Exists(ctx, b.Key()); !ok {
		t.Fatal("row should be visible inside its transaction")
	}
	if err := tx.Insert(ctx, domain.Booking{HotelID: h.ID, RoomID: 9999, CheckInDate: day("2024-01-20"), CheckOutDate: day("2024-01-21"), BookingDate: time.Now()}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected FK failure as not found, got %v", err)
	}
	_ = tx.Rollback()
	if all, _ := repo.ListBookings(ctx, domain.BookingsQuery{}); len(all) != 0 {
		t.Fatalf("rollback left %d bookings", len(all))
	}

	tx, _ = repo.BeginLoad(ctx)
	_ = tx.Insert(ctx, b)
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	act, err := repo.ActiveBookings(ctx, h.ID, day("2024-01-13"))
	if err != nil || len(act) != 1 || act[0].Nights() != 4 {
		t.Fatalf("ActiveBookings: %v %+v", err, act)
	}
	if act, _ := repo.ActiveBookings(ctx, h.ID, day("2024-01-14")); len(act) != 0 {
		t.Fatal("check-out night must not be active")
	}
	arr, _ := repo.CountArrivals(ctx, h.ID, day("2024-01-10"))
	if arr.Total != 1 || arr.Cancelled != 0 {
		t.Fatalf("CountArrivals: %+v", arr)
	}
	first, last, ok, err := repo.BookingSpan(ctx)
	if err != nil || !ok || !first.Equal(day("2024-01-10")) || !last.Equal(day("2024-01-14")) {
		t.Fatalf("BookingSpan: %v %v %v %v", first, last, ok, err)
	}

	m := domain.DailyMetrics{HotelID: h.ID, Date: day("2024-01-10"), RoomsOccupied: 1, RoomsAvailable: 10, OccupancyRate: 10, CalculatedAt: time.Now()}
	m1, err := repo.UpsertDailyMetrics(ctx, m)
	if err != nil {
		t.Fatalf("UpsertDailyMetrics: %v", err)
	}
	m.RoomsOccupied = 2
	m2, _ := repo.UpsertDailyMetrics(ctx, m)
	if m1.ID != m2.ID {
		t.Fatalf("upsert should keep id: %d vs %d", m1.ID, m2.ID)
	}
	ms, _ := repo.ListDailyMetrics(ctx, h.ID, day("2024-01-01"), day("2024-01-31"))
	if len(ms) != 1 || ms[0].RoomsOccupied != 2 {
		t.Fatalf("ListDailyMetrics: %+v", ms)
	}

	c, _ := repo.Counts(ctx)
	if c.Hotels != 1 || c.Rooms != 1 || c.Bookings != 1 || c.ActiveBookings != 1 {
		t.Fatalf("Counts: %+v", c)
	}

	if err := repo.DeleteHotel(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHotel: %v", err)
	}
	if c, _ := repo.Counts(ctx); c != (domain.StoreCounts{}) {
		t.Fatalf("cascade delete left %+v", c)
	}
}

//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/store"
	"gorm.io/gorm"
)

// testServerDB connects to the server named by CSMS_TEST_DRIVER and
// CSMS_TEST_DSN, e.g. mysql and "csms:pw@tcp(127.0.0.1:3306)/csms_test".
// Every table is dropped when the test completes.
func testServerDB(t *testing.T) *gorm.DB {
	t.Helper()
	driver, dsn := os.Getenv("CSMS_TEST_DRIVER"), os.Getenv("CSMS_TEST_DSN")
	if driver == "" || dsn == "" {
		t.Skip("CSMS_TEST_DRIVER and CSMS_TEST_DSN not set")
	}
	gdb, err := Connect(driver, dsn)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := Ping(gdb); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := DropAll(gdb); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		DropAll(gdb)
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestIntegration_MigrateIsIdempotent(t *testing.T) {
	gdb := testServerDB(t)
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}
	for _, m := range AllModels() {
		if !gdb.Migrator().HasTable(m) {
			t.Errorf("table for %T missing", m)
		}
	}
}

func TestIntegration_ProjectRoundTrip(t *testing.T) {
	gdb := testServerDB(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, gdb, &models.Project{Name: "Rig A", StartDate: "2024-06-01"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	snap, err := store.LoadSnapshot(ctx, gdb, store.Scope{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(snap.Projects) != 1 || len(snap.Tasks) != len(store.StandardTasks) {
		t.Fatalf("snapshot = %d projects, %d tasks", len(snap.Projects), len(snap.Tasks))
	}
	if err := store.DeleteProject(ctx, gdb, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
}

func TestIntegration_ReminderMarkClaimOnce(t *testing.T) {
	gdb := testServerDB(t)
	mark := models.ReminderMark{Key: "schedule:S1:2024-07-03", RecordType: "schedule", RecordID: "S1"}
	if err := gdb.Create(&mark).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := gdb.Create(&mark).Error; err == nil {
		t.Error("duplicate key should be rejected")
	}
}

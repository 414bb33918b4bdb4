package activity

import (
	"testing"

	"github.com/m-troja/taskstorm/internal/db"
	"github.com/m-troja/taskstorm/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := db.Seed(gdb); err != nil {
		t.Fatalf("seed test db: %v", err)
	}
	return gdb
}

func seedIssue(t *testing.T, gdb *gorm.DB) *models.Issue {
	t.Helper()
	is := models.Issue{
		IDInsideProject: 1,
		Title:           "sample",
		Status:          models.StatusNew,
		AuthorID:        models.SystemUserID,
	}
	if err := gdb.Create(&is).Error; err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return &is
}

func TestRecordCreated(t *testing.T) {
	gdb := openTestDB(t)
	is := seedIssue(t, gdb)

	a, err := RecordCreated(gdb, models.ActivityCreatedIssue, is.ID, 7)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if a.AuthorID == nil || *a.AuthorID != 7 {
		t.Error("creation row should carry the author id")
	}
	if a.OldValue != nil || a.NewValue != nil {
		t.Error("creation row should not carry old/new values")
	}
}

func TestRecordCreated_RejectsUpdateType(t *testing.T) {
	gdb := openTestDB(t)
	is := seedIssue(t, gdb)

	if _, err := RecordCreated(gdb, models.ActivityUpdatedStatus, is.ID, 7); err == nil {
		t.Error("update type must be rejected")
	}
}

func TestRecordUpdated(t *testing.T) {
	gdb := openTestDB(t)
	is := seedIssue(t, gdb)

	a, err := RecordUpdated(gdb, models.ActivityUpdatedStatus, is.ID, "NEW", "TODO")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if a.OldValue == nil || *a.OldValue != "NEW" {
		t.Error("update row should carry the old value")
	}
	if a.NewValue == nil || *a.NewValue != "TODO" {
		t.Error("update row should carry the new value")
	}
	if a.AuthorID != nil {
		t.Error("update row should not carry an author id")
	}
}

func TestRecordUpdated_RejectsCreationType(t *testing.T) {
	gdb := openTestDB(t)
	is := seedIssue(t, gdb)

	if _, err := RecordUpdated(gdb, models.ActivityCreatedComment, is.ID, "", ""); err == nil {
		t.Error("creation type must be rejected")
	}
}

func TestListByIssueID_OrderedOldestFirst(t *testing.T) {
	gdb := openTestDB(t)
	is := seedIssue(t, gdb)

	if _, err := RecordCreated(gdb, models.ActivityCreatedIssue, is.ID, 7); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := RecordUpdated(gdb, models.ActivityUpdatedStatus, is.ID, "NEW", "TODO"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := RecordUpdated(gdb, models.ActivityUpdatedPriority, is.ID, "NORMAL", "HIGH"); err != nil {
		t.Fatalf("record: %v", err)
	}

	acts, err := ListByIssueID(gdb, is.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []models.ActivityType{
		models.ActivityCreatedIssue,
		models.ActivityUpdatedStatus,
		models.ActivityUpdatedPriority,
	}
	if len(acts) != len(want) {
		t.Fatalf("rows = %d, want %d", len(acts), len(want))
	}
	for i, typ := range want {
		if acts[i].Type != typ {
			t.Errorf("row %d type = %s, want %s", i, acts[i].Type, typ)
		}
	}
}

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"mailreach/internal/models"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	return db, mock
}

func campaignColumns() []string {
	return []string{"id", "name", "template_id", "target_group_id", "status", "sent_count", "total_contacts", "error_message", "created_at"}
}

func TestCampaignCreate(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewCampaignRepository(db)

	mock.ExpectQuery("INSERT INTO campaigns").
		WithArgs("Spring Launch", 1, nil, models.CampaignStatusDraft, 0, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

	campaign := &models.Campaign{
		Name:          "Spring Launch",
		TemplateID:    1,
		Status:        models.CampaignStatusDraft,
		TotalContacts: 3,
	}
	if err := repo.Create(context.Background(), campaign); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if campaign.ID != 1 {
		t.Errorf("expected assigned ID 1, got %d", campaign.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCampaignGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewCampaignRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM campaigns").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	if err == nil || err.Error() != "campaign not found" {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestBeginRun_ResetsCounter(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewCampaignRepository(db)

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(models.CampaignStatusSending, 5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.BeginRun(context.Background(), 1, 5); err != nil {
		t.Fatalf("BeginRun returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestIncrementSent(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewCampaignRepository(db)

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.IncrementSent(context.Background(), 1); err != nil {
		t.Fatalf("IncrementSent returned error: %v", err)
	}
}

func TestIncrementSent_MissingCampaign(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewCampaignRepository(db)

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.IncrementSent(context.Background(), 99); err == nil {
		t.Error("expected not-found error for missing campaign")
	}
}

func TestMarkInterrupted(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewCampaignRepository(db)

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(models.CampaignStatusFailed, "send run interrupted", models.CampaignStatusSending).
		WillReturnResult(sqlmock.NewResult(0, 2))

	swept, err := repo.MarkInterrupted(context.Background(), "send run interrupted")
	if err != nil {
		t.Fatalf("MarkInterrupted returned error: %v", err)
	}
	if swept != 2 {
		t.Errorf("expected 2 swept rows, got %d", swept)
	}
}

func TestExistsByName(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewCampaignRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Spring Launch").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByName(context.Background(), "Spring Launch")
	if err != nil {
		t.Fatalf("ExistsByName returned error: %v", err)
	}
	if !exists {
		t.Error("expected name to exist")
	}
}

func TestCampaignList_StatusFilter(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewCampaignRepository(db)
	status := models.CampaignStatusSending

	mock.ExpectQuery("SELECT (.+) FROM campaigns").
		WithArgs(status, 20, 0).
		WillReturnRows(sqlmock.NewRows(campaignColumns()).
			AddRow(1, "Spring Launch", 1, nil, status, 2, 3, nil, time.Now()))

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	campaigns, total, err := repo.List(context.Background(), CampaignFilters{
		Page:     1,
		PageSize: 20,
		Status:   &status,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 1 || len(campaigns) != 1 {
		t.Errorf("expected 1 campaign, got %d (total %d)", len(campaigns), total)
	}
	if campaigns[0].Status != status {
		t.Errorf("expected sending status, got %s", campaigns[0].Status)
	}
}

func TestCampaignDelete_Cascades(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewCampaignRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM email_logs").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM replies").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM campaigns").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

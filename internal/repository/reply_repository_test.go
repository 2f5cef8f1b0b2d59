package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"mailreach/internal/models"
)

func TestExistsByContent(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewReplyRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("alice@example.com", "Re: Spring Sale", "Count me in!").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByContent(context.Background(), "alice@example.com", "Re: Spring Sale", "Count me in!")
	if err != nil {
		t.Fatalf("ExistsByContent returned error: %v", err)
	}
	if !exists {
		t.Error("expected dedup triple to exist")
	}
}

func TestReplyCreate(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewReplyRepository(db)
	campaignID := 1
	serverID := 1
	receivedAt := time.Now()

	mock.ExpectQuery("INSERT INTO replies").
		WithArgs(campaignID, serverID, "alice@example.com", "Re: Spring Sale", "Count me in!", nil, false, receivedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	reply := &models.Reply{
		CampaignID:  &campaignID,
		ServerID:    &serverID,
		SenderEmail: "alice@example.com",
		Subject:     "Re: Spring Sale",
		Content:     "Count me in!",
		ReceivedAt:  receivedAt,
	}
	if err := repo.Create(context.Background(), reply); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if reply.ID != 7 {
		t.Errorf("expected assigned ID 7, got %d", reply.ID)
	}
}

func TestMarkRead_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewReplyRepository(db)

	mock.ExpectExec("UPDATE replies").
		WithArgs(true, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkRead(context.Background(), 99, true); err == nil {
		t.Error("expected not-found error for missing reply")
	}
}

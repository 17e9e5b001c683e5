package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/model"
)

func TestUserPostgres_Upsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserPostgres(db)

	login := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	created := login.Add(-72 * time.Hour)
	u := &model.User{
		ID:        ownerA,
		RegNumber: "REG-001",
		Name:      "Ada",
		Semester:  3,
		Year:      2024,
		LastLogin: login,
		UpdatedAt: login,
	}

	rows := sqlmock.NewRows([]string{
		"id", "reg_number", "name", "mobile", "program", "semester", "batch", "year",
		"department", "section", "photo_url", "last_login", "created_at", "updated_at",
	}).AddRow(ownerA, "REG-001", "Ada", "", "", 3, "", 2024, "", "", "", login, created, login)

	mock.ExpectQuery("INSERT INTO users (.+) ON CONFLICT \\(reg_number\\) DO UPDATE").
		WithArgs(ownerA, "REG-001", "Ada", "", "", 3, "", 2024, "", "", "", login, login).
		WillReturnRows(rows)

	out, err := repo.Upsert(context.Background(), u)

	require.NoError(t, err)
	assert.Equal(t, ownerA, out.ID)
	assert.Equal(t, created, out.CreatedAt)
	assert.Equal(t, login, out.LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

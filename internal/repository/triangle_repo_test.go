package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangleRepository_CountFilledLocksRows(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTriangleRepository(db)

	rows := sqlmock.NewRows([]string{"id"})
	for i := 1; i <= 15; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery("SELECT `id` FROM `positions` WHERE .*user_id IS NOT NULL.* FOR SHARE").
		WithArgs(3).
		WillReturnRows(rows)

	n, err := repo.CountFilled(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTriangleRepository_NextFreePositionNone(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTriangleRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `positions` WHERE .*user_id IS NULL.* FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "triangle_id", "slot"}))

	_, err := repo.NextFreePosition(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

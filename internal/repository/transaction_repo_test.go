package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"royaltriangle/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_Transition(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		affected int64
		execErr  error
		want     bool
		wantErr  bool
	}{
		{name: "applied", affected: 1, want: true},
		{name: "status changed underneath", affected: 0, want: false},
		{name: "driver failure", execErr: errors.New("connection reset"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupTestDB(t)
			repo := NewTransactionRepository(db)

			mock.ExpectBegin()
			exec := mock.ExpectExec("UPDATE `transactions` SET")
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
				mock.ExpectRollback()
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, tt.affected))
				mock.ExpectCommit()
			}

			ok, err := repo.Transition(context.Background(), 7, domain.TxStatusPending, domain.TxStatusCompleted, &now)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, ok)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransactionRepository_GetByIDNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "status"}))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_SumByUser(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `transactions`").
		WithArgs(uint(3), domain.TxTypeReferral, domain.TxStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("12.5"))

	total, err := repo.SumByUser(context.Background(), 3, domain.TxTypeReferral, domain.TxStatusCompleted)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("12.5")), total.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

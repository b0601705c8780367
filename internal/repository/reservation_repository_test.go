package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/beach-lounger-reservation/internal/model"
)

var (
	loungerCols     = []string{"id", "beach_id", "name", "number", "type", "row_no", "col_no", "price_per_hour_cents", "is_active"}
	reservationCols = []string{"id", "lounger_id", "user_id", "start_dt", "end_dt", "total_price_cents", "status", "payment_status", "created_at", "updated_at"}
)

func newMockRepo(t *testing.T) (*ReservationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewReservationRepo(db), mock
}

func loungerRow(active bool) *sqlmock.Rows {
	return sqlmock.NewRows(loungerCols).AddRow(1, 10, "North", "A1", "standard", 1, 2, 15000, active)
}

func TestReservationRepo_CreateCommits(t *testing.T) {
	repo, mock := newMockRepo(t)
	iv := model.NewInterval(hm(10, 0), hm(11, 30))

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM loungers l (.+) FOR UPDATE OF l`).WillReturnRows(loungerRow(true))
	mock.ExpectQuery(`SELECT id FROM reservations`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(30000)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`SELECT (.+) FROM reservations WHERE id`).WillReturnRows(
		sqlmock.NewRows(reservationCols).AddRow(42, 1, 100, iv.Start, iv.End, 30000, "pending", "pending", day, day))
	mock.ExpectCommit()

	res, lounger, err := repo.Create(context.Background(), 1, 100, iv)
	require.NoError(t, err)
	assert.EqualValues(t, 42, res.ID)
	assert.EqualValues(t, 30000, res.TotalPriceCents)
	assert.Equal(t, model.StatusPending, res.Status)
	assert.Equal(t, "North", lounger.BeachName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_CreateConflictRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM loungers l (.+) FOR UPDATE OF l`).WillReturnRows(loungerRow(true))
	mock.ExpectQuery(`SELECT id FROM reservations`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectRollback()

	_, _, err := repo.Create(context.Background(), 1, 100, model.NewInterval(hm(10, 0), hm(11, 0)))
	assert.ErrorIs(t, err, model.ErrTimeConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_CreateLoungerChecks(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF l`).WillReturnRows(sqlmock.NewRows(loungerCols))
		mock.ExpectRollback()

		_, _, err := repo.Create(context.Background(), 1, 100, model.NewInterval(hm(10, 0), hm(11, 0)))
		assert.ErrorIs(t, err, model.ErrResourceNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF l`).WillReturnRows(loungerRow(false))
		mock.ExpectRollback()

		_, _, err := repo.Create(context.Background(), 1, 100, model.NewInterval(hm(10, 0), hm(11, 0)))
		assert.ErrorIs(t, err, model.ErrResourceUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF l`).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, _, err := repo.Create(context.Background(), 1, 100, model.NewInterval(hm(10, 0), hm(11, 0)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock lounger")
		assert.NotErrorIs(t, err, model.ErrResourceNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReservationRepo_ConfirmNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reservations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Confirm(context.Background(), 5, model.Actor{UserID: 100})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_CancelCheckAborts(t *testing.T) {
	repo, mock := newMockRepo(t)
	tooLate := errors.New("too late")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT lounger_id FROM reservations`).WillReturnRows(sqlmock.NewRows([]string{"lounger_id"}).AddRow(1))
	mock.ExpectQuery(`FOR UPDATE OF l`).WillReturnRows(loungerRow(true))
	mock.ExpectQuery(`SELECT (.+) FROM reservations WHERE id (.+) FOR UPDATE`).WillReturnRows(
		sqlmock.NewRows(reservationCols).AddRow(5, 1, 100, hm(10, 0), hm(11, 0), 15000, "confirmed", "paid", day, day))
	mock.ExpectRollback()

	var seen model.Reservation
	_, _, err := repo.Cancel(context.Background(), 5, model.Actor{UserID: 100}, func(r model.Reservation) error {
		seen = r
		return tooLate
	})
	assert.ErrorIs(t, err, tooLate)
	assert.Equal(t, model.StatusConfirmed, seen.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_CancelNotVisible(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT lounger_id FROM reservations`).WillReturnRows(sqlmock.NewRows([]string{"lounger_id"}))
	mock.ExpectRollback()

	_, _, err := repo.Cancel(context.Background(), 5, model.Actor{UserID: 999}, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildWhere(t *testing.T) {
	conds, args := buildWhere(ReservationFilter{Status: "pending", BeachID: 3, Period: PeriodActive, Now: day})
	assert.Equal(t, []string{
		"r.status = ?",
		"r.lounger_id IN (SELECT id FROM loungers WHERE beach_id = ?)",
		"? BETWEEN r.start_dt AND r.end_dt",
	}, conds)
	assert.Equal(t, []any{"pending", uint64(3), day}, args)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "r.id, r.status", prefixed("r", "id, status"))
}

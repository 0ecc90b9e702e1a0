package repository

import (
    "context"
    "database/sql"
    "errors"
    "net"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
)

var ledgerColumns = []string{"travel_unit_id", "total_seats", "booked_seats", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return db, mock
}

func TestLedgerRepo_ReserveCommitsGuardedUpdate(t *testing.T) {
    db, mock := newMock(t)
    now := time.Now().UTC()

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(ledgerReserveQuery)).
        WithArgs(3, sqlmock.AnyArg(), "u1", 3).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(regexp.QuoteMeta(ledgerSelectQuery)).
        WithArgs("u1").
        WillReturnRows(sqlmock.NewRows(ledgerColumns).AddRow("u1", 10, 3, now))
    mock.ExpectCommit()

    e, err := NewLedgerRepo(db).Reserve(context.Background(), "u1", 3)
    require.NoError(t, err)
    assert.Equal(t, 10, e.TotalSeats)
    assert.Equal(t, 3, e.BookedSeats)
    assert.Equal(t, 7, e.AvailableSeats())
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ReserveGuardSubtracts(t *testing.T) {
    assert.Contains(t, ledgerReserveQuery, "? <= total_seats - booked_seats")
    assert.NotContains(t, ledgerReserveQuery, "booked_seats + ? <=")
}

func TestLedgerRepo_ReserveGuardRejected(t *testing.T) {
    db, mock := newMock(t)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(ledgerReserveQuery)).
        WithArgs(11, sqlmock.AnyArg(), "u1", 11).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(regexp.QuoteMeta(ledgerExistsQuery)).
        WithArgs("u1").
        WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
    mock.ExpectRollback()

    _, err := NewLedgerRepo(db).Reserve(context.Background(), "u1", 11)
    require.ErrorIs(t, err, ledger.ErrCapacityExceeded)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ReleaseMissingEntry(t *testing.T) {
    db, mock := newMock(t)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(ledgerReleaseQuery)).
        WithArgs(2, sqlmock.AnyArg(), "ghost", 2).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(regexp.QuoteMeta(ledgerExistsQuery)).
        WithArgs("ghost").
        WillReturnRows(sqlmock.NewRows([]string{"1"}))
    mock.ExpectRollback()

    _, err := NewLedgerRepo(db).Release(context.Background(), "ghost", 2)
    require.ErrorIs(t, err, ledger.ErrNotFound)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ReleaseGuardRejected(t *testing.T) {
    db, mock := newMock(t)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(ledgerReleaseQuery)).
        WithArgs(5, sqlmock.AnyArg(), "u1", 5).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(regexp.QuoteMeta(ledgerExistsQuery)).
        WithArgs("u1").
        WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
    mock.ExpectRollback()

    _, err := NewLedgerRepo(db).Release(context.Background(), "u1", 5)
    require.ErrorIs(t, err, ledger.ErrInvalidRelease)
}

func TestLedgerRepo_FailureBeforeCommitIsTransient(t *testing.T) {
    db, mock := newMock(t)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(ledgerReserveQuery)).
        WillReturnError(mysql.ErrInvalidConn)
    mock.ExpectRollback()

    _, err := NewLedgerRepo(db).Reserve(context.Background(), "u1", 1)
    require.Error(t, err)
    assert.True(t, ledger.IsTransient(err))
    assert.ErrorIs(t, err, mysql.ErrInvalidConn)
}

func TestLedgerRepo_CommitFailureIsNotRetried(t *testing.T) {
    db, mock := newMock(t)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(ledgerReserveQuery)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(regexp.QuoteMeta(ledgerSelectQuery)).
        WillReturnRows(sqlmock.NewRows(ledgerColumns).AddRow("u1", 10, 1, time.Now()))
    mock.ExpectCommit().WillReturnError(mysql.ErrInvalidConn)

    _, err := NewLedgerRepo(db).Reserve(context.Background(), "u1", 1)
    require.Error(t, err)
    assert.False(t, ledger.IsTransient(err))
}

func TestLedgerRepo_OpenIsInsertIgnoreThenRead(t *testing.T) {
    db, mock := newMock(t)

    mock.ExpectExec(regexp.QuoteMeta(ledgerOpenQuery)).
        WithArgs("u1", 40, sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(regexp.QuoteMeta(ledgerSelectQuery)).
        WithArgs("u1").
        WillReturnRows(sqlmock.NewRows(ledgerColumns).AddRow("u1", 40, 12, time.Now()))

    e, err := NewLedgerRepo(db).Open(context.Background(), "u1", 40)
    require.NoError(t, err)
    // an existing entry keeps its bookings
    assert.Equal(t, 12, e.BookedSeats)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_GetMissing(t *testing.T) {
    db, mock := newMock(t)
    mock.ExpectQuery(regexp.QuoteMeta(ledgerSelectQuery)).
        WithArgs("nope").
        WillReturnRows(sqlmock.NewRows(ledgerColumns))

    _, err := NewLedgerRepo(db).Get(context.Background(), "nope")
    require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestLedgerRepo_WorksBehindLedger(t *testing.T) {
    db, mock := newMock(t)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(ledgerReserveQuery)).
        WillReturnError(mysql.ErrInvalidConn)
    mock.ExpectRollback()
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(ledgerReserveQuery)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(regexp.QuoteMeta(ledgerSelectQuery)).
        WillReturnRows(sqlmock.NewRows(ledgerColumns).AddRow("u1", 4, 2, time.Now()))
    mock.ExpectCommit()

    l := ledger.New(NewLedgerRepo(db), nil, ledger.Config{Attempts: 3, BaseDelay: time.Millisecond}, nil)
    res, err := l.Reserve(context.Background(), "u1", 2)
    require.NoError(t, err)
    assert.Equal(t, 2, res.AvailableSeats())
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifyMySQL(t *testing.T) {
    dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
    read := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}

    assert.True(t, ledger.IsTransient(classifyMySQL(dial, true)))
    assert.False(t, ledger.IsTransient(classifyMySQL(read, true)))
    assert.False(t, ledger.IsTransient(classifyMySQL(dial, false)))
    assert.False(t, ledger.IsTransient(classifyMySQL(errors.New("syntax error"), true)))
}

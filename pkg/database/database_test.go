package database

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return Wrap(sqlx.NewDb(raw, "postgres"), logger.Nop()), mock
}

func TestInTx_CommitsAndUsesTransaction(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE batches").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.InTx(context.Background(), func(ctx context.Context) error {
		_, ok := db.Conn(ctx).(*sqlx.Tx)
		assert.True(t, ok)
		_, err := db.Conn(ctx).ExecContext(ctx, "UPDATE batches SET status = 'EXPIRED'")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	want := errors.NotFound("prescription")
	err := db.InTx(context.Background(), func(ctx context.Context) error {
		return want
	})

	assert.Same(t, want, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_NestedJoinsOuter(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := db.InTx(context.Background(), func(outer context.Context) error {
		return db.InTx(outer, func(inner context.Context) error {
			assert.Same(t, db.Conn(outer), db.Conn(inner))
			return nil
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_WithoutTransactionUsesPool(t *testing.T) {
	db, _ := newMock(t)
	_, ok := db.Conn(context.Background()).(*sqlx.DB)
	assert.True(t, ok)
}

func TestTransactionWithTimeout_MapsDeadline(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := db.TransactionWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrTimeout))
}

func TestMigrate_StopsAtFirstFailure(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE b").WillReturnError(stderrors.New("syntax error"))
	mock.ExpectRollback()

	err := db.Migrate(context.Background(), []string{"CREATE TABLE a ()", "CREATE TABLE b ()", "CREATE TABLE c ()"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 2 failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_bill_bill_no", Detail: "Key exists"}
	err := MapError(dup, "bill")

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	assert.Equal(t, "bill_no", appErr.Details["field"])

	plain := errors.New("connection reset")
	assert.Same(t, plain, MapError(plain, "bill"))
}

func TestOrderBy(t *testing.T) {
	got, err := OrderBy("", "-created_at", "created_at", "bill_no")
	require.NoError(t, err)
	assert.Equal(t, "created_at DESC, id DESC", got)

	got, err = OrderBy("bill_no", "-created_at", "created_at", "bill_no")
	require.NoError(t, err)
	assert.Equal(t, "bill_no ASC, id ASC", got)

	_, err = OrderBy("password; drop table", "-created_at", "created_at")
	assert.True(t, apperror.IsValidation(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, isRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isRetryable(errors.New("x")))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%dolo%", LikePattern("dolo"))
	assert.Equal(t, `%50\% off\_x%`, LikePattern("50% off_x"))
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, "dolo%", LikePrefix("dolo"))
	assert.Equal(t, `50\%%`, LikePrefix("50%"))
}

func TestSearchTierOrder(t *testing.T) {
	sql, args, err := SearchTierOrder("product_key", "dolo").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHEN product_key = ? THEN 0")
	assert.Contains(t, sql, "ELSE 3 END")
	assert.Equal(t, []any{"dolo", "dolo%", "%dolo%"}, args)
}

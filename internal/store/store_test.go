package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 访客计数按 (day, visitor) 去重：同一访客当日只计一次
func TestIncrStatsCountsVisitorOncePerDay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	st := AttachDB(db)

	q := regexp.QuoteMeta

	// 首见：查询计数 + 去重插入落一行 + 访客计数递增
	mock.ExpectExec(q("UPDATE _gdt_stats_total SET total_queries=total_queries+1 WHERE id=1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO _gdt_stats_daily(day, queries)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO _gdt_stats_visitors(day, visitor)")).
		WithArgs("1.2.3.4").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE _gdt_stats_total SET total_visitors=total_visitors+1 WHERE id=1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO _gdt_stats_daily(day, visitors)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, st.IncrStats(context.Background(), "1.2.3.4"))

	// 再见：去重插入零行，访客计数不得再递增
	mock.ExpectExec(q("UPDATE _gdt_stats_total SET total_queries=total_queries+1 WHERE id=1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO _gdt_stats_daily(day, queries)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO _gdt_stats_visitors(day, visitor)")).
		WithArgs("1.2.3.4").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, st.IncrStats(context.Background(), "1.2.3.4"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrStatsSkipsEmptyVisitor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	st := AttachDB(db)

	q := regexp.QuoteMeta
	mock.ExpectExec(q("UPDATE _gdt_stats_total SET total_queries=total_queries+1 WHERE id=1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO _gdt_stats_daily(day, queries)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, st.IncrStats(context.Background(), ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

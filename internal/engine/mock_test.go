package engine_test

import (
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"

	"group-renamer/internal/engine"
	"group-renamer/internal/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// Queries as rendered for the mysql dialect against schema "owncloud".
const (
	discoverSQL = "FROM information_schema.COLUMNS"
)

func probeSQL(table string) string {
	return regexp.QuoteMeta("SELECT DISTINCT `gid` FROM `owncloud`.`" + table + "` WHERE `gid` IN (")
}

func countSQL(table string) string {
	return regexp.QuoteMeta("SELECT COUNT(*) FROM `owncloud`.`" + table + "` WHERE `gid` = ?")
}

func countInSQL(table string) string {
	return regexp.QuoteMeta("SELECT COUNT(*) FROM `owncloud`.`" + table + "` WHERE `gid` IN (")
}

func updateSQL(table string) string {
	return regexp.QuoteMeta("UPDATE `owncloud`.`" + table + "` SET `gid` = ? WHERE `gid` = ?")
}

// newMock monitors pings so a test with no ExpectPing proves the engine
// never reached the database.
func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectDiscovery(mock sqlmock.Sqlmock, tables ...string) {
	mock.ExpectPing()
	rows := sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME"})
	for _, name := range tables {
		rows.AddRow(name, "gid")
	}
	mock.ExpectQuery(discoverSQL).WithArgs("owncloud", "gid").WillReturnRows(rows)
}

func expectProbe(mock sqlmock.Sqlmock, table string, news []string, present ...string) {
	args := make([]driver.Value, len(news))
	for i, v := range news {
		args[i] = v
	}
	rows := sqlmock.NewRows([]string{"gid"})
	for _, v := range present {
		rows.AddRow(v)
	}
	mock.ExpectQuery(probeSQL(table)).WithArgs(args...).WillReturnRows(rows)
}

func expectCount(mock sqlmock.Sqlmock, table, value string, n int64) {
	mock.ExpectQuery(countSQL(table)).WithArgs(value).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(n))
}

func expectApply(mock sqlmock.Sqlmock, table string, batch engine.Batch, rows ...int64) {
	prep := mock.ExpectPrepare(updateSQL(table))
	for i, p := range batch {
		var n int64
		if i < len(rows) {
			n = rows[i]
		}
		prep.ExpectExec().WithArgs(p.New, p.Old).WillReturnResult(sqlmock.NewResult(0, n))
	}
}

func ref(name string) schema.TableRef {
	return schema.TableRef{Schema: "owncloud", Name: name, Column: "gid"}
}

var scenarioBatch = engine.Batch{
	{Old: "staff", New: "employees"},
	{Old: "admin", New: "administrators"},
}

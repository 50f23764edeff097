package schema_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"group-renamer/internal/dialect"
	"group-renamer/internal/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const discoverQuery = "SELECT DISTINCT c.TABLE_NAME, c.COLUMN_NAME FROM information_schema.COLUMNS"

func TestDiscover(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		expected    []schema.TableRef
		expectError bool
	}{
		{
			name: "tables with the column",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME"}).
					AddRow("oc_group_admin", "gid").
					AddRow("oc_group_user", "gid").
					AddRow("oc_groups", "gid")
				mock.ExpectQuery(discoverQuery).WithArgs("owncloud", "gid").WillReturnRows(rows)
			},
			expected: []schema.TableRef{
				{Schema: "owncloud", Name: "oc_group_admin", Column: "gid"},
				{Schema: "owncloud", Name: "oc_group_user", Column: "gid"},
				{Schema: "owncloud", Name: "oc_groups", Column: "gid"},
			},
		},
		{
			name: "no table matches",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(discoverQuery).WithArgs("owncloud", "gid").
					WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME"}))
			},
			expected: []schema.TableRef{},
		},
		{
			name: "duplicates and null rows are skipped",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME"}).
					AddRow("oc_groups", "gid").
					AddRow("OC_GROUPS", "GID").
					AddRow(nil, "gid").
					AddRow("oc_group_user", nil)
				mock.ExpectQuery(discoverQuery).WithArgs("owncloud", "gid").WillReturnRows(rows)
			},
			expected: []schema.TableRef{
				{Schema: "owncloud", Name: "oc_groups", Column: "gid"},
				{Schema: "owncloud", Name: "oc_group_user", Column: "gid"},
			},
		},
		{
			name: "catalog query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(discoverQuery).WillReturnError(sql.ErrConnDone)
			},
			expectError: true,
		},
		{
			name: "row iteration fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME"}).
					AddRow("oc_groups", "gid").
					RowError(0, errors.New("connection reset"))
				mock.ExpectQuery(discoverQuery).WillReturnRows(rows)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setupMock(mock)

			tables, err := schema.Discover(context.Background(), db, &dialect.MysqlDialect{}, "owncloud", "gid")
			if tt.expectError {
				var sqErr *schema.SchemaQueryError
				require.ErrorAs(t, err, &sqErr)
				assert.Equal(t, "gid", sqErr.Column)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, tables)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDiscover_RejectsBadIdentifiers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := &dialect.MysqlDialect{}
	for _, tc := range []struct{ schemaName, column string }{
		{"owncloud", ""},
		{"owncloud", "gid; DROP TABLE x"},
		{"", "gid"},
		{"own cloud", "gid"},
	} {
		_, err := schema.Discover(context.Background(), db, d, tc.schemaName, tc.column)
		assert.ErrorIs(t, err, schema.ErrInvalidIdentifier, "%q/%q", tc.schemaName, tc.column)
	}

	// Nothing reached the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscover_DialectSchemaDefault(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM information_schema.columns").WithArgs("public", "gid").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name"}).AddRow("groups", "gid"))

	tables, err := schema.Discover(context.Background(), db, &dialect.PostgresDialect{}, "", "gid")
	require.NoError(t, err)
	assert.Equal(t, []schema.TableRef{{Schema: "public", Name: "groups", Column: "gid"}}, tables)
}

func TestDiscover_OracleFoldsColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM ALL_TAB_COLUMNS").WithArgs("OWNCLOUD", "GID").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME"}).
			AddRow("OC_GROUPS", "GID").
			AddRow("OC_GROUP_USER", nil))

	tables, err := schema.Discover(context.Background(), db, &dialect.OracleDialect{}, "owncloud", "gid")
	require.NoError(t, err)
	assert.Equal(t, []schema.TableRef{
		{Schema: "OWNCLOUD", Name: "OC_GROUPS", Column: "GID"},
		{Schema: "OWNCLOUD", Name: "OC_GROUP_USER", Column: "GID"},
	}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT DATABASE\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"DATABASE()"}).AddRow("owncloud"))
	name, err := schema.CurrentSchema(context.Background(), db, &dialect.MysqlDialect{})
	require.NoError(t, err)
	assert.Equal(t, "owncloud", name)

	mock.ExpectQuery(`SELECT DATABASE\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"DATABASE()"}).AddRow(nil))
	_, err = schema.CurrentSchema(context.Background(), db, &dialect.MysqlDialect{})
	var sqErr *schema.SchemaQueryError
	assert.ErrorAs(t, err, &sqErr)
}

func TestTableRefString(t *testing.T) {
	assert.Equal(t, "owncloud.oc_groups", schema.TableRef{Schema: "owncloud", Name: "oc_groups"}.String())
	assert.Equal(t, "oc_groups", schema.TableRef{Name: "oc_groups"}.String())
}

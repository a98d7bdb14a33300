package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		user, pass string
		want       string
	}{
		{name: "native dsn untouched", in: "u:p@tcp(db:3306)/ecosol?parseTime=true", want: "u:p@tcp(db:3306)/ecosol?parseTime=true"},
		{name: "empty", in: "  ", want: ""},
		{
			name: "jdbc url",
			in:   "jdbc:mysql://db:3306/ecosol?useSSL=false&characterEncoding=utf8",
			user: "root", pass: "pw",
			want: "root:pw@tcp(db:3306)/ecosol?charset=utf8&parseTime=true&tls=false",
		},
		{
			name: "url credentials",
			in:   "mysql://app:secret@db:3306/ecosol",
			want: "app:secret@tcp(db:3306)/ecosol?charset=utf8mb4&parseTime=true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMySQLDSN(tt.in, tt.user, tt.pass))
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	assert.Equal(t, "postgres://app:pw@db:5432/ecosol?sslmode=disable",
		postgresDSN("postgres://db:5432/ecosol?sslmode=disable", "app", "pw"))
	assert.Equal(t, "postgres://old:new@db/ecosol",
		postgresDSN("postgres://old:secret@db/ecosol", "", "new"))
	assert.Equal(t, "host=db dbname=ecosol user=app password=pw",
		postgresDSN("host=db dbname=ecosol", "app", "pw"))
	assert.Equal(t, "host=db user=keep", postgresDSN("host=db user=keep", "app", ""))
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db/ecosol", maskDSN("postgres://app:pw@db/ecosol"))
	assert.Equal(t, "host=db password=xxxxx user=app", maskDSN("host=db password=pw user=app"))
	assert.Equal(t, "root:xxxxx@tcp(db:3306)/ecosol", maskDSN("root:pw@tcp(db:3306)/ecosol"))
	assert.Equal(t, "file.db", maskDSN("file.db"))
}

func TestNewGormSQLite(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "x.db"), MaxOpenConns: 4, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("SELECT 1").Error)
	require.NoError(t, Close(db))
}

func TestNewGormUnsupported(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

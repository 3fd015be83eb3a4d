package database

import (
	"slices"
	"testing"
	"testing/fstest"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_rate_indexes.up.sql":     {Data: []byte("CREATE INDEX ...")},
		"001_rate_snapshots.up.sql":   {Data: []byte("CREATE TABLE ...")},
		"001_rate_snapshots.down.sql": {Data: []byte("DROP TABLE ...")},
		"README.md":                   {Data: []byte("notes")},
		"archive/000_old.up.sql":      {Data: []byte("--")},
	}

	tests := []struct {
		name    string
		applied []string
		want    []string
	}{
		{"fresh database", nil, []string{"001_rate_snapshots.up.sql", "002_rate_indexes.up.sql"}},
		{"partially applied", []string{"001_rate_snapshots.up.sql"}, []string{"002_rate_indexes.up.sql"}},
		{"up to date", []string{"001_rate_snapshots.up.sql", "002_rate_indexes.up.sql"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pendingMigrations(fsys, tt.applied)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("pendingMigrations() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPendingMigrationsEmptyDir(t *testing.T) {
	fsys := fstest.MapFS{}
	got, err := pendingMigrations(fsys, nil)
	if err != nil {
		t.Fatalf("empty fs should list nothing: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("pendingMigrations() = %v, want empty", got)
	}
}

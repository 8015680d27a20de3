package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected embedded migrations")
	}
	seen := map[string]int{}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			seen[strings.TrimSuffix(name, ".up.sql")]++
		case strings.HasSuffix(name, ".down.sql"):
			seen[strings.TrimSuffix(name, ".down.sql")]++
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}
	for base, n := range seen {
		if n != 2 {
			t.Fatalf("migration %s is missing its up or down file", base)
		}
	}
}

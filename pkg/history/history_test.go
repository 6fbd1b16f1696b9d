package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antibyte/retrocalc/pkg/storage"
)

type storeFactory func(t *testing.T, max int) Store

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, max int) Store {
			return NewMemoryStore(max)
		},
		"file": func(t *testing.T, max int) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "history.yaml"), max)
		},
		"sqlite": func(t *testing.T, max int) Store {
			db, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return NewSQLiteStore(db, "owner-a", max)
		},
	}
}

func expressions(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Expression
	}
	return out
}

func TestStoreContract(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, 3)

			records, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, records)

			for i := 1; i <= 5; i++ {
				require.NoError(t, s.Append(ctx, NewRecord(fmt.Sprintf("%d+%d", i, i), fmt.Sprint(2*i))))
			}

			records, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"5+5", "4+4", "3+3"}, expressions(records))
			assert.Equal(t, "10", records[0].Result)
			assert.WithinDuration(t, time.Now(), records[0].Timestamp, time.Minute)

			found, err := Lookup(ctx, s, records[1].ID)
			require.NoError(t, err)
			assert.Equal(t, "4+4", found.Expression)

			_, err = Lookup(ctx, s, "no-such-id")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Clear(ctx))
			records, err = s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, records)

			// clearing twice is fine
			require.NoError(t, s.Clear(ctx))
		})
	}
}

func TestStoreAssignsMissingID(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, 0)
			require.NoError(t, s.Append(ctx, Record{Expression: "1/0", Result: "Error"}))

			records, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.NotEmpty(t, records[0].ID)
			assert.False(t, records[0].Timestamp.IsZero())
		})
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, 5)
			assert.Error(t, s.Append(ctx, NewRecord("1+1", "2")))
		})
	}
}

func TestSQLiteStoreIsScopedPerOwner(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	alice := NewSQLiteStore(db, "alice", 2)
	bob := NewSQLiteStore(db, "bob", 2)

	require.NoError(t, alice.Append(ctx, NewRecord("1+1", "2")))
	require.NoError(t, alice.Append(ctx, NewRecord("2+2", "4")))
	require.NoError(t, alice.Append(ctx, NewRecord("3+3", "6")))
	require.NoError(t, bob.Append(ctx, NewRecord("9*9", "81")))

	records, err := alice.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"3+3", "2+2"}, expressions(records))

	require.NoError(t, alice.Clear(ctx))

	records, err = bob.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"9*9"}, expressions(records))

	var total int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM calc_history`).Scan(&total))
	assert.Equal(t, 1, total)
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.yaml")

	first := NewFileStore(path, 10)
	require.NoError(t, first.Append(ctx, NewRecord("2+3*4", "14")))

	second := NewFileStore(path, 10)
	records, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "14", records[0].Result)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "expression: 2+3*4")
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	require.NoError(t, os.WriteFile(path, []byte("records: [unclosed"), 0o644))

	_, err := NewFileStore(path, 10).List(context.Background())
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	records := []Record{{ID: "a", Expression: "1"}, {ID: "b", Expression: "2"}}
	r, err := Find(records, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", r.Expression)

	_, err = Find(nil, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaxRecordsDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxRecords, MaxRecords())
}

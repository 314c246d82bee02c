// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

// Package catalog provides a SQLite index of loaded Lua chunks
// that can be searched by string constant.
package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"zb.256lights.llc/luadump/internal/luac"
	"zb.256lights.llc/luadump/internal/luacode"
	"zombiezen.com/go/log"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Catalog is a handle to a catalog database.
// It is safe to call methods on Catalog from multiple goroutines concurrently.
type Catalog struct {
	pool *sqlitemigration.Pool
}

// Open opens the catalog database at path,
// creating it and its parent directories if needed.
// The schema is applied lazily on first use.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return nil, fmt.Errorf("open catalog: %v", err)
	}
	var schema sqlitemigration.Schema
	for i := 1; ; i++ {
		migration, err := fs.ReadFile(sqlFiles(), fmt.Sprintf("schema/%02d.sql", i))
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("open catalog: read migrations: %v", err)
		}
		schema.Migrations = append(schema.Migrations, string(migration))
	}
	return &Catalog{
		pool: sqlitemigration.NewPool(path, schema, sqlitemigration.Options{
			Flags:       sqlite.OpenCreate | sqlite.OpenReadWrite,
			PoolSize:    1,
			PrepareConn: prepareConn,
		}),
	}, nil
}

func prepareConn(conn *sqlite.Conn) error {
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA journal_mode=wal;", nil); err != nil {
		return fmt.Errorf("enable write-ahead logging: %v", err)
	}
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA foreign_keys=on;", nil); err != nil {
		return fmt.Errorf("enable foreign keys: %v", err)
	}
	return nil
}

// Close releases all resources associated with the catalog.
func (cat *Catalog) Close() error {
	return cat.pool.Close()
}

// Add records the chunk loaded from path in the catalog,
// replacing any previous entry for the same path.
// Add returns the identifier of the new entry.
func (cat *Catalog) Add(ctx context.Context, path string, c *luacode.Chunk) (uuid.UUID, error) {
	conn, err := cat.pool.Get(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("add %s to catalog: %v", path, err)
	}
	defer cat.pool.Put(conn)

	ingestID, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, fmt.Errorf("add %s to catalog: %v", path, err)
	}
	if err := insertChunk(conn, ingestID, path, c); err != nil {
		return uuid.Nil, fmt.Errorf("add %s to catalog: %v", path, err)
	}
	log.Debugf(ctx, "Cataloged %s as %v", path, ingestID)
	return ingestID, nil
}

func insertChunk(conn *sqlite.Conn, ingestID uuid.UUID, path string, c *luacode.Chunk) (err error) {
	defer sqlitex.Save(conn)(&err)

	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "delete_chunk.sql", &sqlitex.ExecOptions{
		Named: map[string]any{
			":path": path,
		},
	})
	if err != nil {
		return fmt.Errorf("remove previous entry: %v", err)
	}

	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "insert_chunk.sql", &sqlitex.ExecOptions{
		Named: map[string]any{
			":ingest_id": ingestID.String(),
			":path":      path,
			":source":    string(c.Main.Source),
		},
	})
	if err != nil {
		return err
	}
	chunkID := conn.LastInsertRowID()

	names := luac.FunctionNames(c.Main)
	insertFunction, err := sqlitex.PrepareTransientFS(conn, sqlFiles(), "insert_function.sql")
	if err != nil {
		return err
	}
	defer insertFunction.Finalize()
	insertConstant, err := sqlitex.PrepareTransientFS(conn, sqlFiles(), "insert_string_constant.sql")
	if err != nil {
		return err
	}
	defer insertConstant.Finalize()

	c.Main.Walk(func(f *luacode.Prototype) bool {
		insertFunction.SetInt64(":chunk_id", chunkID)
		insertFunction.SetText(":name", names[f])
		insertFunction.SetInt64(":line_defined", int64(f.LineDefined))
		insertFunction.SetInt64(":last_line_defined", int64(f.LastLineDefined))
		insertFunction.SetInt64(":instruction_count", int64(len(f.Code)))
		if _, err = insertFunction.Step(); err != nil {
			err = fmt.Errorf("function %s: %v", names[f], err)
			return false
		}
		if err = insertFunction.Reset(); err != nil {
			return false
		}
		functionID := conn.LastInsertRowID()

		for i, k := range f.Constants {
			s, isString := k.Unquoted()
			if !isString {
				continue
			}
			insertConstant.SetInt64(":function_id", functionID)
			insertConstant.SetInt64(":constant_index", int64(i))
			insertConstant.SetText(":value", s)
			if _, err = insertConstant.Step(); err != nil {
				err = fmt.Errorf("function %s: constant %d: %v", names[f], i, err)
				return false
			}
			if err = insertConstant.Reset(); err != nil {
				return false
			}
		}
		return true
	})
	return err
}

// Match is a string constant found by [Catalog.Find].
type Match struct {
	Path     string
	IngestID uuid.UUID
	// Function is the name of the function that holds the constant,
	// as returned by [luac.FunctionNames].
	Function        string
	LineDefined     uint32
	LastLineDefined uint32
	// ConstantIndex is the 0-based position of the constant
	// in the function's constant table.
	ConstantIndex int
	Value         string
}

// Find returns the string constants in the catalog that contain text,
// ordered by path, then function, then constant index.
func (cat *Catalog) Find(ctx context.Context, text string) ([]*Match, error) {
	conn, err := cat.pool.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("find %q in catalog: %v", text, err)
	}
	defer cat.pool.Put(conn)

	var matches []*Match
	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "find.sql", &sqlitex.ExecOptions{
		Named: map[string]any{
			":text": text,
		},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			id, err := uuid.Parse(stmt.GetText("ingest_id"))
			if err != nil {
				return fmt.Errorf("%s: %v", stmt.GetText("path"), err)
			}
			matches = append(matches, &Match{
				Path:            stmt.GetText("path"),
				IngestID:        id,
				Function:        stmt.GetText("function_name"),
				LineDefined:     uint32(stmt.GetInt64("line_defined")),
				LastLineDefined: uint32(stmt.GetInt64("last_line_defined")),
				ConstantIndex:   int(stmt.GetInt64("constant_index")),
				Value:           stmt.GetText("value"),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("find %q in catalog: %v", text, err)
	}
	log.Debugf(ctx, "Found %d constants containing %q", len(matches), text)
	return matches, nil
}

//go:embed sql
var rawSQLFiles embed.FS

func sqlFiles() fs.FS {
	fsys, err := fs.Sub(rawSQLFiles, "sql")
	if err != nil {
		panic(err)
	}
	return fsys
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/rushteam/sommelier/core"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS wines (
	true_index INTEGER PRIMARY KEY,
	price      REAL,
	score      REAL,
	features   TEXT NOT NULL
)`

// SQLiteCatalog 从 SQLite 表 wines 一次性加载目录到内存，之后只读。
// 价格/评分为 NULL 表示解析失败，加载时恢复为哨兵值。
type SQLiteCatalog struct {
	*MemoryCatalog
	db *sql.DB
}

// OpenSQLite 使用 modernc.org/sqlite 驱动打开数据库并确保表存在。
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite catalog: open: %w", err)
	}
	if _, err := db.ExecContext(ctx, catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite catalog: schema: %w", err)
	}
	return db, nil
}

// NewSQLiteCatalog 打开数据库并加载全部酒款；true_index 必须是 0..n-1 连续的。
func NewSQLiteCatalog(ctx context.Context, dsn string, logger zerolog.Logger) (*SQLiteCatalog, error) {
	db, err := OpenSQLite(ctx, dsn)
	if err != nil {
		return nil, err
	}
	wines, err := loadWines(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug().Int("wines", len(wines)).Msg("sqlite catalog loaded")
	return &SQLiteCatalog{MemoryCatalog: NewMemoryCatalog(wines), db: db}, nil
}

func loadWines(ctx context.Context, db *sql.DB) ([]core.Wine, error) {
	rows, err := db.QueryContext(ctx, `SELECT true_index, price, score, features FROM wines ORDER BY true_index`)
	if err != nil {
		return nil, fmt.Errorf("sqlite catalog: query: %w", err)
	}
	defer rows.Close()

	var wines []core.Wine
	for rows.Next() {
		var (
			idx          int
			price, score sql.NullFloat64
			features     string
		)
		if err := rows.Scan(&idx, &price, &score, &features); err != nil {
			return nil, fmt.Errorf("sqlite catalog: scan: %w", err)
		}
		if idx != len(wines) {
			return nil, fmt.Errorf("%w: sqlite catalog: true_index %d, want %d", core.ErrInvalidInput, idx, len(wines))
		}
		w := core.Wine{Index: idx, Price: math.Inf(1), Score: math.Inf(-1)}
		if price.Valid {
			w.Price = price.Float64
		}
		if score.Valid {
			w.Score = score.Float64
		}
		if err := json.Unmarshal([]byte(features), &w.Features); err != nil {
			return nil, fmt.Errorf("%w: sqlite catalog: wine %d features: %v", core.ErrInvalidInput, idx, err)
		}
		wines = append(wines, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite catalog: %w", err)
	}
	return wines, nil
}

// SaveSQLiteCatalog 在一个事务内用 wines 替换表内容。
func SaveSQLiteCatalog(ctx context.Context, db *sql.DB, wines []core.Wine) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite catalog: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM wines`); err != nil {
		return fmt.Errorf("sqlite catalog: clear: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO wines (true_index, price, score, features) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite catalog: prepare: %w", err)
	}
	defer stmt.Close()

	for i := range wines {
		features, err := json.Marshal(wines[i].Features)
		if err != nil {
			return fmt.Errorf("sqlite catalog: wine %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, i, nullable(wines[i].Price), nullable(wines[i].Score), string(features)); err != nil {
			return fmt.Errorf("sqlite catalog: insert wine %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func nullable(x float64) sql.NullFloat64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: x, Valid: true}
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

var _ core.CatalogStore = (*SQLiteCatalog)(nil)

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/jeongbi/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS laws (
		name TEXT PRIMARY KEY,
		category TEXT,
		effective_date TIMESTAMP,
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE TABLE IF NOT EXISTS articles (
		law_name TEXT NOT NULL,
		article_number TEXT NOT NULL,
		title TEXT,
		content TEXT NOT NULL,
		section TEXT,
		last_amended TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (law_name, article_number)
	);

	CREATE INDEX IF NOT EXISTS idx_articles_section ON articles(section);

	CREATE TABLE IF NOT EXISTS relations (
		from_law TEXT NOT NULL,
		from_article TEXT NOT NULL,
		to_law TEXT NOT NULL,
		to_article TEXT NOT NULL,
		type TEXT NOT NULL,
		PRIMARY KEY (from_law, from_article, to_law, to_article, type),
		FOREIGN KEY (from_law, from_article) REFERENCES articles(law_name, article_number) ON DELETE CASCADE,
		FOREIGN KEY (to_law, to_article) REFERENCES articles(law_name, article_number) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS query_log (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		result_count INTEGER NOT NULL,
		partial INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceCorpus swaps the whole catalog for the given laws, articles and relations in one
// transaction. Relations whose ends are not among articles are skipped.
func (s *SQLiteStorage) ReplaceCorpus(ctx context.Context, laws []*models.Law, articles []*models.Article, relations []models.Relation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"relations", "articles", "laws"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	lawStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO laws (name, category, effective_date, status) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer lawStmt.Close()
	for _, l := range laws {
		status := l.Status
		if status == "" {
			status = models.LawActive
		}
		if _, err := lawStmt.ExecContext(ctx, l.Name, l.Category, l.EffectiveDate, string(status)); err != nil {
			return fmt.Errorf("insert law %s: %w", l.Name, err)
		}
	}

	if err := insertArticles(ctx, tx, articles); err != nil {
		return err
	}

	relStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO relations (from_law, from_article, to_law, to_article, type) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer relStmt.Close()
	known := make(map[models.ArticleKey]bool, len(articles))
	for _, a := range articles {
		known[a.Key()] = true
	}
	for _, r := range relations {
		if !known[r.From] || !known[r.To] {
			continue
		}
		if _, err := relStmt.ExecContext(ctx, r.From.LawName, r.From.ArticleNumber, r.To.LawName, r.To.ArticleNumber, string(r.Type)); err != nil {
			return fmt.Errorf("insert relation %s -> %s: %w", r.From, r.To, err)
		}
	}
	return tx.Commit()
}

// UpsertArticles inserts or replaces articles in a transaction.
func (s *SQLiteStorage) UpsertArticles(ctx context.Context, articles []*models.Article) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertArticles(ctx, tx, articles); err != nil {
		return err
	}
	return tx.Commit()
}

func insertArticles(ctx context.Context, tx *sql.Tx, articles []*models.Article) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (law_name, article_number, title, content, section, last_amended, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(law_name, article_number) DO UPDATE SET
		   title = excluded.title, content = excluded.content, section = excluded.section,
		   last_amended = excluded.last_amended, updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, a := range articles {
		if err := a.Validate(); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, a.LawName, a.ArticleNumber, a.Title, a.Content, a.Section, a.LastAmended, now); err != nil {
			return fmt.Errorf("insert article %s: %w", a.Key(), err)
		}
	}
	return nil
}

const articleColumns = `law_name, article_number, title, content, section, last_amended`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(r rowScanner) (*models.Article, error) {
	var a models.Article
	var title, section sql.NullString
	var amended sql.NullTime
	if err := r.Scan(&a.LawName, &a.ArticleNumber, &title, &a.Content, &section, &amended); err != nil {
		return nil, err
	}
	a.Title = title.String
	a.Section = section.String
	if amended.Valid {
		a.LastAmended = amended.Time
	}
	return &a, nil
}

// GetArticle returns one article by key.
func (s *SQLiteStorage) GetArticle(ctx context.Context, key models.ArticleKey) (*models.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE law_name = ? AND article_number = ?`,
		key.LawName, key.ArticleNumber,
	)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetArticles returns the articles that exist among keys. Missing keys are absent from the map.
func (s *SQLiteStorage) GetArticles(ctx context.Context, keys []models.ArticleKey) (map[models.ArticleKey]*models.Article, error) {
	out := make(map[models.ArticleKey]*models.Article, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	conds := make([]string, len(keys))
	args := make([]any, 0, len(keys)*2)
	for i, k := range keys {
		conds[i] = "(law_name = ? AND article_number = ?)"
		args = append(args, k.LawName, k.ArticleNumber)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE `+strings.Join(conds, " OR "), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out[a.Key()] = a
	}
	return out, rows.Err()
}

// ListArticles returns articles ordered by law name and article number.
func (s *SQLiteStorage) ListArticles(ctx context.Context, offset, limit int) ([]*models.Article, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY law_name, article_number LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// ListLaws returns all laws ordered by name.
func (s *SQLiteStorage) ListLaws(ctx context.Context) ([]*models.Law, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, category, effective_date, status FROM laws ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var laws []*models.Law
	for rows.Next() {
		var l models.Law
		var category sql.NullString
		var effective sql.NullTime
		var status string
		if err := rows.Scan(&l.Name, &category, &effective, &status); err != nil {
			return nil, err
		}
		l.Category = category.String
		if effective.Valid {
			l.EffectiveDate = effective.Time
		}
		l.Status = models.LawStatus(status)
		laws = append(laws, &l)
	}
	return laws, rows.Err()
}

// ListRelations returns all stored relations.
func (s *SQLiteStorage) ListRelations(ctx context.Context) ([]models.Relation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_law, from_article, to_law, to_article, type FROM relations
		 ORDER BY from_law, from_article, to_law, to_article, type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []models.Relation
	for rows.Next() {
		var r models.Relation
		var typ string
		if err := rows.Scan(&r.From.LawName, &r.From.ArticleNumber, &r.To.LawName, &r.To.ArticleNumber, &typ); err != nil {
			return nil, err
		}
		r.Type = models.RelationType(typ)
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// LogQuery records a search. ID and CreatedAt are filled in when empty.
func (s *SQLiteStorage) LogQuery(ctx context.Context, entry *QueryLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_log (id, query, result_count, partial, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Query, entry.ResultCount, entry.Partial, entry.Duration.Milliseconds(), entry.CreatedAt,
	)
	return err
}

// RecentQueries returns the most recent query log entries, newest first.
func (s *SQLiteStorage) RecentQueries(ctx context.Context, limit int) ([]*QueryLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, result_count, partial, duration_ms, created_at
		 FROM query_log ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*QueryLogEntry
	for rows.Next() {
		var e QueryLogEntry
		var ms int64
		if err := rows.Scan(&e.ID, &e.Query, &e.ResultCount, &e.Partial, &ms, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) count(ctx context.Context, table string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	return count, err
}

// CountArticles returns the total number of articles.
func (s *SQLiteStorage) CountArticles(ctx context.Context) (int64, error) {
	return s.count(ctx, "articles")
}

// CountLaws returns the total number of laws.
func (s *SQLiteStorage) CountLaws(ctx context.Context) (int64, error) {
	return s.count(ctx, "laws")
}

// CountRelations returns the total number of relations.
func (s *SQLiteStorage) CountRelations(ctx context.Context) (int64, error) {
	return s.count(ctx, "relations")
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Package ledger is the local bookkeeping store behind posting: the
// monthly quota counter, the content-hash duplicate log, and the
// mention/retweet processing logs. All state lives in one SQLite file.
package ledger

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the xbot bookkeeping database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex

	// now is swappable for month-rollover tests.
	now func() time.Time
}

// Stats summarizes posting activity.
type Stats struct {
	CurrentMonthPosts int
	TotalPosts        int
	TotalMentions     int
	TotalRetweets     int
}

// Open creates or opens the bookkeeping store at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// initSchema creates the database schema.
func (s *Store) initSchema() error {
	schema := `
	-- Monthly post counts (quota enforcement)
	CREATE TABLE IF NOT EXISTS post_counts (
		id INTEGER PRIMARY KEY,
		month TEXT UNIQUE,
		count INTEGER DEFAULT 0
	);

	-- Published post content (duplicate prevention)
	CREATE TABLE IF NOT EXISTS posted_tweets (
		id INTEGER PRIMARY KEY,
		content_hash TEXT UNIQUE,
		tweet_id TEXT,
		posted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Mentions already replied to
	CREATE TABLE IF NOT EXISTS processed_mentions (
		id INTEGER PRIMARY KEY,
		tweet_id TEXT UNIQUE,
		author_id TEXT,
		author_username TEXT,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Retweets already made
	CREATE TABLE IF NOT EXISTS retweet_log (
		id INTEGER PRIMARY KEY,
		original_tweet_id TEXT UNIQUE,
		retweeted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		is_quote_retweet BOOLEAN DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ContentHash returns the dedup key for post text.
// md5 keeps the keys compatible with databases written by earlier
// versions of the bot; this is a lookup key, not a security boundary.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// currentMonth returns the quota counter key, local YYYY-MM.
func (s *Store) currentMonth() string {
	return s.now().Format("2006-01")
}

// =============================================================================
// QUOTA COUNTER OPERATIONS
// =============================================================================

// PostCount returns the current month's post count.
func (s *Store) PostCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT count FROM post_counts WHERE month = ?`, s.currentMonth()).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read post count: %w", err)
	}
	return count, nil
}

// IncrementPostCount bumps the current month's counter, creating the
// row on first post of the month.
func (s *Store) IncrementPostCount() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO post_counts (month, count) VALUES (?, 1)
		ON CONFLICT(month) DO UPDATE SET count = count + 1
	`, s.currentMonth())
	if err != nil {
		return fmt.Errorf("failed to increment post count: %w", err)
	}
	return nil
}

// =============================================================================
// DUPLICATE PREVENTION OPERATIONS
// =============================================================================

// HasPosted reports whether this content has been published before.
func (s *Store) HasPosted(content string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRow(`SELECT 1 FROM posted_tweets WHERE content_hash = ?`, ContentHash(content)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check posted content: %w", err)
	}
	return true, nil
}

// RecordPost records published content against its platform tweet ID.
func (s *Store) RecordPost(content, tweetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO posted_tweets (content_hash, tweet_id) VALUES (?, ?)
	`, ContentHash(content), tweetID)
	if err != nil {
		return fmt.Errorf("failed to record post: %w", err)
	}
	return nil
}

// =============================================================================
// MENTION OPERATIONS
// =============================================================================

// HasProcessedMention reports whether a mention was already replied to.
func (s *Store) HasProcessedMention(tweetID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRow(`SELECT 1 FROM processed_mentions WHERE tweet_id = ?`, tweetID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check mention: %w", err)
	}
	return true, nil
}

// MarkMentionProcessed records a mention so it is never replied to twice.
func (s *Store) MarkMentionProcessed(tweetID, authorID, authorUsername string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO processed_mentions (tweet_id, author_id, author_username)
		VALUES (?, ?, ?)
	`, tweetID, authorID, authorUsername)
	if err != nil {
		return fmt.Errorf("failed to mark mention processed: %w", err)
	}
	return nil
}

// =============================================================================
// RETWEET OPERATIONS
// =============================================================================

// HasRetweeted reports whether a tweet was already retweeted.
func (s *Store) HasRetweeted(tweetID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRow(`SELECT 1 FROM retweet_log WHERE original_tweet_id = ?`, tweetID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check retweet: %w", err)
	}
	return true, nil
}

// RecordRetweet records a retweet (plain or quote) against its source.
func (s *Store) RecordRetweet(tweetID string, isQuote bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO retweet_log (original_tweet_id, is_quote_retweet) VALUES (?, ?)
	`, tweetID, isQuote)
	if err != nil {
		return fmt.Errorf("failed to record retweet: %w", err)
	}
	return nil
}

// =============================================================================
// STATISTICS
// =============================================================================

// GetStats returns posting activity totals.
func (s *Store) GetStats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{}

	err := s.db.QueryRow(`SELECT count FROM post_counts WHERE month = ?`, s.currentMonth()).Scan(&stats.CurrentMonthPosts)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read month count: %w", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posted_tweets`).Scan(&stats.TotalPosts); err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM processed_mentions`).Scan(&stats.TotalMentions); err != nil {
		return nil, fmt.Errorf("failed to count mentions: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM retweet_log`).Scan(&stats.TotalRetweets); err != nil {
		return nil, fmt.Errorf("failed to count retweets: %w", err)
	}

	return stats, nil
}

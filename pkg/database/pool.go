package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"weather-station-api/pkg/logging"
	"weather-station-api/pkg/metrics"
)

// Config holds database connection configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// MaxConns is the fixed pool size.
	MaxConns int
}

type slot struct {
	conn *Conn
	busy bool
}

// Pool is a fixed-size set of pinned PostgreSQL connections with blocking
// acquisition. Each slot holds a dedicated session, so per-session settings
// such as SET TIME ZONE stay with the connection until the next borrower
// overwrites them.
type Pool struct {
	db      *sqlx.DB
	slots   []slot
	mu      sync.Mutex
	cond    *sync.Cond
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// Conn wraps a pinned sqlx connection with query timing and error metrics.
type Conn struct {
	conn    *sqlx.Conn
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// New opens a PostgreSQL connection, pins cfg.MaxConns sessions from it and
// returns the initialised pool. On any pin failure the already-pinned
// sessions are closed and an error is returned.
func New(cfg *Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*Pool, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool, err := NewWithDB(db, cfg.MaxConns, logger, metricsCollector)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info(context.Background(), "[DB_INIT] PostgreSQL connection pool established", logging.Fields{
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.Database,
		"size":     cfg.MaxConns,
	})

	return pool, nil
}

// NewWithDB pins size sessions from an already-open database. It exists so
// tests can supply a mock-backed sqlx.DB.
func NewWithDB(db *sqlx.DB, size int, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		db:      db,
		slots:   make([]slot, size),
		logger:  logger,
		metrics: metricsCollector,
	}
	p.cond = sync.NewCond(&p.mu)

	for i := range p.slots {
		conn, err := db.Connx(context.Background())
		if err != nil {
			for j := 0; j < i; j++ {
				p.slots[j].conn.conn.Close()
			}
			return nil, fmt.Errorf("failed to pin connection %d: %w", i, err)
		}
		p.slots[i] = slot{
			conn: &Conn{conn: conn, logger: logger, metrics: metricsCollector},
			busy: false,
		}
	}

	if metricsCollector != nil {
		metricsCollector.UpdatePoolOccupancy(0, size)
	}

	return p, nil
}

// Size returns the fixed number of pooled connections.
func (p *Pool) Size() int {
	return len(p.slots)
}

// Acquire returns a free connection, blocking until one is released. The
// slots are scanned linearly from index 0; if none is free the caller waits
// on the pool's condition variable and re-scans on wake, which also covers
// spurious wakeups. Acquire cannot fail once the pool is initialised.
func (p *Pool) Acquire() *Conn {
	start := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.PoolWaiters.Inc()
		defer p.metrics.PoolWaiters.Dec()
	}

	for {
		for i := range p.slots {
			if !p.slots[i].busy {
				p.slots[i].busy = true
				p.updateOccupancyLocked()
				if p.metrics != nil {
					p.metrics.PoolAcquireWait.Observe(time.Since(start).Seconds())
				}
				return p.slots[i].conn
			}
		}
		p.cond.Wait()
	}
}

// Release returns a connection to the pool and wakes at most one waiter.
// The connection is returned regardless of the outcome of the queries run on
// it; a dead connection surfaces as a query error to its next borrower.
func (p *Pool) Release(conn *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		if p.slots[i].conn == conn {
			p.slots[i].busy = false
			p.updateOccupancyLocked()
			p.cond.Signal()
			return
		}
	}
}

// Close closes every pinned session and the underlying database.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		if p.slots[i].conn != nil {
			p.slots[i].conn.conn.Close()
		}
	}

	if p.logger != nil {
		p.logger.Info(context.Background(), "[DB_CLOSE] Connection pool closed", logging.Fields{
			"size": len(p.slots),
		})
	}

	return p.db.Close()
}

func (p *Pool) updateOccupancyLocked() {
	if p.metrics == nil {
		return
	}
	busy := 0
	for i := range p.slots {
		if p.slots[i].busy {
			busy++
		}
	}
	p.metrics.UpdatePoolOccupancy(busy, len(p.slots)-busy)
}

// QueryxContext executes a query on the pinned session with timing metrics.
func (c *Conn) QueryxContext(ctx context.Context, queryType, query string, args ...interface{}) (*sqlx.Rows, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		if c.metrics != nil {
			c.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
		}
	}()

	rows, err := c.conn.QueryxContext(ctx, query, args...)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordDBError("query_error")
		}
		if c.logger != nil {
			c.logger.Error(ctx, "[DB_QUERY_ERROR] Query failed", logging.Fields{
				"query_type": queryType,
			}, err)
		}
		return nil, err
	}

	return rows, nil
}

// ExecContext executes a command on the pinned session with timing metrics.
func (c *Conn) ExecContext(ctx context.Context, queryType, query string, args ...interface{}) (sql.Result, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		if c.metrics != nil {
			c.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
		}
	}()

	result, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordDBError("exec_error")
		}
		if c.logger != nil {
			c.logger.Error(ctx, "[DB_EXEC_ERROR] Command failed", logging.Fields{
				"query_type": queryType,
			}, err)
		}
		return nil, err
	}

	return result, nil
}

// GetContext executes a query that returns a single row. sql.ErrNoRows is
// passed through without logging so absent-row lookups stay quiet.
func (c *Conn) GetContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		if c.metrics != nil {
			c.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
		}
	}()

	err := c.conn.GetContext(ctx, dest, query, args...)
	if err != nil && err != sql.ErrNoRows {
		if c.metrics != nil {
			c.metrics.RecordDBError("get_error")
		}
		if c.logger != nil {
			c.logger.Error(ctx, "[DB_GET_ERROR] Get query failed", logging.Fields{
				"query_type": queryType,
			}, err)
		}
	}

	return err
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"invitebot/entity"
	"invitebot/internal/config"
	"invitebot/lib/sl"
	"log/slog"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

type MySql struct {
	db         *sql.DB
	statements map[string]*sql.Stmt
	stmtMu     sync.Mutex // guards statements
	mu         sync.Mutex // serialises store operations
	now        func() time.Time
	log        *slog.Logger
}

func NewSQLClient(ctx context.Context, conf *config.Config, log *slog.Logger) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		conf.Store.User, conf.Store.Password, conf.Store.Host, conf.Store.Port, conf.Store.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if i == 2 {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}

	// one logical connection: every operation runs under mu anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		statements: make(map[string]*sql.Stmt),
		now:        nowUTC,
		log:        log.With(sl.Module("database.mysql")),
	}
	if err = sdb.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeStmt()
	return s.db.Close()
}

// UpsertMany writes the batch in one transaction
func (s *MySql) UpsertMany(ctx context.Context, links []entity.InviteLink, chatId string, ownerId *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := prepareBatch(links, chatId, ownerId, s.now())
	if len(batch) == 0 {
		return nil
	}
	stmt, err := s.stmtUpsertInvite()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	txStmt := tx.StmtContext(ctx, stmt)
	for _, l := range batch {
		_, err = txStmt.ExecContext(ctx,
			l.Link,
			l.ChatId,
			nullInt64(l.OwnerId),
			nullString(l.Title),
			l.CreatedAt,
			nullTime(l.ExpireAt),
			nullInt(l.UsageLimit),
			l.RequiresApproval,
			l.UsageCount,
			l.ApprovedRequestCount,
			l.Revoked,
			l.LastSyncedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert invite: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *MySql) GetByOwner(ctx context.Context, ownerId int64) ([]entity.InviteLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.stmtSelectInvitesByOwner()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, ownerId)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return scanInvites(rows)
}

func (s *MySql) GetAll(ctx context.Context) ([]entity.InviteLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.stmtSelectInvites()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return scanInvites(rows)
}

func (s *MySql) GetLink(ctx context.Context, link string) (*entity.InviteLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.stmtSelectInvite()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	links, err := scanInvites(rows)
	if err != nil || len(links) == 0 {
		return nil, err
	}
	return &links[0], nil
}

func (s *MySql) DeleteLink(ctx context.Context, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM invites WHERE link = ?`, link)
	return err
}

func (s *MySql) UpsertUser(ctx context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.stmtUpsertUser()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, user.TelegramId, nullString(user.Username), nullString(user.FirstName))
	return err
}

func (s *MySql) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT tg_id, username, first_name FROM users WHERE tg_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	users, err := scanUsers(rows)
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return users[0], nil
}

func (s *MySql) ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tg_id, username, first_name FROM users ORDER BY tg_id LIMIT ? OFFSET ?`,
		limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return scanUsers(rows)
}

func scanInvites(rows *sql.Rows) ([]entity.InviteLink, error) {
	defer rows.Close()

	links := make([]entity.InviteLink, 0)
	for rows.Next() {
		var l entity.InviteLink
		var owner sql.NullInt64
		var title, ownerUsername, ownerFirstName sql.NullString
		var expire sql.NullTime
		var usageLimit sql.NullInt64
		if err := rows.Scan(
			&l.Link,
			&l.ChatId,
			&owner,
			&title,
			&l.CreatedAt,
			&expire,
			&usageLimit,
			&l.RequiresApproval,
			&l.UsageCount,
			&l.ApprovedRequestCount,
			&l.Revoked,
			&l.LastSyncedAt,
			&ownerUsername,
			&ownerFirstName,
		); err != nil {
			return nil, err
		}
		if owner.Valid {
			l.OwnerId = &owner.Int64
		}
		if expire.Valid {
			l.ExpireAt = &expire.Time
		}
		if usageLimit.Valid {
			v := int(usageLimit.Int64)
			l.UsageLimit = &v
		}
		l.Title = title.String
		l.OwnerUsername = ownerUsername.String
		l.OwnerFirstName = ownerFirstName.String
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

func scanUsers(rows *sql.Rows) ([]*entity.User, error) {
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		var u entity.User
		var username, firstName sql.NullString
		if err := rows.Scan(&u.TelegramId, &username, &firstName); err != nil {
			return nil, err
		}
		u.Username = username.String
		u.FirstName = firstName.String
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		tg_id      BIGINT       NOT NULL PRIMARY KEY,
		username   VARCHAR(64)  NULL,
		first_name VARCHAR(128) NULL,
		INDEX idx_users_username (username)
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS invites (
		id                     BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		link                   VARCHAR(255) NOT NULL,
		chat_id                VARCHAR(32)  NOT NULL,
		owner_tg_id            BIGINT       NULL,
		title                  VARCHAR(64)  NULL,
		date_created           DATETIME     NOT NULL,
		expire_date            DATETIME     NULL,
		usage_limit            INT          NULL,
		request_needed         TINYINT(1)   NOT NULL DEFAULT 0,
		` + "`usage`" + `                INT          NOT NULL DEFAULT 0,
		approved_request_count INT          NOT NULL DEFAULT 0,
		revoked                TINYINT(1)   NOT NULL DEFAULT 0,
		last_synced_at         DATETIME     NULL,
		UNIQUE KEY uq_invites_link (link),
		INDEX idx_invites_owner (owner_tg_id),
		INDEX idx_invites_chat (chat_id),
		INDEX idx_invites_created (date_created),
		INDEX idx_invites_synced (last_synced_at)
	) CHARACTER SET utf8mb4`,
}

const selectInvites = "SELECT i.link, i.chat_id, i.owner_tg_id, i.title, i.date_created, i.expire_date, " +
	"i.usage_limit, i.request_needed, i.`usage`, i.approved_request_count, i.revoked, i.last_synced_at, " +
	"u.username, u.first_name " +
	"FROM invites i LEFT JOIN users u ON u.tg_id = i.owner_tg_id"

func (s *MySql) migrate(ctx context.Context) error {
	for _, query := range schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.stmtMu.Lock()
	defer s.stmtMu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.stmtMu.Lock()
	defer s.stmtMu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

// stmtUpsertInvite keeps the first date and owner, fills optional fields only
// when present and never lets counters go down
func (s *MySql) stmtUpsertInvite() (*sql.Stmt, error) {
	query := "INSERT INTO invites (" +
		"link, chat_id, owner_tg_id, title, date_created, expire_date, usage_limit, " +
		"request_needed, `usage`, approved_request_count, revoked, last_synced_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE " +
		"title = COALESCE(VALUES(title), title), " +
		"expire_date = COALESCE(VALUES(expire_date), expire_date), " +
		"usage_limit = COALESCE(VALUES(usage_limit), usage_limit), " +
		"request_needed = VALUES(request_needed), " +
		"`usage` = GREATEST(`usage`, VALUES(`usage`)), " +
		"approved_request_count = GREATEST(approved_request_count, VALUES(approved_request_count)), " +
		"revoked = VALUES(revoked), " +
		"last_synced_at = VALUES(last_synced_at)"
	return s.prepareStmt("upsertInvite", query)
}

func (s *MySql) stmtSelectInvites() (*sql.Stmt, error) {
	query := selectInvites + " ORDER BY i.date_created DESC, i.id"
	return s.prepareStmt("selectInvites", query)
}

func (s *MySql) stmtSelectInvitesByOwner() (*sql.Stmt, error) {
	query := selectInvites + " WHERE i.owner_tg_id = ? ORDER BY i.date_created DESC, i.id"
	return s.prepareStmt("selectInvitesByOwner", query)
}

func (s *MySql) stmtSelectInvite() (*sql.Stmt, error) {
	query := selectInvites + " WHERE i.link = ?"
	return s.prepareStmt("selectInvite", query)
}

func (s *MySql) stmtUpsertUser() (*sql.Stmt, error) {
	query := `INSERT INTO users (tg_id, username, first_name) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE username = VALUES(username), first_name = VALUES(first_name)`
	return s.prepareStmt("upsertUser", query)
}

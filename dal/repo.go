package dal

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"github.com/mattn/go-sqlite3"
	"strings"
	"sync"
	"time"
	"timeline_station/shared"
)

const schemaVer = 1

//go:embed scripts/*
var scripts embed.FS

// IRepo is the ordered, keyed record store behind accounts and timeline partitions.
// Items of a partition are always returned in descending identifier order.
type IRepo interface {
	InitUpdateDb()
	Close() error
	AddAccount(acct *Account) (isNew bool, err error)
	GetAccount(username string) (*Account, error)
	GetAccountById(id int) (*Account, error)
	GetAccounts() ([]*Account, error)
	UpdateAccountTokens(username, token, tokenSecret string) error
	SetAccountLastLoaded(accountId int, when time.Time) error
	DeleteAccount(username string) error
	GetHighestItemId(accountId int, kind shared.TimelineKind) (id int64, found bool, err error)
	GetItems(accountId int, kind shared.TimelineKind, limit, offset int) ([]*Item, error)
	GetItemsWindow(accountId int, kind shared.TimelineKind, atOrBelow, above *int64, limit int) ([]*Item, error)
	GetItemCount(accountId int, kind shared.TimelineKind) (int, error)
	AddItemIfNew(item *Item) (isNew bool, err error)
	AddItemsIfNew(items []*Item) (newCount int, err error)
	DeleteItem(accountId int, kind shared.TimelineKind, id int64) error
	SetFavorited(accountId int, id int64, favorited bool) error
}

type Repo struct {
	cfg    *shared.Config
	logger shared.ILogger
	db     *sql.DB
	muDb   sync.RWMutex
}

const itemColumns = `account_id, kind, id, created_at, user_name, screen_name, text, source, source_url,
	favorited, content_hash`

func NewRepo(cfg *shared.Config, logger shared.ILogger) IRepo {

	var err error
	var db *sql.DB

	// https://phiresky.github.io/blog/2020/sqlite-performance-tuning/
	// https://github.com/mattn/go-sqlite3/issues/1022#issuecomment-1067353980
	// _synchronous=1 is "normal"
	cstr := "file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_synchronous=1&_busy_timeout=5000&_foreign_keys=1"
	db, err = sql.Open("sqlite3", fmt.Sprintf(cstr, cfg.DbFile))
	if err != nil {
		logger.Errorf("Failed to open/create DB file: %s: %v", cfg.DbFile, err)
		panic(err)
	}

	repo := Repo{
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	return &repo
}

func (repo *Repo) Close() error {
	return repo.db.Close()
}

func (repo *Repo) InitUpdateDb() {

	dbVer := 0
	sysParamsExists := false
	var err error
	var rows *sql.Rows

	rows, err = repo.db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name='sys_params'")
	if err != nil {
		repo.logger.Errorf("Failed to check if 'sys_params' table exists: %v", err)
		panic(err)
	}
	for rows.Next() {
		sysParamsExists = true
	}
	_ = rows.Close()
	if !sysParamsExists {
		repo.logger.Printf("Database appears to be empty; current schema version is %d", schemaVer)
	} else {
		row := repo.db.QueryRow("SELECT val FROM sys_params WHERE name='schema_ver'")
		if err = row.Scan(&dbVer); err != nil {
			repo.logger.Errorf("Failed to query schema version: %v", err)
			panic(err)
		}
		repo.logger.Printf("Database is at version %d; current schema version is %d", dbVer, schemaVer)
	}
	for i := dbVer; i < schemaVer; i += 1 {
		nextVer := i + 1
		fn := fmt.Sprintf("scripts/create-%02d.sql", nextVer)
		repo.logger.Printf("Running %s", fn)
		var sqlBytes []byte
		if sqlBytes, err = scripts.ReadFile(fn); err != nil {
			repo.logger.Errorf("Failed to read init script %s: %v", fn, err)
			panic(err)
		}
		sqlStr := string(sqlBytes)
		if _, err = repo.db.Exec(sqlStr); err != nil {
			repo.logger.Errorf("Failed to execute init script %s: %v", fn, err)
			panic(err)
		}
		_, err = repo.db.Exec("UPDATE sys_params SET val=? WHERE name='schema_ver'", nextVer)
		if err != nil {
			repo.logger.Errorf("Failed to update schema_ver to %d: %v", i, err)
			panic(err)
		}
	}
}

func isDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrConstraint &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func (repo *Repo) AddAccount(acct *Account) (isNew bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	isNew = true
	res, err := repo.db.Exec(`INSERT INTO accounts (created_at, username, token, token_secret, last_loaded)
		VALUES(?, ?, ?, ?, ?)`,
		acct.CreatedAt, acct.Username, acct.Token, acct.TokenSecret, acct.LastLoaded)
	if err == nil {
		var id int64
		if id, err = res.LastInsertId(); err == nil {
			acct.Id = int(id)
		}
		return
	}
	if isDuplicateKey(err) {
		isNew = false
		err = nil
	}
	return
}

func (repo *Repo) GetAccount(username string) (*Account, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT id, created_at, username, token, token_secret, last_loaded
		FROM accounts WHERE username=?`, username)
	return scanAccount(row)
}

func (repo *Repo) GetAccountById(id int) (*Account, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT id, created_at, username, token, token_secret, last_loaded
		FROM accounts WHERE id=?`, id)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*Account, error) {
	var res Account
	err := row.Scan(&res.Id, &res.CreatedAt, &res.Username, &res.Token, &res.TokenSecret, &res.LastLoaded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (repo *Repo) GetAccounts() ([]*Account, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	rows, err := repo.db.Query(`SELECT id, created_at, username, token, token_secret, last_loaded
		FROM accounts ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]*Account, 0)
	for rows.Next() {
		a := Account{}
		if err = rows.Scan(&a.Id, &a.CreatedAt, &a.Username, &a.Token, &a.TokenSecret, &a.LastLoaded); err != nil {
			return nil, err
		}
		res = append(res, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (repo *Repo) UpdateAccountTokens(username, token, tokenSecret string) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	res, err := repo.db.Exec(`UPDATE accounts SET token=?, token_secret=? WHERE username=?`,
		token, tokenSecret, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no such account: %s", username)
	}
	return nil
}

func (repo *Repo) SetAccountLastLoaded(accountId int, when time.Time) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	_, err := repo.db.Exec(`UPDATE accounts SET last_loaded=? WHERE id=?`, when, accountId)
	return err
}

func (repo *Repo) DeleteAccount(username string) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	tx, err := repo.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM items WHERE account_id IN (SELECT id FROM accounts WHERE username=?)`, username)
	if err != nil {
		return err
	}
	if _, err = tx.Exec(`DELETE FROM accounts WHERE username=?`, username); err != nil {
		return err
	}
	return tx.Commit()
}

func (repo *Repo) GetHighestItemId(accountId int, kind shared.TimelineKind) (id int64, found bool, err error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT id FROM items WHERE account_id=? AND kind=? ORDER BY id DESC LIMIT 1`,
		accountId, int(kind))
	if err = row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

func (repo *Repo) GetItems(accountId int, kind shared.TimelineKind, limit, offset int) ([]*Item, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	rows, err := repo.db.Query(`SELECT `+itemColumns+` FROM items
		WHERE account_id=? AND kind=? ORDER BY id DESC LIMIT ? OFFSET ?`,
		accountId, int(kind), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return readItems(rows)
}

// GetItemsWindow returns up to limit items with above < id <= atOrBelow, newest first. Nil bounds are open.
func (repo *Repo) GetItemsWindow(
	accountId int,
	kind shared.TimelineKind,
	atOrBelow, above *int64,
	limit int,
) ([]*Item, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + ` FROM items WHERE account_id=? AND kind=?`)
	args := []any{accountId, int(kind)}
	if atOrBelow != nil {
		sb.WriteString(` AND id<=?`)
		args = append(args, *atOrBelow)
	}
	if above != nil {
		sb.WriteString(` AND id>?`)
		args = append(args, *above)
	}
	sb.WriteString(` ORDER BY id DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := repo.db.Query(sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return readItems(rows)
}

func readItems(rows *sql.Rows) ([]*Item, error) {
	var err error
	res := make([]*Item, 0)
	for rows.Next() {
		itm := Item{}
		var kind int
		err = rows.Scan(&itm.AccountId, &kind, &itm.Id, &itm.CreatedAt, &itm.UserName, &itm.ScreenName,
			&itm.Text, &itm.Source, &itm.SourceUrl, &itm.Favorited, &itm.ContentHash)
		if err != nil {
			return nil, err
		}
		itm.Kind = shared.TimelineKind(kind)
		res = append(res, &itm)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (repo *Repo) GetItemCount(accountId int, kind shared.TimelineKind) (int, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT COUNT(*) FROM items WHERE account_id=? AND kind=?`, accountId, int(kind))
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// AddItemIfNew stores the item unless its partition already holds the same id.
// An existing row whose content hash differs gets its mutable fields refreshed.
func (repo *Repo) AddItemIfNew(item *Item) (isNew bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	return addItem(repo.db, item)
}

// AddItemsIfNew stores a page of items in one transaction. On error none of them is stored.
func (repo *Repo) AddItemsIfNew(items []*Item) (newCount int, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	tx, err := repo.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, item := range items {
		isNew, err := addItem(tx, item)
		if err != nil {
			return 0, err
		}
		if isNew {
			newCount++
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newCount, nil
}

// Satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func addItem(ex execer, item *Item) (isNew bool, err error) {

	_, err = ex.Exec(`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.AccountId, int(item.Kind), item.Id, item.CreatedAt, item.UserName, item.ScreenName,
		item.Text, item.Source, item.SourceUrl, item.Favorited, item.ContentHash)
	if err == nil {
		isNew = true
		return
	}
	if !isDuplicateKey(err) {
		return
	}

	isNew = false
	_, err = ex.Exec(`UPDATE items SET text=?, favorited=?, content_hash=?
		WHERE account_id=? AND kind=? AND id=? AND content_hash<>?`,
		item.Text, item.Favorited, item.ContentHash,
		item.AccountId, int(item.Kind), item.Id, item.ContentHash)
	return
}

func (repo *Repo) DeleteItem(accountId int, kind shared.TimelineKind, id int64) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	_, err := repo.db.Exec(`DELETE FROM items WHERE account_id=? AND kind=? AND id=?`, accountId, int(kind), id)
	return err
}

// SetFavorited updates the flag in every partition of the account that holds the item.
func (repo *Repo) SetFavorited(accountId int, id int64, favorited bool) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	_, err := repo.db.Exec(`UPDATE items SET favorited=? WHERE account_id=? AND id=?`, favorited, accountId, id)
	return err
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/querybuilder"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/conversations"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/products"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

const (
	uid1 = "11111111-1111-4111-8111-111111111111"
	uid2 = "22222222-2222-4222-8222-222222222222"
	pid1 = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	pid2 = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
)

var errBoom = fmt.Errorf("boom")

func uniqueViolation() error {
	return fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505"})
}

func fkViolation() error {
	return fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23503"})
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- logger ---

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

func newRecLogger() recLogger {
	return recLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l recLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l recLogger) Debug(_ context.Context, msg string, args ...any) { l.add("debug", msg, args) }
func (l recLogger) Info(_ context.Context, msg string, args ...any)  { l.add("info", msg, args) }
func (l recLogger) Warn(_ context.Context, msg string, args ...any)  { l.add("warn", msg, args) }
func (l recLogger) Error(_ context.Context, msg string, args ...any) { l.add("error", msg, args) }
func (l recLogger) With(...any) logging.Logger                      { return l }

func (l recLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range *l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

// --- repositories ---

type fakeUsersRepo struct {
	users.Repository

	rows      map[string]*rowmap.UserRow
	hashes    map[string]string
	createID  string
	createErr error
	getErr    error
	updateErr error
	deleteErr error

	updates []models.UserPatch
	locked  []string
}

func newFakeUsers() *fakeUsersRepo {
	return &fakeUsersRepo{rows: map[string]*rowmap.UserRow{}, hashes: map[string]string{}}
}

func (f *fakeUsersRepo) put(row rowmap.UserRow) {
	r := row
	f.rows[row.ID] = &r
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*rowmap.UserRow, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeUsersRepo) GetForUpdate(ctx context.Context, id string) (*rowmap.UserRow, error) {
	f.locked = append(f.locked, id)
	return f.GetByID(ctx, id)
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*rowmap.UserRow, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, r := range f.rows {
		if r.Email == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetAuthByEmail(ctx context.Context, email string) (*rowmap.UserRow, error) {
	r, err := f.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if h, ok := f.hashes[r.ID]; ok {
		r.HashedPassword = sql.NullString{String: h, Valid: true}
	}
	return r, nil
}

func (f *fakeUsersRepo) Create(_ context.Context, u models.NewUser) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	role := u.Role
	if role == "" {
		role = common.DefaultRole
	}
	now := time.Now()
	f.put(rowmap.UserRow{
		ID:          f.createID,
		Name:        sql.NullString{String: u.Name, Valid: u.Name != ""},
		Email:       u.Email,
		UserType:    sql.NullString{String: role, Valid: true},
		FavoriteIDs: "[]",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	f.hashes[f.createID] = u.HashedPassword
	return f.createID, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, p models.UserPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	r, ok := f.rows[p.ID]
	if !ok {
		return common.ErrorNotFound
	}
	f.updates = append(f.updates, p)
	if v, ok := p.Name.Get(); ok {
		r.Name = sql.NullString{String: v, Valid: true}
	}
	if v, ok := p.Email.Get(); ok {
		r.Email = v
	}
	if v, ok := p.Role.Get(); ok {
		r.UserType = sql.NullString{String: v, Valid: true}
	}
	if v, ok := p.FavoriteIDs.Get(); ok {
		enc, err := rowmap.EncodeFavorites(v)
		if err != nil {
			return err
		}
		r.FavoriteIDs = enc
	}
	r.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, id)
	return nil
}

type fakeSessionsRepo struct {
	sessions.Repository

	rows      map[string]*rowmap.SessionRow
	users     *fakeUsersRepo
	createErr error
	getErr    error
	updateErr error
	swept     time.Time
	sweepN    int64
}

func newFakeSessions(u *fakeUsersRepo) *fakeSessionsRepo {
	return &fakeSessionsRepo{rows: map[string]*rowmap.SessionRow{}, users: u}
}

func (f *fakeSessionsRepo) Create(_ context.Context, s models.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users.rows[s.UserID]; !ok {
		return fkViolation()
	}
	f.rows[s.SessionToken] = &rowmap.SessionRow{SessionToken: s.SessionToken, UserID: s.UserID, Expires: s.Expires}
	return nil
}

func (f *fakeSessionsRepo) Get(_ context.Context, token string) (*rowmap.SessionRow, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.rows[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeSessionsRepo) GetWithUser(ctx context.Context, token string) (*rowmap.SessionRow, *rowmap.UserRow, error) {
	s, err := f.Get(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	u, err := f.users.GetByID(ctx, s.UserID)
	if err != nil {
		return nil, nil, err
	}
	return s, u, nil
}

func (f *fakeSessionsRepo) Update(_ context.Context, p models.SessionPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	r, ok := f.rows[p.SessionToken]
	if !ok {
		return common.ErrorNotFound
	}
	if v, ok := p.Expires.Get(); ok {
		r.Expires = v
	}
	if v, ok := p.UserID.Get(); ok {
		if _, exists := f.users.rows[v]; !exists {
			return fkViolation()
		}
		r.UserID = v
	}
	return nil
}

func (f *fakeSessionsRepo) Delete(_ context.Context, token string) error {
	delete(f.rows, token)
	return nil
}

func (f *fakeSessionsRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.swept = before
	return f.sweepN, f.getErr
}

type fakeProductsRepo struct {
	products.Repository

	rows      map[string]*rowmap.ProductRow
	owner     *rowmap.ProductWithOwnerRow
	createID  string
	count     int
	countErr  error
	listErr   error
	createErr error

	gotWhere  querybuilder.Clause
	gotLimit  int
	gotOffset int
	created   []models.NewProduct

	// paged makes Count and List evaluate a category clause and apply
	// newest-first ordering with limit and offset over rows.
	paged bool
}

func newFakeProducts() *fakeProductsRepo {
	return &fakeProductsRepo{rows: map[string]*rowmap.ProductRow{}}
}

func (f *fakeProductsRepo) Count(_ context.Context, where querybuilder.Clause) (int, error) {
	f.gotWhere = where
	if f.paged && f.countErr == nil {
		return len(f.matching(where)), nil
	}
	return f.count, f.countErr
}

func (f *fakeProductsRepo) List(_ context.Context, where querybuilder.Clause, limit, offset int) ([]rowmap.ProductRow, error) {
	f.gotWhere, f.gotLimit, f.gotOffset = where, limit, offset
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.matching(where)
	if !f.paged {
		return out, nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []rowmap.ProductRow{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProductsRepo) matching(where querybuilder.Clause) []rowmap.ProductRow {
	out := []rowmap.ProductRow{}
	for _, r := range f.rows {
		if f.paged && !where.Empty() && r.Category != where.Args[0] {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func (f *fakeProductsRepo) Create(_ context.Context, p models.NewProduct) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, p)
	f.rows[f.createID] = &rowmap.ProductRow{
		ID: f.createID, Title: p.Title, Description: p.Description, ImageSrc: p.ImageSrc, Category: p.Category,
		Latitude: *p.Latitude, Longitude: *p.Longitude, Price: *p.Price, UserID: p.UserID, CreatedAt: time.Now(),
	}
	return f.createID, nil
}

func (f *fakeProductsRepo) GetByID(_ context.Context, id string) (*rowmap.ProductRow, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeProductsRepo) GetWithOwner(_ context.Context, id string) (*rowmap.ProductWithOwnerRow, error) {
	if f.owner == nil || f.owner.ID != id {
		return nil, common.ErrorNotFound
	}
	cp := *f.owner
	return &cp, nil
}

func (f *fakeProductsRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.rows[id]
	return ok, nil
}

type fakeConversationsRepo struct {
	conversations.Repository

	mu        sync.Mutex
	pairs     map[[2]string]string
	nextID    int
	findErr   error
	createErr error
	msgErr    error
	// raceWinner simulates a concurrent insert landing between the lookup
	// and the insert.
	raceWinner string

	messages []models.NewMessage
	agg      []rowmap.UserConversationRow
	aggErr   error
}

func newFakeConversations() *fakeConversationsRepo {
	return &fakeConversationsRepo{pairs: map[[2]string]string{}}
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (f *fakeConversationsRepo) FindByPair(_ context.Context, a, b string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return "", f.findErr
	}
	id, ok := f.pairs[pairKey(a, b)]
	if !ok {
		return "", common.ErrorNotFound
	}
	return id, nil
}

func (f *fakeConversationsRepo) CreateIfAbsent(_ context.Context, a, b string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", false, f.createErr
	}
	if f.raceWinner != "" {
		f.pairs[pairKey(a, b)] = f.raceWinner
		f.raceWinner = ""
	}
	if _, ok := f.pairs[pairKey(a, b)]; ok {
		return "", false, nil
	}
	f.nextID++
	id := fmt.Sprintf("c-%d", f.nextID)
	f.pairs[pairKey(a, b)] = id
	return id, true, nil
}

func (f *fakeConversationsRepo) CreateMessage(_ context.Context, m models.NewMessage) (string, error) {
	if f.msgErr != nil {
		return "", f.msgErr
	}
	f.messages = append(f.messages, m)
	return fmt.Sprintf("m-%d", len(f.messages)), nil
}

func (f *fakeConversationsRepo) ListUsersWithConversations(context.Context) ([]rowmap.UserConversationRow, error) {
	return f.agg, f.aggErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	p *fakeProductsRepo
	c *fakeConversationsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	u := newFakeUsers()
	return &fakeRepoManager{u: u, s: newFakeSessions(u), p: newFakeProducts(), c: newFakeConversations()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository           { return m.s }
func (m *fakeRepoManager) Products(dbx.DBTX) products.Repository           { return m.p }
func (m *fakeRepoManager) Conversations(dbx.DBTX) conversations.Repository { return m.c }

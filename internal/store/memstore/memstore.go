// Package memstore is an in-memory storage.Storage used by tests. A single
// mutex serializes transactions, giving the same per-row serialization the
// Postgres store gets from row locks; writes inside InTx are applied to a
// copy and swapped in on success, so a failed transaction leaves no trace.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

type state struct {
	users       map[int]*model.User
	products    map[int]*model.Product
	awards      map[int]*model.AwardRecord
	redemptions map[int]*model.RedemptionRecord
}

func (st *state) clone() *state {
	c := &state{
		users:       make(map[int]*model.User, len(st.users)),
		products:    make(map[int]*model.Product, len(st.products)),
		awards:      make(map[int]*model.AwardRecord, len(st.awards)),
		redemptions: make(map[int]*model.RedemptionRecord, len(st.redemptions)),
	}
	for id, u := range st.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, p := range st.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, a := range st.awards {
		cp := *a
		c.awards[id] = &cp
	}
	for id, r := range st.redemptions {
		cp := *r
		c.redemptions[id] = &cp
	}
	return c
}

type Store struct {
	mu     sync.Mutex
	nextID int
	st     *state
}

func New() *Store {
	return &Store{
		nextID: 1,
		st: &state{
			users:       map[int]*model.User{},
			products:    map[int]*model.Product{},
			awards:      map[int]*model.AwardRecord{},
			redemptions: map[int]*model.RedemptionRecord{},
		},
	}
}

func (s *Store) id() int {
	id := s.nextID
	s.nextID++
	return id
}

// InTx serializes all transactions behind the store mutex.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&memTx{store: s, st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type memTx struct {
	store *Store
	st    *state
}

func (t *memTx) UserForUpdate(_ context.Context, id int) (*model.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (t *memTx) ProductForUpdate(_ context.Context, id int) (*model.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) RedemptionForUpdate(_ context.Context, id int) (*model.RedemptionRecord, error) {
	r, ok := t.st.redemptions[id]
	if !ok {
		return nil, storage.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (t *memTx) AddPoints(_ context.Context, userID, totalDelta, availableDelta int) error {
	u, ok := t.st.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.TotalPoints += totalDelta
	u.AvailablePoints += availableDelta
	return nil
}

func (t *memTx) AddStock(_ context.Context, productID, delta int) error {
	p, ok := t.st.products[productID]
	if !ok {
		return storage.ErrProductNotFound
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *memTx) InsertAward(_ context.Context, rec *model.AwardRecord) error {
	rec.ID = t.store.id()
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	t.st.awards[rec.ID] = &cp
	return nil
}

func (t *memTx) InsertRedemption(_ context.Context, rec *model.RedemptionRecord) error {
	rec.ID = t.store.id()
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	t.st.redemptions[rec.ID] = &cp
	return nil
}

func (t *memTx) SetRedemptionStatus(_ context.Context, id int, status model.RedemptionStatus) error {
	r, ok := t.st.redemptions[id]
	if !ok {
		return storage.ErrRecordNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.users {
		if existing.Username == u.Username {
			return storage.ErrUsernameTaken
		}
	}
	u.ID = s.id()
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.st.users[u.ID] = &cp
	return nil
}

func (s *Store) UserByID(_ context.Context, id int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.st.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (s *Store) ListUsers(_ context.Context, f storage.UserFilter) ([]model.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.User
	kw := strings.ToLower(strings.TrimSpace(f.Keyword))
	for _, u := range s.st.users {
		if kw != "" && !strings.Contains(strings.ToLower(u.Username), kw) &&
			!strings.Contains(strings.ToLower(u.RealName), kw) {
			continue
		}
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	total := len(users)
	return page(users, f.Page, f.PerPage), total, nil
}

func (s *Store) UpdateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.st.users[u.ID]
	if !ok {
		return storage.ErrUserNotFound
	}
	existing.RealName = u.RealName
	existing.Email = u.Email
	existing.Phone = u.Phone
	existing.PasswordHash = u.PasswordHash
	return nil
}

func (s *Store) CreateProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.st.products[p.ID] = &cp
	return nil
}

func (s *Store) ProductByID(_ context.Context, id int) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListProducts(_ context.Context, f storage.ProductFilter) ([]model.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var products []model.Product
	kw := strings.ToLower(strings.TrimSpace(f.Keyword))
	for _, p := range s.st.products {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if kw != "" && !strings.Contains(strings.ToLower(p.Name), kw) {
			continue
		}
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].SortOrder != products[j].SortOrder {
			return products[i].SortOrder < products[j].SortOrder
		}
		return products[i].ID > products[j].ID
	})
	total := len(products)
	return page(products, f.Page, f.PerPage), total, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.st.products[p.ID]
	if !ok {
		return storage.ErrProductNotFound
	}
	cp := *p
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	s.st.products[p.ID] = &cp
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	for _, r := range s.st.redemptions {
		if r.ProductID == id {
			return storage.ErrProductHasRedemptions
		}
	}
	delete(s.st.products, id)
	return nil
}

func (s *Store) ListAwards(_ context.Context, f storage.AwardFilter) ([]model.AwardRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []model.AwardRecord
	for _, a := range s.st.awards {
		if f.UserID != 0 && a.UserID != f.UserID {
			continue
		}
		rec := *a
		if u, ok := s.st.users[a.UserID]; ok {
			rec.UserName = u.RealName
		}
		if g, ok := s.st.users[a.GivenBy]; ok {
			rec.GivenByName = g.RealName
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	total := len(records)
	return page(records, f.Page, f.PerPage), total, nil
}

func (s *Store) AwardStats(ctx context.Context, userID int) (*model.AwardStats, error) {
	u, err := s.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.AwardStats{
		UserID:          u.ID,
		UserName:        u.RealName,
		TotalPoints:     u.TotalPoints,
		AvailablePoints: u.AvailablePoints,
		UsedPoints:      u.TotalPoints - u.AvailablePoints,
	}
	for _, a := range s.st.awards {
		if a.UserID != userID {
			continue
		}
		switch a.Kind {
		case model.KindSingle:
			stats.SingleCount++
		case model.KindDouble:
			stats.DoubleCount++
		}
		stats.TotalCount++
	}
	return stats, nil
}

func (s *Store) RedemptionByID(_ context.Context, id int) (*model.RedemptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.redemptions[id]
	if !ok {
		return nil, storage.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListRedemptions(_ context.Context, f storage.RedemptionFilter) ([]model.RedemptionRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []model.RedemptionRecord
	for _, r := range s.st.redemptions {
		if f.UserID != 0 && r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		rec := *r
		if u, ok := s.st.users[r.UserID]; ok {
			rec.UserName = u.RealName
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	total := len(records)
	return page(records, f.Page, f.PerPage), total, nil
}

func (s *Store) DashboardStats(_ context.Context) (*model.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats model.DashboardStats
	for _, u := range s.st.users {
		if u.Role == model.RoleMember {
			stats.TotalUsers++
		}
	}
	stats.TotalAwards = len(s.st.awards)
	for _, r := range s.st.redemptions {
		if r.Status == model.RedemptionCompleted {
			stats.TotalExchanges++
		}
	}
	for _, p := range s.st.products {
		if p.Status == model.ProductListed {
			stats.TotalProducts++
		}
	}
	return &stats, nil
}

func page[T any](items []T, pageNum, perPage int) []T {
	if pageNum < 1 {
		pageNum = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	start := (pageNum - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shivam7053/raga-vachika/pkg/mail"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/provider"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// memoryLedger serializes all writers behind one mutex, like the row lock of the real store
type memoryLedger struct {
	mu      sync.Mutex
	entries map[string]*model.LedgerEntry
	users   map[string]bool
	applies int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		entries: make(map[string]*model.LedgerEntry),
		users:   make(map[string]bool),
	}
}

func ledgerKey(userID, orderID string) string {
	return userID + "\x00" + orderID
}

func (m *memoryLedger) Apply(ctx context.Context, userID, orderID string, mutate repository.LedgerMutation) (*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applies++
	m.users[userID] = true

	var current *model.LedgerEntry
	if stored, ok := m.entries[ledgerKey(userID, orderID)]; ok {
		cp := *stored
		current = &cp
	}

	next, err := mutate(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}

	if current != nil {
		next.Version = current.Version + 1
	}
	cp := *next
	m.entries[ledgerKey(userID, orderID)] = &cp
	return next, nil
}

func (m *memoryLedger) GetByOrder(ctx context.Context, userID, orderID string) (*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.entries[ledgerKey(userID, orderID)]
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	cp := *stored
	return &cp, nil
}

func (m *memoryLedger) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LedgerEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []model.LedgerEntry{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryLedger) CountByUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memoryLedger) entriesFor(userID string) []model.LedgerEntry {
	out, _ := m.ListByUser(context.Background(), userID, 1000, 0)
	return out
}

// MockLedgerRepository fails Apply with whatever error is configured, otherwise creates the entry
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Apply(ctx context.Context, userID, orderID string, mutate repository.LedgerMutation) (*model.LedgerEntry, error) {
	args := m.Called(ctx, userID, orderID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return mutate(nil)
}

func (m *MockLedgerRepository) GetByOrder(ctx context.Context, userID, orderID string) (*model.LedgerEntry, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]model.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type memoryUsers struct {
	mu       sync.Mutex
	profiles map[string]model.UserProfile
}

func newMemoryUsers(profiles ...model.UserProfile) *memoryUsers {
	u := &memoryUsers{profiles: make(map[string]model.UserProfile)}
	for _, p := range profiles {
		u.profiles[p.ID] = p
	}
	return u
}

func (u *memoryUsers) Upsert(ctx context.Context, profile *model.UserProfile) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	existing, ok := u.profiles[profile.ID]
	if ok {
		if profile.Email != "" {
			existing.Email = profile.Email
		}
		if profile.Name != "" {
			existing.Name = profile.Name
		}
		u.profiles[profile.ID] = existing
		return nil
	}
	u.profiles[profile.ID] = *profile
	return nil
}

func (u *memoryUsers) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	p, ok := u.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (u *memoryUsers) GetByIDs(ctx context.Context, ids []string) ([]model.UserProfile, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []model.UserProfile
	for _, id := range ids {
		if p, ok := u.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memoryCatalog struct {
	mu            sync.Mutex
	masterclasses map[string]model.Masterclass
}

func newMemoryCatalog(masterclasses ...model.Masterclass) *memoryCatalog {
	c := &memoryCatalog{masterclasses: make(map[string]model.Masterclass)}
	for _, mc := range masterclasses {
		c.masterclasses[mc.ID] = mc
	}
	return c
}

func (c *memoryCatalog) GetByID(ctx context.Context, id string) (*model.Masterclass, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mc, ok := c.masterclasses[id]
	if !ok {
		return nil, domainErrors.ErrMasterclassNotFound
	}
	return &mc, nil
}

func (c *memoryCatalog) List(ctx context.Context) ([]model.Masterclass, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Masterclass
	for _, mc := range c.masterclasses {
		out = append(out, mc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memoryCatalog) Upsert(ctx context.Context, masterclass *model.Masterclass) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masterclasses[masterclass.ID] = *masterclass
	return nil
}

func (c *memoryCatalog) ListLiveSessionsBetween(ctx context.Context, from, to time.Time) ([]model.MasterclassSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.MasterclassSession
	for _, mc := range c.masterclasses {
		for _, s := range mc.Sessions {
			if s.StartsWithin(from, to.Sub(from)) {
				out = append(out, s)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryEnrollments struct {
	mu    sync.Mutex
	rows  map[string]model.Enrollment
	order []string
}

func newMemoryEnrollments() *memoryEnrollments {
	return &memoryEnrollments{rows: make(map[string]model.Enrollment)}
}

func (e *memoryEnrollments) Grant(ctx context.Context, enrollment *model.Enrollment) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := ledgerKey(enrollment.MasterclassID, enrollment.UserID)
	if _, ok := e.rows[key]; ok {
		return false, nil
	}
	e.rows[key] = *enrollment
	e.order = append(e.order, key)
	return true, nil
}

func (e *memoryEnrollments) IsEnrolled(ctx context.Context, masterclassID, userID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.rows[ledgerKey(masterclassID, userID)]
	return ok, nil
}

func (e *memoryEnrollments) ListUserIDs(ctx context.Context, masterclassID string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, key := range e.order {
		row := e.rows[key]
		if row.MasterclassID == masterclassID {
			out = append(out, row.UserID)
		}
	}
	return out, nil
}

type memoryReminders struct {
	mu     sync.Mutex
	claims map[string]bool
}

func newMemoryReminders() *memoryReminders {
	return &memoryReminders{claims: make(map[string]bool)}
}

func (r *memoryReminders) Claim(ctx context.Context, delivery *model.ReminderDelivery) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerKey(delivery.SessionID, delivery.UserID)
	if r.claims[key] {
		return false, nil
	}
	r.claims[key] = true
	return true, nil
}

func (r *memoryReminders) Release(ctx context.Context, sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.claims, ledgerKey(sessionID, userID))
	return nil
}

// MockGateway is a mock implementation of PaymentGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, req *provider.CreateOrderRequest) (*provider.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Order), args.Error(1)
}

func (m *MockGateway) FetchOrder(ctx context.Context, orderID string) (*provider.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Order), args.Error(1)
}

func (m *MockGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

func (m *MockGateway) KeyID() string {
	return "rzp_test_key"
}

func (m *MockGateway) Name() string {
	return "razorpay"
}

// recordingMailer keeps every message it is asked to send
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) messages() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}

type fixture struct {
	ledger      *memoryLedger
	users       *memoryUsers
	catalog     *memoryCatalog
	enrollments *memoryEnrollments
	reminders   *memoryReminders
}

func newFixture(masterclasses ...model.Masterclass) *fixture {
	return &fixture{
		ledger:      newMemoryLedger(),
		users:       newMemoryUsers(),
		catalog:     newMemoryCatalog(masterclasses...),
		enrollments: newMemoryEnrollments(),
		reminders:   newMemoryReminders(),
	}
}

func (f *fixture) repos() *repository.Repositories {
	return &repository.Repositories{
		Ledger:      f.ledger,
		Users:       f.users,
		Masterclass: f.catalog,
		Enrollment:  f.enrollments,
		Reminder:    f.reminders,
	}
}

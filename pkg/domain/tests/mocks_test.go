package tests

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"campustrade/pkg/domain/model"
	"campustrade/pkg/domain/service"
)

type fixture struct {
	store       *memoryStore
	dispatcher  *mockEventDispatcher
	logger      *log.Logger
	logHook     *test.Hook
	inventory   service.InventoryLedger
	credit      service.CreditLedger
	orders      service.OrderService
	evaluations service.EvaluationService
	returns     service.ReturnRequestService
}

func setup(t *testing.T) *fixture {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	store := newMemoryStore()
	dispatcher := &mockEventDispatcher{}
	inventory := service.NewInventoryLedger()
	credit := service.NewCreditLedger(store, service.DefaultCreditPolicy(), dispatcher, logger)

	return &fixture{
		store:       store,
		dispatcher:  dispatcher,
		logger:      logger,
		logHook:     hook,
		inventory:   inventory,
		credit:      credit,
		orders:      service.NewOrderService(store, inventory, credit, dispatcher, logger),
		evaluations: service.NewEvaluationService(store, credit, dispatcher, logger),
		returns:     service.NewReturnRequestService(store, inventory, dispatcher, logger),
	}
}

func (f *fixture) addUser(credit int, staff bool) *model.User {
	user := &model.User{ID: uuid.New(), Name: "user", Credit: credit, IsStaff: staff, Version: 1}
	f.store.users[user.ID] = user
	return user
}

func (f *fixture) addProduct(ownerID uuid.UUID, quantity int, status model.ProductStatus) *model.Product {
	product := &model.Product{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       "textbook",
		PriceCents: 1500,
		Quantity:   quantity,
		Status:     status,
		Version:    1,
	}
	f.store.products[product.ID] = product
	return product
}

func (f *fixture) product(id uuid.UUID) model.Product { return *f.store.products[id] }
func (f *fixture) order(id uuid.UUID) model.Order     { return *f.store.orders[id] }
func (f *fixture) user(id uuid.UUID) model.User       { return *f.store.users[id] }

// memoryStore is a UnitOfWork over maps. Execute runs one transaction at a
// time, which gives the same serialization as row locks on a single product,
// and restores a snapshot when fn fails.
type memoryStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*model.User
	products    map[uuid.UUID]*model.Product
	orders      map[uuid.UUID]*model.Order
	credits     []*model.CreditEntry
	evaluations map[uuid.UUID]*model.Evaluation
	returns     map[uuid.UUID]*model.ReturnRequest
	returnLog   []model.ResolutionEntry
	failAppend  bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       make(map[uuid.UUID]*model.User),
		products:    make(map[uuid.UUID]*model.Product),
		orders:      make(map[uuid.UUID]*model.Order),
		evaluations: make(map[uuid.UUID]*model.Evaluation),
		returns:     make(map[uuid.UUID]*model.ReturnRequest),
	}
}

func (m *memoryStore) Execute(ctx context.Context, fn func(repos model.RepositoryProvider) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *memoryStore) snapshot() *memoryStore {
	s := newMemoryStore()
	for k, v := range m.users {
		c := *v
		s.users[k] = &c
	}
	for k, v := range m.products {
		c := *v
		s.products[k] = &c
	}
	for k, v := range m.orders {
		c := *v
		s.orders[k] = &c
	}
	for k, v := range m.evaluations {
		c := *v
		s.evaluations[k] = &c
	}
	for k, v := range m.returns {
		c := *v
		s.returns[k] = &c
	}
	s.credits = append(s.credits, m.credits...)
	s.returnLog = append(s.returnLog, m.returnLog...)
	return s
}

func (m *memoryStore) restore(s *memoryStore) {
	m.users, m.products, m.orders = s.users, s.products, s.orders
	m.evaluations, m.returns = s.evaluations, s.returns
	m.credits, m.returnLog = s.credits, s.returnLog
}

func (m *memoryStore) Products() model.ProductRepository             { return (*productRepo)(m) }
func (m *memoryStore) Orders() model.OrderRepository                 { return (*orderRepo)(m) }
func (m *memoryStore) Users() model.UserRepository                   { return (*userRepo)(m) }
func (m *memoryStore) Credits() model.CreditRepository               { return (*creditRepo)(m) }
func (m *memoryStore) Evaluations() model.EvaluationRepository       { return (*evaluationRepo)(m) }
func (m *memoryStore) ReturnRequests() model.ReturnRequestRepository { return (*returnRepo)(m) }

type productRepo memoryStore

func (r *productRepo) Find(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := r.products[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, model.ErrProductNotFound
}

func (r *productRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.Find(ctx, id)
}

func (r *productRepo) Update(_ context.Context, p *model.Product) error {
	existing, ok := r.products[p.ID]
	if !ok {
		return model.ErrProductNotFound
	}
	if existing.Version != p.Version-1 {
		return model.ErrOptimisticLock
	}
	clone := *p
	r.products[p.ID] = &clone
	return nil
}

type orderRepo memoryStore

func (r *orderRepo) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (r *orderRepo) Create(_ context.Context, o *model.Order) error {
	clone := *o
	r.orders[o.ID] = &clone
	return nil
}

func (r *orderRepo) Find(_ context.Context, id uuid.UUID) (*model.Order, error) {
	if o, ok := r.orders[id]; ok {
		clone := *o
		return &clone, nil
	}
	return nil, model.ErrOrderNotFound
}

func (r *orderRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.Find(ctx, id)
}

func (r *orderRepo) Update(_ context.Context, o *model.Order) error {
	existing, ok := r.orders[o.ID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if existing.Version != o.Version-1 {
		return model.ErrOptimisticLock
	}
	clone := *o
	r.orders[o.ID] = &clone
	return nil
}

func (r *orderRepo) List(_ context.Context, q model.OrderQuery) ([]*model.Order, int, error) {
	var matched []*model.Order
	for _, o := range r.orders {
		if !matchesParty(q.Role, q.UserID, o.BuyerID, o.SellerID) || (q.Status != nil && o.Status != *q.Status) {
			continue
		}
		clone := *o
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	page, total := paginate(matched, q.Offset(), q.PageSize)
	return page, total, nil
}

func matchesParty(role model.ListRole, userID, buyerID, sellerID uuid.UUID) bool {
	switch role {
	case model.ListAsBuyer:
		return buyerID == userID
	case model.ListAsSeller:
		return sellerID == userID
	case model.ListAsParty:
		return buyerID == userID || sellerID == userID
	}
	return true
}

func paginate[T any](items []T, offset, size int) ([]T, int) {
	total := len(items)
	start := offset
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], total
}

func (r *orderRepo) FindStalePending(_ context.Context, before time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, o := range r.orders {
		if o.Status == model.PendingSellerConfirmation && o.CreatedAt.Before(before) && len(ids) < limit {
			ids = append(ids, o.ID)
		}
	}
	return ids, nil
}

type userRepo memoryStore

func (r *userRepo) Find(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.Find(ctx, id)
}

func (r *userRepo) Update(_ context.Context, u *model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return model.ErrUserNotFound
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

type creditRepo memoryStore

func (r *creditRepo) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (r *creditRepo) Append(_ context.Context, e *model.CreditEntry) error {
	if r.failAppend {
		return model.ErrConflict
	}
	clone := *e
	r.credits = append(r.credits, &clone)
	return nil
}

func (r *creditRepo) FindByReference(_ context.Context, reason model.CreditReason, ref uuid.UUID) (*model.CreditEntry, error) {
	for _, e := range r.credits {
		if e.Reason == reason && e.ReferenceID == ref {
			clone := *e
			return &clone, nil
		}
	}
	return nil, model.ErrCreditEntryNotFound
}

type evaluationRepo memoryStore

func (r *evaluationRepo) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (r *evaluationRepo) Create(_ context.Context, e *model.Evaluation) error {
	for _, existing := range r.evaluations {
		if existing.OrderID == e.OrderID {
			return model.ErrEvaluationExists
		}
	}
	clone := *e
	r.evaluations[e.ID] = &clone
	return nil
}

func (r *evaluationRepo) Find(_ context.Context, id uuid.UUID) (*model.Evaluation, error) {
	if e, ok := r.evaluations[id]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, model.ErrEvaluationNotFound
}

func (r *evaluationRepo) FindByOrder(_ context.Context, orderID uuid.UUID) (*model.Evaluation, error) {
	for _, e := range r.evaluations {
		if e.OrderID == orderID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, model.ErrEvaluationNotFound
}

func (r *evaluationRepo) List(_ context.Context, q model.EvaluationQuery) ([]*model.Evaluation, int, error) {
	var matched []*model.Evaluation
	for _, e := range r.evaluations {
		if !matchesParty(q.Role, q.UserID, e.BuyerID, e.SellerID) {
			continue
		}
		clone := *e
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	page, total := paginate(matched, q.Offset(), q.PageSize)
	return page, total, nil
}

func (r *evaluationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.evaluations, id)
	return nil
}

type returnRepo memoryStore

func (r *returnRepo) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (r *returnRepo) Create(_ context.Context, rr *model.ReturnRequest) error {
	clone := *rr
	clone.Log = nil
	r.returns[rr.ID] = &clone
	return nil
}

func (r *returnRepo) Find(_ context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	rr, ok := r.returns[id]
	if !ok {
		return nil, model.ErrReturnRequestNotFound
	}
	clone := *rr
	clone.Log = nil
	for _, entry := range r.returnLog {
		if entry.ReturnRequestID == id {
			clone.Log = append(clone.Log, entry)
		}
	}
	return &clone, nil
}

func (r *returnRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	return r.Find(ctx, id)
}

func (r *returnRepo) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*model.ReturnRequest, error) {
	for id, rr := range r.returns {
		if rr.OrderID == orderID && rr.Status.IsActive() {
			return r.Find(ctx, id)
		}
	}
	return nil, model.ErrReturnRequestNotFound
}

func (r *returnRepo) List(_ context.Context, q model.ReturnRequestQuery) ([]*model.ReturnRequest, int, error) {
	var matched []*model.ReturnRequest
	for _, rr := range r.returns {
		if !matchesParty(q.Role, q.UserID, rr.BuyerID, rr.SellerID) || (q.Status != nil && rr.Status != *q.Status) {
			continue
		}
		clone := *rr
		clone.Log = nil
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	page, total := paginate(matched, q.Offset(), q.PageSize)
	return page, total, nil
}

func (r *returnRepo) Update(_ context.Context, rr *model.ReturnRequest) error {
	existing, ok := r.returns[rr.ID]
	if !ok {
		return model.ErrReturnRequestNotFound
	}
	if existing.Version != rr.Version-1 {
		return model.ErrOptimisticLock
	}
	clone := *rr
	clone.Log = nil
	r.returns[rr.ID] = &clone
	return nil
}

func (r *returnRepo) AppendLog(_ context.Context, entry *model.ResolutionEntry) error {
	r.returnLog = append(r.returnLog, *entry)
	return nil
}

type mockEventDispatcher struct {
	mu     sync.Mutex
	events []service.Event
	err    error
}

func (m *mockEventDispatcher) Dispatch(event service.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockEventDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	m.err = nil
}

func (m *mockEventDispatcher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, e := range m.events {
		types = append(types, e.Type())
	}
	return types
}

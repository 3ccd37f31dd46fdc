// Package ledger keeps user balances, orders, bans and redeem codes in memory.
package ledger

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Ledger struct {
	mu             sync.RWMutex
	users          map[int64]*User
	banned         map[int64]struct{}
	codes          map[string]int
	startingPoints int
	pointsPerRefer int
	now            func() time.Time
}

func New(startingPoints, pointsPerRefer int) *Ledger {
	return &Ledger{
		users:          make(map[int64]*User),
		banned:         make(map[int64]struct{}),
		codes:          make(map[string]int),
		startingPoints: startingPoints,
		pointsPerRefer: pointsPerRefer,
		now:            time.Now,
	}
}

func (l *Ledger) PointsPerRefer() int {
	return l.pointsPerRefer
}

// Register creates the user on first contact. Referral credit is only granted
// when the record is new and the referrer is a different, already known user.
func (l *Ledger) Register(id int64, firstName string, referrerID *int64) RegisterResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if u, ok := l.users[id]; ok {
		return RegisterResult{Points: u.Points}
	}

	u := l.createLocked(id)
	u.FirstName = firstName
	res := RegisterResult{Created: true}

	if referrerID != nil && *referrerID != id {
		if referrer, ok := l.users[*referrerID]; ok {
			credit(referrer, l.pointsPerRefer)
			ref := *referrerID
			u.ReferredBy = &ref
			res.Credited = true
			res.ReferrerID = ref
		}
	}

	res.Points = u.Points
	return res
}

func (l *Ledger) EnsureUser(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.users[id]; !ok {
		l.createLocked(id)
	}
}

func (l *Ledger) createLocked(id int64) *User {
	u := &User{
		ID:       id,
		Points:   l.startingPoints,
		JoinedAt: l.now(),
	}
	l.users[id] = u
	return u
}

// Points reports the balance; unknown users see the starting balance.
func (l *Ledger) Points(id int64) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if u, ok := l.users[id]; ok {
		return u.Points
	}
	return l.startingPoints
}

func (l *Ledger) User(id int64) (User, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.users[id]
	if !ok {
		return User{}, false
	}
	cp := *u
	cp.Orders = append([]Order(nil), u.Orders...)
	return cp, true
}

func (l *Ledger) CanAfford(id int64, serviceKey string) (bool, error) {
	svc, ok := LookupService(serviceKey)
	if !ok {
		return false, ErrUnknownService
	}
	return l.Points(id) >= svc.Cost, nil
}

// Purchase checks the balance and debits it under one lock, so two concurrent
// purchases cannot both pass the check.
func (l *Ledger) Purchase(id int64, serviceKey, link string) (Order, int, error) {
	svc, ok := LookupService(serviceKey)
	if !ok {
		return Order{}, 0, ErrUnknownService
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[id]
	if !ok {
		u = l.createLocked(id)
	}
	if u.Points < svc.Cost {
		return Order{}, u.Points, ErrInsufficientPoints
	}

	order := Order{
		ID:        uuid.NewString(),
		Service:   svc.Key,
		Link:      link,
		Cost:      svc.Cost,
		CreatedAt: l.now(),
	}
	u.Points -= svc.Cost
	u.Orders = append(u.Orders, order)
	return order, u.Points, nil
}

func (l *Ledger) Orders(id int64) []Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.users[id]
	if !ok {
		return nil
	}
	return append([]Order(nil), u.Orders...)
}

func (l *Ledger) AllOrders() []OrderRecord {
	l.mu.RLock()
	var out []OrderRecord
	for id, u := range l.users {
		for _, o := range u.Orders {
			out = append(out, OrderRecord{UserID: id, Order: o})
		}
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (l *Ledger) Ban(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.banned[id] = struct{}{}
}

func (l *Ledger) Unban(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.banned, id)
}

func (l *Ledger) IsBanned(id int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.banned[id]
	return ok
}

// CreateCode registers a redeem code, replacing any previous value.
func (l *Ledger) CreateCode(code string, points int) error {
	if code == "" {
		return ErrEmptyCode
	}
	if err := validateCodePoints(points); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.codes[code] = points
	return nil
}

func (l *Ledger) GenerateCode(points int) (string, error) {
	if err := validateCodePoints(points); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		if _, taken := l.codes[code]; taken {
			continue
		}
		l.codes[code] = points
		return code, nil
	}
}

// Redeem consumes the code and credits its value to the user.
func (l *Ledger) Redeem(id int64, code string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	points, ok := l.codes[code]
	if !ok || points <= 0 {
		return 0, ErrInvalidCode
	}
	u, ok := l.users[id]
	if !ok {
		u = l.createLocked(id)
	}
	credit(u, points)
	delete(l.codes, code)
	return points, nil
}

func validateCodePoints(points int) error {
	if points <= 0 {
		return ErrInvalidPoints
	}
	if points > MaxCodePoints {
		return ErrPointsTooLarge
	}
	return nil
}

// credit adds points to the balance, saturating at math.MaxInt.
func credit(u *User, points int) {
	if u.Points > math.MaxInt-points {
		u.Points = math.MaxInt
		return
	}
	u.Points += points
}

func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := Stats{
		TotalUsers:  len(l.users),
		Banned:      len(l.banned),
		ActiveCodes: len(l.codes),
	}
	for _, u := range l.users {
		s.TotalOrders += len(u.Orders)
	}
	return s
}

// UserIDs returns all known user IDs in ascending order.
func (l *Ledger) UserIDs() []int64 {
	l.mu.RLock()
	ids := make([]int64, 0, len(l.users))
	for id := range l.users {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

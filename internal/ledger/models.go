package ledger

import (
	"errors"
	"math"
	"time"
)

var (
	ErrUnknownService     = errors.New("unknown service")
	ErrInsufficientPoints = errors.New("not enough points")
	ErrInvalidCode        = errors.New("invalid or used code")
	ErrInvalidPoints      = errors.New("points must be positive")
	ErrEmptyCode          = errors.New("code must not be empty")
	ErrPointsTooLarge     = errors.New("points exceed the code limit")
)

// MaxCodePoints caps the value of a single redeem code.
const MaxCodePoints = math.MaxInt32

const (
	ServiceViews     = "views"
	ServiceReactions = "reactions"
)

type Service struct {
	Key  string
	ID   int
	Name string
	Cost int
}

// Services is the fixed free-service catalog, in display order.
var Services = []Service{
	{Key: ServiceViews, ID: 14050, Name: "Free Post Views quantity = 50 only 1 point", Cost: 1},
	{Key: ServiceReactions, ID: 14051, Name: "Free Reactions quantity = 10 only 2 points", Cost: 2},
}

func LookupService(key string) (Service, bool) {
	for _, s := range Services {
		if s.Key == key {
			return s, true
		}
	}
	return Service{}, false
}

type User struct {
	ID         int64
	FirstName  string
	Points     int
	ReferredBy *int64
	Orders     []Order
	JoinedAt   time.Time
}

type Order struct {
	ID        string
	Service   string
	Link      string
	Cost      int
	CreatedAt time.Time
}

// OrderRecord is an order together with the user who placed it.
type OrderRecord struct {
	UserID int64
	Order
}

type RegisterResult struct {
	Created    bool
	Credited   bool
	ReferrerID int64
	Points     int
}

type Stats struct {
	TotalUsers  int
	Banned      int
	TotalOrders int
	ActiveCodes int
}

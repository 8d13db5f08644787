package user

import "time"

type User struct {
	Id          int
	Uid         string
	Email       string
	DisplayName string
	ImageUrl    string
	Settings    Settings
	CreatedAt   time.Time
}

type Settings struct {
	Currency string
	Timezone string
}

// Identity is what the identity provider tells us about a signed-in user.
type Identity struct {
	Uid         string
	Email       string
	DisplayName string
	ImageUrl    string
}

const (
	DefaultCurrency = "USD"
	DefaultTimezone = "UTC"
)

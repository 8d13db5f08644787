package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RecordCreatedEvent EventType = "record.created"
	RecordDeletedEvent EventType = "record.deleted"
)

type RecordCreated struct {
	Id       int
	UserId   int
	Category string
	Amount   decimal.Decimal
	Date     time.Time
}

type RecordDeleted struct {
	Id     int
	UserId int
}

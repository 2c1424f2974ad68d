package types

import "time"

// WinnerRecord is the result of one finished spin. It is immutable once
// published and superseded wholesale by the next record.
type WinnerRecord struct {
	Hero       string    `json:"hero"`
	UserName   string    `json:"userName"`
	ReceivedAt time.Time `json:"receivedAt"`
}

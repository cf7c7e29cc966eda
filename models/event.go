package models

type Event struct {
	ID               uint64 `json:"id"`
	Name             string `json:"name"`
	Organizer        string `json:"organizer"`
	Price            int64  `json:"price"`
	TotalTickets     int    `json:"total_tickets"`
	AvailableTickets int    `json:"available_tickets"`
	MetadataCID      string `json:"metadata_cid"`
	Active           bool   `json:"active"`
	Cancelled        bool   `json:"cancelled"`
	Completed        bool   `json:"completed"`
	EscrowedBalance  int64  `json:"escrowed_balance"`
}

// TicketsSold is the number of capacity slots currently taken. Holder-side
// cancellation returns its slot to the pool, so this can be lower than the
// number of tickets ever minted.
func (e *Event) TicketsSold() int {
	return e.TotalTickets - e.AvailableTickets
}

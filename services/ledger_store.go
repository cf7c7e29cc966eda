package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"ticket-ledger/models"

	"github.com/redis/go-redis/v9"
)

const (
	countersKey     = "ledger:counters"
	balancesKey     = "ledger:balances"
	eventKeyPrefix  = "ledger:event:"
	ticketKeyPrefix = "ledger:ticket:"
)

// LedgerStore is the Redis write-through behind the in-memory ledger. Records
// are stored as JSON blobs keyed by sequential id, counters and balances as
// hashes. Nothing is ever deleted; terminal states are flags on the records.
type LedgerStore struct {
	Redis *redis.Client
}

func NewLedgerStore(redisClient *redis.Client) *LedgerStore {
	return &LedgerStore{Redis: redisClient}
}

func (s *LedgerStore) SaveEvent(ctx context.Context, event *models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, eventKey(event.ID), data, 0).Err()
}

func (s *LedgerStore) SaveTicket(ctx context.Context, ticket *models.Ticket) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, ticketKey(ticket.ID), data, 0).Err()
}

func (s *LedgerStore) SaveCounters(ctx context.Context, events, tickets uint64) error {
	return s.Redis.HSet(ctx, countersKey, "events", events, "tickets", tickets).Err()
}

func (s *LedgerStore) SaveBalance(ctx context.Context, owner string, balance int64) error {
	return s.Redis.HSet(ctx, balancesKey, owner, balance).Err()
}

// LedgerState is a full snapshot as loaded from Redis.
type LedgerState struct {
	Events        map[uint64]*models.Event
	Tickets       map[uint64]*models.Ticket
	Balances      map[string]int64
	EventCounter  uint64
	TicketCounter uint64
}

// Load reads the whole persisted ledger. Ids are sequential from 0, so the
// counters bound the scan; a missing record below a counter means the
// snapshot is corrupt and the caller must not start serving from it.
func (s *LedgerStore) Load(ctx context.Context) (*LedgerState, error) {
	state := &LedgerState{
		Events:   make(map[uint64]*models.Event),
		Tickets:  make(map[uint64]*models.Ticket),
		Balances: make(map[string]int64),
	}

	counters, err := s.Redis.HGetAll(ctx, countersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	if len(counters) == 0 {
		// Fresh ledger, nothing persisted yet.
		return state, nil
	}

	state.EventCounter, err = strconv.ParseUint(counters["events"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse event counter: %w", err)
	}
	state.TicketCounter, err = strconv.ParseUint(counters["tickets"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse ticket counter: %w", err)
	}

	for id := uint64(0); id < state.EventCounter; id++ {
		data, err := s.Redis.Get(ctx, eventKey(id)).Result()
		if err == redis.Nil {
			return nil, fmt.Errorf("event %d missing from snapshot", id)
		} else if err != nil {
			return nil, fmt.Errorf("load event %d: %w", id, err)
		}

		var event models.Event
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", id, err)
		}
		state.Events[id] = &event
	}

	for id := uint64(0); id < state.TicketCounter; id++ {
		data, err := s.Redis.Get(ctx, ticketKey(id)).Result()
		if err == redis.Nil {
			return nil, fmt.Errorf("ticket %d missing from snapshot", id)
		} else if err != nil {
			return nil, fmt.Errorf("load ticket %d: %w", id, err)
		}

		var ticket models.Ticket
		if err := json.Unmarshal([]byte(data), &ticket); err != nil {
			return nil, fmt.Errorf("decode ticket %d: %w", id, err)
		}
		state.Tickets[id] = &ticket
	}

	balances, err := s.Redis.HGetAll(ctx, balancesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load balances: %w", err)
	}
	for owner, value := range balances {
		balance, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse balance for %s: %w", owner, err)
		}
		state.Balances[owner] = balance
	}

	return state, nil
}

func eventKey(id uint64) string {
	return fmt.Sprintf("%s%d", eventKeyPrefix, id)
}

func ticketKey(id uint64) string {
	return fmt.Sprintf("%s%d", ticketKeyPrefix, id)
}

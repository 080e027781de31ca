package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/why-platform/buzon-service/internal/domain"
)

const (
	ticketKeyPrefix = "buzon:ticket:"
	ticketIndexKey  = "buzon:tickets"
)

// ErrLevelConflict reports a lost compare-and-swap on escalation level,
// meaning another trigger already advanced the same ticket.
var ErrLevelConflict = errors.New("escalation level advanced concurrently")

// ErrStateNotFound reports an untracked ticket ID.
var ErrStateNotFound = errors.New("ticket state not found")

// TicketStateRepository tracks per-ticket escalation state.
type TicketStateRepository interface {
	Save(ctx context.Context, state *domain.TicketState) error
	Get(ctx context.Context, ticketID string) (*domain.TicketState, error)
	List(ctx context.Context) ([]domain.TicketState, error)
	AdvanceLevel(ctx context.Context, ticketID string, fromLevel int, record domain.EscalationRecord) (*domain.TicketState, error)
	SetClickUpTask(ctx context.Context, ticketID, taskID string) error
	Remove(ctx context.Context, ticketID string) error
}

type redisTicketStateRepository struct {
	client    *redis.Client
	retention time.Duration
}

// NewTicketStateRepository instantiates the Redis-backed store.
func NewTicketStateRepository(client *redis.Client) TicketStateRepository {
	return &redisTicketStateRepository{
		client:    client,
		retention: 30 * 24 * time.Hour,
	}
}

func ticketKey(ticketID string) string {
	return ticketKeyPrefix + ticketID
}

func (r *redisTicketStateRepository) Save(ctx context.Context, state *domain.TicketState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal ticket state: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, ticketKey(state.TicketID), payload, r.retention)
	pipe.SAdd(ctx, ticketIndexKey, state.TicketID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisTicketStateRepository) Get(ctx context.Context, ticketID string) (*domain.TicketState, error) {
	raw, err := r.client.Get(ctx, ticketKey(ticketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}
		return nil, err
	}

	var state domain.TicketState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal ticket state: %w", err)
	}
	return &state, nil
}

func (r *redisTicketStateRepository) List(ctx context.Context) ([]domain.TicketState, error) {
	ids, err := r.client.SMembers(ctx, ticketIndexKey).Result()
	if err != nil {
		return nil, err
	}

	states := make([]domain.TicketState, 0, len(ids))
	for _, id := range ids {
		state, err := r.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrStateNotFound) {
				// expired entry, drop from the index
				_ = r.client.SRem(ctx, ticketIndexKey, id).Err()
				continue
			}
			return nil, err
		}
		states = append(states, *state)
	}
	return states, nil
}

// AdvanceLevel moves the ticket one escalation step forward. The update runs
// under WATCH so two concurrent triggers cannot both advance from the same
// level: the loser observes either a version change or a level mismatch.
func (r *redisTicketStateRepository) AdvanceLevel(ctx context.Context, ticketID string, fromLevel int, record domain.EscalationRecord) (*domain.TicketState, error) {
	key := ticketKey(ticketID)
	var updated *domain.TicketState

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrStateNotFound
			}
			return err
		}

		var state domain.TicketState
		if err := json.Unmarshal(raw, &state); err != nil {
			return fmt.Errorf("unmarshal ticket state: %w", err)
		}
		if state.CurrentLevel != fromLevel {
			return ErrLevelConflict
		}

		state.CurrentLevel = record.Level
		state.History = append(state.History, record)

		payload, err := json.Marshal(&state)
		if err != nil {
			return fmt.Errorf("marshal ticket state: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.retention)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &state
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrLevelConflict
		}
		return nil, err
	}
	return updated, nil
}

func (r *redisTicketStateRepository) SetClickUpTask(ctx context.Context, ticketID, taskID string) error {
	state, err := r.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	state.ClickUpTask = taskID
	return r.Save(ctx, state)
}

func (r *redisTicketStateRepository) Remove(ctx context.Context, ticketID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, ticketKey(ticketID))
	pipe.SRem(ctx, ticketIndexKey, ticketID)
	_, err := pipe.Exec(ctx)
	return err
}

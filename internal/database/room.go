// internal/database/room.go
package database

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mpetras/castdraft/internal/models"
	"github.com/mpetras/castdraft/internal/room"
)

// Repo implements room.Repository on Postgres. Rosters are not stored
// directly; they are rebuilt from drafted contestants in draft order.
type Repo struct{}

// NewRepo returns the Postgres-backed room repository. ConnectDB must have
// been called first.
func NewRepo() *Repo {
	return &Repo{}
}

// GetRoom loads a room with its players and contestants.
func (repo *Repo) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	r := &models.Room{
		ID:          roomID,
		Players:     make(map[uuid.UUID]*models.Player),
		Contestants: make(map[uuid.UUID]*models.Contestant),
	}

	q := `
	SELECT admin_key_hash, phase, starting_budget, min_increment, timer_seconds,
	       current_contestant_id, auction_status, current_bid,
	       current_bidder_player_id, auction_end_time, nominator_player_id
	FROM rooms
	WHERE id = $1
	`
	var endTime *time.Time
	err := DB.QueryRow(ctx, q, roomID).Scan(
		&r.AdminKeyHash,
		&r.Phase,
		&r.Settings.StartingBudget,
		&r.Settings.MinIncrement,
		&r.Settings.TimerSeconds,
		&r.CurrentAuction.ContestantID,
		&r.CurrentAuction.Status,
		&r.CurrentAuction.CurrentBid,
		&r.CurrentAuction.CurrentBidderPlayerID,
		&endTime,
		&r.NominatorPlayerID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, room.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	r.CurrentAuction.EndTime = endTime

	if err := repo.loadPlayers(ctx, r); err != nil {
		return nil, err
	}
	if err := repo.loadContestants(ctx, r); err != nil {
		return nil, err
	}
	rebuildRosters(r)
	return r, nil
}

func (repo *Repo) loadPlayers(ctx context.Context, r *models.Room) error {
	q := `SELECT id, name, budget_remaining, connected FROM players WHERE room_id = $1`
	rows, err := DB.Query(ctx, q, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		p := &models.Player{Roster: []uuid.UUID{}}
		if err := rows.Scan(&p.ID, &p.Name, &p.BudgetRemaining, &p.Connected); err != nil {
			return err
		}
		r.Players[p.ID] = p
	}
	return rows.Err()
}

func (repo *Repo) loadContestants(ctx context.Context, r *models.Room) error {
	q := `
	SELECT id, name, bio, COALESCE(image_url, ''), star, status,
	       drafted_by_player_id, drafted_price, draft_order
	FROM contestants
	WHERE room_id = $1
	`
	rows, err := DB.Query(ctx, q, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		c := &models.Contestant{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Bio, &c.ImageURL, &c.Star, &c.Status,
			&c.DraftedByPlayerID, &c.DraftedPrice, &c.DraftOrder); err != nil {
			return err
		}
		r.Contestants[c.ID] = c
	}
	return rows.Err()
}

// rebuildRosters reassembles each player's roster from drafted contestants,
// ordered by draft order.
func rebuildRosters(r *models.Room) {
	type pick struct {
		contestantID uuid.UUID
		order        int
	}
	picks := make(map[uuid.UUID][]pick)
	for _, c := range r.Contestants {
		if c.Status == models.ContestantDrafted && c.DraftedByPlayerID != nil {
			order := 0
			if c.DraftOrder != nil {
				order = *c.DraftOrder
			}
			picks[*c.DraftedByPlayerID] = append(picks[*c.DraftedByPlayerID], pick{c.ID, order})
		}
	}
	for playerID, ps := range picks {
		p, ok := r.Players[playerID]
		if !ok {
			continue
		}
		sort.Slice(ps, func(i, j int) bool { return ps[i].order < ps[j].order })
		for _, pk := range ps {
			p.Roster = append(p.Roster, pk.contestantID)
		}
	}
}

// SaveRoom writes the full room state in one transaction: the room row is
// updated, players and contestants are upserted, and contestants no longer
// present are removed.
func (repo *Repo) SaveRoom(ctx context.Context, r *models.Room) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
		UPDATE rooms SET
			phase = $2,
			starting_budget = $3,
			min_increment = $4,
			timer_seconds = $5,
			current_contestant_id = $6,
			auction_status = $7,
			current_bid = $8,
			current_bidder_player_id = $9,
			auction_end_time = $10,
			nominator_player_id = $11
		WHERE id = $1
		`
		if _, err := tx.Exec(ctx, q,
			r.ID,
			r.Phase,
			r.Settings.StartingBudget,
			r.Settings.MinIncrement,
			r.Settings.TimerSeconds,
			r.CurrentAuction.ContestantID,
			r.CurrentAuction.Status,
			r.CurrentAuction.CurrentBid,
			r.CurrentAuction.CurrentBidderPlayerID,
			r.CurrentAuction.EndTime,
			r.NominatorPlayerID,
		); err != nil {
			return err
		}

		for _, p := range r.Players {
			upsert := `
			INSERT INTO players (id, room_id, name, budget_remaining, connected)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				budget_remaining = EXCLUDED.budget_remaining,
				connected = EXCLUDED.connected
			`
			if _, err := tx.Exec(ctx, upsert, p.ID, r.ID, p.Name, p.BudgetRemaining, p.Connected); err != nil {
				return err
			}
		}

		keep := make([]string, 0, len(r.Contestants))
		for _, c := range r.Contestants {
			keep = append(keep, c.ID.String())
			upsert := `
			INSERT INTO contestants (id, room_id, name, bio, image_url, star, status,
			                         drafted_by_player_id, drafted_price, draft_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				bio = EXCLUDED.bio,
				image_url = EXCLUDED.image_url,
				star = EXCLUDED.star,
				status = EXCLUDED.status,
				drafted_by_player_id = EXCLUDED.drafted_by_player_id,
				drafted_price = EXCLUDED.drafted_price,
				draft_order = EXCLUDED.draft_order
			`
			if _, err := tx.Exec(ctx, upsert, c.ID, r.ID, c.Name, c.Bio, c.ImageURL, c.Star, c.Status,
				c.DraftedByPlayerID, c.DraftedPrice, c.DraftOrder); err != nil {
				return err
			}
		}

		prune := `DELETE FROM contestants WHERE room_id = $1 AND id <> ALL($2::uuid[])`
		if _, err := tx.Exec(ctx, prune, r.ID, keep); err != nil {
			return err
		}
		return nil
	})
}

// InsertRoom creates the room row and its initial contestant catalog.
func (repo *Repo) InsertRoom(ctx context.Context, r *models.Room) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
		INSERT INTO rooms (id, admin_key_hash, phase, starting_budget, min_increment,
		                   timer_seconds, auction_status, current_bid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.Exec(ctx, q,
			r.ID,
			r.AdminKeyHash,
			r.Phase,
			r.Settings.StartingBudget,
			r.Settings.MinIncrement,
			r.Settings.TimerSeconds,
			r.CurrentAuction.Status,
			r.CurrentAuction.CurrentBid,
		); err != nil {
			return err
		}

		for _, c := range r.Contestants {
			insert := `
			INSERT INTO contestants (id, room_id, name, bio, image_url, star, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			`
			if _, err := tx.Exec(ctx, insert, c.ID, r.ID, c.Name, c.Bio, c.ImageURL, c.Star, c.Status); err != nil {
				return err
			}
		}
		return nil
	})
}

package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tripproposal/internal/domain"
)

// Postgres error codes mapped to domain errors.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// ApplyStays writes every command inside one transaction, then reads the
// stays back with their rooms and hotels.
func (r *pgTripStore) ApplyStays(ctx context.Context, tripID uuid.UUID, cmds []domain.StayCommand) ([]domain.StayRecord, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(cmds))
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for i, cmd := range cmds {
			id, err := writeStay(ctx, tx, tripID, cmd)
			if err != nil {
				return fmt.Errorf("day %s: %w", cmd.DayID, err)
			}
			ids[i] = id
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repo.TripStore.ApplyStays: %w", err)
	}

	records, err := r.readStays(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("repo.TripStore.ApplyStays: %w", err)
	}
	return records, nil
}

// CreateStay books one day. An existing stay on the day is replaced.
func (r *pgTripStore) CreateStay(ctx context.Context, tripID uuid.UUID, cmd domain.StayCommand) (domain.StayRecord, error) {
	cmd.StayID = uuid.Nil
	records, err := r.ApplyStays(ctx, tripID, []domain.StayCommand{cmd})
	if err != nil {
		return domain.StayRecord{}, fmt.Errorf("repo.TripStore.CreateStay: %w", err)
	}
	if len(records) == 0 {
		return domain.StayRecord{DayID: cmd.DayID}, nil
	}
	return records[0], nil
}

// DeleteStay removes a stay from one of the trip's days.
func (r *pgTripStore) DeleteStay(ctx context.Context, tripID, stayID uuid.UUID) error {
	const q = `
		DELETE FROM stays s
		USING trip_days d
		WHERE s.id = @id
		  AND s.trip_day_id = d.id
		  AND d.trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": stayID, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.TripStore.DeleteStay: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripStore.DeleteStay: %w", domain.ErrNotFound)
	}
	return nil
}

// writeStay inserts or updates the stay for one command and returns its ID.
// Both statements select through trip_days so a day of another trip is
// reported as not found.
func writeStay(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, cmd domain.StayCommand) (uuid.UUID, error) {
	const insert = `
		INSERT INTO stays (trip_day_id, room_id, check_in, check_out, nights,
		                   meal_plan, price_total_cents, confirmation_status)
		SELECT d.id, @room_id, @check_in, @check_out, @nights,
		       @meal_plan, @price_total_cents, @confirmation_status
		FROM trip_days d
		WHERE d.id = @day_id AND d.trip_id = @trip_id
		ON CONFLICT (trip_day_id) DO UPDATE
		SET room_id             = EXCLUDED.room_id,
		    check_in            = EXCLUDED.check_in,
		    check_out           = EXCLUDED.check_out,
		    nights              = EXCLUDED.nights,
		    meal_plan           = EXCLUDED.meal_plan,
		    price_total_cents   = EXCLUDED.price_total_cents,
		    confirmation_status = EXCLUDED.confirmation_status,
		    updated_at          = now()
		RETURNING id`

	const update = `
		UPDATE stays s
		SET room_id             = @room_id,
		    check_in            = @check_in,
		    check_out           = @check_out,
		    nights              = @nights,
		    meal_plan           = @meal_plan,
		    price_total_cents   = @price_total_cents,
		    confirmation_status = @confirmation_status,
		    updated_at          = now()
		FROM trip_days d
		WHERE s.id = @stay_id
		  AND s.trip_day_id = d.id
		  AND d.id = @day_id
		  AND d.trip_id = @trip_id
		RETURNING s.id`

	status := cmd.ConfirmationStatus
	if status == "" {
		status = domain.ConfirmationPending
	}
	mealPlan := cmd.MealPlan
	if mealPlan == "" {
		mealPlan = domain.DefaultMealPlan
	}
	var roomID any
	if cmd.RoomID != uuid.Nil {
		roomID = cmd.RoomID
	}
	args := pgx.NamedArgs{
		"trip_id":             tripID,
		"day_id":              cmd.DayID,
		"stay_id":             cmd.StayID,
		"room_id":             roomID,
		"check_in":            domain.NormalizeDate(cmd.CheckIn),
		"check_out":           domain.NormalizeDate(cmd.CheckOut),
		"nights":              cmd.Nights,
		"meal_plan":           mealPlan,
		"price_total_cents":   cmd.PriceTotalCents,
		"confirmation_status": status,
	}

	q := update
	if cmd.IsCreate() {
		q = insert
	}

	var id pgtype.UUID
	if err := tx.QueryRow(ctx, q, args).Scan(&id); err != nil {
		return uuid.Nil, mapWriteError(err)
	}
	return uuid.UUID(id.Bytes), nil
}

func (r *pgTripStore) readStays(ctx context.Context, ids []uuid.UUID) ([]domain.StayRecord, error) {
	const q = `
		SELECT s.trip_day_id,
		       ` + stayColumns + `
		FROM stays s
		LEFT JOIN rooms  r ON r.id = s.room_id
		LEFT JOIN hotels h ON h.id = r.hotel_id
		WHERE s.id = ANY(@ids)`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("read stays: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]domain.StayRecord, len(ids))
	for rows.Next() {
		var (
			dayID pgtype.UUID
			row   stayRow
		)
		if err := rows.Scan(append([]any{&dayID}, row.dest()...)...); err != nil {
			return nil, fmt.Errorf("read stays: scan: %w", err)
		}
		st := row.stay()
		byID[st.ID] = domain.StayRecord{DayID: uuid.UUID(dayID.Bytes), Stay: *st}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read stays: rows: %w", err)
	}

	records := make([]domain.StayRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func mapWriteError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return domain.NewValidationError(domain.RuleSelection, "unknown room: %s", pgErr.Detail)
		case pgCheckViolation:
			return domain.NewValidationError(domain.RuleSelection, "invalid stay: %s", pgErr.ConstraintName)
		}
	}
	return err
}

// Package repo holds the trip store and plan cache ports and their adapters.
// Each port has an interface, a Postgres or Redis implementation, and an
// in-memory implementation. No business logic lives here, only storage and
// type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tripproposal/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
// Begin on a pgx.Tx opens a savepoint, so ApplyStays stays atomic either way.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TripStore is the external trip store: the authority on days, stays, rooms,
// and hotels. The reconciler depends on this interface only.
type TripStore interface {
	// FetchTrip returns the full day calendar with nested stays, rooms,
	// hotels, activities, and flights. Returns domain.ErrNotFound for an
	// unknown trip.
	FetchTrip(ctx context.Context, tripID uuid.UUID) (domain.Trip, error)

	// ApplyStays creates or updates one stay per command in a single
	// all-or-nothing write. Records are returned in command order; nested
	// room and hotel data is not guaranteed to be present.
	ApplyStays(ctx context.Context, tripID uuid.UUID, cmds []domain.StayCommand) ([]domain.StayRecord, error)

	// CreateStay books a single day.
	CreateStay(ctx context.Context, tripID uuid.UUID, cmd domain.StayCommand) (domain.StayRecord, error)

	// DeleteStay removes a stay from a day of the trip. Returns
	// domain.ErrNotFound if the stay is not on that trip.
	DeleteStay(ctx context.Context, tripID, stayID uuid.UUID) error
}

// pgTripStore is the Postgres implementation of TripStore.
type pgTripStore struct {
	db db
}

// NewTripStore constructs a TripStore backed by the provided connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripStore(db db) TripStore {
	return &pgTripStore{db: db}
}

// FetchTrip loads the trip row, then its days, activities, and flights.
func (r *pgTripStore) FetchTrip(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT id, name, start_date, end_date, adults, children,
		       land_markup_percent, currency
		FROM trips
		WHERE id = @id`

	trip, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": tripID}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripStore.FetchTrip: %w", err)
	}

	if trip.Days, err = r.listDays(ctx, tripID); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripStore.FetchTrip: %w", err)
	}
	if err := r.attachActivities(ctx, tripID, trip.Days); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripStore.FetchTrip: %w", err)
	}
	if trip.Flights, err = r.listFlights(ctx, tripID); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripStore.FetchTrip: %w", err)
	}
	return trip, nil
}

func (r *pgTripStore) listDays(ctx context.Context, tripID uuid.UUID) ([]domain.TripDay, error) {
	const q = `
		SELECT d.id, d.day_number, d.date,
		       ` + stayColumns + `
		FROM trip_days d
		LEFT JOIN stays  s ON s.trip_day_id = d.id
		LEFT JOIN rooms  r ON r.id = s.room_id
		LEFT JOIN hotels h ON h.id = r.hotel_id
		WHERE d.trip_id = @trip_id
		ORDER BY d.day_number NULLS LAST, d.date NULLS LAST`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	var days []domain.TripDay
	for rows.Next() {
		var (
			d      domain.TripDay
			id     pgtype.UUID
			num    pgtype.Int4
			date   pgtype.Date
			stayed stayRow
		)
		dest := append([]any{&id, &num, &date}, stayed.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("list days: scan: %w", err)
		}
		d.ID = uuid.UUID(id.Bytes)
		if num.Valid {
			n := int(num.Int32)
			d.DayNumber = &n
		}
		if date.Valid {
			d.Date = date.Time
		}
		d.Stay = stayed.stay()
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list days: rows: %w", err)
	}
	return days, nil
}

func (r *pgTripStore) attachActivities(ctx context.Context, tripID uuid.UUID, days []domain.TripDay) error {
	const q = `
		SELECT a.trip_day_id, a.id, a.name, a.kind, a.price
		FROM activities a
		JOIN trip_days d ON d.id = a.trip_day_id
		WHERE d.trip_id = @trip_id
		ORDER BY a.name, a.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	byDay := make(map[uuid.UUID][]domain.Activity)
	for rows.Next() {
		var (
			dayID, id pgtype.UUID
			a         domain.Activity
			kind      string
		)
		if err := rows.Scan(&dayID, &id, &a.Name, &kind, &a.Price); err != nil {
			return fmt.Errorf("list activities: scan: %w", err)
		}
		a.ID = uuid.UUID(id.Bytes)
		a.Kind = domain.ActivityKind(kind)
		key := uuid.UUID(dayID.Bytes)
		byDay[key] = append(byDay[key], a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list activities: rows: %w", err)
	}

	for i := range days {
		days[i].Activities = byDay[days[i].ID]
	}
	return nil
}

func (r *pgTripStore) listFlights(ctx context.Context, tripID uuid.UUID) ([]domain.Flight, error) {
	const q = `
		SELECT id, description, price
		FROM flights
		WHERE trip_id = @trip_id
		ORDER BY description, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()

	var flights []domain.Flight
	for rows.Next() {
		var (
			f  domain.Flight
			id pgtype.UUID
		)
		if err := rows.Scan(&id, &f.Description, &f.Price); err != nil {
			return nil, fmt.Errorf("list flights: scan: %w", err)
		}
		f.ID = uuid.UUID(id.Bytes)
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flights: rows: %w", err)
	}
	return flights, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t      domain.Trip
		id     pgtype.UUID
		start  pgtype.Date
		end    pgtype.Date
		markup pgtype.Float8
	)

	err := s.Scan(&id, &t.Name, &start, &end, &t.Adults, &t.Children, &markup, &t.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	if start.Valid {
		t.StartDate = start.Time
	}
	if end.Valid {
		t.EndDate = end.Time
	}
	if markup.Valid {
		m := markup.Float64
		t.LandMarkupPercent = &m
	}
	if t.Currency == "" {
		t.Currency = domain.DefaultCurrency
	}
	return t, nil
}

// stayColumns selects a stay with its room and hotel. Every column is
// nullable because of the LEFT JOINs.
const stayColumns = `
		       s.id, s.check_in, s.check_out, s.nights, s.meal_plan,
		       s.price_total_cents, s.confirmation_status,
		       r.id, r.name, r.price_cents, r.price_per_night, r.base_meal_plan, r.board_basis,
		       h.id, h.name, h.min_price`

// stayRow holds the nullable scan targets for stayColumns.
type stayRow struct {
	id                      pgtype.UUID
	checkIn, checkOut       pgtype.Date
	nights                  pgtype.Int4
	mealPlan, status        pgtype.Text
	total                   pgtype.Int8
	roomID                  pgtype.UUID
	roomName                pgtype.Text
	roomCents               pgtype.Int8
	roomNightly             pgtype.Float8
	baseMealPlan, boardBase pgtype.Text
	hotelID                 pgtype.UUID
	hotelName               pgtype.Text
	hotelMin                pgtype.Float8
}

func (s *stayRow) dest() []any {
	return []any{
		&s.id, &s.checkIn, &s.checkOut, &s.nights, &s.mealPlan, &s.total, &s.status,
		&s.roomID, &s.roomName, &s.roomCents, &s.roomNightly, &s.baseMealPlan, &s.boardBase,
		&s.hotelID, &s.hotelName, &s.hotelMin,
	}
}

// stay converts the row, returning nil when the day has no stay.
func (s *stayRow) stay() *domain.Stay {
	if !s.id.Valid {
		return nil
	}
	st := &domain.Stay{
		ID:                 uuid.UUID(s.id.Bytes),
		CheckIn:            s.checkIn.Time,
		CheckOut:           s.checkOut.Time,
		Nights:             int(s.nights.Int32),
		MealPlan:           s.mealPlan.String,
		PriceTotalCents:    s.total.Int64,
		ConfirmationStatus: s.status.String,
	}
	if !s.roomID.Valid {
		return st
	}
	st.Room = &domain.Room{
		ID:           uuid.UUID(s.roomID.Bytes),
		Name:         s.roomName.String,
		BaseMealPlan: s.baseMealPlan.String,
		BoardBasis:   s.boardBase.String,
	}
	if s.roomCents.Valid {
		c := s.roomCents.Int64
		st.Room.PriceCents = &c
	}
	if s.roomNightly.Valid {
		p := s.roomNightly.Float64
		st.Room.PricePerNight = &p
	}
	if s.hotelID.Valid {
		st.Room.Hotel = &domain.Hotel{ID: uuid.UUID(s.hotelID.Bytes), Name: s.hotelName.String}
		if s.hotelMin.Valid {
			m := s.hotelMin.Float64
			st.Room.Hotel.MinPrice = &m
		}
	}
	return st
}

// cloneTrip deep-copies the parts of a trip the memory store hands out.
func cloneTrip(t domain.Trip) domain.Trip {
	t.Days = slices.Clone(t.Days)
	for i := range t.Days {
		if st := t.Days[i].Stay; st != nil {
			cp := *st
			t.Days[i].Stay = &cp
		}
		t.Days[i].Activities = slices.Clone(t.Days[i].Activities)
	}
	t.Flights = slices.Clone(t.Flights)
	return t
}

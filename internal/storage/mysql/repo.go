package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"owner_portal/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, getUserByEmailSQL, email))
}

func (r *Repo) UserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, getUserByIDSQL, id))
}

type rowScanner interface{ Scan(dest ...any) error }

func (r *Repo) scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var hostawayID sql.NullInt64
	var listingIDs []byte
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &hostawayID, &listingIDs, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	if hostawayID.Valid {
		id := hostawayID.Int64
		u.HostawayUserID = &id
	}
	if len(listingIDs) > 0 {
		_ = json.Unmarshal(listingIDs, &u.ListingMapIDs)
	}
	return u, nil
}

func (r *Repo) SaveDeviceToken(ctx context.Context, t domain.DeviceToken) error {
	_, err := r.db.ExecContext(ctx, upsertDeviceTokenSQL, t.UserID, t.Token, t.Platform)
	return err
}

func (r *Repo) UsersForListing(ctx context.Context, listingMapID int64) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, usersForListingSQL, listingMapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) DeviceTokensForUsers(ctx context.Context, userIDs []int64) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(userIDs))
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	sqlStr := deviceTokensForUsersPrefix + "(" + strings.Join(placeholders, ",") + ")"

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *Repo) PartnershipForUser(ctx context.Context, userID int64) ([]domain.PartnershipEarning, error) {
	rows, err := r.db.QueryContext(ctx, partnershipForUserSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PartnershipEarning
	for rows.Next() {
		var e domain.PartnershipEarning
		if err := rows.Scan(&e.ID, &e.UserID, &e.ListingMapID, &e.Period, &e.AmountCents, &e.Currency); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) LogReservation(ctx context.Context, ev domain.ReservationEvent) error {
	var resID any
	if ev.ReservationID != 0 {
		resID = ev.ReservationID
	}
	_, err := r.db.ExecContext(ctx, insertReservationLogSQL,
		resID,
		ev.ListingMapID,
		ev.GuestName,
		ev.CheckIn.Format("2006-01-02"),
		ev.CheckOut.Format("2006-01-02"),
	)
	return err
}

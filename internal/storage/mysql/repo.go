package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shelterline/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- host directory ----

func (r *Repo) ListCallable(ctx context.Context) ([]domain.Host, error) {
	rows, err := r.db.QueryContext(ctx, listCallableSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Host
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) GetHost(ctx context.Context, hostID int64) (domain.Host, error) {
	row := r.db.QueryRowContext(ctx, getHostSQL, hostID)
	h, err := scanHost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Host{}, domain.ErrNotFound
	}
	return h, err
}

type scanner interface{ Scan(dest ...any) error }

func scanHost(row scanner) (domain.Host, error) {
	var h domain.Host
	var phone sql.NullString
	var freq sql.NullString
	var last sql.NullTime
	if err := row.Scan(&h.ID, &h.Name, &phone, &h.Beds, &h.FamilyFriendly, &freq, &h.CallPriority, &last); err != nil {
		return domain.Host{}, err
	}
	if phone.Valid {
		p := phone.String
		h.Phone = &p
	}
	if freq.Valid {
		h.Frequency = domain.CallFrequency(freq.String)
	}
	if last.Valid {
		t := last.Time
		h.LastCalled = &t
	}
	return h, nil
}

func (r *Repo) TouchLastCalled(ctx context.Context, hostID int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, touchLastCalledSQL, at.UTC(), hostID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) UpdatePolicy(ctx context.Context, hostID int64, f domain.CallFrequency) error {
	if !f.Valid() {
		return fmt.Errorf("invalid call frequency %q", f)
	}
	res, err := r.db.ExecContext(ctx, updatePolicySQL, string(f), hostID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for no-op updates too, so make
		// sure the host actually exists before claiming not-found.
		if _, err := r.GetHost(ctx, hostID); err != nil {
			return err
		}
	}
	return nil
}

// ---- guest directory ----

func (r *Repo) ListPending(ctx context.Context, now time.Time, lookahead time.Duration) ([]domain.Guest, error) {
	rows, err := r.db.QueryContext(ctx, listPendingSQL, now.Add(lookahead).UTC(), now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Guest
	for rows.Next() {
		var g domain.Guest
		var phone sql.NullString
		var asg sql.NullInt64
		if err := rows.Scan(&g.ID, &g.Name, &phone, &g.CheckIn, &g.CheckOut, &g.IsCouple, &asg); err != nil {
			return nil, err
		}
		if phone.Valid {
			p := phone.String
			g.Phone = &p
		}
		if asg.Valid {
			a := asg.Int64
			g.AssignmentID = &a
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ---- session store ----

func (r *Repo) CreateSession(ctx context.Context, s domain.CallSession) error {
	var menu *string
	if s.Menu != nil {
		m := string(*s.Menu)
		menu = &m
	}
	_, err := r.db.ExecContext(ctx, insertSessionSQL,
		s.ID,
		s.Phone,
		valInt64(s.HostID),
		string(s.Direction),
		valStr(menu),
		string(s.Status),
		valInt(s.BedsOffered),
		valBool(s.AcceptsCouples),
		s.GuestsAssigned,
	)
	return err
}

func (r *Repo) GetSession(ctx context.Context, id string) (domain.CallSession, error) {
	row := r.db.QueryRowContext(ctx, getSessionSQL, id)

	var s domain.CallSession
	var hostID sql.NullInt64
	var direction, status string
	var menu sql.NullString
	var beds sql.NullInt64
	var couples sql.NullBool
	if err := row.Scan(
		&s.ID,
		&s.Phone,
		&hostID,
		&direction,
		&menu,
		&status,
		&beds,
		&couples,
		&s.GuestsAssigned,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CallSession{}, domain.ErrNotFound
		}
		return domain.CallSession{}, err
	}

	if hostID.Valid {
		h := hostID.Int64
		s.HostID = &h
	}
	s.Direction = domain.CallDirection(direction)
	s.Status = domain.SessionStatus(status)
	if menu.Valid {
		m := domain.MenuSelection(menu.String)
		s.Menu = &m
	}
	if beds.Valid {
		b := int(beds.Int64)
		s.BedsOffered = &b
	}
	if couples.Valid {
		c := couples.Bool
		s.AcceptsCouples = &c
	}
	return s, nil
}

func (r *Repo) Transition(ctx context.Context, s domain.CallSession) error {
	var menu *string
	if s.Menu != nil {
		m := string(*s.Menu)
		menu = &m
	}
	res, err := r.db.ExecContext(ctx, transitionSessionSQL,
		valStr(menu),
		string(s.Status),
		valInt(s.BedsOffered),
		valBool(s.AcceptsCouples),
		s.GuestsAssigned,
		s.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is already terminal, it never existed, or the
		// update was a value-identical no-op (MySQL reports 0 affected
		// rows for those too). Disambiguate off the stored status.
		var status string
		switch err := r.db.QueryRowContext(ctx, sessionStatusSQL, s.ID).Scan(&status); {
		case errors.Is(err, sql.ErrNoRows):
			return domain.ErrNotFound
		case err != nil:
			return err
		case domain.SessionStatus(status).Terminal():
			return domain.ErrAlreadyTerminal
		}
	}
	return nil
}

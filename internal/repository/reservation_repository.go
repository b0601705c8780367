package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/beach-lounger-reservation/internal/model"
)

// ReservationRepo is the MySQL ledger.  Admission for a lounger is
// serialized by locking that lounger's row with SELECT ... FOR UPDATE OF
// inside the transaction that checks for conflicts and inserts, so two
// requests for the same lounger queue on the row lock while requests
// for other loungers never touch it.  All timestamps are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, lounger_id, user_id, start_dt, end_dt, total_price_cents, status, payment_status, created_at, updated_at`

const loungerSelect = `SELECT l.id, l.beach_id, b.name, l.number, l.type, l.row_no, l.col_no, l.price_per_hour_cents, l.is_active
                       FROM loungers l
                       JOIN beaches b ON b.id = l.beach_id
                       WHERE l.id = ?`

type scanner interface {
    Scan(dest ...any) error
}

func scanReservation(s scanner) (model.Reservation, error) {
    var res model.Reservation
    err := s.Scan(&res.ID, &res.LoungerID, &res.UserID, &res.Start, &res.End,
        &res.TotalPriceCents, &res.Status, &res.PaymentStatus, &res.CreatedAt, &res.UpdatedAt)
    if err != nil {
        return model.Reservation{}, err
    }
    res.Start = res.Start.UTC()
    res.End = res.End.UTC()
    return res, nil
}

func scanLounger(s scanner) (model.Lounger, error) {
    var l model.Lounger
    err := s.Scan(&l.ID, &l.BeachID, &l.BeachName, &l.Number, &l.Type, &l.Row, &l.Col, &l.RateCents, &l.Active)
    return l, err
}

// withTx runs fn in a transaction and commits when fn returns nil.
// Rollback runs on every other path, including panics.  Once Commit
// succeeds the work is durable and nil is returned even if ctx has
// since expired.
func (r *ReservationRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return storageErr("begin transaction", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(tx); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return storageErr("commit", err)
    }
    committed = true
    return nil
}

// lockLoungerTx loads a lounger and takes its row lock.  Only the
// lounger row is locked; the joined beach row stays free so loungers of
// the same beach do not contend.
func lockLoungerTx(ctx context.Context, tx *sql.Tx, loungerID uint64) (model.Lounger, error) {
    l, err := scanLounger(tx.QueryRowContext(ctx, loungerSelect+` FOR UPDATE OF l`, loungerID))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Lounger{}, model.ErrResourceNotFound
        }
        return model.Lounger{}, storageErr("lock lounger", err)
    }
    return l, nil
}

func (r *ReservationRepo) Create(ctx context.Context, loungerID, userID uint64, iv model.Interval) (model.Reservation, model.Lounger, error) {
    var res model.Reservation
    var lounger model.Lounger
    err := r.withTx(ctx, func(tx *sql.Tx) error {
        var err error
        lounger, err = lockLoungerTx(ctx, tx, loungerID)
        if err != nil {
            return err
        }
        if !lounger.Active {
            return model.ErrResourceUnavailable
        }
        // half-open overlap: existing.start < new.end AND new.start < existing.end
        const conflictQ = `SELECT id FROM reservations
                           WHERE lounger_id = ? AND status IN ('pending', 'confirmed')
                             AND start_dt < ? AND end_dt > ?
                           LIMIT 1`
        var conflictID uint64
        err = tx.QueryRowContext(ctx, conflictQ, loungerID, iv.End.UTC(), iv.Start.UTC()).Scan(&conflictID)
        if err == nil {
            return model.ErrTimeConflict
        }
        if !errors.Is(err, sql.ErrNoRows) {
            return storageErr("check conflicts", err)
        }

        const ins = `INSERT INTO reservations (lounger_id, user_id, start_dt, end_dt, total_price_cents, status, payment_status)
                     VALUES (?, ?, ?, ?, ?, 'pending', 'pending')`
        result, err := tx.ExecContext(ctx, ins, loungerID, userID, iv.Start.UTC(), iv.End.UTC(), model.PriceCents(iv, lounger.RateCents))
        if err != nil {
            return storageErr("insert reservation", err)
        }
        id, err := result.LastInsertId()
        if err != nil {
            return storageErr("insert reservation", err)
        }
        // Query back the full row to populate timestamps and defaults
        res, err = scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
        if err != nil {
            return storageErr("reload reservation", err)
        }
        return nil
    })
    if err != nil {
        return model.Reservation{}, lounger, err
    }
    return res, lounger, nil
}

func (r *ReservationRepo) Confirm(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error) {
    var res model.Reservation
    err := r.withTx(ctx, func(tx *sql.Tx) error {
        // The ownership predicate is part of the search so that another
        // user's booking is indistinguishable from a missing one.
        const upd = `UPDATE reservations
                     SET status = 'confirmed', payment_status = 'paid', updated_at = UTC_TIMESTAMP()
                     WHERE id = ? AND (user_id = ? OR ?) AND status = 'pending'`
        result, err := tx.ExecContext(ctx, upd, reservationID, actor.UserID, actor.Privileged)
        if err != nil {
            return storageErr("confirm reservation", err)
        }
        n, err := result.RowsAffected()
        if err != nil {
            return storageErr("confirm reservation", err)
        }
        if n == 0 {
            return model.ErrNotFound
        }
        res, err = scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, reservationID))
        if err != nil {
            return storageErr("reload reservation", err)
        }
        return nil
    })
    return res, err
}

func (r *ReservationRepo) Cancel(ctx context.Context, reservationID uint64, actor model.Actor, check CancelCheck) (model.Reservation, model.Lounger, error) {
    var res model.Reservation
    var lounger model.Lounger
    err := r.withTx(ctx, func(tx *sql.Tx) error {
        const scoped = ` FROM reservations WHERE id = ? AND (user_id = ? OR ?)`
        var loungerID uint64
        err := tx.QueryRowContext(ctx, `SELECT lounger_id`+scoped, reservationID, actor.UserID, actor.Privileged).Scan(&loungerID)
        if err != nil {
            if errors.Is(err, sql.ErrNoRows) {
                return model.ErrNotFound
            }
            return storageErr("load reservation", err)
        }
        // lounger first, then reservation: the same order Create uses
        lounger, err = lockLoungerTx(ctx, tx, loungerID)
        if err != nil {
            return err
        }
        current, err := scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+scoped+` FOR UPDATE`, reservationID, actor.UserID, actor.Privileged))
        if err != nil {
            if errors.Is(err, sql.ErrNoRows) {
                return model.ErrNotFound
            }
            return storageErr("lock reservation", err)
        }
        if check != nil {
            if err := check(current); err != nil {
                return err
            }
        }
        const upd = `UPDATE reservations
                     SET status = 'cancelled',
                         payment_status = IF(payment_status = 'paid', 'refunded', payment_status),
                         updated_at = UTC_TIMESTAMP()
                     WHERE id = ?`
        if _, err := tx.ExecContext(ctx, upd, reservationID); err != nil {
            return storageErr("cancel reservation", err)
        }
        res, err = scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, reservationID))
        if err != nil {
            return storageErr("reload reservation", err)
        }
        return nil
    })
    if err != nil {
        return model.Reservation{}, lounger, err
    }
    return res, lounger, nil
}

func (r *ReservationRepo) QueryOverlaps(ctx context.Context, loungerID uint64, window model.Interval) ([]model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations
               WHERE lounger_id = ? AND status IN ('pending', 'confirmed')
                 AND start_dt < ? AND end_dt > ?
               ORDER BY start_dt`
    return r.queryReservations(ctx, "query overlaps", q, loungerID, window.End.UTC(), window.Start.UTC())
}

func (r *ReservationRepo) Get(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND (user_id = ? OR ?)`
    res, err := scanReservation(r.db.QueryRowContext(ctx, q, reservationID, actor.UserID, actor.Privileged))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Reservation{}, model.ErrNotFound
        }
        return model.Reservation{}, storageErr("get reservation", err)
    }
    return res, nil
}

func (r *ReservationRepo) GetLounger(ctx context.Context, loungerID uint64) (model.Lounger, error) {
    l, err := scanLounger(r.db.QueryRowContext(ctx, loungerSelect, loungerID))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Lounger{}, model.ErrResourceNotFound
        }
        return model.Lounger{}, storageErr("get lounger", err)
    }
    return l, nil
}

// buildWhere renders the filter as SQL conditions on the reservations
// table aliased r.  Beach filtering joins through loungers.
func buildWhere(f ReservationFilter) ([]string, []any) {
    conds := make([]string, 0, 6)
    args := make([]any, 0, 6)
    if f.Status != "" {
        conds = append(conds, "r.status = ?")
        args = append(args, f.Status)
    }
    if f.LoungerID != 0 {
        conds = append(conds, "r.lounger_id = ?")
        args = append(args, f.LoungerID)
    }
    if f.BeachID != 0 {
        conds = append(conds, "r.lounger_id IN (SELECT id FROM loungers WHERE beach_id = ?)")
        args = append(args, f.BeachID)
    }
    if !f.From.IsZero() {
        conds = append(conds, "r.start_dt >= ?")
        args = append(args, f.From.UTC())
    }
    if !f.To.IsZero() {
        conds = append(conds, "r.end_dt <= ?")
        args = append(args, f.To.UTC())
    }
    switch f.Period {
    case PeriodUpcoming:
        conds = append(conds, "r.start_dt > ?")
        args = append(args, f.Now.UTC())
    case PeriodPast:
        conds = append(conds, "r.end_dt < ?")
        args = append(args, f.Now.UTC())
    case PeriodActive:
        conds = append(conds, "? BETWEEN r.start_dt AND r.end_dt")
        args = append(args, f.Now.UTC())
    }
    return conds, args
}

func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, f ReservationFilter) ([]model.Reservation, int, error) {
    conds, args := buildWhere(f)
    conds = append([]string{"r.user_id = ?"}, conds...)
    args = append([]any{userID}, args...)
    limit, offset := f.Page()
    q := `SELECT ` + prefixed("r", reservationColumns) + ` FROM reservations r WHERE ` + strings.Join(conds, " AND ") +
        ` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
    items, err := r.queryReservations(ctx, "list user reservations", q, append(args, limit, offset)...)
    if err != nil {
        return nil, 0, err
    }
    // the total honours only the status filter so clients can page across periods
    countQ := `SELECT COUNT(*) FROM reservations WHERE user_id = ?`
    countArgs := []any{userID}
    if f.Status != "" {
        countQ += ` AND status = ?`
        countArgs = append(countArgs, f.Status)
    }
    var total int
    if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
        return nil, 0, storageErr("count user reservations", err)
    }
    return items, total, nil
}

func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
    conds, args := buildWhere(f)
    where := ""
    if len(conds) > 0 {
        where = ` WHERE ` + strings.Join(conds, " AND ")
    }
    limit, offset := f.Page()
    q := `SELECT ` + prefixed("r", reservationColumns) + ` FROM reservations r` + where +
        ` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
    return r.queryReservations(ctx, "list reservations", q, append(args, limit, offset)...)
}

func (r *ReservationRepo) queryReservations(ctx context.Context, op, q string, args ...any) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, storageErr(op, err)
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, storageErr(op, err)
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, storageErr(op, err)
    }
    return out, nil
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, cols string) string {
    parts := strings.Split(cols, ",")
    for i, p := range parts {
        parts[i] = alias + "." + strings.TrimSpace(p)
    }
    return strings.Join(parts, ", ")
}

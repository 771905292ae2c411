package offers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/backline-app/backline/internal/platform/db"
	"github.com/backline-app/backline/internal/shared"
)

var (
	ErrNotFound      = shared.ErrNotFound
	ErrInvalidStatus = errors.New("invalid status transition")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	Get(ctx context.Context, id int64) (*Offer, error)
	GetByToken(ctx context.Context, token string) (*Offer, error)
	List(ctx context.Context, req ListOffersRequest) ([]Offer, int, error)

	Create(ctx context.Context, o Offer) (int64, error)
	NextVersion(ctx context.Context, jobID int64) (int, error)
	UpdateMeta(ctx context.Context, id int64, updates map[string]any) error
	UpdateTotals(ctx context.Context, id int64, t Totals) error

	InsertGroup(ctx context.Context, g EquipmentGroup) (int64, error)
	InsertEquipmentItem(ctx context.Context, item EquipmentItem) (int64, error)
	InsertCrewItem(ctx context.Context, c CrewItem) (int64, error)
	InsertTransportItem(ctx context.Context, tr TransportItem) (int64, error)
	InsertSection(ctx context.Context, s PrettySection) (int64, error)
	DeleteGraph(ctx context.Context, offerID int64) error

	LineItems(ctx context.Context, offerID int64) ([]EquipmentItem, []CrewItem, []TransportItem, error)
	// LineItemsRetry tolerates read-after-write lag right after line-item
	// inserts: when everything comes back empty it retries with a short
	// backoff before accepting the result.
	LineItemsRetry(ctx context.Context, offerID int64) ([]EquipmentItem, []CrewItem, []TransportItem, error)

	MarkSent(ctx context.Context, id int64, token string, at time.Time) (bool, error)
	MarkViewed(ctx context.Context, id int64, at time.Time) error
	Accept(ctx context.Context, id int64, name, phone string, at time.Time) (bool, error)
	Reject(ctx context.Context, id int64, name, phone, comment string, at time.Time) (bool, error)
	RequestRevision(ctx context.Context, id int64, name, phone, comment string, at time.Time) (bool, error)
	MarkSuperseded(ctx context.Context, id int64) error
	DeleteDraft(ctx context.Context, id int64) (bool, error)

	StaleSentBefore(ctx context.Context, cutoff time.Time) ([]int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const offerColumns = `
	id, job_id, company_id, type, version_number, status, locked, access_token, title, days_of_use,
	discount_percent::text, vat_percent::text,
	equipment_subtotal::text, crew_subtotal::text, transport_subtotal::text,
	total_before_discount::text, total_after_discount::text, total_with_vat::text,
	sent_at, viewed_at, accepted_at, rejected_at, revision_requested_at,
	accepted_by_name, accepted_by_phone, rejected_by_name, rejected_by_phone, revision_comment,
	based_on_offer_id, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Offer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadGraph(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetByToken(ctx context.Context, token string) (*Offer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE access_token = $1`, token)
	o, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadGraph(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, req ListOffersRequest) ([]Offer, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.JobID != nil {
		conditions = append(conditions, fmt.Sprintf("job_id = $%d", argPos))
		args = append(args, *req.JobID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	whereClause := ""
	for i, c := range conditions {
		if i == 0 {
			whereClause = "WHERE " + c
		} else {
			whereClause += " AND " + c
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM offers %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM offers %s ORDER BY version_number DESC, id DESC LIMIT $%d OFFSET $%d`,
		offerColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, 0, err
		}
		offers = append(offers, *o)
	}
	return offers, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, o Offer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO offers (
			job_id, company_id, type, version_number, status, locked, access_token, title, days_of_use,
			discount_percent, vat_percent,
			equipment_subtotal, crew_subtotal, transport_subtotal,
			total_before_discount, total_after_discount, total_with_vat,
			based_on_offer_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,NOW(),NOW())
		RETURNING id
	`, o.JobID, o.CompanyID, o.Type, o.VersionNumber, o.Status, o.Locked, o.AccessToken, o.Title, o.DaysOfUse,
		o.DiscountPercent.String(), o.VATPercent.String(),
		o.EquipmentSubtotal.String(), o.CrewSubtotal.String(), o.TransportSubtotal.String(),
		o.TotalBeforeDiscount.String(), o.TotalAfterDiscount.String(), o.TotalWithVAT.String(),
		o.BasedOnOfferID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// NextVersion hands out the next per-job version number through an upsert
// sequence so concurrent creations can never double-assign one.
func (r *repository) NextVersion(ctx context.Context, jobID int64) (int, error) {
	var seq int
	err := r.db.QueryRow(ctx, `
		INSERT INTO offer_sequences (job_id, seq)
		VALUES ($1, 1)
		ON CONFLICT (job_id)
		DO UPDATE SET seq = offer_sequences.seq + 1
		RETURNING seq
	`, jobID).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

var metaColumns = map[string]bool{
	"title":            true,
	"days_of_use":      true,
	"discount_percent": true,
	"vat_percent":      true,
}

func (r *repository) UpdateMeta(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE offers SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"title", "days_of_use", "discount_percent", "vat_percent"} {
		v, ok := updates[col]
		if !ok {
			continue
		}
		if !metaColumns[col] {
			continue
		}
		if d, isDec := v.(decimal.Decimal); isDec {
			v = d.String()
		}
		query += fmt.Sprintf(", %s = $%d", col, argPos)
		args = append(args, v)
		argPos++
	}

	query += fmt.Sprintf(" WHERE id = $%d AND status = 'draft' AND NOT locked", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: offer %d is not editable", ErrInvalidStatus, id)
	}
	return nil
}

func (r *repository) UpdateTotals(ctx context.Context, id int64, t Totals) error {
	_, err := r.db.Exec(ctx, `
		UPDATE offers SET
			equipment_subtotal = $1, crew_subtotal = $2, transport_subtotal = $3,
			total_before_discount = $4, total_after_discount = $5, total_with_vat = $6,
			updated_at = NOW()
		WHERE id = $7
	`, t.EquipmentSubtotal.String(), t.CrewSubtotal.String(), t.TransportSubtotal.String(),
		t.TotalBeforeDiscount.String(), t.TotalAfterDiscount.String(), t.TotalWithVAT.String(), id)
	return err
}

func (r *repository) InsertGroup(ctx context.Context, g EquipmentGroup) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO equipment_groups (offer_id, name, sort_order) VALUES ($1,$2,$3) RETURNING id
	`, g.OfferID, g.Name, g.SortOrder).Scan(&id)
	return id, err
}

func (r *repository) InsertEquipmentItem(ctx context.Context, item EquipmentItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO equipment_items (group_id, catalog_item_id, name, quantity, unit_price, total_price, internal_owned, owner_id, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id
	`, item.GroupID, item.CatalogItemID, item.Name, item.Quantity,
		item.UnitPrice.String(), item.TotalPrice.String(), item.InternalOwned, item.OwnerID, item.SortOrder).Scan(&id)
	return id, err
}

func (r *repository) InsertCrewItem(ctx context.Context, c CrewItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO crew_items (offer_id, role_title, crew_count, starts_at, ends_at, daily_rate, total_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id
	`, c.OfferID, c.RoleTitle, c.CrewCount, c.StartsAt, c.EndsAt,
		c.DailyRate.String(), c.TotalPrice.String()).Scan(&id)
	return id, err
}

func (r *repository) InsertTransportItem(ctx context.Context, tr TransportItem) (int64, error) {
	var distanceRate, distanceIncrement *string
	if tr.DistanceRate != nil {
		s := tr.DistanceRate.String()
		distanceRate = &s
	}
	if tr.DistanceIncrement != nil {
		s := tr.DistanceIncrement.String()
		distanceIncrement = &s
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO transport_items (offer_id, vehicle_id, vehicle_name, vehicle_category, starts_at, ends_at, daily_rate, distance_rate, distance_increment, total_price, internal_owned)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id
	`, tr.OfferID, tr.VehicleID, tr.VehicleName, tr.VehicleCategory, tr.StartsAt, tr.EndsAt,
		tr.DailyRate.String(), distanceRate, distanceIncrement, tr.TotalPrice.String(), tr.InternalOwned).Scan(&id)
	return id, err
}

func (r *repository) InsertSection(ctx context.Context, s PrettySection) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO pretty_sections (offer_id, kind, heading, body, sort_order)
		VALUES ($1,$2,$3,$4,$5) RETURNING id
	`, s.OfferID, s.Kind, s.Heading, s.Body, s.SortOrder).Scan(&id)
	return id, err
}

func (r *repository) DeleteGraph(ctx context.Context, offerID int64) error {
	statements := []string{
		`DELETE FROM equipment_items WHERE group_id IN (SELECT id FROM equipment_groups WHERE offer_id = $1)`,
		`DELETE FROM equipment_groups WHERE offer_id = $1`,
		`DELETE FROM crew_items WHERE offer_id = $1`,
		`DELETE FROM transport_items WHERE offer_id = $1`,
		`DELETE FROM pretty_sections WHERE offer_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt, offerID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) LineItems(ctx context.Context, offerID int64) ([]EquipmentItem, []CrewItem, []TransportItem, error) {
	equipment, err := r.equipmentItems(ctx, offerID)
	if err != nil {
		return nil, nil, nil, err
	}
	crew, err := r.crewItems(ctx, offerID)
	if err != nil {
		return nil, nil, nil, err
	}
	transport, err := r.transportItems(ctx, offerID)
	if err != nil {
		return nil, nil, nil, err
	}
	return equipment, crew, transport, nil
}

const (
	readLagAttempts = 3
	readLagBackoff  = 100 * time.Millisecond
)

func (r *repository) LineItemsRetry(ctx context.Context, offerID int64) ([]EquipmentItem, []CrewItem, []TransportItem, error) {
	var equipment []EquipmentItem
	var crew []CrewItem
	var transport []TransportItem
	var err error

	for attempt := 1; attempt <= readLagAttempts; attempt++ {
		equipment, crew, transport, err = r.LineItems(ctx, offerID)
		if err != nil {
			return nil, nil, nil, err
		}
		if len(equipment) > 0 || len(crew) > 0 || len(transport) > 0 {
			return equipment, crew, transport, nil
		}
		if attempt == readLagAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, nil, nil, ctx.Err()
		case <-time.After(readLagBackoff * time.Duration(attempt)):
		}
	}
	return equipment, crew, transport, nil
}

// MarkSent locks the offer and activates its public token. Draft only; the
// status predicate makes concurrent sends first-writer-wins.
func (r *repository) MarkSent(ctx context.Context, id int64, token string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE offers SET status = 'sent', locked = TRUE, access_token = $1, sent_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'draft'
	`, token, at, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkViewed records the first public page load. Idempotent; viewed_at is
// only ever set once and the status only moves off sent.
func (r *repository) MarkViewed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE offers SET
			status = CASE WHEN status = 'sent' THEN 'viewed' ELSE status END,
			viewed_at = COALESCE(viewed_at, $1),
			updated_at = NOW()
		WHERE id = $2 AND status IN ('sent','viewed')
	`, at, id)
	return err
}

// Accept resolves races by predicate: only an offer still awaiting an answer
// is updated, so of two concurrent public actions exactly one wins and the
// loser affects zero rows.
func (r *repository) Accept(ctx context.Context, id int64, name, phone string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE offers SET status = 'accepted', accepted_at = $1, accepted_by_name = $2, accepted_by_phone = $3, updated_at = NOW()
		WHERE id = $4 AND status IN ('sent','viewed')
	`, at, name, phone, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) Reject(ctx context.Context, id int64, name, phone, comment string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE offers SET status = 'rejected', rejected_at = $1, rejected_by_name = $2, rejected_by_phone = $3, revision_comment = NULLIF($4,''), updated_at = NOW()
		WHERE id = $5 AND status IN ('sent','viewed')
	`, at, name, phone, comment, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RequestRevision keeps the offer alive: it drops back to viewed so the
// counterparty can still act after the company answers with a new version.
func (r *repository) RequestRevision(ctx context.Context, id int64, name, phone, comment string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE offers SET status = 'viewed', revision_requested_at = $1, rejected_by_name = $2, rejected_by_phone = $3, revision_comment = NULLIF($4,''), updated_at = NOW()
		WHERE id = $5 AND status IN ('sent','viewed')
	`, at, name, phone, comment, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) MarkSuperseded(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE offers SET status = 'superseded', updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('accepted','rejected')
	`, id)
	return err
}

// DeleteDraft removes a draft offer; child tables cascade on delete, so the
// status predicate alone decides whether anything disappears.
func (r *repository) DeleteDraft(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM offers WHERE id = $1 AND status = 'draft' AND NOT locked`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) StaleSentBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM offers WHERE status IN ('sent','viewed') AND sent_at < $1 ORDER BY id
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) loadGraph(ctx context.Context, o *Offer) error {
	groups, err := r.groups(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Groups = groups

	crew, err := r.crewItems(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Crew = crew

	transport, err := r.transportItems(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Transport = transport

	sections, err := r.sections(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Sections = sections
	return nil
}

func (r *repository) groups(ctx context.Context, offerID int64) ([]EquipmentGroup, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, offer_id, name, sort_order FROM equipment_groups WHERE offer_id = $1 ORDER BY sort_order, id
	`, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []EquipmentGroup
	for rows.Next() {
		var g EquipmentGroup
		if err := rows.Scan(&g.ID, &g.OfferID, &g.Name, &g.SortOrder); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		items, err := r.groupItems(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Items = items
	}
	return groups, nil
}

func (r *repository) groupItems(ctx context.Context, groupID int64) ([]EquipmentItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, group_id, catalog_item_id, name, quantity, unit_price::text, total_price::text, internal_owned, owner_id, sort_order
		FROM equipment_items WHERE group_id = $1 ORDER BY sort_order, id
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEquipmentItems(rows)
}

func (r *repository) equipmentItems(ctx context.Context, offerID int64) ([]EquipmentItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.group_id, i.catalog_item_id, i.name, i.quantity, i.unit_price::text, i.total_price::text, i.internal_owned, i.owner_id, i.sort_order
		FROM equipment_items i
		JOIN equipment_groups g ON i.group_id = g.id
		WHERE g.offer_id = $1
		ORDER BY g.sort_order, g.id, i.sort_order, i.id
	`, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEquipmentItems(rows)
}

func scanEquipmentItems(rows pgx.Rows) ([]EquipmentItem, error) {
	var items []EquipmentItem
	for rows.Next() {
		var item EquipmentItem
		var catalogID, ownerID pgtype.Int8
		var unitPrice, totalPrice string
		if err := rows.Scan(&item.ID, &item.GroupID, &catalogID, &item.Name, &item.Quantity,
			&unitPrice, &totalPrice, &item.InternalOwned, &ownerID, &item.SortOrder); err != nil {
			return nil, err
		}
		if catalogID.Valid {
			item.CatalogItemID = &catalogID.Int64
		}
		if ownerID.Valid {
			item.OwnerID = &ownerID.Int64
		}
		var err error
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, err
		}
		if item.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) crewItems(ctx context.Context, offerID int64) ([]CrewItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, offer_id, role_title, crew_count, starts_at, ends_at, daily_rate::text, total_price::text
		FROM crew_items WHERE offer_id = $1 ORDER BY starts_at, id
	`, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CrewItem
	for rows.Next() {
		var c CrewItem
		var startsAt, endsAt pgtype.Timestamptz
		var dailyRate, totalPrice string
		if err := rows.Scan(&c.ID, &c.OfferID, &c.RoleTitle, &c.CrewCount, &startsAt, &endsAt, &dailyRate, &totalPrice); err != nil {
			return nil, err
		}
		c.StartsAt = startsAt.Time
		c.EndsAt = endsAt.Time
		if c.DailyRate, err = decimal.NewFromString(dailyRate); err != nil {
			return nil, err
		}
		if c.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repository) transportItems(ctx context.Context, offerID int64) ([]TransportItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, offer_id, vehicle_id, vehicle_name, vehicle_category, starts_at, ends_at,
		       daily_rate::text, distance_rate::text, distance_increment::text, total_price::text, internal_owned
		FROM transport_items WHERE offer_id = $1 ORDER BY starts_at, id
	`, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransportItem
	for rows.Next() {
		var tr TransportItem
		var vehicleID pgtype.Int8
		var startsAt, endsAt pgtype.Timestamptz
		var dailyRate, totalPrice string
		var distanceRate, distanceIncrement pgtype.Text
		if err := rows.Scan(&tr.ID, &tr.OfferID, &vehicleID, &tr.VehicleName, &tr.VehicleCategory,
			&startsAt, &endsAt, &dailyRate, &distanceRate, &distanceIncrement, &totalPrice, &tr.InternalOwned); err != nil {
			return nil, err
		}
		if vehicleID.Valid {
			tr.VehicleID = &vehicleID.Int64
		}
		tr.StartsAt = startsAt.Time
		tr.EndsAt = endsAt.Time
		if tr.DailyRate, err = decimal.NewFromString(dailyRate); err != nil {
			return nil, err
		}
		if tr.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
			return nil, err
		}
		if distanceRate.Valid {
			d, err := decimal.NewFromString(distanceRate.String)
			if err != nil {
				return nil, err
			}
			tr.DistanceRate = &d
		}
		if distanceIncrement.Valid {
			d, err := decimal.NewFromString(distanceIncrement.String)
			if err != nil {
				return nil, err
			}
			tr.DistanceIncrement = &d
		}
		items = append(items, tr)
	}
	return items, rows.Err()
}

func (r *repository) sections(ctx context.Context, offerID int64) ([]PrettySection, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, offer_id, kind, heading, body, sort_order FROM pretty_sections WHERE offer_id = $1 ORDER BY sort_order, id
	`, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []PrettySection
	for rows.Next() {
		var s PrettySection
		if err := rows.Scan(&s.ID, &s.OfferID, &s.Kind, &s.Heading, &s.Body, &s.SortOrder); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func scanOffer(row pgx.Row) (*Offer, error) {
	var o Offer
	var discountPercent, vatPercent string
	var equipmentSubtotal, crewSubtotal, transportSubtotal string
	var totalBeforeDiscount, totalAfterDiscount, totalWithVAT string
	var sentAt, viewedAt, acceptedAt, rejectedAt, revisionAt pgtype.Timestamptz
	var acceptedByName, acceptedByPhone, rejectedByName, rejectedByPhone, revisionComment pgtype.Text
	var basedOn pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&o.ID, &o.JobID, &o.CompanyID, &o.Type, &o.VersionNumber, &o.Status, &o.Locked, &o.AccessToken, &o.Title, &o.DaysOfUse,
		&discountPercent, &vatPercent,
		&equipmentSubtotal, &crewSubtotal, &transportSubtotal,
		&totalBeforeDiscount, &totalAfterDiscount, &totalWithVAT,
		&sentAt, &viewedAt, &acceptedAt, &rejectedAt, &revisionAt,
		&acceptedByName, &acceptedByPhone, &rejectedByName, &rejectedByPhone, &revisionComment,
		&basedOn, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		src string
		dst *decimal.Decimal
	}{
		{discountPercent, &o.DiscountPercent},
		{vatPercent, &o.VATPercent},
		{equipmentSubtotal, &o.EquipmentSubtotal},
		{crewSubtotal, &o.CrewSubtotal},
		{transportSubtotal, &o.TransportSubtotal},
		{totalBeforeDiscount, &o.TotalBeforeDiscount},
		{totalAfterDiscount, &o.TotalAfterDiscount},
		{totalWithVAT, &o.TotalWithVAT},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = d
	}

	if sentAt.Valid {
		o.SentAt = &sentAt.Time
	}
	if viewedAt.Valid {
		o.ViewedAt = &viewedAt.Time
	}
	if acceptedAt.Valid {
		o.AcceptedAt = &acceptedAt.Time
	}
	if rejectedAt.Valid {
		o.RejectedAt = &rejectedAt.Time
	}
	if revisionAt.Valid {
		o.RevisionRequestedAt = &revisionAt.Time
	}
	if acceptedByName.Valid {
		o.AcceptedByName = &acceptedByName.String
	}
	if acceptedByPhone.Valid {
		o.AcceptedByPhone = &acceptedByPhone.String
	}
	if rejectedByName.Valid {
		o.RejectedByName = &rejectedByName.String
	}
	if rejectedByPhone.Valid {
		o.RejectedByPhone = &rejectedByPhone.String
	}
	if revisionComment.Valid {
		o.RevisionComment = &revisionComment.String
	}
	if basedOn.Valid {
		o.BasedOnOfferID = &basedOn.Int64
	}
	if createdAt.Valid {
		o.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		o.UpdatedAt = updatedAt.Time
	}
	return &o, nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"propwatch/models"
)

const recordColumns = `id, county, parcel_id, address, city, state, zip_code,
	property_type, record_type, sale_price, sale_date, seller, buyer, url,
	raw_data, first_seen, last_seen, notified`

// Stats returns aggregate counts for reporting.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	stats := models.Stats{
		ByCounty: make(map[string]int64),
		ByType:   make(map[string]int64),
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(notified), 0) FROM properties`,
	).Scan(&stats.TotalRecords, &stats.Notified)
	if err != nil {
		return stats, fmt.Errorf("count records: %w", err)
	}

	if err := s.groupCount(ctx, "county", stats.ByCounty); err != nil {
		return stats, err
	}
	if err := s.groupCount(ctx, "record_type", stats.ByType); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *Store) groupCount(ctx context.Context, column string, into map[string]int64) error {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM properties GROUP BY %s`, column, column))
	if err != nil {
		return fmt.Errorf("group by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scan %s group: %w", column, err)
		}
		into[key] = count
	}
	return rows.Err()
}

// UnnotifiedRecords returns records that have not been dispatched yet,
// most recently discovered first.
func (s *Store) UnnotifiedRecords(ctx context.Context) ([]models.PropertyRecord, error) {
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM properties
		 WHERE notified = 0 ORDER BY first_seen DESC`)
}

// RecordsByCounty returns the most recent records for one source tag.
func (s *Store) RecordsByCounty(ctx context.Context, county string, limit int) ([]models.PropertyRecord, error) {
	return s.queryRecords(ctx, s.rebind(
		`SELECT `+recordColumns+` FROM properties
		 WHERE county = ? ORDER BY first_seen DESC LIMIT ?`), county, limit)
}

// Foreclosures returns the most recent foreclosure records.
func (s *Store) Foreclosures(ctx context.Context, limit int) ([]models.PropertyRecord, error) {
	return s.queryRecords(ctx, s.rebind(
		`SELECT `+recordColumns+` FROM properties
		 WHERE record_type = 'foreclosure' ORDER BY first_seen DESC LIMIT ?`), limit)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]models.PropertyRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []models.PropertyRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (models.PropertyRecord, error) {
	var (
		r                            models.PropertyRecord
		city, state, zip, ptype      sql.NullString
		price                        sql.NullInt64
		date, seller, buyer, rawData sql.NullString
		firstSeen, lastSeen          string
		notified                     int64
	)
	err := rows.Scan(
		&r.ID, &r.County, &r.ParcelID, &r.Address, &city, &state, &zip,
		&ptype, &r.RecordType, &price, &date, &seller, &buyer, &r.URL,
		&rawData, &firstSeen, &lastSeen, &notified,
	)
	if err != nil {
		return r, fmt.Errorf("scan record: %w", err)
	}

	r.City = city.String
	r.State = state.String
	r.ZipCode = zip.String
	r.PropertyType = ptype.String
	if price.Valid {
		r.SalePrice = &price.Int64
	}
	r.SaleDate = date.String
	r.Seller = seller.String
	r.Buyer = buyer.String
	r.RawData = rawData.String
	r.Notified = notified != 0

	if r.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
		return r, fmt.Errorf("parse first_seen: %w", err)
	}
	if r.LastSeen, err = time.Parse(time.RFC3339Nano, lastSeen); err != nil {
		return r, fmt.Errorf("parse last_seen: %w", err)
	}
	return r, nil
}

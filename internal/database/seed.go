package database

import (
	"context"
	"database/sql"
	"log"
	"time"
)

// SeedDemoData inserts a small demo catalog when the harvests table is
// empty, so a fresh environment has something to browse and book.  Each
// listing gets bookable slots for the next two weeks.  Production
// deployments leave this disabled; the real catalog is written by an
// external management process.
func SeedDemoData(ctx context.Context, db *sql.DB) error {
	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM harvests`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := []struct {
		name        string
		description string
		location    string
		price       uint32
		capacity    uint32
	}{
		{"Strawberry Picking", "Pick sweet, fresh strawberries yourself!", "Shizuoka", 1500, 12},
		{"Grape Picking", "Taste and compare many grape varieties!", "Yamanashi", 2000, 10},
		{"Mandarin Picking", "A mandarin harvest the whole family can enjoy", "Wakayama", 1000, 16},
	}

	today := time.Now().UTC()
	for _, d := range demo {
		res, err := db.ExecContext(ctx,
			`INSERT INTO harvests (name, description, location, price) VALUES (?, ?, ?, ?)`,
			d.name, d.description, d.location, d.price,
		)
		if err != nil {
			return err
		}
		harvestID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for i := 1; i <= 14; i++ {
			date := today.AddDate(0, 0, i).Format("2006-01-02")
			if _, err := db.ExecContext(ctx,
				`INSERT INTO harvest_slots (harvest_id, slot_date, capacity, remaining) VALUES (?, ?, ?, ?)`,
				harvestID, date, d.capacity, d.capacity,
			); err != nil {
				return err
			}
		}
	}
	log.Printf("database: seeded %d demo harvests", len(demo))
	return nil
}

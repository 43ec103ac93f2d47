package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fardannozami/gym-streak/internal/domain"
)

type AttendanceRepository struct {
	db *sql.DB
}

func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) GetAttendance(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date FROM attendance WHERE user_id = ? ORDER BY date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// SaveAttendance swaps the stored days for dates in one transaction.
func (r *AttendanceRepository) SaveAttendance(ctx context.Context, userID string, dates []string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance WHERE user_id = ?`, userID); err != nil {
		return err
	}

	if len(dates) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO attendance (user_id, date) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, d := range dates {
			if _, err := stmt.ExecContext(ctx, userID, d); err != nil {
				return fmt.Errorf("insert %s: %w", d, err)
			}
		}
	}

	return tx.Commit()
}

func (r *AttendanceRepository) InitTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS attendance (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			PRIMARY KEY (user_id, date)
		);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

var _ domain.AttendanceRepository = (*AttendanceRepository)(nil)

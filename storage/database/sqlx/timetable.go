package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/timetable"
)

// weekday order of day_of_week
const dayOrder = `array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday','Saturday','Sunday']::text[], day_of_week::text)`

type entryRow struct {
	ID        string    `db:"id"`
	DayOfWeek string    `db:"day_of_week"`
	StartTime string    `db:"start_time"`
	EndTime   string    `db:"end_time"`
	Subject   string    `db:"subject"`
	Location  string    `db:"location"`
	Faculty   string    `db:"faculty"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toEntryRow(e timetable.Entry) entryRow {
	return entryRow{
		ID:        e.ID,
		DayOfWeek: e.DayOfWeek,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Subject:   e.Subject,
		Location:  e.Location,
		Faculty:   e.Faculty,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

func (r entryRow) entry() timetable.Entry {
	return timetable.Entry{
		ID:        r.ID,
		DayOfWeek: r.DayOfWeek,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Subject:   r.Subject,
		Location:  r.Location,
		Faculty:   r.Faculty,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type entryRepository struct {
	db *sqlx.DB
}

var _ timetable.Repository = (*entryRepository)(nil) // interface compliance check

func NewEntryRepository(db *sqlx.DB) timetable.Repository {
	return &entryRepository{db: db}
}

func (repo *entryRepository) CreateEntry(ctx context.Context, e timetable.Entry) (timetable.Entry, error) {
	q := `INSERT INTO timetable_entries (id, day_of_week, start_time, end_time, subject, location, faculty, created_at, updated_at)
		VALUES (:id, :day_of_week, :start_time, :end_time, :subject, :location, :faculty, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toEntryRow(e)); err != nil {
		return timetable.Entry{}, errors.Wrap(err, "inserting timetable entry")
	}
	return e, nil
}

func (repo *entryRepository) GetEntry(ctx context.Context, id string) (timetable.Entry, error) {
	if !validID(id) {
		return timetable.Entry{}, timetable.ErrNotFound
	}
	var row entryRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM timetable_entries WHERE id = $1", id); err != nil {
		return timetable.Entry{}, trapNoRowsErr(err, timetable.ErrNotFound, "finding timetable entry")
	}
	return row.entry(), nil
}

func (repo *entryRepository) QueryEntries(ctx context.Context, filter timetable.QueryFilter) ([]timetable.Entry, error) {
	var w where
	if filter.DayOfWeek != "" {
		w.add("day_of_week = ?", filter.DayOfWeek)
	}

	var rows []entryRow
	q := "SELECT * FROM timetable_entries" + w.String() + " ORDER BY " + dayOrder + ", start_time"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying timetable entries")
	}
	list := make([]timetable.Entry, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.entry())
	}
	return list, nil
}

func (repo *entryRepository) UpdateEntry(ctx context.Context, e timetable.Entry) (timetable.Entry, error) {
	q := `UPDATE timetable_entries SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time,
		subject = :subject, location = :location, faculty = :faculty, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toEntryRow(e))
	if err != nil {
		return timetable.Entry{}, errors.Wrap(err, "updating timetable entry")
	}
	if err = mustAffect(res, timetable.ErrNotFound, "updating timetable entry"); err != nil {
		return timetable.Entry{}, err
	}
	return e, nil
}

func (repo *entryRepository) DeleteEntry(ctx context.Context, id string) error {
	if !validID(id) {
		return timetable.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM timetable_entries WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting timetable entry")
	}
	return mustAffect(res, timetable.ErrNotFound, "deleting timetable entry")
}

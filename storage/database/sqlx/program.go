package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/program"
)

const programSelect = `SELECT p.id, p.title, p.description, p.image_url, p.attachment_url, p.price,
	p.category_id, COALESCE(c.name, '') AS category_name,
	p.teacher_id, COALESCE(NULLIF(u.name, ''), u.username, u.email, '') AS teacher_name,
	p.is_published, p.created_at, p.updated_at
	FROM program p
	LEFT JOIN category c ON c.id = p.category_id
	LEFT JOIN "user" u ON u.id = p.teacher_id`

type programRow struct {
	ID            string      `db:"id"`
	Title         string      `db:"title"`
	Description   string      `db:"description"`
	ImageURL      string      `db:"image_url"`
	AttachmentURL string      `db:"attachment_url"`
	Price         int64       `db:"price"`
	CategoryID    null.String `db:"category_id"`
	CategoryName  string      `db:"category_name"`
	TeacherID     string      `db:"teacher_id"`
	TeacherName   string      `db:"teacher_name"`
	IsPublished   bool        `db:"is_published"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func toProgramRow(prog program.Program) programRow {
	return programRow{
		ID:            prog.ID,
		Title:         prog.Title,
		Description:   prog.Description,
		ImageURL:      prog.ImageURL,
		AttachmentURL: prog.AttachmentURL,
		Price:         prog.Price,
		CategoryID:    null.NewString(prog.CategoryID, prog.CategoryID != ""),
		TeacherID:     prog.TeacherID,
		IsPublished:   prog.IsPublished,
		CreatedAt:     prog.CreatedAt.UTC(),
		UpdatedAt:     prog.UpdatedAt.UTC(),
	}
}

func (r programRow) toProgram() program.Program {
	return program.Program{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		ImageURL:      r.ImageURL,
		AttachmentURL: r.AttachmentURL,
		Price:         r.Price,
		CategoryID:    r.CategoryID.String,
		CategoryName:  r.CategoryName,
		TeacherID:     r.TeacherID,
		TeacherName:   r.TeacherName,
		IsPublished:   r.IsPublished,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type programRepository struct {
	db *sqlx.DB
}

var _ program.Repository = (*programRepository)(nil)

func NewProgramRepository(db *sqlx.DB) *programRepository {
	return &programRepository{db: db}
}

func programWhere(filter program.QueryFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if filter.TeacherID != "" {
		where = append(where, "p.teacher_id = ?")
		args = append(args, filter.TeacherID)
	}
	if filter.PublishedOnly {
		where = append(where, "p.is_published")
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (repo programRepository) CreateProgram(ctx context.Context, prog program.Program) (program.Program, error) {
	prog.ID = uuid.New().String()
	q := `INSERT INTO program (id, title, description, image_url, attachment_url, price, category_id, teacher_id, is_published, created_at, updated_at)
		VALUES (:id, :title, :description, :image_url, :attachment_url, :price, :category_id, :teacher_id, :is_published, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toProgramRow(prog)); err != nil {
		return program.Program{}, errors.Wrap(err, "inserting program")
	}
	return repo.GetProgram(ctx, prog.ID)
}

func (repo programRepository) QueryPrograms(ctx context.Context, filter program.QueryFilter) ([]program.Program, error) {
	where, args := programWhere(filter)
	var rows []programRow
	q := repo.db.Rebind(programSelect + where + ` ORDER BY p.created_at DESC`)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}
	progs := make([]program.Program, 0, len(rows))
	for _, r := range rows {
		progs = append(progs, r.toProgram())
	}
	return progs, nil
}

func (repo programRepository) GetProgram(ctx context.Context, id string) (program.Program, error) {
	if _, err := uuid.Parse(id); err != nil {
		return program.Program{}, program.ErrNotFound
	}
	var row programRow
	if err := repo.db.GetContext(ctx, &row, programSelect+` WHERE p.id = $1`, id); err != nil {
		return program.Program{}, trapNoRowsErr(err, program.ErrNotFound, "getting program")
	}
	return row.toProgram(), nil
}

func (repo programRepository) UpdateProgram(ctx context.Context, prog program.Program) (program.Program, error) {
	q := `UPDATE program SET
		title = :title, description = :description, image_url = :image_url, attachment_url = :attachment_url,
		price = :price, category_id = :category_id, is_published = :is_published, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toProgramRow(prog))
	if err != nil {
		return program.Program{}, errors.Wrap(err, "updating program")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return program.Program{}, program.ErrNotFound
	}
	return prog, nil
}

func (repo programRepository) CountPrograms(ctx context.Context, filter program.QueryFilter) (int, error) {
	where, args := programWhere(filter)
	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind(`SELECT COUNT(*) FROM program p`+where), args...); err != nil {
		return 0, errors.Wrap(err, "counting programs")
	}
	return n, nil
}

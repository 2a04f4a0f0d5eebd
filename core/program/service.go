package program

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/category"
	"github.com/trezcool/elimu/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("program not found")
)

type (
	Repository interface {
		CreateProgram(ctx context.Context, prog Program) (Program, error)
		// QueryPrograms returns the programs matching filter, newest first.
		QueryPrograms(ctx context.Context, filter QueryFilter) ([]Program, error)
		GetProgram(ctx context.Context, id string) (Program, error)
		UpdateProgram(ctx context.Context, prog Program) (Program, error)
		CountPrograms(ctx context.Context, filter QueryFilter) (int, error)
	}

	Service struct {
		repo   Repository
		catSvc *category.Service
	}
)

func NewService(repo Repository, catSvc *category.Service) *Service {
	return &Service{repo: repo, catSvc: catSvc}
}

// Create saves a new, unpublished program owned by `teacher`.
func (svc *Service) Create(ctx context.Context, teacher user.User, np NewProgram) (Program, error) {
	if np.CategoryID != "" {
		if _, err := svc.catSvc.GetByID(ctx, np.CategoryID); err != nil {
			if errors.Cause(err) == category.ErrNotFound {
				return Program{}, core.NewValidationError(err, core.FieldError{Field: "category_id", Error: err.Error()})
			}
			return Program{}, errors.Wrap(err, "finding category")
		}
	}

	now := time.Now().UTC()
	prog, err := svc.repo.CreateProgram(ctx, Program{
		Title:         np.Title,
		Description:   np.Description,
		ImageURL:      np.ImageURL,
		AttachmentURL: np.AttachmentURL,
		Price:         np.Price,
		CategoryID:    np.CategoryID,
		TeacherID:     teacher.ID,
		TeacherName:   teacher.DisplayName(),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return Program{}, errors.Wrap(err, "creating program")
	}
	return prog, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Program, error) {
	return svc.repo.QueryPrograms(ctx, filter)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountPrograms(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Program, error) {
	if id == "" {
		return Program{}, ErrNotFound
	}
	return svc.repo.GetProgram(ctx, id)
}

// CanManage reports whether usr may edit prog: its teacher or any admin.
func CanManage(usr user.User, prog Program) bool {
	return usr.IsAdmin() || (usr.ID != "" && usr.ID == prog.TeacherID)
}

// SetPublished publishes or hides the program.
func (svc *Service) SetPublished(ctx context.Context, prog Program, published bool) (Program, error) {
	prog.IsPublished = published
	prog.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProgram(ctx, prog)
}

// Title returns the title of the published program `id`. It serves as trialclass.ProgramTitler.
// Drafts are reported as ErrNotFound.
func (svc *Service) Title(ctx context.Context, id string) (string, error) {
	prog, err := svc.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !prog.IsPublished {
		return "", ErrNotFound
	}
	return prog.Title, nil
}

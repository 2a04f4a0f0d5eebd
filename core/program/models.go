package program

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

type Program struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"` // rich-text HTML
	ImageURL      string    `json:"image_url"`
	AttachmentURL string    `json:"attachment_url"`
	Price         int64     `json:"price"` // cents
	CategoryID    string    `json:"category_id"`
	CategoryName  string    `json:"category_name"`
	TeacherID     string    `json:"teacher_id"`
	TeacherName   string    `json:"teacher_name"`
	IsPublished   bool      `json:"is_published"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// PriceString formats the price, eg. "$12.50"; free programs read "Free".
func (p Program) PriceString() string {
	if p.Price == 0 {
		return "Free"
	}
	return fmt.Sprintf("$%d.%02d", p.Price/100, p.Price%100)
}

// NewProgram is the program creation form.
type NewProgram struct {
	Title         string `json:"title" form:"title" validate:"required,notblank,max=120"`
	Description   string `json:"description" form:"description" validate:"max=20000"`
	ImageURL      string `json:"image_url" form:"image_url" validate:"omitempty,url"`
	AttachmentURL string `json:"attachment_url" form:"attachment_url" validate:"omitempty,url"`
	Price         int64  `json:"price" form:"price" validate:"gte=0"`
	CategoryID    string `json:"category_id" form:"category_id" validate:"omitempty,uuid"`
}

func (np *NewProgram) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Description = core.CleanString(np.Description)
	np.ImageURL = core.CleanString(np.ImageURL)
	np.AttachmentURL = core.CleanString(np.AttachmentURL)
	np.CategoryID = core.CleanString(np.CategoryID)
	return validate.Struct(np)
}

type QueryFilter struct {
	TeacherID     string
	PublishedOnly bool
}

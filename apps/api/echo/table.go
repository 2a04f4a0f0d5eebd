package echoapi

import (
	"strconv"

	"github.com/trezcool/elimu/core/category"
	"github.com/trezcool/elimu/core/program"
	"github.com/trezcool/elimu/core/trialclass"
)

// Table is the model of the generic data table widget.
type Table struct {
	Columns []string
	Rows    []TableRow
	Empty   string // shown when there are no rows
}

type TableRow struct {
	Cells []string
	Link  string // the first cell links there, if set
	// Action is an optional POST button at the end of the row.
	Action *TableAction
}

type TableAction struct {
	Label   string
	URL     string
	Confirm string
	Fields  map[string]string // hidden form fields
}

func categoryTable(cats []category.Category) Table {
	t := Table{Columns: []string{"Name", "Created"}, Empty: "No categories yet."}
	for _, cat := range cats {
		t.Rows = append(t.Rows, TableRow{
			Cells: []string{cat.Name, cat.CreatedAt.Format("Jan 2, 2006")},
			Action: &TableAction{
				Label:   "Delete",
				URL:     "/admin/categories/" + cat.ID + "/delete",
				Confirm: "Delete category " + strconv.Quote(cat.Name) + "?",
			},
		})
	}
	return t
}

func programTable(progs []program.Program, manage bool) Table {
	t := Table{Columns: []string{"Title", "Category", "Teacher", "Price", "Status"}, Empty: "No programs yet."}
	for _, prog := range progs {
		status := "Draft"
		if prog.IsPublished {
			status = "Published"
		}
		row := TableRow{
			Cells: []string{prog.Title, prog.CategoryName, prog.TeacherName, prog.PriceString(), status},
			Link:  "/programs/" + prog.ID,
		}
		if manage {
			label := "Publish"
			if prog.IsPublished {
				label = "Unpublish"
			}
			row.Action = &TableAction{
				Label:  label,
				URL:    "/teacher/programs/" + prog.ID + "/publish",
				Fields: map[string]string{"published": strconv.FormatBool(!prog.IsPublished)},
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func registrationTable(regs []trialclass.Registration) Table {
	t := Table{Columns: []string{"Name", "Email", "Phone", "Preferred date", "Registered"}, Empty: "No registrations yet."}
	for _, reg := range regs {
		var date string
		if !reg.PreferredDate.IsZero() {
			date = reg.PreferredDate.Format(trialclass.DateLayout)
		}
		t.Rows = append(t.Rows, TableRow{
			Cells: []string{reg.Name, reg.Email, reg.Phone, date, reg.CreatedAt.Format("Jan 2, 2006 15:04")},
		})
	}
	return t
}

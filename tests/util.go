// Package testutil creates the fixtures the tests of every package need.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/elimu/core/category"
	"github.com/trezcool/elimu/core/program"
	"github.com/trezcool/elimu/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCategory(t *testing.T, repo category.Repository, name string) category.Category {
	t.Helper()
	cat, err := repo.CreateCategory(context.Background(), category.Category{Name: name, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateCategory() failed: %v", err)
	}
	return cat
}

func CreateProgram(t *testing.T, repo program.Repository, title string, teacher user.User, cat category.Category, published bool) program.Program {
	t.Helper()
	now := time.Now().UTC()
	prog, err := repo.CreateProgram(context.Background(), program.Program{
		Title:        title,
		Description:  "<p>Learn <strong>" + title + "</strong></p>",
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		TeacherID:    teacher.ID,
		TeacherName:  teacher.DisplayName(),
		IsPublished:  published,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return prog
}

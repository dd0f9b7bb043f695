package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/edwinbf09/daily-activities/internal/activity"
)

// Credentials collects the fields of the login and register forms.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// ActivityInput collects the fields of the activity form as typed.
type ActivityInput struct {
	Name        string
	Description string
	Date        string
	Amount      string
	Category    string
	Paid        bool
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// RunLoginForm asks for email and password.
func RunLoginForm(c *Credentials) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&c.Email).
				Validate(required("email")),

			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&c.Password).
				Validate(required("password")),
		),
	).WithTheme(huh.ThemeCatppuccin()).Run()
}

// RunRegisterForm asks for name, email and password.
func RunRegisterForm(c *Credentials) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&c.Name).
				Validate(required("name")),

			huh.NewInput().
				Title("Email").
				Value(&c.Email).
				Validate(required("email")),

			huh.NewInput().
				Title("Password").
				Description("At least 6 characters").
				EchoMode(huh.EchoModePassword).
				Value(&c.Password).
				Validate(func(s string) error {
					if len(s) < 6 {
						return fmt.Errorf("password must be at least 6 characters")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin()).Run()
}

// RunActivityForm asks for a new activity. Fields already set in in are
// offered as defaults.
func RunActivityForm(in *ActivityInput) error {
	if in.Category == "" {
		in.Category = string(activity.CategoryHealth)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&in.Name).
				Validate(required("name")),

			huh.NewText().
				Title("Description").
				Description("Optional").
				Value(&in.Description),

			huh.NewInput().
				Title("Date").
				Placeholder(activity.DateLayout).
				Value(&in.Date).
				Validate(func(s string) error {
					_, err := activity.ParseDate(s)
					return err
				}),

			huh.NewInput().
				Title("Amount").
				Placeholder("0.00").
				Value(&in.Amount).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil {
						return fmt.Errorf("amount must be a number")
					}
					if v < 0 {
						return activity.ErrNegativeAmount
					}
					return nil
				}),

			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOptions()...).
				Value(&in.Category),

			huh.NewConfirm().
				Title("Already paid?").
				Value(&in.Paid),
		),
	).WithTheme(huh.ThemeCatppuccin()).Run()
}

func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(activity.Categories))
	for _, info := range activity.Categories {
		opts = append(opts, huh.NewOption(info.Name, string(info.ID)))
	}
	return opts
}

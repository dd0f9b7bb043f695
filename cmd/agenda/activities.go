package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/edwinbf09/daily-activities/cmd/agenda/ui"
	"github.com/edwinbf09/daily-activities/internal/activity"
	"github.com/edwinbf09/daily-activities/internal/cache"
)

func newListCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !a.offline {
				list, err := a.client.List(ctx)
				switch {
				case err == nil:
					if err := a.cache.Replace(ctx, list); err != nil {
						return err
					}
				case unreachable(err):
					a.warn("server unreachable, showing cached activities")
				default:
					return explain(err)
				}
			}

			items := a.cache.Activities()
			if category != "" {
				c, err := activity.ParseCategory(category)
				if err != nil {
					return err
				}
				items = a.cache.ByCategory(c)
			}

			ui.PrintActivities(a.stdout, items)
			ui.PrintPending(a.stdout, a.cache.Pending())
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show one category")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var in ui.ActivityInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if in.Name == "" && a.isInteractive() {
				if err := ui.RunActivityForm(&in); err != nil {
					return fmt.Errorf("form cancelled: %w", err)
				}
			}

			fields, err := parseActivityInput(in)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			draft := activity.Activity{
				ID:          uuid.New(),
				Name:        fields.Name,
				Description: fields.Description,
				Date:        fields.Date,
				Amount:      fields.Amount,
				Category:    fields.Category,
				IsPaid:      fields.IsPaid,
				CreatedAt:   now,
				UpdatedAt:   now,
			}

			created := draft
			if _, err := a.remote(func() error {
				var err error
				created, err = a.client.Create(ctx, draft)
				return err
			}); err != nil {
				return err
			}
			if created.ID == uuid.Nil {
				created = draft
			}

			if err := a.cache.Put(ctx, created); err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, ui.Success("Activity added."))
			ui.PrintActivity(a.stdout, created)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "Name")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&in.Date, "date", time.Now().Format(activity.DateLayout), "Date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&in.Amount, "amount", "a", "", "Amount")
	cmd.Flags().StringVarP(&in.Category, "category", "c", "", "Category (see `agenda categories`)")
	cmd.Flags().BoolVar(&in.Paid, "paid", false, "Already paid")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var in ui.ActivityInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}

			patch, err := parsePatch(in, cmd.Flags().Changed)
			if err != nil {
				return err
			}

			var updated activity.Activity
			done, err := a.remote(func() error {
				var err error
				updated, err = a.client.Update(ctx, id, patch)
				return err
			})
			if err != nil {
				return err
			}

			if done {
				err = a.cache.Put(ctx, updated)
			} else {
				updated, err = a.cache.Patch(ctx, id, patch)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, ui.Success("Activity updated."))
			ui.PrintActivity(a.stdout, updated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "Name")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&in.Date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&in.Amount, "amount", "a", "", "Amount")
	cmd.Flags().StringVarP(&in.Category, "category", "c", "", "Category")
	cmd.Flags().BoolVar(&in.Paid, "paid", false, "Paid status")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the paid status of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}

			var updated activity.Activity
			done, err := a.remote(func() error {
				var err error
				updated, err = a.client.TogglePaid(ctx, id)
				return err
			})
			if err != nil {
				return err
			}

			if done {
				err = a.cache.Put(ctx, updated)
			} else {
				updated, err = a.cache.TogglePaid(ctx, id)
			}
			if err != nil {
				return err
			}

			state := "pending"
			if updated.IsPaid {
				state = "paid"
			}
			fmt.Fprintf(a.stdout, "%s %s is now %s.\n", ui.Success("Done."), updated.Name, state)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an activity",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}

			done, err := a.remote(func() error {
				return a.client.Delete(ctx, id)
			})
			if err != nil {
				return err
			}

			err = a.cache.Remove(ctx, id)
			if done && errors.Is(err, cache.ErrNotCached) {
				err = nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, ui.Success("Activity deleted."))
			return nil
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send changes made offline to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.offline {
				return fmt.Errorf("cannot sync with --offline")
			}

			res, err := a.cache.Sync(cmd.Context(), a.client)
			ui.PrintSyncResult(a.stdout, res)
			if err != nil {
				return explain(err)
			}
			return nil
		},
	}
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the activity categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.PrintCategories(cmd.OutOrStdout())
			return nil
		},
	}
}

// parseActivityInput turns typed fields into a validated activity.
func parseActivityInput(in ui.ActivityInput) (activity.NewActivity, error) {
	fields := activity.NewActivity{
		Name:   strings.TrimSpace(in.Name),
		IsPaid: in.Paid,
	}

	if strings.TrimSpace(in.Date) == "" {
		return fields, activity.ErrDateRequired
	}
	date, err := activity.ParseDate(in.Date)
	if err != nil {
		return fields, err
	}
	fields.Date = date

	if amount := strings.TrimSpace(in.Amount); amount != "" {
		if fields.Amount, err = strconv.ParseFloat(amount, 64); err != nil {
			return fields, fmt.Errorf("amount must be a number: %q", in.Amount)
		}
	}

	if strings.TrimSpace(in.Category) != "" {
		if fields.Category, err = activity.ParseCategory(in.Category); err != nil {
			return fields, err
		}
	}

	if desc := strings.TrimSpace(in.Description); desc != "" {
		fields.Description = &desc
	}

	return fields, fields.Validate()
}

// parsePatch keeps only the flags the user set.
func parsePatch(in ui.ActivityInput, changed func(string) bool) (activity.Patch, error) {
	var patch activity.Patch
	set := false

	if changed("name") {
		name := strings.TrimSpace(in.Name)
		patch.Name = &name
		set = true
	}
	if changed("description") {
		desc := strings.TrimSpace(in.Description)
		patch.Description = &desc
		set = true
	}
	if changed("date") {
		date, err := activity.ParseDate(in.Date)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
		set = true
	}
	if changed("amount") {
		amount, err := strconv.ParseFloat(strings.TrimSpace(in.Amount), 64)
		if err != nil {
			return patch, fmt.Errorf("amount must be a number: %q", in.Amount)
		}
		patch.Amount = &amount
		set = true
	}
	if changed("category") {
		category, err := activity.ParseCategory(in.Category)
		if err != nil {
			return patch, err
		}
		patch.Category = &category
		set = true
	}
	if changed("paid") {
		paid := in.Paid
		patch.IsPaid = &paid
		set = true
	}

	if !set {
		return patch, fmt.Errorf("nothing to update; pass at least one field flag")
	}
	return patch, patch.Validate()
}

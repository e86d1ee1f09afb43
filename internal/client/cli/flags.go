package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

func (a *App) List(ctx context.Context) error {
	flags, err := a.api.List(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(flags) == 0 {
		fmt.Fprintln(a.out, "No flags")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVALUE\tCHECKS\tLAST CHECK\tDESCRIPTION")
	for _, f := range flags {
		last := "-"
		if t := f.LastUsed(); !t.IsZero() {
			last = t.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%t\t%d\t%s\t%s\n", f.Name, f.Value, len(f.UsageLog), last, f.Description)
	}
	return w.Flush()
}

// Check prints the flag value. The server counts it as a usage.
func (a *App) Check(ctx context.Context, name string) error {
	f, err := a.api.Check(ctx, name)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s = %t\n", f.Name, f.Value)
	return nil
}

func (a *App) Create(ctx context.Context, name string, value bool, description string) error {
	if err := a.api.Create(ctx, name, value, description); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Created %s = %t\n", name, value)
	return nil
}

func (a *App) Rename(ctx context.Context, name, newName, description string) error {
	if err := a.api.Update(ctx, name, newName, description); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Renamed %s to %s\n", name, newName)
	return nil
}

func (a *App) Toggle(ctx context.Context, name string) error {
	v, err := a.api.Toggle(ctx, name)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s = %t\n", name, v)
	return nil
}

func (a *App) Remove(ctx context.Context, name string) error {
	if err := a.api.Remove(ctx, name); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Removed %s\n", name)
	return nil
}

func (a *App) Users(ctx context.Context) error {
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return a.report(err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	return w.Flush()
}

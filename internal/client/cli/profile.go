package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
)

// clearValue typed at a profile prompt empties the field.
const clearValue = "-"

// Dashboard prints the signed-in user's profile and calendar summary.
func (a *App) Dashboard(ctx context.Context) error {
	u, ok := a.currentUser()
	if !ok {
		printlnFn(loginHint)
		return nil
	}

	printlnFn("== " + displayName(u.Name, u.Email) + " ==")
	printlnFn("Email:     ", u.Email)
	printlnFn("GitHub:    ", orDash(u.GitHub))
	printlnFn("Education: ", orDash(u.Education))
	printlnFn("About:     ", orDash(u.About))
	printlnFn("Projects:  ", orDash(strings.Join(u.Projects, ", ")))
	if u.Avatar != nil {
		printlnFn("Avatar:     set")
	}
	if !u.CreatedAt.IsZero() {
		printlnFn("Member since", u.CreatedAt.Local().Format(models.DateLayout))
	}

	n, err := a.calendar.Count(ctx, u.ID)
	if err != nil {
		a.report(ctx, "dashboard", err)
		return err
	}
	printlnFn(fmt.Sprintf("Events:     %d", n))
	return nil
}

// Profile walks through the editable fields. An empty answer keeps the
// current value, clearValue empties it.
func (a *App) Profile(ctx context.Context) error {
	u, ok := a.currentUser()
	if !ok {
		printlnFn(loginHint)
		return nil
	}

	var patch models.ProfileUpdate
	var err error

	if patch.Name, err = a.askField("Name", u.Name, false); err != nil {
		return err
	}
	if patch.Email, err = a.askField("Email", u.Email, false); err != nil {
		return err
	}
	if patch.GitHub, err = a.askField("GitHub", u.GitHub, true); err != nil {
		return err
	}
	if patch.Education, err = a.askField("Education", u.Education, true); err != nil {
		return err
	}
	if patch.About, err = a.askField("About", u.About, true); err != nil {
		return err
	}
	avatar := ""
	if u.Avatar != nil {
		avatar = *u.Avatar
	}
	if patch.Avatar, err = a.askField("Avatar (data URL)", avatar, true); err != nil {
		return err
	}
	if patch.Projects, err = a.askProjects(u.Projects); err != nil {
		return err
	}

	if patch.IsEmpty() {
		printlnFn("Nothing to update")
		return nil
	}

	if _, err := a.store.UpdateProfile(ctx, u.ID, patch); err != nil {
		a.report(ctx, "profile", err)
		return err
	}
	printlnFn("Profile updated")
	return nil
}

// askField returns nil when the value should stay as it is. Required
// fields (clearable false) ignore clearValue.
func (a *App) askField(label, current string, clearable bool) (*string, error) {
	prompt := fmt.Sprintf("%s [%s]", label, current)
	if !clearable {
		prompt += " (required)"
	}
	answer, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return nil, err
	}
	switch answer {
	case "", current:
		return nil, nil
	case clearValue:
		if !clearable {
			printlnFn(label, "is required and was kept")
			return nil, nil
		}
		if current == "" {
			return nil, nil
		}
		empty := ""
		return &empty, nil
	default:
		return &answer, nil
	}
}

func (a *App) askProjects(current []string) ([]string, error) {
	answer, err := getSimpleText(a.reader,
		fmt.Sprintf("Projects, comma separated [%s]", strings.Join(current, ", ")), a.out)
	if err != nil {
		return nil, err
	}
	switch answer {
	case "":
		return nil, nil
	case clearValue:
		if len(current) == 0 {
			return nil, nil
		}
		return []string{}, nil
	}
	return splitList(answer), nil
}

func splitList(line string) []string {
	items := make([]string, 0)
	for _, p := range strings.Split(line, ",") {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

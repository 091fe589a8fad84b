package handlers

import (
	"context"

	"github.com/charmbracelet/huh"
)

func confirmPrompt(ctx context.Context, title, description string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).RunWithContext(ctx)
	return ok, err
}

// confirmed asks before a disruptive action. It does not ask when skip is
// set or when there is no terminal to ask on.
func confirmed(ctx context.Context, skip bool, title, description string) (bool, error) {
	if skip || !isInteractive() {
		return true, nil
	}
	return confirm(ctx, title, description)
}

package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// confirmRun gates a mutating run behind an interactive confirmation.
// Aborting the form (esc/ctrl+c) counts as declining.
func confirmRun(root string, count int) (bool, error) {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Attach covers?").
				Description(fmt.Sprintf("%d movie file(s) under %s will be rewritten in place.", count, root)).
				Value(&confirmed),
		),
	).WithTheme(covermuxTheme())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}

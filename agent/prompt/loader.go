package prompt

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed template/system.txt
var systemRaw string

// System renders the system instruction for a run. The trainer's display
// name is the only dynamic piece.
func System(trainerName string) string {
	trainerName = strings.TrimSpace(trainerName)
	if trainerName == "" {
		trainerName = "the trainer"
	}
	return fmt.Sprintf(strings.TrimSpace(systemRaw), trainerName)
}

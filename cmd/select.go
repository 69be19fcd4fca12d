package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"valuerank/internal/types"
)

// selectionFlags holds --zone/--building/--block/--unit as typed.
type selectionFlags struct {
	zone     string
	building string
	block    string
	unit     string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.zone, "zone", "", "zone (구역)")
	fl.StringVar(&f.building, "building", "", "building complex (단지명)")
	fl.StringVar(&f.block, "block", "", "block number (동)")
	fl.StringVar(&f.unit, "unit", "", "unit number (호)")
}

func (f *selectionFlags) selection() (types.Selection, error) {
	var sel types.Selection
	for _, p := range []struct {
		level types.Level
		value string
	}{
		{types.LevelZone, f.zone},
		{types.LevelBuilding, f.building},
		{types.LevelBlock, f.block},
		{types.LevelUnit, f.unit},
	} {
		if strings.TrimSpace(p.value) == "" {
			continue
		}
		var err error
		if sel, err = sel.With(p.level, p.value); err != nil {
			return sel, err
		}
	}
	return sel, nil
}

// resolveKey completes the selection, interactively when stdin is a
// terminal, and otherwise reports the options of the first missing level.
func (f *selectionFlags) resolveKey(ds *types.Dataset) (types.Key, error) {
	sel, err := f.selection()
	if err != nil {
		return types.Key{}, err
	}
	if key, ok := sel.Key(); ok {
		return key, nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		if key, ok := wizard(ds, sel); ok {
			return key, nil
		}
		return types.Key{}, fmt.Errorf("selection cancelled")
	}

	level, options := ds.Choices(sel)
	if len(options) == 0 {
		return types.Key{}, &types.NotFoundError{Subject: describeSelection(sel)}
	}
	return types.Key{}, fmt.Errorf("--%s is required (options: %s)", level, strings.Join(options, ", "))
}

func describeSelection(sel types.Selection) string {
	parts := []string{sel.Zone, sel.Building}
	if sel.Block != nil {
		parts = append(parts, fmt.Sprint(*sel.Block))
	}
	if sel.Unit != nil {
		parts = append(parts, fmt.Sprint(*sel.Unit))
	}
	return strings.Join(parts, "/")
}

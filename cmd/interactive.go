package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"

	"valuerank/internal/types"
)

// pageSize is how many options are drawn at once.
const pageSize = 20

var levelTitles = map[types.Level]string{
	types.LevelZone:     "Zone (구역)",
	types.LevelBuilding: "Building (단지명)",
	types.LevelBlock:    "Block (동)",
	types.LevelUnit:     "Unit (호)",
}

// wizard walks zone -> building -> block -> unit starting from sel.
func wizard(ds *types.Dataset, sel types.Selection) (types.Key, bool) {
	for {
		level, options := ds.Choices(sel)
		if level == types.LevelDone {
			return sel.Key()
		}
		if len(options) == 0 {
			fmt.Printf("No %s options for %s\n", level, describeSelection(sel))
			return types.Key{}, false
		}

		idx, ok := interactiveSelect(levelTitles[level], options)
		if !ok {
			return types.Key{}, false
		}
		next, err := sel.With(level, options[idx])
		if err != nil {
			fmt.Println(err)
			return types.Key{}, false
		}
		sel = next
	}
}

// interactiveSelect lets the user move through lines with arrow keys and
// press Enter to choose one. It returns false on Esc, Ctrl-C or when the
// terminal cannot be put in raw mode.
func interactiveSelect(title string, lines []string) (int, bool) {
	if len(lines) == 0 {
		return 0, false
	}

	if runtime.GOOS == "windows" {
		enableVT()
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Println("(interactive selection not supported on this terminal)")
		return 0, false
	}
	defer term.Restore(fd, oldState)

	reader := bufio.NewReader(os.Stdin)

	selected := 0

	redraw := func() {
		// Clear screen (ANSI reset to top + clear screen)
		fmt.Print("\033[H\033[2J")
		fmt.Print(title + "\r\n")
		first, last := window(selected, len(lines), pageSize)
		for i := first; i < last; i++ {
			prefix := "  "
			if i == selected {
				prefix = "> "
			}
			fmt.Print(prefix + lines[i] + "\r\n")
		}
		fmt.Printf("(%d/%d  ↑/↓ to navigate, Enter to choose, Esc to quit)\r\n", selected+1, len(lines))
	}

	move := func(delta int) {
		next := selected + delta
		if next < 0 {
			next = 0
		}
		if next > len(lines)-1 {
			next = len(lines) - 1
		}
		if next != selected {
			selected = next
			redraw()
		}
	}

	redraw()

	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return 0, false
		}
		// Handle Windows console arrow sequences (0 or 224, then code)
		if b1 == 0 || b1 == 224 {
			b2, _ := reader.ReadByte()
			switch b2 {
			case 72: // up
				move(-1)
			case 80: // down
				move(1)
			case 73: // page up
				move(-pageSize)
			case 81: // page down
				move(pageSize)
			}
			continue
		}

		switch b1 {
		case 27: // ESC or ANSI sequence
			if reader.Buffered() == 0 {
				fmt.Print("\r\n")
				return 0, false
			}
			b2, _ := reader.ReadByte()
			if b2 != '[' || reader.Buffered() == 0 {
				continue
			}
			b3, _ := reader.ReadByte()
			switch b3 {
			case 'A': // up
				move(-1)
			case 'B': // down
				move(1)
			case '5', '6': // page up / page down, followed by '~'
				if reader.Buffered() > 0 {
					_, _ = reader.ReadByte()
				}
				if b3 == '5' {
					move(-pageSize)
				} else {
					move(pageSize)
				}
			}
		case '\r', '\n': // Enter
			fmt.Print("\r\n")
			return selected, true
		case 3: // Ctrl-C
			fmt.Print("\r\n")
			return 0, false
		}
	}
}

// waitForEnter pauses after a report. It returns false when the user asks
// to quit.
func waitForEnter() bool {
	fmt.Print("\n(press Enter to choose another unit, q to quit) ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "q", "quit", "exit":
		return false
	}
	return true
}

// window returns the [first, last) slice of n options to draw so that
// selected stays visible.
func window(selected, n, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	first := selected - size/2
	if first < 0 {
		first = 0
	}
	if first+size > n {
		first = n - size
	}
	return first, first + size
}

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"
)

// getTerminalSize returns the size of the terminal on stdout, or 0, 0.
// COLUMNS and LINES win when both are set.
func getTerminalSize() (int, int) {
	if c, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil {
		if r, err := strconv.Atoi(os.Getenv("LINES")); err == nil {
			return c, r
		}
	}
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return w, h
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// supportsColors checks if terminal supports colors
func supportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("COLORTERM") != "" {
		return true
	}
	t := strings.ToLower(os.Getenv("TERM"))
	for _, hint := range []string{"color", "256", "truecolor", "24bit", "xterm", "screen", "tmux", "linux", "ansi"} {
		if strings.Contains(t, hint) {
			return true
		}
	}
	return false
}

// getTerminalInfo summarizes the terminal for the serve log.
func getTerminalInfo() string {
	info := []string{"TERM=" + os.Getenv("TERM")}
	if p := os.Getenv("TERM_PROGRAM"); p != "" {
		info = append(info, "TERM_PROGRAM="+p)
	}
	if w, h := getTerminalSize(); w > 0 && h > 0 {
		info = append(info, fmt.Sprintf("Size=%dx%d", w, h))
	}
	info = append(info, "TTY="+yesNo(isTerminal()), "Colors="+yesNo(supportsColors()))
	return strings.Join(info, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// canInitializeTUI tests if tcell can actually be initialized
func canInitializeTUI() bool {
	screen, err := tcell.NewScreen()
	if err != nil {
		return false
	}
	if err := screen.Init(); err != nil {
		return false
	}
	screen.Fini()
	return true
}

// needsPseudoTTY checks if we need to use script command for pseudo-TTY
func needsPseudoTTY() bool {
	// Try to actually open /dev/tty (not just check if it exists)
	if file, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		file.Close()
		return false
	}
	return true
}

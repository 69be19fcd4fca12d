//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

const codePageUTF8 = 65001

// enableVT turns on virtual terminal input/output so ANSI sequences reach the
// program and the console, and switches the console to UTF-8 so Hangul zone
// and building names render.
func enableVT() {
	hIn := windows.Handle(os.Stdin.Fd())
	var inMode uint32
	if windows.GetConsoleMode(hIn, &inMode) == nil {
		windows.SetConsoleMode(hIn, inMode|windows.ENABLE_VIRTUAL_TERMINAL_INPUT)
	}

	hOut := windows.Handle(os.Stdout.Fd())
	var outMode uint32
	if windows.GetConsoleMode(hOut, &outMode) == nil {
		windows.SetConsoleMode(hOut, outMode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
	}

	_ = windows.SetConsoleCP(codePageUTF8)
	_ = windows.SetConsoleOutputCP(codePageUTF8)
}

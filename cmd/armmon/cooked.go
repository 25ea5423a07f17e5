// cooked.go - the non-raw-terminal fallback line reader used when stdin
// isn't a TTY (piped input, CI, tests driving armmon as a subprocess).

package main

import (
	"bufio"
	"os"
)

type lineScanner struct {
	sc   *bufio.Scanner
	init bool
}

func (l *lineScanner) next() (string, bool) {
	if !l.init {
		l.sc = bufio.NewScanner(os.Stdin)
		l.init = true
	}
	if !l.sc.Scan() {
		return "", false
	}
	return l.sc.Text(), true
}

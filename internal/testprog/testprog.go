// Package testprog implements the fixture programs the harness tests drive.
// Tests re-exec the test binary (the usual helper-process pattern) and route
// into Run with a fixture name, so no separate build step is needed.
//
// Fixtures:
//   - quiz: three-question arithmetic quiz with formatted numeric reads
//   - staggered: mixed line-oriented and formatted reads, the classic
//     input-desynchronization case
//   - echo: prints "ready>" and echoes lines until "quit"
//   - silent: prints nothing and sleeps
//   - crash: prints a banner then exits 1 before any prompt is satisfied
//   - closer: closes stdin immediately, then keeps printing
package testprog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Run executes the named fixture against stdin/stdout and returns its exit
// code.
func Run(name string, stdin io.Reader, stdout io.Writer) int {
	switch name {
	case "quiz":
		return quiz(stdin, stdout)
	case "staggered":
		return staggered(stdin, stdout)
	case "echo":
		return echo(stdin, stdout)
	case "silent":
		time.Sleep(time.Minute)
		return 0
	case "crash":
		fmt.Fprintln(stdout, "starting up")
		return 1
	case "closer":
		os.Stdin.Close()
		fmt.Fprintln(stdout, "input closed")
		time.Sleep(time.Minute)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown fixture %q\n", name)
		return 2
	}
}

// quiz mirrors the multi-step quiz fixture: prompts are line-buffered, the
// answers are read with formatted numeric scans.
func quiz(stdin io.Reader, stdout io.Writer) int {
	in := bufio.NewReader(stdin)
	score := 0

	fmt.Fprintln(stdout, "Welcome to the quiz!")
	fmt.Fprintln(stdout, "You will answer 3 questions.")
	fmt.Fprintln(stdout)

	ask := func(q string, want int) {
		fmt.Fprintln(stdout, q)
		var ans int
		if _, err := fmt.Fscan(in, &ans); err != nil {
			return
		}
		if ans == want {
			fmt.Fprintln(stdout, "Correct!")
			score++
		} else {
			fmt.Fprintf(stdout, "Wrong! The answer is %d.\n", want)
		}
		fmt.Fprintln(stdout)
	}

	ask("Q1: What is 2+2?", 4)
	ask("Q2: What is 3*5?", 15)
	ask("Q3: What is 10-7?", 3)

	fmt.Fprintf(stdout, "Final score: %d/3\n", score)
	return 0
}

// staggered mirrors the staggered-prompt fixture: a line read, then a
// formatted numeric read that leaves its trailing newline unconsumed, then
// another line read. A harness that assumes one read consumes exactly one
// line desynchronizes after the numeric read.
func staggered(stdin io.Reader, stdout io.Writer) int {
	in := bufio.NewReader(stdin)

	fmt.Fprintln(stdout, "What is your name?")
	name, err := in.ReadString('\n')
	if err != nil && name == "" {
		return 1
	}
	fmt.Fprintf(stdout, "Hello, %s!\n", strings.TrimSpace(name))

	fmt.Fprintln(stdout, "Enter a number:")
	var num int
	if _, err := fmt.Fscan(in, &num); err != nil {
		return 1
	}
	fmt.Fprintf(stdout, "Double: %d\n", num*2)
	fmt.Fprintf(stdout, "Triple: %d\n", num*3)

	// Discard the rest of the numeric line before the next line read.
	if _, err := in.ReadString('\n'); err != nil && err != io.EOF {
		return 1
	}
	fmt.Fprintln(stdout, "Enter a word:")
	word, err := in.ReadString('\n')
	if err != nil && word == "" {
		return 1
	}
	fmt.Fprintf(stdout, "You said: %s\n", strings.TrimSpace(word))
	fmt.Fprintln(stdout, "Done!")
	return 0
}

// echo prints a prompt and echoes input lines until "quit" or EOF.
func echo(stdin io.Reader, stdout io.Writer) int {
	fmt.Fprintln(stdout, "ready>")
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "quit" {
			return 0
		}
		fmt.Fprintf(stdout, "echo: %s\n", line)
		fmt.Fprintln(stdout, "ready>")
	}
	return 0
}

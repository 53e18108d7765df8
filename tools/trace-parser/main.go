
// sysbox-ptrace trace-output parser

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// One trace line, as printed by sysbox-ptrace:
//
//	257 openat(0xffffffffffffff9c, 0x7ffd5e1c, 0x241, 0x1b6, 0x0, 0x0)  [denied "/etc/foo"] = -1 (EPERM)
var lineRe = regexp.MustCompile(
	`^(\d+) ([a-z0-9_]+)\(([^)]*)\)(?:  \[([a-z-]+)(?: ("(?:[^"\\]|\\.)*"))?\])? = (\?|-?\d+)`)

// Branch name for lines carrying no annotation.
const noBranch = "none"

type traceLine struct {
	nr       int64
	name     string
	branch   string
	path     string
	ret      int64
	returned bool
}

func parseLine(line string) (*traceLine, error) {

	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, nil
	}

	nr, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s to int: %v", m[1], err)
	}

	tl := &traceLine{nr: nr, name: m[2], branch: m[4]}

	if tl.branch == "" {
		tl.branch = noBranch
	}

	if m[5] != "" {
		if tl.path, err = strconv.Unquote(m[5]); err != nil {
			return nil, fmt.Errorf("failed to unquote path %s: %v", m[5], err)
		}
	}

	if m[6] != "?" {
		if tl.ret, err = strconv.ParseInt(m[6], 10, 64); err != nil {
			return nil, fmt.Errorf("failed to convert %s to int: %v", m[6], err)
		}
		tl.returned = true
	}

	return tl, nil
}

// parseTrace groups the trace lines in r by branch and counts syscalls by
// name.
func parseTrace(r io.Reader, branchMap map[string][]string, counts map[string]uint64) error {

	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			break
		} else if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read trace: %v", err)
		}
		line = strings.TrimSuffix(line, "\n")

		tl, perr := parseLine(line)
		if perr != nil {
			return perr
		}
		if tl == nil {
			continue
		}

		branchMap[tl.branch] = append(branchMap[tl.branch], line)
		counts[tl.name]++

		if err == io.EOF {
			break
		}
	}

	return nil
}

func branchDumper(branch string, lines []string, wg *sync.WaitGroup, errch chan error) {

	defer wg.Done()

	// create output file
	outfile := fmt.Sprintf("branch_%s", branch)
	outf, err := os.Create(outfile)
	if err != nil {
		errch <- err
		return
	}
	defer outf.Close()

	for _, line := range lines {
		if _, err := outf.WriteString(line + "\n"); err != nil {
			errch <- fmt.Errorf("failed to write to file %s: %v", outfile, err)
			return
		}
	}
}

func dumpBranches(branchMap map[string][]string) error {
	var wg sync.WaitGroup

	errch := make(chan error, len(branchMap))

	// dump lines per branch
	for branch, lines := range branchMap {
		wg.Add(1)
		go branchDumper(branch, lines, &wg, errch)
	}

	wg.Wait()

	select {
	case err := <-errch:
		return err
	default:
	}

	return nil
}

func printSummary(w io.Writer, branchMap map[string][]string, counts map[string]uint64) {

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		fmt.Fprintf(w, "%-20s %s\n", name, humanize.Comma(int64(counts[name])))
	}

	branches := make([]string, 0, len(branchMap))
	for branch := range branchMap {
		branches = append(branches, branch)
	}
	sort.Strings(branches)

	for _, branch := range branches {
		fmt.Fprintf(w, "[%s] %s\n", branch, humanize.Comma(int64(len(branchMap[branch]))))
	}
}

func usage() {
	fmt.Printf("%s <filename>\n", os.Args[0])
}

func main() {

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	filename := os.Args[1]

	file, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Failed to open file %s: %v\n", filename, err)
		os.Exit(1)
	}
	defer file.Close()

	// maps branch -> trace lines that took it
	branchMap := make(map[string][]string)

	// maps syscall name -> number of occurrences
	counts := make(map[string]uint64)

	if err := parseTrace(file, branchMap, counts); err != nil {
		fmt.Printf("Failed to parse file %s: %v\n", filename, err)
		os.Exit(1)
	}

	if err := dumpBranches(branchMap); err != nil {
		fmt.Printf("Failed to dump branches: %v\n", err)
		os.Exit(1)
	}

	printSummary(os.Stdout, branchMap, counts)
}

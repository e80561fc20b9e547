// Command covercheck fails when a source file in a coverage profile is
// below a per-file statement coverage threshold.
//
//	go test -coverprofile=coverage.out ./...
//	go run ./internal/tools/covercheck -include 'shwrap/internal/**,shwrap/pkg/**'
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

type fileCov struct {
	total   int
	covered int
}

func (c fileCov) percent() float64 {
	return float64(c.covered) * 100.0 / float64(c.total)
}

// parseProfile sums statements per file. Test files and files not matched
// by any include pattern are skipped; no patterns includes everything.
func parseProfile(r io.Reader, include []glob.Glob) (map[string]*fileCov, error) {
	cov := make(map[string]*fileCov)
	s := bufio.NewScanner(r)
	first := true
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if first {
			// mode: set|count|atomic
			first = false
			continue
		}
		// file.go:startLine.startCol,endLine.endCol numStatements count
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		file, _, ok := strings.Cut(fields[0], ":")
		if !ok || file == "" || strings.HasSuffix(file, "_test.go") || !included(file, include) {
			continue
		}
		numStmt, err1 := strconv.Atoi(fields[1])
		cnt, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			continue
		}
		fc := cov[file]
		if fc == nil {
			fc = &fileCov{}
			cov[file] = fc
		}
		fc.total += numStmt
		if cnt > 0 {
			fc.covered += numStmt
		}
	}
	return cov, s.Err()
}

func included(file string, include []glob.Glob) bool {
	if len(include) == 0 {
		return true
	}
	for _, g := range include {
		if g.Match(file) {
			return true
		}
	}
	return false
}

func compilePatterns(csv string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, p := range strings.Split(csv, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// belowThreshold lists the failing files sorted by name.
func belowThreshold(cov map[string]*fileCov, threshold float64) []string {
	var failed []string
	for file, fc := range cov {
		if fc.total == 0 {
			continue
		}
		if pct := fc.percent(); pct+1e-9 < threshold {
			failed = append(failed, fmt.Sprintf("%s: %.1f%% < %.1f%%", file, pct, threshold))
		}
	}
	sort.Strings(failed)
	return failed
}

func main() {
	var (
		profile   string
		threshold float64
		include   string
	)
	flag.StringVar(&profile, "profile", "coverage.out", "coverage profile file (go test -coverprofile)")
	flag.Float64Var(&threshold, "threshold", 75.0, "minimum per-file coverage percentage")
	flag.StringVar(&include, "include", "", "comma-separated glob patterns of files to check (optional)")
	flag.Parse()

	patterns, err := compilePatterns(include)
	if err != nil {
		fmt.Fprintf(os.Stderr, "covercheck: %v\n", err)
		os.Exit(2)
	}
	f, err := os.Open(profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "covercheck: failed to open profile: %v\n", err)
		os.Exit(2)
	}
	defer f.Close()

	cov, err := parseProfile(f, patterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "covercheck: read error: %v\n", err)
		os.Exit(2)
	}
	if failed := belowThreshold(cov, threshold); len(failed) > 0 {
		fmt.Fprintln(os.Stderr, "Per-file coverage check failed:")
		for _, msg := range failed {
			fmt.Fprintln(os.Stderr, "  ", msg)
		}
		os.Exit(1)
	}
}

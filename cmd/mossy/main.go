// Command mossy analyzes a directory of single-language source
// submissions for shared code and reports suspicious pairs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/grafana/regexp"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/mossy-run/mossy"
)

func main() {
	_, _ = maxprocs.Set()

	language := flag.String("language", "", "submission language: java, python, or c")
	threshold := flag.Float64("threshold", 0.5, "similarity at or above which a pair is reported as suspicious")
	kgram := flag.Int("kgram", 25, "winnowing k-gram length")
	window := flag.Int("window", 40, "winnowing window size")
	template := flag.String("template", "", "path to an instructor-provided template file to suppress")
	exclude := flag.String("exclude", "", "comma-separated glob patterns of paths to exclude")
	excludeRegex := flag.String("exclude_regex", "", "regular expression of paths to exclude, for exclusions a glob can't express")
	debugLog := flag.String("debug_log", "", "path to a rotating debug trace log")
	parallelism := flag.Int("parallelism", 4, "worker pool size for tokenization and aggregation")

	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(flag.CommandLine.Output(), "USAGE: %s [options] DIR\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(1)
	}

	excludeGlobs, err := compileExcludeGlobs(*exclude)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mossy: bad -exclude:", err)
		os.Exit(1)
	}
	var excludeRe *regexp.Regexp
	if *excludeRegex != "" {
		re, err := regexp.Compile(*excludeRegex)
		if err != nil {
			fmt.Fprintln(os.Stderr, "mossy: bad -exclude_regex:", err)
			os.Exit(1)
		}
		excludeRe = re
	}

	files, err := collectFiles(flag.Arg(0), excludeGlobs, excludeRe)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mossy:", err)
		os.Exit(1)
	}

	opts := mossy.Options{
		KgramLength:  *kgram,
		WindowSize:   *window,
		Threshold:    *threshold,
		Parallelism:  *parallelism,
		DebugLogPath: *debugLog,
	}
	if *template != "" {
		content, err := os.ReadFile(*template)
		if err != nil {
			fmt.Fprintln(os.Stderr, "mossy: reading template:", err)
			os.Exit(1)
		}
		opts.TemplateFile = &mossy.FileInput{Path: *template, Content: string(content)}
	}

	report, err := mossy.Analyze(context.Background(), files, *language, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mossy: analyze failed:", err)
		os.Exit(1)
	}

	printReport(report)
}

// compileExcludeGlobs compiles a comma-separated list of path-aware glob
// patterns, following ignore.ParseIgnoreFile's convention: patterns with
// no glob metacharacters and no '.' get an implicit trailing "**" so a bare
// directory name excludes everything under it.
func compileExcludeGlobs(raw string) ([]glob.Glob, error) {
	if raw == "" {
		return nil, nil
	}
	var globs []glob.Glob
	for _, pattern := range strings.Split(raw, ",") {
		if !strings.ContainsAny(pattern, ".][*?") {
			pattern += "**"
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func collectFiles(root string, excludeGlobs []glob.Glob, excludeRe *regexp.Regexp) ([]mossy.FileInput, error) {
	var files []mossy.FileInput
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		for _, g := range excludeGlobs {
			if g.Match(path) {
				return nil
			}
		}
		if excludeRe != nil && excludeRe.MatchString(path) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, mossy.FileInput{Path: path, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no files found under " + root)
	}
	return files, nil
}

func printReport(r *mossy.Report) {
	fmt.Printf("report %s: %s\n", r.ID, r.Summary.String())

	for i, p := range r.Pairs {
		fmt.Printf("  pair %d: %s <-> %s  similarity=%.3f overlap=%d longest=%d\n",
			p.ID, p.LeftFile.Path, p.RightFile.Path, p.Similarity, p.Overlap, p.Longest)
		if frags, err := r.Fragments(i); err == nil && p.Similarity >= 0.5 {
			for _, f := range frags {
				fmt.Printf("    fragment %d: %v <-> %v (%d tokens)\n", f.ID, f.LeftSelection, f.RightSelection, f.Length)
			}
		}
	}

	for _, w := range r.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
}

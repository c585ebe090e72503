//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Stats prints Go line counts per package and documentation word counts
// as one JSON record.
func Stats() error {
	prod := map[string]int{}
	test := map[string]int{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if path != "." && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == "vendor" || path == binaryDir || path == "magefiles") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		count, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		pkg := filepath.Dir(path)
		if strings.HasSuffix(path, "_test.go") {
			test[pkg] += count
		} else {
			prod[pkg] += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	pkgs := make([]string, 0, len(prod))
	for pkg := range prod {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	var totalProd, totalTest int
	perPkg := make(map[string][2]int, len(pkgs))
	for _, pkg := range pkgs {
		perPkg[pkg] = [2]int{prod[pkg], test[pkg]}
		totalProd += prod[pkg]
		totalTest += test[pkg]
	}

	docWords := 0
	for _, doc := range []string{"README.md", "DESIGN.md", "SPEC_FULL.md"} {
		if n, err := countWordsInFile(doc); err == nil {
			docWords += n
		}
	}

	record := map[string]any{
		"go_loc_prod": totalProd,
		"go_loc_test": totalTest,
		"go_loc":      totalProd + totalTest,
		"packages":    perPkg,
		"doc_words":   docWords,
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

func countWordsInFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	count := 0
	inWord := false
	for _, r := range string(data) {
		if unicode.IsSpace(r) {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count, nil
}

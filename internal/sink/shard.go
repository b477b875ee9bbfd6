package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoTableFile is returned by TableFiles when a table has no output in the directory
var ErrNoTableFile = errors.New("no file for table")

// ShardFilename generates a shard filename with zero-padded shard number.
// ShardFilename("transactions", 1, 8) returns "transactions_001".
// The padding width follows the total number of shards, minimum 3 digits.
func ShardFilename(basename string, shardNum, totalShards int) string {
	width := max(len(fmt.Sprintf("%d", totalShards)), 3)
	return fmt.Sprintf("%s_%0*d", basename, width, shardNum)
}

// ShardCount returns how many files a table of rows rows is split into
func ShardCount(rows, shardRows int) int {
	if shardRows <= 0 || rows <= shardRows {
		return 1
	}
	return (rows + shardRows - 1) / shardRows
}

// TableFiles locates the output of one table in dir: the shards
// table_NNN.csv[.xz] in order, or the single table.csv[.xz].
func TableFiles(dir, table string) (files []string, compressed bool, err error) {
	// Compressed shards win over plain ones, as they do for single files
	for _, ext := range []string{".csv.xz", ".csv"} {
		matches, err := filepath.Glob(filepath.Join(dir, table+"_[0-9]*"+ext))
		if err != nil {
			return nil, false, fmt.Errorf("glob error for %s: %w", table, err)
		}
		matches = exactShards(matches, table, ext)
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches, ext == ".csv.xz", nil
		}
	}

	for _, ext := range []string{".csv.xz", ".csv"} {
		path := filepath.Join(dir, table+ext)
		if _, err := os.Stat(path); err == nil {
			return []string{path}, ext == ".csv.xz", nil
		}
	}

	return nil, false, fmt.Errorf("%w %s in %s", ErrNoTableFile, table, dir)
}

// exactShards drops matches whose suffix is not all digits, so that
// "credit_scores_001.csv" is never mistaken for a shard of "credit".
func exactShards(matches []string, table, ext string) []string {
	out := matches[:0]
	for _, m := range matches {
		base := filepath.Base(m)
		num := strings.TrimSuffix(strings.TrimPrefix(base, table+"_"), ext)
		if num != "" && strings.Trim(num, "0123456789") == "" {
			out = append(out, m)
		}
	}
	return out
}

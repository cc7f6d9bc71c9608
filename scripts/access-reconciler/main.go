// Command access-reconciler replays the server's structured JSON access
// logs for GET /podcast-audio/{cache_key} requests and folds the counts
// into cache/index.json's access_count/last_accessed fields — the same
// bookkeeping podcast.Index.Touch does inline on every cache hit, but
// run standalone for backfilling after an index file is lost or
// corrupted. A sibling tool once parsed CloudFront access logs out of S3
// into DynamoDB play counts; this service has no CDN or managed database,
// so the source is its own log file and the sink is the local JSON index.
package main

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"flag"
	"log"
	"os"
	"regexp"
	"strings"

	"repocast/internal/podcast"
)

// audioPathRegex extracts the cache key from a podcast-audio request path.
var audioPathRegex = regexp.MustCompile(`^/podcast-audio/([A-Za-z0-9_-]+)`)

type logLine struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Status int    `json:"status"`
}

func main() {
	logPath := flag.String("log", "", "path to the server's JSON log file (.log or .gz)")
	indexPath := flag.String("index", "", "path to cache/index.json")
	flag.Parse()

	if *logPath == "" || *indexPath == "" {
		log.Fatal("-log and -index are required")
	}

	counts, err := countHits(*logPath)
	if err != nil {
		log.Fatalf("scan log file: %v", err)
	}
	if len(counts) == 0 {
		log.Println("no podcast-audio hits found in log")
		return
	}

	idx, err := podcast.NewIndex(*indexPath)
	if err != nil {
		log.Fatalf("load index: %v", err)
	}

	for cacheKey, n := range counts {
		for i := 0; i < n; i++ {
			if err := idx.Touch(cacheKey); err != nil {
				log.Printf("touch %s: %v", cacheKey, err)
				break
			}
		}
		log.Printf("reconciled %s: +%d accesses", cacheKey, n)
	}
}

func countHits(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var scanner *bufio.Scanner
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		scanner = bufio.NewScanner(gz)
	} else {
		scanner = bufio.NewScanner(f)
	}

	counts := make(map[string]int)
	for scanner.Scan() {
		var line logLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if line.Method != "GET" || (line.Status != 200 && line.Status != 206) {
			continue
		}
		matches := audioPathRegex.FindStringSubmatch(line.Path)
		if len(matches) >= 2 {
			counts[matches[1]]++
		}
	}
	return counts, scanner.Err()
}

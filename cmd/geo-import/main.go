package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"leadmarket_backend/internal/geo/repository"
	"leadmarket_backend/internal/geo/service"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/db"
	"leadmarket_backend/platform/logger"
)

// importLine is one zone in the normalized JSON-lines import format:
//
//	{"countryIso":"NO","countryName":"Norway","name":"Oslo","kind":"municipality",
//	 "secondaryLabel":"Oslo","postalCodes":["0150","0151"]}
type importLine struct {
	CountryISO     string   `json:"countryIso"`
	CountryName    string   `json:"countryName"`
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	SecondaryLabel *string  `json:"secondaryLabel"`
	State          *string  `json:"state"`
	PostalCodes    []string `json:"postalCodes"`
}

const importBatchSize = 500

// normalizeLine applies the stored-form normalization to one import line:
// codes trimmed, upper-cased, and deduplicated, country ISO upper-cased.
// Returns false when nothing usable remains after normalization.
func normalizeLine(line importLine) (repository.ImportZone, bool) {
	iso := strings.ToUpper(strings.TrimSpace(line.CountryISO))
	name := strings.TrimSpace(line.Name)
	if iso == "" || name == "" {
		return repository.ImportZone{}, false
	}

	codes := make([]string, 0, len(line.PostalCodes))
	seen := make(map[string]struct{}, len(line.PostalCodes))
	for _, raw := range line.PostalCodes {
		code := service.NormalizePostalCode(raw)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return repository.ImportZone{}, false
	}

	return repository.ImportZone{
		CountryISO:     iso,
		CountryName:    strings.TrimSpace(line.CountryName),
		Name:           name,
		Kind:           repository.ZoneKind(line.Kind),
		SecondaryLabel: line.SecondaryLabel,
		State:          line.State,
		PostalCodes:    codes,
	}, true
}

func main() {
	file := flag.String("file", "", "path to the JSON-lines zone file")
	flag.Parse()
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: geo-import -file zones.jsonl")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting zone import", "file", *file)

	ctx := context.Background()

	if err := db.RunMigrations(ctx, cfg, "migrations"); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	repo := repository.New(pool)

	f, err := os.Open(*file)
	if err != nil {
		log.Error("failed to open import file", "error", err)
		panic("failed to open import file: " + err.Error())
	}
	defer f.Close()

	var (
		batch    []repository.ImportZone
		lineNo   int
		imported int
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		n, err := repo.ImportZones(ctx, batch)
		if err != nil {
			log.Error("zone batch import failed", "line", lineNo, "error", err)
			panic("zone batch import failed: " + err.Error())
		}
		imported += n
		batch = batch[:0]
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line importLine
		if err := json.Unmarshal(raw, &line); err != nil {
			log.Warn("skipping malformed line", "line", lineNo, "error", err)
			continue
		}
		zone, ok := normalizeLine(line)
		if !ok {
			log.Warn("skipping incomplete line", "line", lineNo)
			continue
		}

		batch = append(batch, zone)
		if len(batch) >= importBatchSize {
			flush()
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error("failed to read import file", "error", err)
		panic("failed to read import file: " + err.Error())
	}
	flush()

	log.Info("zone import complete", "zones", imported, "lines", lineNo)
}

// Command seedhistory populates a submission history store with synthetic
// anomaly reports, for exercising the matcher and chat endpoints without
// running real ingestions.
//
// Usage:
//
//	go run ./cmd/seedhistory -driver csv -dsn submission_history.csv -n 200
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/urbanwatch/city-anomaly-ingest/internal/config"
	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/store"
)

type street struct {
	name string
	area string
	city string
}

var streets = []street{
	{"Main St", "Downtown", "Springfield"},
	{"Oak Avenue", "Downtown", "Springfield"},
	{"Elm Street", "Riverside", "Springfield"},
	{"Rue de Rivoli", "4th Arrondissement", "Paris"},
	{"Boulevard Saint-Germain", "6th Arrondissement", "Paris"},
	{"High Street", "City Centre", "Birmingham"},
	{"Park Road", "Moseley", "Birmingham"},
	{"MG Road", "Shivajinagar", "Bengaluru"},
	{"Linking Road", "Bandra West", "Mumbai"},
}

type incident struct {
	eventType string
	subType   string
	desc      string
	severity  int
}

var incidents = []incident{
	{domain.EventStructuralDamage, "collapsed wall", "A brick wall has partially collapsed into the roadway.", 7},
	{domain.EventInfrastructureIssue, "pothole", "Large pothole spanning most of one lane.", 5},
	{domain.EventWeatherDamage, "flooding", "Standing water across both lanes after heavy rain.", 6},
	{domain.EventTrafficAnomaly, "gridlock", "Traffic at a complete standstill for several blocks.", 4},
	{domain.EventUtilityDisruption, "downed power line", "Power line down across the sidewalk, area cordoned off.", 8},
	{domain.EventEnvironmentalHazard, "chemical spill", "Unknown liquid leaking from an overturned drum.", 9},
	{domain.EventPublicSafetyConcern, "broken streetlight", "Streetlights out along the whole block.", 3},
	{domain.EventUnusualActivity, "", "Large unexpected gathering blocking the intersection.", 2},
	{domain.EventNormal, "", "Nothing unusual visible.", 1},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	driver := flag.String("driver", config.DriverCSV, "history driver: csv, sqlite, or postgres")
	dsn := flag.String("dsn", "submission_history.csv", "file path or database DSN")
	n := flag.Int("n", 100, "number of reports to generate")
	days := flag.Int("days", 30, "spread timestamps over the past N days")
	seed := flag.Int64("seed", 0, "random seed, 0 for time-based")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{HistoryDriver: *driver, HistoryDSN: *dsn}

	s, err := store.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now()
	window := time.Duration(*days) * 24 * time.Hour

	for i := 0; i < *n; i++ {
		st := streets[rng.Intn(len(streets))]
		inc := incidents[rng.Intn(len(incidents))]

		when := now.Add(-time.Duration(rng.Int63n(int64(window))))
		report := domain.CityAnomalyReport{
			ReportID:      uuid.NewString(),
			UnixTimestamp: float64(when.UnixMilli()) / 1000,
			AnomalyRecord: domain.AnomalyRecord{
				EventType:     inc.eventType,
				SubEventType:  optional(inc.subType),
				Description:   inc.desc,
				SeverityScore: inc.severity,
			},
			AddressRecord: domain.AddressRecord{
				Latitude:         jitter(rng, 48.85, 0.2),
				Longitude:        jitter(rng, 2.35, 0.2),
				FormattedAddress: fmt.Sprintf("%s, %s, %s", st.name, st.area, st.city),
				StreetName:       optional(st.name),
				AreaName:         optional(st.area),
				City:             optional(st.city),
			},
		}
		if err := s.Append(ctx, report); err != nil {
			return fmt.Errorf("append report %d: %w", i, err)
		}
	}

	fmt.Printf("seeded %d reports into %s (%s), seed %d\n", *n, *dsn, *driver, *seed)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jitter(rng *rand.Rand, base, spread float64) float64 {
	return base + (rng.Float64()-0.5)*spread
}

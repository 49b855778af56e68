package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/safe-route/internal/httpclient"
	"github.com/ukydev/safe-route/internal/models"
	"github.com/ukydev/safe-route/internal/routing"
)

// City is a named hotspot center.
type City struct {
	Name string
	models.Coordinate
}

// Cities with dense road networks; samples cluster around them.
var cities = []City{
	{"New Delhi", models.Coordinate{Lat: 28.6139, Lon: 77.2090}},
	{"Noida", models.Coordinate{Lat: 28.5355, Lon: 77.3910}},
	{"Gurugram", models.Coordinate{Lat: 28.4595, Lon: 77.0266}},
	{"Ghaziabad", models.Coordinate{Lat: 28.6692, Lon: 77.4538}},
	{"Faridabad", models.Coordinate{Lat: 28.4089, Lon: 77.3178}},
	{"Mumbai", models.Coordinate{Lat: 19.0760, Lon: 72.8777}},
	{"Bengaluru", models.Coordinate{Lat: 12.9716, Lon: 77.5946}},
	{"Chennai", models.Coordinate{Lat: 13.0827, Lon: 80.2707}},
	{"Kolkata", models.Coordinate{Lat: 22.5726, Lon: 88.3639}},
	{"Hyderabad", models.Coordinate{Lat: 17.3850, Lon: 78.4867}},
}

// severityWeights is the share of samples per severity 1..4.
var severityWeights = []float64{0.05, 0.65, 0.22, 0.08}

type generator struct {
	rng    *rand.Rand
	engine routing.Engine
}

func jitterLocation(rng *rand.Rand, base models.Coordinate, meters float64) models.Coordinate {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rng.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rng.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return models.Coordinate{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

func (g *generator) severity() int {
	r := g.rng.Float64()
	for i, w := range severityWeights {
		if r < w {
			return i + 1
		}
		r -= w
	}
	return len(severityWeights)
}

func (g *generator) accident(at models.Coordinate) models.Accident {
	return models.Accident{ID: "A-" + uuid.NewString()[:8], Lat: at.Lat, Lon: at.Lon, Severity: g.severity()}
}

// hotspot scatters n samples within radius meters of center.
func (g *generator) hotspot(center models.Coordinate, radius float64, n int) []models.Accident {
	out := make([]models.Accident, n)
	for i := range out {
		out[i] = g.accident(jitterLocation(g.rng, center, radius))
	}
	return out
}

// alongRoute places n samples on the road path between two cities.
func (g *generator) alongRoute(ctx context.Context, from, to models.Coordinate, n int) ([]models.Accident, error) {
	id := uuid.NewString()
	var ev routing.RoutesFound
	select {
	case e, ok := <-g.engine.Request(ctx, id, from, to):
		if !ok {
			return nil, fmt.Errorf("routing closed without result")
		}
		ev = e
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if ev.Err != nil {
		return nil, ev.Err
	}
	if len(ev.Routes) == 0 {
		return nil, models.ErrNoRoute
	}
	path := ev.Routes[0].Coordinates
	out := make([]models.Accident, n)
	for i := range out {
		seg := g.rng.Intn(len(path) - 1)
		t := g.rng.Float64()
		a, b := path[seg], path[seg+1]
		at := models.Coordinate{Lat: a.Lat + (b.Lat-a.Lat)*t, Lon: a.Lon + (b.Lon-a.Lon)*t}
		out[i] = g.accident(jitterLocation(g.rng, at, 30))
	}
	return out, nil
}

// generate builds n samples: hotspots around every city and, with an engine,
// a share along road paths between neighbouring cities.
func (g *generator) generate(ctx context.Context, n int) []models.Accident {
	if n <= 0 {
		return nil
	}
	var accidents []models.Accident
	roadShare := 0
	if g.engine != nil {
		roadShare = n / 2
	}
	perCity := (n - roadShare) / len(cities)
	for _, c := range cities {
		accidents = append(accidents, g.hotspot(c.Coordinate, 8000, perCity)...)
	}

	if roadShare > 0 {
		perPair := roadShare / (len(cities) - 1)
		for i := 0; i+1 < len(cities); i++ {
			from, to := cities[i], cities[i+1]
			samples, err := g.alongRoute(ctx, from.Coordinate, to.Coordinate, perPair)
			if err != nil {
				log.WithError(err).WithFields(log.Fields{"from": from.Name, "to": to.Name}).Warn("Skipping road samples")
				continue
			}
			accidents = append(accidents, samples...)
		}
	}

	// Top up so the output has exactly n rows.
	for len(accidents) < n {
		c := cities[g.rng.Intn(len(cities))]
		accidents = append(accidents, g.accident(jitterLocation(g.rng, c.Coordinate, 8000)))
	}
	return accidents[:n]
}

// writeCSV emits the samples in the column layout the accident CSV store reads.
func writeCSV(w io.Writer, accidents []models.Accident) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Severity", "Start_Lat", "Start_Lng"}); err != nil {
		return err
	}
	for _, a := range accidents {
		row := []string{
			a.ID,
			strconv.Itoa(a.Severity),
			strconv.FormatFloat(a.Lat, 'f', 6, 64),
			strconv.FormatFloat(a.Lon, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func validateCount(n int) error {
	if n < 0 {
		return fmt.Errorf("-n must not be negative, got %d", n)
	}
	return nil
}

func main() {
	count := flag.Int("n", 5000, "number of samples")
	out := flag.String("out", "data/accidents.csv", "output CSV path, - for stdout")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	osrm := flag.String("osrm", "", "OSRM base URL; when set half the samples follow real roads")
	flag.Parse()
	if err := validateCount(*count); err != nil {
		log.WithError(err).Fatal("Invalid flags")
	}

	g := &generator{rng: rand.New(rand.NewSource(*seed))}
	if *osrm != "" {
		g.engine = routing.NewOSRM(*osrm, "driving", httpclient.New(30*time.Second))
	}

	log.WithFields(log.Fields{"samples": *count, "out": *out, "osrm": *osrm}).Info("Generating accident samples")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	accidents := g.generate(ctx, *count)

	var w io.Writer = os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			log.WithError(err).Fatal("Failed to create output file")
		}
		defer f.Close()
		w = f
	}
	if err := writeCSV(w, accidents); err != nil {
		log.WithError(err).Fatal("Failed to write samples")
	}
	log.WithField("samples", len(accidents)).Info("Accident samples written")
}

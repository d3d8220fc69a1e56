// Copyright 2021 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-measurements writes a synthetic measurements file to stdout.
package main

import (
	"bufio"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/HappyCerberus/1brc/internal/fixedpoint"
)

var errNoStations = errors.New("need at least one station")

var knownStations = []string{
	"Abha", "Abidjan", "Abéché", "Accra", "Addis Ababa", "Adelaide", "Aden",
	"Ahvaz", "Albuquerque", "Alexandria", "Anchorage", "Ankara", "Antananarivo",
	"Ashgabat", "Asmara", "Assab", "Athens", "Baghdad", "Baku", "Bamako",
	"Bangkok", "Barcelona", "Beijing", "Belgrade", "Bergen", "Bilbao", "Bissau",
	"Bratislava", "Bridgetown", "Brussels", "Bulawayo", "Cairo", "Canberra",
	"Cape Town", "Chihuahua", "Conakry", "Copenhagen", "Cracow", "Da Nang",
	"Dakar", "Denver", "Djibouti", "Dodoma", "Dubai", "Dublin", "Edinburgh",
	"Fianarantsoa", "Hamburg", "Hanoi", "Helsinki", "Hong Kong", "Honiara",
	"Istanbul", "Jakarta", "Kampala", "Karachi", "Kathmandu", "Kyiv", "La Paz",
	"Lagos", "Lhasa", "Lisbon", "Ljubljana", "Lodwar", "Luanda", "Lyon",
	"Mexico City", "Milan", "Minsk", "Moscow", "Mumbai", "Nairobi", "Napoli",
	"Nouakchott", "Odesa", "Oslo", "Ouagadougou", "Palembang", "Paris",
	"Petropavlovsk-Kamchatsky", "Reykjavík", "Riga", "Roseau", "São Paulo",
	"Seoul", "St. John's", "Tallinn", "Tbilisi", "Tokyo", "Ürümqi", "Vilnius",
	"Warsaw", "Xi'an", "Yakutsk", "Zagreb", "Zürich", "İzmir",
}

type station struct {
	name string
	mean float64
}

// newRand seeds a generator from entropy, usually crypto/rand.Reader.
func newRand(entropy io.Reader) (*rand.Rand, error) {
	var seedBytes [8]byte
	if _, err := io.ReadFull(entropy, seedBytes[:]); err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed)), nil
}

func newStations(rng *rand.Rand, n int) []station {
	stations := make([]station, n)
	for i := range stations {
		name := knownStations[i%len(knownStations)]
		if i >= len(knownStations) {
			name = fmt.Sprintf("%s %d", name, i/len(knownStations))
		}
		stations[i] = station{
			name: name,
			mean: rng.Float64()*70 - 30,
		}
	}
	return stations
}

// generate writes rows lines of `station;value` to w.  Values are normally
// distributed around a per-station mean and have exactly one fractional
// digit.
func generate(w io.Writer, rng *rand.Rand, rows, nStations int) error {
	if nStations < 1 {
		return errNoStations
	}
	stations := newStations(rng, nStations)

	bw := bufio.NewWriterSize(w, 1<<20)
	var line []byte
	for i := 0; i < rows; i++ {
		s := &stations[rng.Intn(len(stations))]
		v := math.Round((rng.NormFloat64()*10 + s.mean) * fixedpoint.Scale)
		v = math.Max(-999, math.Min(999, v))

		line = append(line[:0], s.name...)
		line = append(line, ';')
		line = fixedpoint.AppendScaled(line, int64(v))
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func main() {
	rows := flag.Int("n", 1000000, "number of rows")
	nStations := flag.Int("stations", len(knownStations), "number of distinct stations")
	seed := flag.Int64("seed", 0, "random seed; 0 picks one at random")
	flag.Parse()

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewSource(*seed))
	} else {
		var err error
		if rng, err = newRand(crand.Reader); err != nil {
			fmt.Fprintf(os.Stderr, "gen-measurements: %s\n", err)
			os.Exit(1)
		}
	}

	if err := generate(os.Stdout, rng, *rows, *nStations); err != nil {
		fmt.Fprintf(os.Stderr, "gen-measurements: %s\n", err)
		os.Exit(1)
	}
}


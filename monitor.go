// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Shaft position monitor program

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/aamcrae/config"
	"github.com/aamcrae/encoder/qdec"
)

var configFile = flag.String("config", "encoder.conf", "Configuration file")
var section = flag.String("encoder", "encoder", "Encoder section to monitor")
var poll = flag.Duration("poll", 100*time.Millisecond, "Hardware polling interval")
var report = flag.Duration("report", time.Second, "Position reporting interval")
var zero = flag.Bool("zero", false, "Zero the position at startup")

func main() {
	flag.Parse()
	conf, err := config.ParseFile(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	ec, err := qdec.ReadConfig(conf, *section)
	if err != nil {
		log.Fatalf("%s: %v", *section, err)
	}
	ticker := qdec.NewTicker(*poll)
	defer ticker.Close()
	enc, err := qdec.Open(ec, ticker)
	if err != nil {
		log.Fatalf("%s: %v", ec.Name, err)
	}
	defer enc.Close()
	if *zero {
		enc.Decoder.ResetPosition(0)
	}
	enc.Decoder.EnableSystemTick()
	if err := enc.Decoder.Start(); err != nil {
		log.Fatalf("%s: %v", ec.Name, err)
	}
	log.Printf("%s: decoding on GPIO %d/%d, sample period %dus",
		ec.Name, ec.PhaseA, ec.PhaseB, enc.Decoder.SamplePeriod())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	t := time.NewTicker(*report)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			log.Printf("%s: position %d, errors %d",
				ec.Name, enc.Decoder.Position(), enc.Decoder.Errors())
		case <-sig:
			log.Printf("%s: stopping", ec.Name)
			return
		}
	}
}

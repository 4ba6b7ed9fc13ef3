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

// Simulator encoder program.
// Runs the decoder against a synthetic peripheral generating encoder
// movement, and serves the decoded shaft position as a dial image.

package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/aamcrae/encoder/qdec"
	"github.com/fogleman/gg"
)

var port = flag.Int("port", 8080, "Web server port number")
var counts = flag.Int("counts", 1200, "Encoder counts per revolution")
var rpm = flag.Float64("rpm", 30.0, "Peak shaft speed in RPM")
var cycle = flag.Duration("cycle", 20*time.Second, "Speed variation cycle time")
var interval = flag.Duration("interval", 20*time.Millisecond, "Polling interval")

const dialSize = 400

// simDevice is a synthetic quadrature decoder peripheral. The shaft
// speed follows a sine wave so the position winds forwards and
// backwards; movement is accumulated between read/clear operations the
// way the hardware accumulator would. When the movement within one
// sample period becomes ambiguous (more than one count per sample),
// double transitions are reported instead of counts.
type simDevice struct {
	enabled  bool
	running  bool
	settings qdec.Settings
	start    time.Time
	lastRead time.Time
	residual float64 // Fractional counts not yet reported
	dbl      uint32  // Latched double-transition count
}

func (d *simDevice) Enabled() bool {
	return d.enabled
}

func (d *simDevice) Program(s qdec.Settings) {
	d.settings = s
}

func (d *simDevice) Enable() {
	d.enabled = true
}

func (d *simDevice) Disable() {
	d.enabled = false
}

func (d *simDevice) Start() {
	d.running = true
	d.start = time.Now()
	d.lastRead = d.start
}

func (d *simDevice) Stop() {
	d.running = false
}

// ReadClearAcc reports the whole counts the shaft moved since the last
// read, carrying the fractional remainder forward.
func (d *simDevice) ReadClearAcc() int32 {
	now := time.Now()
	if !d.running {
		d.lastRead = now
		return 0
	}
	elapsed := now.Sub(d.lastRead).Seconds()
	d.lastRead = now
	moved := d.residual + d.speed(now)*elapsed
	n := math.Trunc(moved)
	d.residual = moved - n
	sample := float64(uint32(qdec.MinSamplePeriod)<<d.settings.SamplePer) / 1e6
	if math.Abs(d.speed(now))*sample > 1.0 {
		// Too fast for the sample period; the hardware would see
		// both phases change and could not determine direction.
		d.dbl++
	}
	return int32(n)
}

func (d *simDevice) ReadClearDbl() uint32 {
	n := d.dbl
	d.dbl = 0
	return n
}

// speed returns the instantaneous shaft speed in counts per second.
func (d *simDevice) speed(now time.Time) float64 {
	peak := *rpm / 60.0 * float64(*counts)
	phase := now.Sub(d.start).Seconds() / cycle.Seconds()
	return peak * math.Sin(2*math.Pi*phase)
}

// simPin is a pin stand-in for the synthetic peripheral.
type simPin uint32

func (p simPin) Name() uint32 {
	return uint32(p)
}

func (p simPin) DisableEvents() error {
	return nil
}

func main() {
	flag.Parse()
	dev := new(simDevice)
	ticker := qdec.NewTicker(*interval)
	dec, err := qdec.New(dev, ticker, qdec.Config{
		PhaseA: simPin(5),
		PhaseB: simPin(6),
		LED:    simPin(13),
	})
	if err != nil {
		log.Fatalf("decoder: %v", err)
	}
	dec.EnableSystemTick()
	if err := dec.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}
	log.Printf("simulating %d counts/rev at up to %.1f RPM", *counts, *rpm)
	http.Handle("/dial.png", http.HandlerFunc(dial(dec)))
	http.Handle("/position", http.HandlerFunc(position(dec)))
	url := fmt.Sprintf(":%d", *port)
	log.Printf("Starting server on %s", url)
	server := &http.Server{Addr: url}
	log.Fatal(server.ListenAndServe())
}

// position reports the decoded position and error count as text.
func position(dec *qdec.Decoder) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "position %d errors %d\n", dec.Position(), dec.Errors())
	}
}

// dial draws the shaft position as a pointer on a dial.
func dial(dec *qdec.Decoder) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		pos := dec.Position()
		angle := 2 * math.Pi * float64(pos%int64(*counts)) / float64(*counts)
		mid := float64(dialSize) / 2
		radius := mid * 0.9
		c := gg.NewContext(dialSize, dialSize)
		c.SetRGB(1, 1, 1)
		c.Clear()
		c.SetRGB(0, 0, 0)
		c.SetLineWidth(2)
		c.DrawCircle(mid, mid, radius)
		c.Stroke()
		for i := 0; i < 12; i++ {
			a := 2 * math.Pi * float64(i) / 12
			c.DrawLine(mid+radius*0.92*math.Sin(a), mid-radius*0.92*math.Cos(a),
				mid+radius*math.Sin(a), mid-radius*math.Cos(a))
		}
		c.Stroke()
		c.SetRGB(1, 0, 0)
		c.SetLineWidth(3)
		c.DrawLine(mid, mid, mid+radius*0.85*math.Sin(angle), mid-radius*0.85*math.Cos(angle))
		c.Stroke()
		c.SetRGB(0, 0, 0)
		c.DrawStringAnchored(fmt.Sprintf("%d", pos), mid, mid+radius*0.5, 0.5, 0.5)
		w.Header().Set("Content-Type", "image/png")
		if err := c.EncodePNG(w); err != nil {
			log.Printf("encode: %v", err)
		}
	}
}

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

package qdec

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aamcrae/config"
)

func parseConfig(t *testing.T, contents string) *config.Config {
	t.Helper()
	f := filepath.Join(t.TempDir(), "encoder.conf")
	if err := os.WriteFile(f, []byte(contents), 0644); err != nil {
		t.Fatalf("%s: %v", f, err)
	}
	conf, err := config.ParseFile(f)
	if err != nil {
		t.Fatalf("%s: %v", f, err)
	}
	return conf
}

func TestReadConfig(t *testing.T) {
	conf := parseConfig(t, `[spindle]
phase=5,6
led=13
period=512us
leddelay=100us
activelow=true
debounce=true
`)
	c, err := ReadConfig(conf, "spindle")
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if c.PhaseA != 5 || c.PhaseB != 6 {
		t.Errorf("phase = %d,%d, want 5,6", c.PhaseA, c.PhaseB)
	}
	if c.LED != 13 {
		t.Errorf("led = %d, want 13", c.LED)
	}
	if c.Period != 512*time.Microsecond {
		t.Errorf("period = %s, want 512us", c.Period)
	}
	if c.LEDDelay != 100*time.Microsecond {
		t.Errorf("leddelay = %s, want 100us", c.LEDDelay)
	}
	if !c.ActiveLow || !c.Debounce {
		t.Errorf("flags = %v/%v, want true/true", c.ActiveLow, c.Debounce)
	}
}

func TestReadConfigDefaults(t *testing.T) {
	conf := parseConfig(t, `[encoder]
phase=20,21
`)
	c, err := ReadConfig(conf, "encoder")
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if c.LED != -1 {
		t.Errorf("led = %d, want -1 (not fitted)", c.LED)
	}
	if c.Period != MinSamplePeriod*time.Microsecond {
		t.Errorf("period = %s, want default %dus", c.Period, MinSamplePeriod)
	}
	if c.ActiveLow || c.Debounce {
		t.Errorf("flags = %v/%v, want false/false", c.ActiveLow, c.Debounce)
	}
}

func TestReadConfigErrors(t *testing.T) {
	bad := []struct {
		name     string
		contents string
	}{
		{"missing", "[other]\nphase=1,2\n"},
		{"nophase", "[encoder]\nled=13\n"},
		{"badperiod", "[encoder]\nphase=1,2\nperiod=fast\n"},
		{"shortperiod", "[encoder]\nphase=1,2\nperiod=64us\n"},
	}
	for _, b := range bad {
		conf := parseConfig(t, b.contents)
		if _, err := ReadConfig(conf, "encoder"); err == nil {
			t.Errorf("%s: no error from ReadConfig", b.name)
		}
	}
}

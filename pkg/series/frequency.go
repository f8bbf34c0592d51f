/*
 * Copyright (C) 2024 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package series

import (
	"fmt"
	"time"
)

// Frequency is the sampling frequency of the normalized grid.
type Frequency string

const (
	FreqHourly  Frequency = "hourly"
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

// ParseFrequency maps a config string to a Frequency. Empty defaults to daily.
func ParseFrequency(name string) (Frequency, error) {
	switch Frequency(name) {
	case FreqHourly, FreqDaily, FreqWeekly, FreqMonthly:
		return Frequency(name), nil
	case "":
		return FreqDaily, nil
	}
	return "", fmt.Errorf("%w: unknown frequency %q", ErrValidation, name)
}

// Step advances t by one grid slot. Monthly stepping is calendar-aware rather
// than a fixed duration.
func (f Frequency) Step(t time.Time) time.Time {
	switch f {
	case FreqHourly:
		return t.Add(time.Hour)
	case FreqWeekly:
		return t.AddDate(0, 0, 7)
	case FreqMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// DefaultPeriod returns the customary seasonal cycle length for the frequency:
// 24 for hourly (daily cycle), 7 for daily (weekly cycle), 52 for weekly and
// 12 for monthly (yearly cycle).
func (f Frequency) DefaultPeriod() int {
	switch f {
	case FreqHourly:
		return 24
	case FreqWeekly:
		return 52
	case FreqMonthly:
		return 12
	default:
		return 7
	}
}

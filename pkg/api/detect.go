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

package api

// DetectMethod defines the supported decomposition strategies.
// For doc generation, enum definitions must match format `Constant Type = "value" // doc`
type DetectMethod string

const (
	DetectMethodLocal    DetectMethod = "local"    // fast robust seasonal-trend split on history only
	DetectMethodForecast DetectMethod = "forecast" // additive trend+seasonality model fit, observed minus fitted residuals
)

// DetectFrequency defines the supported grid frequencies.
type DetectFrequency string

const (
	FrequencyHourly  DetectFrequency = "hourly"  // one slot per hour, default period 24
	FrequencyDaily   DetectFrequency = "daily"   // one slot per day, default period 7
	FrequencyWeekly  DetectFrequency = "weekly"  // one slot per week, default period 52
	FrequencyMonthly DetectFrequency = "monthly" // one calendar month per slot, default period 12
)

// Detect describes configuration for the anomaly detection core.
type Detect struct {
	Frequency DetectFrequency `yaml:"frequency,omitempty" json:"frequency,omitempty" doc:"(enum) sampling frequency of the normalized grid: hourly, daily, weekly or monthly"`
	Period    int             `yaml:"period,omitempty" json:"period,omitempty" doc:"seasonal cycle length in samples; 0 derives the customary period from the frequency"`
	Method    DetectMethod    `yaml:"method,omitempty" json:"method,omitempty" doc:"(enum) decomposition strategy: local or forecast"`
	Threshold float64         `yaml:"threshold,omitempty" json:"threshold,omitempty" doc:"anomaly threshold on |z-score|; 0 selects the default of 3.0"`
	Horizon   int             `yaml:"horizon,omitempty" json:"horizon,omitempty" doc:"slots to forecast beyond history (forecast method only); 0 = in-sample only"`
	Timeout   string          `yaml:"timeout,omitempty" json:"timeout,omitempty" doc:"budget for the decompose stage as a Go duration (e.g. 30s); empty = unbounded"`
}

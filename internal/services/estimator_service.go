package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ecostep/backend/internal/ledger"
)

// EstimatorService turns raw activity inputs into (category, amountKg,
// details) tuples. Estimates are plain lookup-table multiplications; the
// resulting amount is trusted input for the ledger.
type EstimatorService struct{}

func NewEstimatorService() *EstimatorService {
	return &EstimatorService{}
}

// transportFactors holds per-mode emission factors in g CO2e per km.
var transportFactors = map[string]float64{
	"Car":      218,
	"Bike":     0,
	"Walking":  0,
	"RER":      9.78,
	"Metro":    4.44,
	"Tramway":  4.28,
	"TGV":      2.93,
	"Scooter":  76.3,
	"Bus":      113,
	"Airplane": 259,
}

// electricityFactor is kg CO2 per kWh (average value).
const electricityFactor = 0.233

// foodFactors holds kg CO2 per serving for recognized food items.
var foodFactors = map[string]float64{
	"beef":       27.0,
	"lamb":       39.2,
	"cheese":     13.5,
	"pork":       12.1,
	"chicken":    6.9,
	"fish":       6.1,
	"eggs":       4.8,
	"rice":       4.0,
	"milk":       1.9,
	"tofu":       2.0,
	"vegetables": 2.0,
	"potatoes":   2.9,
	"bread":      1.3,
	"fruits":     1.1,
	"lentils":    0.9,
	"nuts":       0.3,
}

// Estimate is one estimator result, ready to feed the ledger.
type Estimate struct {
	Category ledger.Category   `json:"category"`
	AmountKg float64           `json:"amount_kg"`
	Details  map[string]string `json:"details"`
}

// TransportModes lists the supported modes in stable order.
func (s *EstimatorService) TransportModes() []string {
	modes := make([]string, 0, len(transportFactors))
	for mode := range transportFactors {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// EstimateTransport estimates a trip's emissions from mode and distance.
func (s *EstimatorService) EstimateTransport(mode string, distanceKm float64) (Estimate, error) {
	factor, ok := transportFactors[mode]
	if !ok {
		return Estimate{}, fmt.Errorf("unknown transport mode %q", mode)
	}
	if distanceKm < 0 {
		return Estimate{}, fmt.Errorf("distance must be non-negative")
	}

	amount := distanceKm * factor / 1000 // g to kg
	return Estimate{
		Category: ledger.Transport,
		AmountKg: amount,
		Details: map[string]string{
			"mode":     mode,
			"distance": fmt.Sprintf("%.1f km", distanceKm),
		},
	}, nil
}

// EstimateEnergy estimates emissions from an electricity reading.
func (s *EstimatorService) EstimateEnergy(consumptionKwh float64) (Estimate, error) {
	if consumptionKwh < 0 {
		return Estimate{}, fmt.Errorf("consumption must be non-negative")
	}

	amount := consumptionKwh * electricityFactor
	return Estimate{
		Category: ledger.Energy,
		AmountKg: amount,
		Details: map[string]string{
			"energyConsumption": fmt.Sprintf("%.1f kWh", consumptionKwh),
			"energySource":      "Electricity",
		},
	}, nil
}

// FoodItem is one recognized food entry with a serving count.
type FoodItem struct {
	Name     string  `json:"name" validate:"required"`
	Servings float64 `json:"servings" validate:"gt=0"`
}

// EstimateFood sums per-serving factors over the recognized items.
// Unrecognized items are skipped, matching the tolerant behavior of the
// food-recognition flow which only records what it can identify.
func (s *EstimatorService) EstimateFood(items []FoodItem) (Estimate, error) {
	if len(items) == 0 {
		return Estimate{}, fmt.Errorf("at least one food item is required")
	}

	var amount float64
	var recognized []string
	for _, item := range items {
		factor, ok := foodFactors[strings.ToLower(strings.TrimSpace(item.Name))]
		if !ok {
			continue
		}
		if item.Servings <= 0 {
			return Estimate{}, fmt.Errorf("servings must be positive for %q", item.Name)
		}
		amount += factor * item.Servings
		recognized = append(recognized, item.Name)
	}

	if len(recognized) == 0 {
		return Estimate{}, fmt.Errorf("no recognized food items")
	}

	return Estimate{
		Category: ledger.Food,
		AmountKg: amount,
		Details: map[string]string{
			"foodItem": strings.Join(recognized, ", "),
		},
	}, nil
}

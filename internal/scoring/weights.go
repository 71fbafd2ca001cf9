package scoring

import "company-verify/internal/signal"

// Fixed and conditional source weights.
const (
	WeightRegistryA = 0.35
	WeightDomain    = 0.20
	WeightTrade     = 0.15
	WeightNews      = 0.05

	WeightRegistryBRegistered   = 0.25
	WeightRegistryBUnregistered = 0.15

	WeightRegulatorListed   = 0.30
	WeightRegulatorUnlisted = 0.10
)

// WeightFor returns the weight of a source given its own record. Registry-B and
// the regulator list weigh more when they report a positive registration.
func WeightFor(source signal.Source, rec signal.Record) float64 {
	switch source {
	case signal.RegistryA:
		return WeightRegistryA
	case signal.RegistryB:
		if rec.Status() == signal.StatusRegistered {
			return WeightRegistryBRegistered
		}
		return WeightRegistryBUnregistered
	case signal.RegulatorList:
		if rec.IsRegistered() {
			return WeightRegulatorListed
		}
		return WeightRegulatorUnlisted
	case signal.TradeHistory:
		return WeightTrade
	case signal.DomainRecord:
		return WeightDomain
	case signal.News:
		return WeightNews
	default:
		return 0
	}
}

// Weights builds the weight map for a collected set of records.
func Weights(records []signal.Record) map[signal.Source]float64 {
	out := make(map[signal.Source]float64, len(records))
	for _, rec := range records {
		out[rec.Source] = WeightFor(rec.Source, rec)
	}
	return out
}

package domain

// Decision is the per-bar verdict of the confluence engine.
type Decision string

// Decision constants.
const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionHold Decision = "HOLD"
	DecisionWait Decision = "WAIT"
)

// GatedAction is a decision after higher-timeframe gating.
// Only these three values reach the simulator.
type GatedAction string

// GatedAction constants.
const (
	ActionBuy  GatedAction = "BUY"
	ActionSell GatedAction = "SELL"
	ActionHold GatedAction = "HOLD"
)

// Direction is the side of a position.
type Direction string

// Direction constants.
const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

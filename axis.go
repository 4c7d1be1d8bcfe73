package mudgo

import "github.com/hupe1980/mudgo/modality"

// Axis selects one of the two data axes. Re-exported from the modality
// package so callers of the container API rarely need both imports.
type Axis = modality.Axis

const (
	// AxisObs is the observation (row) axis.
	AxisObs = modality.AxisObs
	// AxisVar is the variable (column) axis.
	AxisVar = modality.AxisVar
)

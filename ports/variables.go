package ports

// Variable addresses every conforming model must expose through
// GetVariable, and the parameter names the engine writes through
// UpdateParameter. The component/name pairs mirror the internal component
// networks of the IAM families.
const (
	CompEmissions = "emissions"
	VarEmissions  = "E" // global, GtC/yr

	CompClimate      = "climate"
	VarTemperature   = "T"             // global mean warming, degC above preindustrial
	VarDiscontinuity = "DISCONTINUITY" // global, 1 when the damage discontinuity is active

	CompDamages = "damages"
	VarDamages  = "D" // regional, trillion USD/yr

	CompEconomy      = "economy"
	VarConsumptionPC = "CPC" // regional, USD per person per year
	VarPopulation    = "POP" // regional, millions
)

// Engine-written parameters.
const (
	// ParamEmissionsGrowthDelta is a grid-aligned []float64 added to the
	// scenario's emissions growth trajectory; the pulse injector's only
	// write channel.
	ParamEmissionsGrowthDelta = "emissions_growth_delta"

	ParamClimateSensitivity     = "climate_sensitivity"
	ParamDamageCoefficient      = "damage_coeff"
	ParamDiscontinuityThreshold = "discontinuity_threshold"
	ParamDiscontinuityShare     = "discontinuity_share"
	ParamSavingsRate            = "savings_rate"
)

package model

// LandUse is a coarse land-use category derived from the vendor's free-text
// property-type field.
type LandUse string

const (
	LandUseCommercial   LandUse = "commercial"
	LandUseResidential  LandUse = "residential"
	LandUseAgricultural LandUse = "agricultural"
	LandUseVacant       LandUse = "vacant"
	LandUseMixed        LandUse = "mixed"
	LandUseUnknown      LandUse = "unknown"
)

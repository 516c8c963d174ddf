package geo

import (
	"strings"

	"github.com/parcelworks/landscout/internal/domain/model"
)

// landUseKeywords maps categories to keywords matched against the vendor's
// free-text property-type field. Order matters: mixed wins over its parts.
var landUseKeywords = []struct {
	category model.LandUse
	keywords []string
}{
	{model.LandUseMixed, []string{"mixed use", "mixed-use"}},
	{model.LandUseCommercial, []string{"commercial", "retail", "office", "industrial", "warehouse", "store"}},
	{model.LandUseAgricultural, []string{"agricultural", "farm", "ranch", "orchard", "crop", "pasture"}},
	{model.LandUseVacant, []string{"vacant", "unimproved", "undeveloped"}},
	{model.LandUseResidential, []string{"residential", "single family", "multi family", "condo", "duplex", "apartment", "dwelling"}},
}

// ClassifyLandUse maps an enrichment record's free-text land-use field to a
// coarse category. A nil record or unmatched text yields LandUseUnknown.
func ClassifyLandUse(record *model.OwnerRecord) model.LandUse {
	if record == nil {
		return model.LandUseUnknown
	}
	text := strings.ToLower(record.LandUse)
	if strings.TrimSpace(text) == "" {
		return model.LandUseUnknown
	}
	for _, entry := range landUseKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.category
			}
		}
	}
	return model.LandUseUnknown
}

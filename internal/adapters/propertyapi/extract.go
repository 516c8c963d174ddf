package propertyapi

import (
	"encoding/json"
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/parcelworks/landscout/internal/domain/model"
)

// Vendor response field paths. Kept in one place so a vendor payload
// change is a one-line fix.
const (
	pathAddresses    = "results[].address"
	pathValidated    = "result"
	pathOwnerNames   = "parcel.owner.names"
	pathIsCompany    = "parcel.owner.is_company"
	pathMailing      = "parcel.owner.mailing_address"
	pathParcelID     = "parcel.apn"
	pathLandUse      = "parcel.land_use"
	pathLotSizeAcres = "parcel.lot_size_acres"
	pathMarketValue  = "parcel.assessment.market_value"
	pathYearBuilt    = "parcel.structure.year_built"
	pathPropertyAddr = "parcel.situs_address"
)

// extractor pulls typed fields out of decoded vendor payloads. Missing or
// mistyped fields yield zero values rather than errors.
type extractor struct{}

func newExtractor() *extractor {
	return &extractor{}
}

func (e *extractor) addresses(body []byte) ([]model.Address, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, err
	}
	raw, err := jmespath.Search(pathAddresses, doc)
	if err != nil || raw == nil {
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	addresses := make([]model.Address, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		addr := model.Address{
			Street: asString(fields["street"]),
			City:   asString(fields["city"]),
			State:  asString(fields["state"]),
			Zip:    asString(fields["zip"]),
		}
		if !addr.Empty() {
			addresses = append(addresses, addr)
		}
	}
	return addresses, nil
}

func (e *extractor) standardizedAddress(body []byte) (*model.StandardizedAddress, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, err
	}
	raw, err := jmespath.Search(pathValidated, doc)
	if err != nil {
		return nil, err
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("validate response missing result object")
	}
	return &model.StandardizedAddress{
		Address: model.Address{
			Street: asString(fields["street"]),
			City:   asString(fields["city"]),
			State:  asString(fields["state"]),
			Zip:    asString(fields["zip"]),
		},
		Location: model.Coordinate{
			Lat: asFloat(fields["lat"]),
			Lng: asFloat(fields["lng"]),
		},
	}, nil
}

func (e *extractor) ownerRecord(body []byte) *model.OwnerRecord {
	record := &model.OwnerRecord{}
	doc, err := decode(body)
	if err != nil {
		return record
	}
	record.OwnerNames = e.stringSlice(doc, pathOwnerNames)
	record.IsCompany = e.boolAt(doc, pathIsCompany)
	record.MailingAddress = e.addressAt(doc, pathMailing)
	record.PropertyAddress = e.addressAt(doc, pathPropertyAddr)
	record.ParcelID = e.stringAt(doc, pathParcelID)
	record.LandUse = e.stringAt(doc, pathLandUse)
	record.LotSizeAcres = e.floatAt(doc, pathLotSizeAcres)
	record.MarketValue = e.floatAt(doc, pathMarketValue)
	record.YearBuilt = int(e.floatAt(doc, pathYearBuilt))
	return record
}

func (e *extractor) stringAt(doc any, expr string) string {
	raw, err := jmespath.Search(expr, doc)
	if err != nil {
		return ""
	}
	return asString(raw)
}

func (e *extractor) floatAt(doc any, expr string) float64 {
	raw, err := jmespath.Search(expr, doc)
	if err != nil {
		return 0
	}
	return asFloat(raw)
}

func (e *extractor) boolAt(doc any, expr string) bool {
	raw, err := jmespath.Search(expr, doc)
	if err != nil {
		return false
	}
	b, _ := raw.(bool)
	return b
}

func (e *extractor) stringSlice(doc any, expr string) []string {
	raw, err := jmespath.Search(expr, doc)
	if err != nil || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (e *extractor) addressAt(doc any, expr string) model.Address {
	raw, err := jmespath.Search(expr, doc)
	if err != nil {
		return model.Address{}
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return model.Address{}
	}
	return model.Address{
		Street: asString(fields["street"]),
		City:   asString(fields["city"]),
		State:  asString(fields["state"]),
		Zip:    asString(fields["zip"]),
	}
}

func decode(body []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode vendor payload: %w", err)
	}
	return doc, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

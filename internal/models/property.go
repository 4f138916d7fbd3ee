package models

// PropertyRecord holds the listing facts captured by the editor. Values are
// kept exactly as entered; the composer decides how to present them.
type PropertyRecord struct {
	Address      string `json:"address" yaml:"address"`
	PostalCode   string `json:"postal_code" yaml:"postal_code"`
	PropertyType string `json:"property_type" yaml:"property_type"`
	Bedrooms     string `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms    string `json:"bathrooms" yaml:"bathrooms"`
	SizeSqm      string `json:"size_sqm" yaml:"size_sqm"`
	AskingPrice  string `json:"asking_price" yaml:"asking_price"`
	DaysOnMarket string `json:"days_on_market" yaml:"days_on_market"`
	KeyFeatures  string `json:"key_features" yaml:"key_features"` // newline delimited
	Description  string `json:"description" yaml:"description"`
}

// InvestmentInputs are the raw financial fields. They are normalized only
// when metrics are computed.
type InvestmentInputs struct {
	PurchasePrice  string `json:"purchase_price" yaml:"purchase_price"`
	DepositPercent string `json:"deposit_percent" yaml:"deposit_percent"`
	MonthlyRent    string `json:"monthly_rent" yaml:"monthly_rent"`
	MortgageRate   string `json:"mortgage_rate" yaml:"mortgage_rate"`
	CouncilTax     string `json:"council_tax" yaml:"council_tax"`
	Repairs        string `json:"repairs_maintenance" yaml:"repairs_maintenance"`
	Utilities      string `json:"utilities" yaml:"utilities"`
	Water          string `json:"water" yaml:"water"`
	BroadbandTV    string `json:"broadband_tv" yaml:"broadband_tv"`
	Insurance      string `json:"insurance" yaml:"insurance"`
	StampDuty      string `json:"stamp_duty" yaml:"stamp_duty"`
	Survey         string `json:"survey_cost" yaml:"survey_cost"`
	LegalFees      string `json:"legal_fees" yaml:"legal_fees"`
	LoanSetup      string `json:"loan_setup" yaml:"loan_setup"`
}

// EPCRecord carries the energy certificate and broadband details.
//
// CurrentRating and PotentialRating are mapped literally from the input
// fields, even when the "current" value is the higher of the two.
type EPCRecord struct {
	Grade              string `json:"epc_grade" yaml:"epc_grade"`
	CurrentRating      string `json:"current_rating" yaml:"current_rating"`
	PotentialRating    string `json:"potential_rating" yaml:"potential_rating"`
	InspectionDate     string `json:"inspection_date" yaml:"inspection_date"`
	WindowGlazing      string `json:"window_glazing" yaml:"window_glazing"`
	BuildingAge        string `json:"building_age" yaml:"building_age"`
	BroadbandAvailable string `json:"broadband_available" yaml:"broadband_available"`
	DownloadSpeed      string `json:"download_speed" yaml:"download_speed"`
	UploadSpeed        string `json:"upload_speed" yaml:"upload_speed"`
}

// LocationRecord describes how the property relates to its city. It may be
// typed in by hand or filled from the location lookup.
type LocationRecord struct {
	City                string `json:"city" yaml:"city"`
	Population          string `json:"population" yaml:"population"`
	DistanceCityCentre  string `json:"distance_city_centre" yaml:"distance_city_centre"`
	TimeByCar           string `json:"time_car" yaml:"time_car"`
	TimePublicTransport string `json:"time_public_transport" yaml:"time_public_transport"`
	WalkToStation       string `json:"walk_to_station" yaml:"walk_to_station"`
	StationDistance     string `json:"station_distance" yaml:"station_distance"`
	BusRoutes           string `json:"bus_routes" yaml:"bus_routes"`
	BusFrequency        string `json:"bus_frequency" yaml:"bus_frequency"`
	AboutCity           string `json:"about_city" yaml:"about_city"`
}

// ReportInput is the immutable snapshot handed to the generator: the four
// field records plus the image sections (section tag -> ordered paths).
type ReportInput struct {
	Property   PropertyRecord      `json:"property" yaml:"property"`
	Investment InvestmentInputs    `json:"investment" yaml:"investment"`
	EPC        EPCRecord           `json:"epc" yaml:"epc"`
	Location   LocationRecord      `json:"location" yaml:"location"`
	Images     map[string][]string `json:"images" yaml:"images"`
	ImageDir   string              `json:"image_dir,omitempty" yaml:"image_dir,omitempty"`
}

package service

import (
	"strings"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Destination is a bookable city with its baseline return-flight cost
type Destination struct {
	City      string          `json:"city"`
	Country   string          `json:"country"`
	Code      string          `json:"code"`
	Continent string          `json:"continent"`
	BaseCost  decimal.Decimal `json:"baseCost"`
	Popular   bool            `json:"popular,omitempty"`
}

// Label is the "City, Country" form used to refer to a destination
func (d Destination) Label() string {
	return d.City + ", " + d.Country
}

// EstimateInput describes a planned trip
type EstimateInput struct {
	From          string               `json:"from"`
	To            string               `json:"to"`
	StarRating    string               `json:"starRating"`
	Transport     string               `json:"transport"`
	FlightDetails domain.FlightDetails `json:"flightDetails"`
}

// CostBreakdown itemises an estimate. Total is rounded to a whole amount.
type CostBreakdown struct {
	Destination   *Destination    `json:"destination,omitempty"`
	Flights       decimal.Decimal `json:"flights"`
	Accommodation decimal.Decimal `json:"accommodation"`
	Transport     decimal.Decimal `json:"transport"`
	Misc          decimal.Decimal `json:"misc"`
	Total         decimal.Decimal `json:"total"`
}

var (
	childFareFactor   = decimal.RequireFromString("0.75")
	infantFareFactor  = decimal.RequireFromString("0.1")
	accommodationBase = decimal.RequireFromString("0.4")
	miscPerPerson     = decimal.NewFromInt(200)
	infantMiscFactor  = decimal.RequireFromString("0.5")
)

// CostEstimator prices a plan from a destination catalog
type CostEstimator struct {
	destinations []Destination
	byLabel      map[string]Destination
}

// NewCostEstimator creates an estimator over the built-in destination catalog
func NewCostEstimator() *CostEstimator {
	return NewCostEstimatorWithCatalog(defaultDestinations())
}

// NewCostEstimatorWithCatalog creates an estimator over a custom catalog
func NewCostEstimatorWithCatalog(destinations []Destination) *CostEstimator {
	byLabel := make(map[string]Destination, len(destinations))
	for _, d := range destinations {
		byLabel[d.Label()] = d
	}
	return &CostEstimator{destinations: destinations, byLabel: byLabel}
}

// Destinations returns the catalog, optionally filtered by continent
func (e *CostEstimator) Destinations(continent string) []Destination {
	out := make([]Destination, 0, len(e.destinations))
	for _, d := range e.destinations {
		if continent == "" || strings.EqualFold(continent, "all") || strings.EqualFold(d.Continent, continent) {
			out = append(out, d)
		}
	}
	return out
}

// Estimate prices flights, accommodation, local transport and daily spending.
// Unknown destinations fall back to domain.DefaultEstimatedCost.
func (e *CostEstimator) Estimate(input EstimateInput) CostBreakdown {
	dest, ok := e.byLabel[strings.TrimSpace(input.To)]
	if !ok {
		return CostBreakdown{
			Flights:       decimal.Zero,
			Accommodation: decimal.Zero,
			Transport:     decimal.Zero,
			Misc:          decimal.Zero,
			Total:         domain.DefaultEstimatedCost,
		}
	}

	fd := input.FlightDetails
	adults := decimal.NewFromInt(int64(fd.Adults))
	children := decimal.NewFromInt(int64(fd.Children))
	infants := decimal.NewFromInt(int64(fd.Infants))

	fare := dest.BaseCost.Mul(originFactor(input.From)).Mul(cabinFactor(fd.CabinClass))
	flights := fare.Mul(adults).
		Add(fare.Mul(children).Mul(childFareFactor)).
		Add(fare.Mul(infants).Mul(infantFareFactor))

	rooms := decimal.NewFromInt(int64((fd.Adults + fd.Children + 1) / 2))
	accommodation := dest.BaseCost.Mul(accommodationBase).Mul(starFactor(input.StarRating)).Mul(rooms)

	transport := transportCost(input.Transport)
	misc := miscPerPerson.Mul(adults.Add(children).Add(infants.Mul(infantMiscFactor)))

	return CostBreakdown{
		Destination:   &dest,
		Flights:       flights,
		Accommodation: accommodation,
		Transport:     transport,
		Misc:          misc,
		Total:         flights.Add(accommodation).Add(transport).Add(misc).Round(0),
	}
}

// originFactor prices departures relative to London
func originFactor(from string) decimal.Decimal {
	origin := strings.SplitN(from, " (", 2)[0]
	switch {
	case strings.Contains(origin, "Manchester"), strings.Contains(origin, "Birmingham"):
		return decimal.RequireFromString("0.95")
	case strings.Contains(origin, "Glasgow"), strings.Contains(origin, "Edinburgh"):
		return decimal.RequireFromString("0.9")
	case strings.Contains(origin, "Liverpool"), strings.Contains(origin, "Bristol"):
		return decimal.RequireFromString("0.92")
	case strings.Contains(origin, "London"):
		return decimal.NewFromInt(1)
	default:
		return decimal.RequireFromString("1.1")
	}
}

func cabinFactor(cabin string) decimal.Decimal {
	switch cabin {
	case "premium-economy":
		return decimal.RequireFromString("1.5")
	case "business":
		return decimal.NewFromInt(3)
	case "first":
		return decimal.NewFromInt(5)
	default:
		return decimal.NewFromInt(1)
	}
}

func starFactor(rating string) decimal.Decimal {
	switch rating {
	case "3-star":
		return decimal.RequireFromString("0.6")
	case "4-star":
		return decimal.RequireFromString("0.8")
	case "5-star":
		return decimal.RequireFromString("1.2")
	default:
		return decimal.NewFromInt(1)
	}
}

func transportCost(transport string) decimal.Decimal {
	switch transport {
	case "Taxi":
		return decimal.NewFromInt(300)
	case "Public Transport":
		return decimal.NewFromInt(100)
	case "Rental Car":
		return decimal.NewFromInt(400)
	default:
		return decimal.NewFromInt(500)
	}
}

func dest(city, country, code, continent string, baseCost int64, popular bool) Destination {
	return Destination{
		City:      city,
		Country:   country,
		Code:      code,
		Continent: continent,
		BaseCost:  decimal.NewFromInt(baseCost),
		Popular:   popular,
	}
}

func defaultDestinations() []Destination {
	return []Destination{
		dest("London", "United Kingdom", "LHR", "Europe", 1500, true),
		dest("Paris", "France", "CDG", "Europe", 2800, true),
		dest("Rome", "Italy", "FCO", "Europe", 2400, true),
		dest("Madrid", "Spain", "MAD", "Europe", 2200, false),
		dest("Barcelona", "Spain", "BCN", "Europe", 2300, false),
		dest("Berlin", "Germany", "BER", "Europe", 2100, false),
		dest("Amsterdam", "Netherlands", "AMS", "Europe", 1800, false),
		dest("Zurich", "Switzerland", "ZUR", "Europe", 3200, false),
		dest("Vienna", "Austria", "VIE", "Europe", 2600, false),
		dest("Athens", "Greece", "ATH", "Europe", 2200, true),
		dest("Lisbon", "Portugal", "LIS", "Europe", 2000, false),
		dest("Prague", "Czech Republic", "PRG", "Europe", 1900, false),
		dest("Warsaw", "Poland", "WAW", "Europe", 1700, false),
		dest("Stockholm", "Sweden", "ARN", "Europe", 2500, false),
		dest("Oslo", "Norway", "OSL", "Europe", 3000, false),
		dest("Copenhagen", "Denmark", "CPH", "Europe", 2700, false),
		dest("Reykjavik", "Iceland", "KEF", "Europe", 2800, false),

		dest("Tokyo", "Japan", "NRT", "Asia", 4200, true),
		dest("Osaka", "Japan", "KIX", "Asia", 4000, false),
		dest("Beijing", "China", "PEK", "Asia", 3500, false),
		dest("Shanghai", "China", "PVG", "Asia", 3600, false),
		dest("Seoul", "South Korea", "ICN", "Asia", 3800, false),
		dest("Bangkok", "Thailand", "BKK", "Asia", 2600, true),
		dest("Singapore", "Singapore", "SIN", "Asia", 3800, true),
		dest("Kuala Lumpur", "Malaysia", "KUL", "Asia", 2800, false),
		dest("Jakarta", "Indonesia", "CGK", "Asia", 2700, false),
		dest("Bali", "Indonesia", "DPS", "Asia", 2900, true),
		dest("Manila", "Philippines", "MNL", "Asia", 2800, false),
		dest("Ho Chi Minh City", "Vietnam", "SGN", "Asia", 2500, false),
		dest("Mumbai", "India", "BOM", "Asia", 2400, false),
		dest("Delhi", "India", "DEL", "Asia", 2300, false),
		dest("Dubai", "UAE", "DXB", "Asia", 4500, true),
		dest("Abu Dhabi", "UAE", "AUH", "Asia", 4200, false),
		dest("Doha", "Qatar", "DOH", "Asia", 4000, false),
		dest("Istanbul", "Turkey", "IST", "Asia", 2800, false),
		dest("Tel Aviv", "Israel", "TLV", "Asia", 3200, false),

		dest("New York", "United States", "JFK", "North America", 3200, true),
		dest("Los Angeles", "United States", "LAX", "North America", 3400, true),
		dest("Chicago", "United States", "ORD", "North America", 3100, false),
		dest("Miami", "United States", "MIA", "North America", 3300, false),
		dest("San Francisco", "United States", "SFO", "North America", 3500, false),
		dest("Las Vegas", "United States", "LAS", "North America", 3200, false),
		dest("Toronto", "Canada", "YYZ", "North America", 2800, false),
		dest("Vancouver", "Canada", "YVR", "North America", 3000, false),
		dest("Mexico City", "Mexico", "MEX", "North America", 2800, false),
		dest("Cancún", "Mexico", "CUN", "North America", 2900, true),

		dest("São Paulo", "Brazil", "GRU", "South America", 3800, false),
		dest("Rio de Janeiro", "Brazil", "GIG", "South America", 3900, true),
		dest("Buenos Aires", "Argentina", "EZE", "South America", 3600, false),
		dest("Santiago", "Chile", "SCL", "South America", 3700, false),
		dest("Lima", "Peru", "LIM", "South America", 3400, false),
		dest("Bogotá", "Colombia", "BOG", "South America", 3200, false),

		dest("Cape Town", "South Africa", "CPT", "Africa", 4200, true),
		dest("Johannesburg", "South Africa", "JNB", "Africa", 4000, false),
		dest("Cairo", "Egypt", "CAI", "Africa", 3200, false),
		dest("Marrakech", "Morocco", "RAK", "Africa", 2800, true),
		dest("Casablanca", "Morocco", "CMN", "Africa", 2700, false),
		dest("Nairobi", "Kenya", "NBO", "Africa", 3600, false),
		dest("Dar es Salaam", "Tanzania", "DAR", "Africa", 3700, false),

		dest("Sydney", "Australia", "SYD", "Oceania", 5200, true),
		dest("Melbourne", "Australia", "MEL", "Oceania", 5100, false),
		dest("Brisbane", "Australia", "BNE", "Oceania", 5000, false),
		dest("Auckland", "New Zealand", "AKL", "Oceania", 4800, false),
		dest("Nadi", "Fiji", "NAN", "Oceania", 4500, false),

		dest("Malé", "Maldives", "MLE", "Asia", 6000, true),
		dest("Victoria", "Seychelles", "SEZ", "Africa", 5500, false),
		dest("Port Louis", "Mauritius", "MRU", "Africa", 4800, false),
		dest("Nassau", "Bahamas", "NAS", "North America", 3500, false),
		dest("Bridgetown", "Barbados", "BGI", "North America", 3600, false),
	}
}

package model

// Column names shared across the whole pipeline. The persisted output schema is
// a contract with the dashboard layer: renaming any of these is a breaking
// change for downstream consumers.

// Fields in the CSSE case/death dataset.
const (
	CountryRegion = "Country/Region"
	Confirmed     = "Confirmed"
	Deaths        = "Deaths"
	Recovered     = "Recovered"
)

// Fields in the vaccinations dataset.
const (
	TotalVaccinations   = "Doses"
	DailyVaccinations   = "daily_vaccinations"
	FullyVaccinated     = "People_fully_vaccinated"
	PartiallyVaccinated = "People_partially_vaccinated"
)

// Fields in the variants dataset.
const (
	Variant                 = "variant"
	Lineage                 = "lineage"
	NumberDetectionsVariant = "number_detections_variant"
	PercentVariant          = "percent_variant"
)

// Fields in the testing dataset.
const (
	DailyTests   = "DailyTests"
	TotalTests   = "TotalTests"
	PositiveRate = "PositiveRate"
)

// Custom fields added by the pipeline, not present in any source.
const (
	DateRecorded         = "DateRecorded"
	Week                 = "Week"
	NewCases             = "NewCases"
	NewDeaths            = "NewDeaths"
	Population           = "Population"
	Unvaccinated         = "Unvaccinated"
	CasesPerThousand     = "CasesPerThousand"
	DeathsPerThousand    = "DeathsPerThousand"
	PercentageVaccinated = "PercentageVaccinated"
)

// VaccineFields is the projection of the vaccinations dataset kept after
// pre-processing.
var VaccineFields = []string{CountryRegion, DateRecorded, TotalVaccinations,
	FullyVaccinated, PartiallyVaccinated}

// VariantFields is the projection of the variants dataset kept after
// pre-processing.
var VariantFields = []string{CountryRegion, DateRecorded, Lineage,
	NumberDetectionsVariant, PercentVariant}

// TestingFields is the projection of the testing dataset kept after
// pre-processing.
var TestingFields = []string{CountryRegion, DateRecorded, DailyTests,
	TotalTests, PositiveRate}

// PrimaryFields are the columns of the melted CSSE time series.
var PrimaryFields = []string{CountryRegion, DateRecorded, Confirmed, Deaths,
	Recovered}

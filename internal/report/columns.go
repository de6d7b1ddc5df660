package report

import (
	"github.com/shopspring/decimal"

	"waste_tracker/internal/models"
)

const exportDateLayout = "02/01/2006"

// Column is one exported field. Number, when set, gives spreadsheets a
// numeric cell instead of text.
type Column struct {
	Header string
	Text   func(m *models.Mission) string
	Number func(m *models.Mission) decimal.Decimal
}

var (
	colOrderNumber = Column{Header: "Order number", Text: func(m *models.Mission) string { return m.OrderNumber }}
	colMissionDate = Column{Header: "Mission date", Text: func(m *models.Mission) string { return m.MissionDate.Format(exportDateLayout) }}
	colMaterial    = Column{Header: "Material", Text: materialName}
	colComment     = Column{Header: "Comment", Text: func(m *models.Mission) string { return m.DriverComment }}

	colEmpty = Column{
		Header: "Empty weight (kg)",
		Text:   func(m *models.Mission) string { return m.EmptyWeightKg.String() },
		Number: func(m *models.Mission) decimal.Decimal { return m.EmptyWeightKg },
	}

	colLoaded = Column{
		Header: "Loaded weight (kg)",
		Text:   func(m *models.Mission) string { return m.LoadedWeightKg.String() },
		Number: func(m *models.Mission) decimal.Decimal { return m.LoadedWeightKg },
	}

	colNet = Column{
		Header: "Net weight (t)",
		Text:   func(m *models.Mission) string { return m.NetWeightTons.StringFixed(2) },
		Number: func(m *models.Mission) decimal.Decimal { return m.NetWeightTons.Round(2) },
	}
)

// ClientColumns is the export offered on the tracking portal.
var ClientColumns = []Column{
	colOrderNumber,
	{Header: "Client reference", Text: func(m *models.Mission) string { return m.ClientMissionID }},
	colMissionDate,
	{Header: "Request date", Text: func(m *models.Mission) string {
		if m.ClientRequestDate == nil {
			return ""
		}
		return m.ClientRequestDate.Format(exportDateLayout)
	}},
	{Header: "Collection site", Text: func(m *models.Mission) string {
		if m.CollectionSite == nil {
			return ""
		}
		return m.CollectionSite.Name
	}},
	{Header: "Collection address", Text: func(m *models.Mission) string {
		if m.CollectionSite == nil {
			return ""
		}
		return m.CollectionSite.Address
	}},
	{Header: "Deposit site", Text: func(m *models.Mission) string {
		if m.DepositSite == nil {
			return ""
		}
		return m.DepositSite.Name
	}},
	{Header: "Deposit address", Text: func(m *models.Mission) string {
		if m.DepositSite == nil {
			return ""
		}
		return m.DepositSite.Address
	}},
	colMaterial,
	colEmpty,
	colLoaded,
	colNet,
	colComment,
}

// AccountingColumns is the admin export.
var AccountingColumns = []Column{
	colOrderNumber,
	colMissionDate,
	{Header: "Client", Text: clientName},
	{Header: "Driver", Text: driverName},
	{Header: "Collection site", Text: func(m *models.Mission) string {
		if m.CollectionSite == nil {
			return ""
		}
		return m.CollectionSite.Name
	}},
	{Header: "Deposit site", Text: func(m *models.Mission) string {
		if m.DepositSite == nil {
			return ""
		}
		return m.DepositSite.Name
	}},
	{Header: "Vehicle", Text: func(m *models.Mission) string {
		if m.Vehicle == nil {
			return ""
		}
		return m.Vehicle.LicensePlate
	}},
	colMaterial,
	colEmpty,
	colLoaded,
	colNet,
	colComment,
	{Header: "Status", Text: func(m *models.Mission) string { return StatusLabel(m.Status) }},
}

func StatusLabel(s models.MissionStatus) string {
	switch s {
	case models.MissionDraft:
		return "Draft"
	case models.MissionCompleted:
		return "Completed"
	case models.MissionValidated:
		return "Validated"
	}
	return string(s)
}

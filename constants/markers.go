package constants

// Markers searched in accent-folded, lowercased document lines.
const (
	MarkerDriverName      = "motorista:"
	MarkerBonusSection    = "remuneracoes diarias"
	MarkerBonusSectionEnd = "coletas/entregas"
	MarkerDelivered       = "sim"
	MarkerFailed          = "nao"
)

// BonusAmountLiteral is the amount that confirms a paid daily bonus inside the bonus section.
const BonusAmountLiteral = "30,00"

// DateLayout is the day/month/year layout used by the documents and the output.
const DateLayout = "02/01/2006"

// TotalLabel marks the trailing aggregate row of a settlement.
const TotalLabel = "Total"

// NotAvailable is the vehicle type used when the roster has none.
const NotAvailable = "N/A"

// Roster header aliases, matched against trimmed lowercase headers in this order.
var (
	RosterNameColumns = []string{"nome do motorista", "motorista", "nome"}
	RosterRateColumns = []string{"diária combinada", "diaria combinada", "diaria"}
)

// RosterTypeColumnHint selects the vehicle-type column: the first header containing it.
const RosterTypeColumnHint = "tipo"

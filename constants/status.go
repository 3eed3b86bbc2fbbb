package constants

// DocumentStatus labels the outcome of loading one delivery-run document.
type DocumentStatus string

// Stable values (used as metric labels and archived with each run).
const (
	DocumentStatusRead       DocumentStatus = "READ"
	DocumentStatusUnreadable DocumentStatus = "UNREADABLE"
)

// DriverStatus labels the outcome of settling one driver group.
type DriverStatus string

const (
	DriverStatusSettled   DriverStatus = "SETTLED"
	DriverStatusUnmatched DriverStatus = "UNMATCHED" // name not found in the roster
	DriverStatusNameless  DriverStatus = "NAMELESS"  // no document in the group carried a name
)

package database

const (
	SortNameNat   = "name_nat"
	SortNameAsc   = "name_asc"
	SortJoinedAsc = "joined_asc"
)

const DefaultMemberSortOrder = SortNameNat

// IsValidMemberSortOrder checks if a string is a valid roster sort order constant
func IsValidMemberSortOrder(order string) bool {
	switch order {
	case SortNameNat, SortNameAsc, SortJoinedAsc:
		return true
	default:
		return false
	}
}

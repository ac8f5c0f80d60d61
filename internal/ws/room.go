package ws

import "strconv"

// RoomKey identifies a fan-out scope. Company and group rooms never
// collide by construction.
type RoomKey string

// CompanyRoom keys the room for a company-scoped chat.
func CompanyRoom(companyID int) RoomKey {
	return RoomKey("company_" + strconv.Itoa(companyID))
}

// GroupRoom keys the room for a group-scoped chat.
func GroupRoom(groupID int) RoomKey {
	return RoomKey("group_" + strconv.Itoa(groupID))
}

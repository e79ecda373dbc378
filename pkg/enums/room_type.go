package enums

import "fmt"

// RoomType categorizes a house listing.
type RoomType string

const (
	RoomTypeSingle    RoomType = "single"
	RoomTypeDouble    RoomType = "double"
	RoomTypeApartment RoomType = "apartment"
)

var validRoomTypes = []RoomType{
	RoomTypeSingle,
	RoomTypeDouble,
	RoomTypeApartment,
}

// String implements fmt.Stringer.
func (r RoomType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RoomType.
func (r RoomType) IsValid() bool {
	for _, candidate := range validRoomTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRoomType converts raw input into a RoomType.
func ParseRoomType(value string) (RoomType, error) {
	for _, candidate := range validRoomTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid room type %q", value)
}

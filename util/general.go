package util

import "fmt"

func GetRoomKey(room string) string {
	return fmt.Sprintf("room:%v", room)
}

// GetResultsKey is the redis list holding the archived results of a room.
func GetResultsKey(room string) string {
	return fmt.Sprintf("%v:results", GetRoomKey(room))
}

package entity

import "time"

// Follow is a directed edge of the follow graph, identified by the pair.
// Every account follows itself from creation on.
type Follow struct {
	FollowerID int64
	FollowedID int64
	Timestamp  time.Time
}

// FollowEntry is a listing row: the user on the other end of an edge.
type FollowEntry struct {
	User      *User
	Timestamp time.Time
}

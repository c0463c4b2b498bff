package sessions

// participantPayload is one connected user in the roster
type participantPayload struct {
	UserID   int64  `json:"user_id" example:"42"`
	Username string `json:"username" example:"Ada Lovelace"`
	Role     string `json:"role" example:"host" enum:"host,participant"`
}

// presenceResponse is the current roster of a session room
type presenceResponse struct {
	RoomCode     string               `json:"room_code" example:"a3f9c2"`
	Participants []participantPayload `json:"participants"`
	Count        int                  `json:"count" example:"2"`
}

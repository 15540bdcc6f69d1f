package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateVoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	VoteType    string `json:"vote_type"`
	AllowProxy  bool   `json:"allow_proxy"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type CastBallotRequest struct {
	Choice  string `json:"choice"`
	CastFor string `json:"cast_for,omitempty"`
}

type TallyResponse struct {
	YesVotes          int `json:"yes_votes"`
	NoVotes           int `json:"no_votes"`
	AbstainVotes      int `json:"abstain_votes"`
	TotalVotesCast    int `json:"total_votes_cast"`
	TotalEligible     int `json:"total_eligible_voters"`
	YesPercentage     int `json:"yes_percentage"`
	NoPercentage      int `json:"no_percentage"`
	AbstainPercentage int `json:"abstain_percentage"`
	TurnoutPercentage int `json:"turnout_percentage"`
}

type VoteResponse struct {
	VoteID      string        `json:"vote_id"`
	GroupID     string        `json:"group_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	VoteType    string        `json:"vote_type"`
	AllowProxy  bool          `json:"allow_proxy"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	Status      string        `json:"status"`
	Outcome     string        `json:"outcome,omitempty"`
	Tally       TallyResponse `json:"tally"`
	CreatedBy   string        `json:"created_by"`
	CreatedAt   string        `json:"created_at"`
	ClosedAt    string        `json:"closed_at,omitempty"`
	Replayed    bool          `json:"replayed"`
}

type VoteListResponse struct {
	Items  []VoteResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type BallotResponse struct {
	BallotID string `json:"ballot_id"`
	VoteID   string `json:"vote_id"`
	CastBy   string `json:"cast_by"`
	CastFor  string `json:"cast_for"`
	Choice   string `json:"choice"`
	Proxy    bool   `json:"proxy"`
	CastAt   string `json:"cast_at"`
}

type CastBallotResponse struct {
	Ballot   BallotResponse `json:"ballot"`
	Tally    TallyResponse  `json:"tally"`
	Replayed bool           `json:"replayed"`
}

type BallotListResponse struct {
	VoteID string           `json:"vote_id"`
	Items  []BallotResponse `json:"items"`
}

package balldontlie

type statsResponse struct {
	Data []statResponse `json:"data"`
	Meta metaResponse   `json:"meta"`
}

type statResponse struct {
	ID        int            `json:"id"`
	Min       string         `json:"min"`
	FGM       int            `json:"fgm"`
	FGA       int            `json:"fga"`
	FGPct     float64        `json:"fg_pct"`
	FG3M      int            `json:"fg3m"`
	FG3A      int            `json:"fg3a"`
	FG3Pct    float64        `json:"fg3_pct"`
	FTM       int            `json:"ftm"`
	FTA       int            `json:"fta"`
	FTPct     float64        `json:"ft_pct"`
	OReb      int            `json:"oreb"`
	DReb      int            `json:"dreb"`
	Reb       int            `json:"reb"`
	Ast       int            `json:"ast"`
	Stl       int            `json:"stl"`
	Blk       int            `json:"blk"`
	Turnover  int            `json:"turnover"`
	PF        int            `json:"pf"`
	Pts       int            `json:"pts"`
	PlusMinus *int           `json:"plus_minus"`
	Player    playerResponse `json:"player"`
	Team      teamResponse   `json:"team"`
	Game      gameResponse   `json:"game"`
}

type playerResponse struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
}

type teamResponse struct {
	ID           int    `json:"id"`
	Abbreviation string `json:"abbreviation"`
	Conference   string `json:"conference"`
	FullName     string `json:"full_name"`
}

type gameResponse struct {
	ID     int    `json:"id"`
	Date   string `json:"date"`
	Season int    `json:"season"`
}

type metaResponse struct {
	NextCursor *int `json:"next_cursor"`
	PerPage    int  `json:"per_page"`
}

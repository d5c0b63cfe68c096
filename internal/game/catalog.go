package game

// Card is one immutable catalog entry. Rooms share the catalog by
// reference and never copy or mutate it.
type Card struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Cost      int    `json:"cost"`
	Power     int    `json:"power"`
	Toughness int    `json:"toughness"`
}

// CardDB is the fixed playable catalog. Index == ID.
var CardDB = []Card{
	{ID: 0, Name: "Follower A", Cost: 2, Power: 3, Toughness: 2},
	{ID: 1, Name: "Follower B", Cost: 3, Power: 4, Toughness: 3},
	{ID: 2, Name: "Follower C", Cost: 1, Power: 1, Toughness: 1},
	{ID: 3, Name: "Follower D", Cost: 4, Power: 5, Toughness: 4},
	{ID: 4, Name: "Follower E", Cost: 2, Power: 2, Toughness: 3},
}

func cardByID(id int) (Card, bool) {
	if id < 0 || id >= len(CardDB) {
		return Card{}, false
	}
	return CardDB[id], true
}

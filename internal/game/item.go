package game

type Tag struct {
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
}

// LevelPackage is a converted level together with its downloaded assets.
type LevelPackage struct {
	Name        string `json:"name"`
	Rating      int    `json:"rating"`
	Title       string `json:"title"`
	Artists     string `json:"artists"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
	Tags        []Tag  `json:"tags"`
	Cover       []byte `json:"-"`
	Bgm         []byte `json:"-"`
	Preview     []byte `json:"-"`
	Data        *Level `json:"data"`
}
